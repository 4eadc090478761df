package appearance

import "strings"

// TransientScheme prefixes object URLs that only live inside one browser tab.
const TransientScheme = "blob:"

// IsTransientURL reports whether url points at a transient object URL.
func IsTransientURL(url string) bool {
	return strings.HasPrefix(strings.TrimSpace(url), TransientScheme)
}

// Sanitize returns a copy of cfg with every transient image reference cleared.
// For logo, favicon and hero background the url is emptied and the paired id
// dropped; an id left without a url is dropped too. Carousel entries with a
// transient url are removed.
// Args:
//   cfg: Document from any origin.
// Returns:
//   Config: Document safe to persist.
func Sanitize(cfg Config) Config {
	out := cfg.Clone()

	clearTransientRef(&out.Branding.LogoURL, &out.Branding.LogoID)
	clearTransientRef(&out.Branding.FaviconURL, &out.Branding.FaviconID)
	clearTransientRef(&out.Hero.BackgroundImage, &out.Hero.BackgroundImageID)

	if out.Carousel.Images != nil {
		kept := make([]CarouselImage, 0, len(out.Carousel.Images))
		for _, image := range out.Carousel.Images {
			if IsTransientURL(image.URL) {
				continue
			}
			kept = append(kept, image)
		}
		out.Carousel.Images = kept
	}

	return out
}

func clearTransientRef(url *string, id **int64) {
	if IsTransientURL(*url) {
		*url = ""
	}
	if strings.TrimSpace(*url) == "" {
		*url = ""
		*id = nil
	}
}
