package appearance

// Clone returns a deep copy of the document. Nil slices and maps stay nil.
func (c Config) Clone() Config {
	out := c
	out.Branding.LogoID = cloneID(c.Branding.LogoID)
	out.Branding.FaviconID = cloneID(c.Branding.FaviconID)
	out.Hero.BackgroundImageID = cloneID(c.Hero.BackgroundImageID)

	if c.Carousel.Images != nil {
		out.Carousel.Images = make([]CarouselImage, len(c.Carousel.Images))
		copy(out.Carousel.Images, c.Carousel.Images)
	}

	if c.Features.Features != nil {
		out.Features.Features = make(map[string]Feature, len(c.Features.Features))
		for key, feature := range c.Features.Features {
			out.Features.Features[key] = feature
		}
	}

	if c.Pricing.Plans != nil {
		out.Pricing.Plans = make([]PricingPlan, len(c.Pricing.Plans))
		for i, plan := range c.Pricing.Plans {
			if plan.Features != nil {
				features := make([]PlanFeature, len(plan.Features))
				copy(features, plan.Features)
				plan.Features = features
			}
			out.Pricing.Plans[i] = plan
		}
	}

	if c.Pricing.FAQs != nil {
		out.Pricing.FAQs = make([]FAQ, len(c.Pricing.FAQs))
		copy(out.Pricing.FAQs, c.Pricing.FAQs)
	}

	return out
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
