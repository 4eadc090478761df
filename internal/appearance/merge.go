package appearance

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var ErrUnknownSection = errors.New("unknown appearance section")

// Partial is a document where only some top-level keys are present.
type Partial map[Section]json.RawMessage

// MergeDefaults merges a partial document onto the defaults, one level deep per
// top-level key. A section that fails to decode keeps its default value.
// Args:
//   partial: Top-level keys to apply. May be nil.
// Returns:
//   Config: Complete document.
func MergeDefaults(partial Partial) Config {
	cfg := Default()
	for _, section := range Sections {
		raw, ok := partial[section]
		if !ok {
			continue
		}
		_ = cfg.ApplySection(section, raw)
	}
	return cfg
}

// ParseDocument decodes a stored or transmitted document and merges it with defaults.
// Args:
//   raw: JSON document, possibly partial.
// Returns:
//   Config: Complete document.
//   error: Error when raw is not a JSON object.
func ParseDocument(raw []byte) (Config, error) {
	var partial Partial
	if err := json.Unmarshal(raw, &partial); err != nil {
		return Config{}, fmt.Errorf("parse appearance document: %w", err)
	}
	return MergeDefaults(partial), nil
}

// UnmarshalJSON decodes a possibly partial document on top of the defaults.
func (c *Config) UnmarshalJSON(raw []byte) error {
	cfg, err := ParseDocument(raw)
	if err != nil {
		return err
	}
	*c = cfg
	return nil
}

// ApplySection merges patch into one top-level key. Keys present in the patch
// replace the stored value wholesale; absent keys are kept. The document is
// left untouched when the patch cannot be decoded.
// Args:
//   section: Top-level key.
//   patch: JSON object for object sections, JSON boolean for flag sections.
// Returns:
//   error: ErrUnknownSection or a decode error.
func (c *Config) ApplySection(section Section, patch json.RawMessage) error {
	next := c.Clone()
	target, ok := next.sectionTarget(section)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}

	elem := reflect.ValueOf(target).Elem()
	if elem.Kind() == reflect.Struct {
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(patch, &keys); err != nil {
			return fmt.Errorf("decode %s patch: %w", section, err)
		}
		resetPresentFields(elem, keys)
	}
	if err := json.Unmarshal(patch, target); err != nil {
		return fmt.Errorf("decode %s patch: %w", section, err)
	}

	*c = next
	return nil
}

// ValidSection reports whether section names a top-level key.
func ValidSection(section Section) bool {
	var cfg Config
	_, ok := cfg.sectionTarget(section)
	return ok
}

func (c *Config) sectionTarget(section Section) (any, bool) {
	switch section {
	case SectionColors:
		return &c.Colors, true
	case SectionBranding:
		return &c.Branding, true
	case SectionLayout:
		return &c.Layout, true
	case SectionHero:
		return &c.Hero, true
	case SectionCarousel:
		return &c.Carousel, true
	case SectionFeatures:
		return &c.Features, true
	case SectionPricing:
		return &c.Pricing, true
	case SectionHomepageCTA:
		return &c.HomepageCTA, true
	case SectionMediaLibraryVisible:
		return &c.MediaLibraryVisible, true
	case SectionShowMediaSections:
		return &c.ShowMediaSections, true
	}
	return nil, false
}

// resetPresentFields zeroes every field named in keys so that decoding replaces
// arrays, maps and nested objects instead of merging into them.
func resetPresentFields(elem reflect.Value, keys map[string]json.RawMessage) {
	if len(keys) == 0 {
		return
	}
	present := make(map[string]struct{}, len(keys))
	for key := range keys {
		present[strings.ToLower(key)] = struct{}{}
	}
	typ := elem.Type()
	for i := 0; i < typ.NumField(); i++ {
		name := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		if _, ok := present[strings.ToLower(name)]; ok {
			elem.Field(i).SetZero()
		}
	}
}
