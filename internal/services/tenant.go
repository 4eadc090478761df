package services

import (
	"strings"

	"github.com/mozillazg/go-pinyin"
)

// TenantKeyFromName derives a tenant key from an organisation name. Han
// characters are transliterated to pinyin; anything outside [a-z0-9] becomes
// a single dash.
// Args:
//   name: Organisation or user name.
// Returns:
//   string: Tenant key, empty when nothing usable remains.
func TenantKeyFromName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}

	args := pinyin.NewArgs()
	args.Style = pinyin.Normal
	args.Fallback = func(r rune, a pinyin.Args) []string {
		return []string{string(r)}
	}
	parts := pinyin.LazyPinyin(trimmed, args)
	return slugify(strings.ToLower(strings.Join(parts, "")))
}

// NormalizeTenantKey cleans an operator supplied tenant key.
func NormalizeTenantKey(value string) string {
	return slugify(strings.ToLower(strings.TrimSpace(value)))
}

func slugify(value string) string {
	var builder strings.Builder
	prevDash := false
	for _, ch := range value {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			builder.WriteRune(ch)
			prevDash = false
			continue
		}
		if !prevDash {
			builder.WriteByte('-')
			prevDash = true
		}
	}
	cleaned := strings.Trim(builder.String(), "-")
	if len(cleaned) > 64 {
		cleaned = strings.TrimRight(cleaned[:64], "-")
	}
	return cleaned
}
