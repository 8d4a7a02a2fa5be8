package catalog

import (
	"strings"

	"github.com/gosimple/slug"
)

// FallbackCategory is used when no canonical category matches.
const FallbackCategory = "kisisel-bakim"

// CanonicalCategory is one entry of the storefront category table.
type CanonicalCategory struct {
	Slug     string
	Keywords []string
}

// Categories is ordered; the first match wins.
var Categories = []CanonicalCategory{
	{Slug: "cilt-bakimi", Keywords: []string{"cilt", "skin", "serum", "nemlendir", "yuz", "krem"}},
	{Slug: "makyaj", Keywords: []string{"makyaj", "makeup", "ruj", "maskara", "fondoten", "oje", "allik"}},
	{Slug: "sac-bakimi", Keywords: []string{"sac", "hair", "sampuan"}},
	{Slug: "parfum", Keywords: []string{"parfum", "perfume", "fragrance", "koku", "deodorant"}},
	{Slug: "vucut-bakimi", Keywords: []string{"vucut", "body", "losyon", "dus-jeli"}},
	{Slug: "gunes-urunleri", Keywords: []string{"gunes", "sun", "spf"}},
	{Slug: "agiz-bakimi", Keywords: []string{"agiz", "dis-macunu", "oral"}},
	{Slug: "anne-bebek", Keywords: []string{"bebek", "baby", "anne"}},
	{Slug: FallbackCategory, Keywords: []string{"kisisel", "personal", "hijyen"}},
}

// Slugify lower-cases, transliterates Turkish letters and collapses
// separators into single hyphens.
func Slugify(raw string) string {
	return slug.MakeLang(raw, "tr")
}

// NormalizeCategory maps free-text category input onto a canonical slug.
func NormalizeCategory(raw string) string {
	s := Slugify(raw)
	if s == "" {
		return FallbackCategory
	}
	if IsCanonicalCategory(s) {
		return s
	}
	for _, c := range Categories {
		for _, kw := range c.Keywords {
			if strings.Contains(s, kw) {
				return c.Slug
			}
		}
	}
	return FallbackCategory
}

// IsCanonicalCategory reports whether s names a table entry.
func IsCanonicalCategory(s string) bool {
	for _, c := range Categories {
		if c.Slug == s {
			return true
		}
	}
	return false
}
