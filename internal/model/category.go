package model

import "strings"

type Category string

const (
	CategoryEnvironment Category = "environment"
	CategoryEducation   Category = "education"
	CategoryHealthcare  Category = "healthcare"
	CategoryTechnology  Category = "technology"
	CategoryCommunity   Category = "community"
	CategoryArts        Category = "arts"
)

var categories = []Category{
	CategoryEnvironment,
	CategoryEducation,
	CategoryHealthcare,
	CategoryTechnology,
	CategoryCommunity,
	CategoryArts,
}

// ParseCategory accepts any casing of a known category tag.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.Valid()
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// Label is the display form used by the web client ("Healthcare").
func (c Category) Label() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}
