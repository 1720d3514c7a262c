package analysis

import (
	"strings"

	"auction-predictor/src/models"
)

var cylinderDescriptions = map[string]struct{}{
	"14.2 kg": {}, "19 kg": {}, "5 kg": {}, "47.5 kg": {}, "5 kg ftlr": {}, "5 kg nd": {},
	"47.5 kg lotv": {}, "19 kg sc": {}, "19 kg ncut": {}, "5 kg ftl": {}, "14.2 kg omc": {},
}

var valveDescriptions = map[string]struct{}{
	"sc valve": {}, "liquid offtake valve": {},
}

// -----------------------------------------------------------------------------

// MapProductGroup maps a raw auction product description to a product group.
// Known descriptions match exactly, then keywords are tried. Unknown
// descriptions return "".
func MapProductGroup(description string) string {
	product := strings.ToLower(strings.TrimSpace(description))

	if _, ok := cylinderDescriptions[product]; ok {
		return models.GroupCylinder
	}
	if _, ok := valveDescriptions[product]; ok {
		return models.GroupValve
	}

	if strings.Contains(product, "cylinder") {
		return models.GroupCylinder
	}
	if strings.Contains(product, "valve") {
		return models.GroupValve
	}
	return ""
}

// -----------------------------------------------------------------------------

// NormalizeProductGroup accepts API input such as "Cylinders" or "valve" and
// returns the canonical group, or "" when neither matches.
func NormalizeProductGroup(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	switch {
	case strings.Contains(s, "cylinder"):
		return models.GroupCylinder
	case strings.Contains(s, "valve"):
		return models.GroupValve
	}
	return ""
}

// -----------------------------------------------------------------------------

// CategoryPrefix is the artifact file prefix for a product group.
func CategoryPrefix(group string) string {
	switch group {
	case models.GroupCylinder:
		return "cyl"
	case models.GroupValve:
		return "valve"
	}
	return ""
}
