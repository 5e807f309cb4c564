package listing

import (
	"fmt"
	"strings"
)

// Well-known aspect names with dedicated inference fallbacks. When one of
// these is missing the reason explains that inference already ran and
// failed, so the only fix is supplying the value.
const (
	AspectColor = "Color"
	AspectSize  = "US Shoe Size"
	AspectBrand = "Brand"
)

// MissingAspect names a required attribute that has no value, with a
// human-readable reason.
type MissingAspect struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// AspectCheck is the result of validating item attributes against the
// marketplace's mandatory aspect set.
type AspectCheck struct {
	Ready   bool
	Missing []MissingAspect
}

// MissingNames returns just the missing attribute names, in input order.
func (c AspectCheck) MissingNames() []string {
	names := make([]string, len(c.Missing))
	for i, m := range c.Missing {
		names[i] = m.Name
	}
	return names
}

// ValidateAspects determines publish-readiness: every required aspect
// name must have a non-empty value in attributes. The gate runs before
// the publish transition only; drafts may be created with incomplete
// attributes because the marketplace performs its own deeper validation
// at publish time.
func ValidateAspects(attributes map[string]string, required []string) AspectCheck {
	check := AspectCheck{Ready: true}

	for _, name := range required {
		if strings.TrimSpace(attributes[name]) != "" {
			continue
		}
		check.Ready = false
		check.Missing = append(check.Missing, MissingAspect{
			Name:   name,
			Reason: missingReason(name),
		})
	}

	return check
}

// missingReason builds the per-aspect explanation. Aspects with an
// inference fallback surface as "still missing" rather than erroring.
func missingReason(name string) string {
	switch name {
	case AspectColor:
		return "color could not be inferred from the catalog title; set it manually"
	case AspectSize:
		return "size could not be derived from the listing identity; set it manually"
	case AspectBrand:
		return "brand could not be inferred from the style code; set it manually"
	default:
		return fmt.Sprintf("required attribute %q has no value", name)
	}
}
