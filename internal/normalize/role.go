package normalize

import (
	"strings"

	"github.com/ternarybob/vellum/internal/common"
)

// negativeKeywords preempt role classification to "other" regardless of
// any family keyword also present in the title.
var negativeKeywords = []string{
	"engineer", "developer", "sales", "account executive", "security",
	"incident response",
}

var roleFamilyKeywords = map[string][]string{
	"product": {
		"product manager", "product owner", "gpm", "ppm", "apm",
		"group product manager", "associate product manager",
	},
	"tpm_program": {
		"tpm", "technical program manager", "program manager",
		"delivery manager", "release manager", "implementation manager",
		"implementation lead",
	},
	"project": {
		"project manager", "pmo", "project coordinator",
	},
}

// RoleClassification is the output of Role: a family label plus a
// confidence score in [0, 1].
type RoleClassification struct {
	Family     string
	Confidence float64
}

// Role classifies title (and optionally description) into a role family.
// Negative keywords win outright; configured overrides are consulted next;
// otherwise the first matching family's keyword set wins.
func Role(title, description string, overrides map[string]common.RoleFamilyOverride) RoleClassification {
	text := strings.ToLower(title)
	if description != "" {
		text = text + " " + strings.ToLower(description)
	}

	for _, neg := range negativeKeywords {
		if wordBoundaryContains(text, neg) {
			return RoleClassification{Family: "other", Confidence: 0.9}
		}
	}

	for phrase, override := range overrides {
		if wordBoundaryContains(text, strings.ToLower(phrase)) {
			return RoleClassification{Family: override.Family, Confidence: override.Confidence}
		}
	}

	for _, family := range []string{"product", "tpm_program", "project"} {
		for _, kw := range roleFamilyKeywords[family] {
			if wordBoundaryContains(text, kw) {
				return RoleClassification{Family: family, Confidence: 0.85}
			}
		}
	}

	return RoleClassification{Family: "other", Confidence: 0.5}
}
