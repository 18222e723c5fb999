// Package autofill implements the Field Detector (component F), the
// Answer Resolver (component G), and the Autofill Engine (component H):
// together they drive a PageController through scan, resolve, fill,
// verify, and learn over an ATS application form.
package autofill

import (
	"regexp"
	"strings"

	"github.com/ternarybob/vellum/internal/models"
)

// RawField is the pre-classification shape a PageController hands back
// from a DOM scan: enough raw attributes for the Detector's cascade to
// assign a FieldType and DetectionMethod.
type RawField struct {
	Selector    string
	Tag         string // "input", "select", "textarea"
	InputType   string // input[type] when Tag == "input"
	Role        string // aria-role
	AriaHasPopup string
	LabelText   string
	AriaLabel   string
	Placeholder string
	Name        string
	ID          string
	MaxLength   int
	Pattern     string
	Required    bool
	Hidden      bool
}

// knownSelector maps a curated exact selector to a profile path, rung 3
// of the Detector's cascade.
type knownSelector struct {
	selector   string
	profileKey string
}

// labelPattern maps a label substring (word-boundary matched) to a
// profile path, rung 4 of the Detector's cascade. Order matters: more
// specific patterns must be listed before generic ones they would
// otherwise shadow.
type labelPattern struct {
	pattern    *regexp.Regexp
	profileKey string
}

var knownSelectors = []knownSelector{
	{selector: `input[name="first_name"]`, profileKey: "personal.first_name"},
	{selector: `input[name="last_name"]`, profileKey: "personal.last_name"},
	{selector: `input[name="email"]`, profileKey: "personal.email"},
	{selector: `input[name="phone"]`, profileKey: "personal.phone"},
}

var labelPatterns = buildLabelPatterns([]struct {
	phrase     string
	profileKey string
}{
	{"first name", "personal.first_name"},
	{"last name", "personal.last_name"},
	{"email", "personal.email"},
	{"phone", "personal.phone"},
	{"linkedin", "links.linkedin"},
	{"github", "links.github"},
	{"portfolio", "links.portfolio"},
	{"website", "links.website"},
	{"city", "personal.city"},
	{"state", "personal.state"},
	{"zip", "personal.zip"},
	{"postal code", "personal.zip"},
	{"country", "personal.country"},
})

func buildLabelPatterns(entries []struct {
	phrase     string
	profileKey string
}) []labelPattern {
	out := make([]labelPattern, 0, len(entries))
	for _, e := range entries {
		out = append(out, labelPattern{
			pattern:    wordBoundaryPattern(e.phrase),
			profileKey: e.profileKey,
		})
	}
	return out
}

func wordBoundaryPattern(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
}

// Detected is the Detector's output for one raw field: a classified
// FormField plus the profile key a known-selector or label-pattern match
// resolved (empty if rung 5, the bare default, fired).
type Detected struct {
	Field      models.FormField
	ProfileKey string
}

// Detect classifies one RawField per spec.md §4.F's five-rung cascade.
// Hidden, submit, and button elements should be filtered by the caller
// before calling Detect; Detect itself only classifies.
func Detect(raw RawField) Detected {
	label := deriveLabel(raw)

	if ft, ok := htmlStandardType(raw); ok {
		return Detected{Field: newField(raw, label, ft, models.DetectHTMLStandard)}
	}

	if ft, ok := ariaType(raw); ok {
		return Detected{Field: newField(raw, label, ft, models.DetectARIA)}
	}

	for _, ks := range knownSelectors {
		if raw.Selector == ks.selector {
			return Detected{
				Field:      newField(raw, label, models.FieldText, models.DetectKnownSelector),
				ProfileKey: ks.profileKey,
			}
		}
	}

	for _, lp := range labelPatterns {
		if lp.pattern.MatchString(label) {
			return Detected{
				Field:      newField(raw, label, models.FieldText, models.DetectLabelPattern),
				ProfileKey: lp.profileKey,
			}
		}
	}

	return Detected{Field: newField(raw, label, models.FieldText, models.DetectDefault)}
}

func htmlStandardType(raw RawField) (models.FieldType, bool) {
	switch raw.Tag {
	case "select":
		return models.FieldSelect, true
	case "textarea":
		return models.FieldTextarea, true
	}
	switch raw.InputType {
	case "file", "checkbox":
		return models.FieldType(raw.InputType), true
	case "email", "tel", "date":
		return models.FieldText, true
	}
	return "", false
}

func ariaType(raw RawField) (models.FieldType, bool) {
	if raw.Role == "combobox" || raw.AriaHasPopup == "true" || raw.AriaHasPopup == "listbox" {
		return models.FieldAutocomplete, true
	}
	if raw.Role == "listbox" {
		return models.FieldSelect, true
	}
	return "", false
}

// deriveLabel picks the best available label text per spec.md §4.F's
// ordered fallback: caller-supplied LabelText (covering every DOM-side
// <label> resolution strategy) then aria-label, placeholder, name, id.
func deriveLabel(raw RawField) string {
	for _, candidate := range []string{raw.LabelText, raw.AriaLabel, raw.Placeholder, raw.Name, raw.ID} {
		if strings.TrimSpace(candidate) != "" {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

func newField(raw RawField, label string, ft models.FieldType, dm models.DetectionMethod) models.FormField {
	return models.FormField{
		Selector:  raw.Selector,
		Label:     label,
		Type:      ft,
		Detection: dm,
		Required:  raw.Required,
		Status:    models.FieldPending,
	}
}

// IsIgnored reports whether raw should be excluded from the scan
// entirely, per spec.md §4.F: hidden, type=hidden, submit, and button
// elements carry no answerable question.
func IsIgnored(raw RawField) bool {
	if raw.Hidden {
		return true
	}
	switch raw.InputType {
	case "hidden", "submit", "button":
		return true
	}
	return false
}
