package models

import (
	"strings"
	"time"
)

// FieldType is the detected semantic type of a form field, independent of
// its HTML tag.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldTextarea  FieldType = "textarea"
	FieldSelect    FieldType = "select"
	FieldAutocomplete FieldType = "autocomplete" // select2/combobox-style widget
	FieldCheckbox  FieldType = "checkbox"
	FieldRadio     FieldType = "radio"
	FieldFile      FieldType = "file"
	FieldUnknown   FieldType = "unknown"
)

// DetectionMethod records which rung of the Field Detector's cascade
// classified a field, for debugging and for the learning feedback loop.
type DetectionMethod string

const (
	DetectHTMLStandard DetectionMethod = "html_standard"
	DetectARIA         DetectionMethod = "aria"
	DetectKnownSelector DetectionMethod = "known_selector"
	DetectLabelPattern DetectionMethod = "label_pattern"
	DetectDefault      DetectionMethod = "default"
)

// AnswerSource records which rung of the Answer Resolver's cascade supplied
// a field's value.
type AnswerSource string

const (
	SourceLearned    AnswerSource = "learned"
	SourceProfile    AnswerSource = "profile"
	SourceYesNo      AnswerSource = "yes_no_pattern"
	SourceDemographic AnswerSource = "demographic_default"
	SourceOption     AnswerSource = "option_match"
	SourceTextDefault AnswerSource = "text_default"
	SourceOracle     AnswerSource = "llm_oracle"
	SourceNone       AnswerSource = ""
)

// FieldStatus is the lifecycle state of a field within one autofill pass.
type FieldStatus string

const (
	FieldPending  FieldStatus = "pending"
	FieldResolved FieldStatus = "resolved"
	FieldFilled   FieldStatus = "filled"
	FieldVerified FieldStatus = "verified"
	FieldFailed   FieldStatus = "failed"
	FieldSkipped  FieldStatus = "skipped"
)

// FieldOption is one selectable choice for select/radio/autocomplete fields.
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FormField is one field discovered on a page by the Field Detector and
// carried through resolution, fill, and verification.
type FormField struct {
	Selector   string    `json:"selector"`
	Label      string    `json:"label"`
	Type       FieldType `json:"type"`
	Detection  DetectionMethod `json:"detection"`
	Required   bool      `json:"required"`
	Options    []FieldOption `json:"options,omitempty"`
	Repeatable bool      `json:"repeatable"`       // part of a repeatable section (e.g. work history)
	SectionIndex int     `json:"section_index,omitempty"`

	Status FieldStatus `json:"status"`
	Value  string      `json:"value,omitempty"`
	Source AnswerSource `json:"source,omitempty"`

	Attempts int       `json:"attempts"`
	Error    string    `json:"error,omitempty"`
	FilledAt time.Time `json:"filled_at,omitempty"`
}

// IsOverlap reports whether f occupies the same DOM position as other,
// used by the Autofill Engine to mark redundant detections in repeatable
// sections so the main fill loop doesn't fill a field twice.
func (f FormField) IsOverlap(other FormField) bool {
	return f.Selector == other.Selector
}

// ScoreOptionMatch implements the autocomplete/Select2 scoring table
// shared by the Answer Resolver's option-matching rung and the Autofill
// Engine's dropdown fill paths: exact=100, answer-in-option=80,
// option-in-answer=70, >=2-word-overlap=60, >=1-overlap=40, else 0.
func ScoreOptionMatch(answer, option string) int {
	a := strings.ToLower(strings.TrimSpace(answer))
	o := strings.ToLower(strings.TrimSpace(option))
	if a == "" || o == "" {
		return 0
	}
	if a == o {
		return 100
	}
	if strings.Contains(o, a) {
		return 80
	}
	if strings.Contains(a, o) {
		return 70
	}
	switch overlap := wordOverlap(a, o); {
	case overlap >= 2:
		return 60
	case overlap >= 1:
		return 40
	default:
		return 0
	}
}

func wordOverlap(a, b string) int {
	set := make(map[string]bool)
	for _, w := range strings.Fields(a) {
		set[w] = true
	}
	count := 0
	for _, w := range strings.Fields(b) {
		if set[w] {
			count++
		}
	}
	return count
}
