package models

import "time"

// LearnedKey identifies one recurring question, scoped by company-specific
// key first and falling back to a cross-company key so an answer learned
// on one ATS board can help fill the same question on another.
type LearnedKey struct {
	Company string `json:"company,omitempty"`
	Label   string `json:"label"`
}

// LearnedAnswer is one recorded answer, with enough provenance that the
// learning feedback loop can decide whether to trust or overwrite it.
type LearnedAnswer struct {
	Value      string    `json:"value"`
	FieldType  FieldType `json:"field_type"`
	Confirmed  bool      `json:"confirmed"`   // survived verification after fill
	UsageCount int       `json:"usage_count"`
	LastUsed   time.Time `json:"last_used"`
}

// LearnedAnswers is the two-map structure persisted by the Learned-answer
// DB: a company-scoped map consulted first, and a global map consulted
// when no company-specific entry exists.
type LearnedAnswers struct {
	ByCompany map[string]map[string]LearnedAnswer `json:"by_company"`
	Global    map[string]LearnedAnswer            `json:"global"`
}

// NewLearnedAnswers returns an empty, ready-to-use LearnedAnswers value.
func NewLearnedAnswers() LearnedAnswers {
	return LearnedAnswers{
		ByCompany: make(map[string]map[string]LearnedAnswer),
		Global:    make(map[string]LearnedAnswer),
	}
}

// Lookup resolves a label for a company, checking the company-scoped map
// before the global map.
func (l LearnedAnswers) Lookup(company, label string) (LearnedAnswer, bool) {
	if byLabel, ok := l.ByCompany[company]; ok {
		if a, ok := byLabel[label]; ok {
			return a, true
		}
	}
	a, ok := l.Global[label]
	return a, ok
}

// Record upserts an answer into both the company-scoped and global maps,
// incrementing usage count if an entry already exists at that scope.
func (l *LearnedAnswers) Record(company, label, value string, ft FieldType, confirmed bool, at time.Time) {
	if l.ByCompany == nil {
		l.ByCompany = make(map[string]map[string]LearnedAnswer)
	}
	if l.Global == nil {
		l.Global = make(map[string]LearnedAnswer)
	}

	if company != "" {
		if l.ByCompany[company] == nil {
			l.ByCompany[company] = make(map[string]LearnedAnswer)
		}
		existing := l.ByCompany[company][label]
		existing.Value = value
		existing.FieldType = ft
		existing.Confirmed = confirmed
		existing.UsageCount++
		existing.LastUsed = at
		l.ByCompany[company][label] = existing
	}

	existing := l.Global[label]
	existing.Value = value
	existing.FieldType = ft
	existing.Confirmed = existing.Confirmed || confirmed
	existing.UsageCount++
	existing.LastUsed = at
	l.Global[label] = existing
}
