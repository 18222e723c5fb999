package autofill

import (
	"context"
	"regexp"
	"strings"

	"github.com/ternarybob/vellum/internal/common"
	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

// profilePattern maps a label substring (word-boundary matched) to a
// profile path. Order is significant: more specific patterns must
// precede the generic ones they would otherwise be shadowed by.
type profilePattern struct {
	pattern *regexp.Regexp
	path    string
}

var profilePatterns = []profilePattern{
	{wordBoundaryPattern("education start month"), "education.start_month"},
	{wordBoundaryPattern("education end month"), "education.end_month"},
	{wordBoundaryPattern("start month"), "work.start_month"},
	{wordBoundaryPattern("end month"), "work.end_month"},
	{wordBoundaryPattern("start year"), "work.start_year"},
	{wordBoundaryPattern("end year"), "work.end_year"},
	{wordBoundaryPattern("first name"), "personal.first_name"},
	{wordBoundaryPattern("last name"), "personal.last_name"},
	{wordBoundaryPattern("email"), "personal.email"},
	{wordBoundaryPattern("phone"), "personal.phone"},
	{wordBoundaryPattern("linkedin"), "links.linkedin"},
	{wordBoundaryPattern("github"), "links.github"},
	{wordBoundaryPattern("portfolio"), "links.portfolio"},
	{wordBoundaryPattern("website"), "links.website"},
	{wordBoundaryPattern("city"), "personal.city"},
	{wordBoundaryPattern("state"), "personal.state"},
	{wordBoundaryPattern("zip"), "personal.zip"},
	{wordBoundaryPattern("country"), "personal.country"},
}

type yesNoPattern struct {
	pattern *regexp.Regexp
	answer  string
}

// yesNoPatterns: specific patterns precede generic ones, since a generic
// matcher like "agree" would otherwise misfire on e.g. a non-compete
// question, answering it with a blanket "Yes" instead of the "No" its own
// entry gives.
var yesNoPatterns = []yesNoPattern{
	{wordBoundaryPattern("non-compete"), "No"},
	{wordBoundaryPattern("authorized to work"), "Yes"},
	{wordBoundaryPattern("require.*sponsorship"), "No"},
	{wordBoundaryPattern("sponsorship"), "No"},
	{wordBoundaryPattern("agree"), "Yes"},
	{wordBoundaryPattern("acknowledge"), "Yes"},
}

var demographicLabels = map[string]func(models.Profile) string{
	"gender":     func(p models.Profile) string { return p.Demographics.Gender },
	"race":       func(p models.Profile) string { return p.Demographics.RaceEthnicity },
	"ethnicity":  func(p models.Profile) string { return p.Demographics.RaceEthnicity },
	"hispanic":   func(p models.Profile) string { return p.Demographics.RaceEthnicity },
	"veteran":    func(p models.Profile) string { return p.Demographics.Veteran },
	"disability": func(p models.Profile) string { return p.Demographics.Disability },
}

var textDefaultPatterns = []profilePattern{
	{wordBoundaryPattern("years of experience"), "text.years_experience"},
	{wordBoundaryPattern("how did you hear"), "text.source"},
	{wordBoundaryPattern("salary"), "text.salary_expectation"},
}

// Resolver implements the Answer Resolver (component G): for one field,
// tries each rung of spec.md §4.G's cascade in order, stopping at the
// first hit.
type Resolver struct {
	profile  models.Profile
	learned  models.LearnedAnswers
	defaults common.ResolverDefaults
	oracle   interfaces.Oracle
	company  string
}

// NewResolver builds a Resolver scoped to one autofill session.
// oracle may be nil, in which case rung 7 (LLM fallback) is skipped.
func NewResolver(profile models.Profile, learned models.LearnedAnswers, defaults common.ResolverDefaults, oracle interfaces.Oracle, company string) *Resolver {
	return &Resolver{profile: profile, learned: learned, defaults: defaults, oracle: oracle, company: company}
}

// Resolve fills field.Value and field.Source in place, returning the
// field with Status set to models.FieldResolved (a value was found) or
// models.FieldSkipped (every rung fell through); there is no separate
// needs-input status. constraints carries the DOM attributes §4.G's
// adaptation step needs.
func (r *Resolver) Resolve(ctx context.Context, field models.FormField, constraints DOMConstraints) models.FormField {
	label := normalizeLabel(field.Label)

	if field.Type == models.FieldFile {
		if value, ok := r.fromFile(label); ok {
			return r.finish(field, value, models.SourceProfile, constraints)
		}
		field.Status = models.FieldSkipped
		return field
	}

	if value, ok := r.fromLearned(label); ok {
		return r.finish(field, value, models.SourceLearned, constraints)
	}

	if value, ok := r.fromProfile(label); ok {
		return r.finish(field, value, models.SourceProfile, constraints)
	}

	if value, ok := r.fromYesNo(label); ok {
		return r.finish(field, value, models.SourceYesNo, constraints)
	}

	if value, ok := r.fromDemographic(label); ok {
		return r.finish(field, value, models.SourceDemographic, constraints)
	}

	if len(field.Options) > 0 {
		if value, ok := r.fromOptions(label, field.Options); ok {
			return r.finish(field, value, models.SourceOption, constraints)
		}
	}

	if value, ok := r.fromTextDefault(label); ok {
		return r.finish(field, value, models.SourceTextDefault, constraints)
	}

	if r.oracle != nil {
		if value, ok := r.fromOracle(ctx, field, label); ok {
			return r.finish(field, value, models.SourceOracle, constraints)
		}
	}

	field.Status = models.FieldSkipped
	return field
}

// ShouldSkipEndDate implements spec.md §4.G's skip rule: an "end date"
// field is skipped when the matching work-experience entry is current.
// The rule is scoped to work history only; education entries are always
// filled even when ongoing.
func ShouldSkipEndDate(label string, isWorkSection bool, current bool) bool {
	if !isWorkSection || !current {
		return false
	}
	l := normalizeLabel(label)
	return strings.Contains(l, "end date") || strings.Contains(l, "end month") || strings.Contains(l, "end year")
}

func (r *Resolver) finish(field models.FormField, value string, source models.AnswerSource, constraints DOMConstraints) models.FormField {
	adapted, warning := AdaptValue(value, constraints)
	field.Value = adapted
	field.Source = source
	field.Status = models.FieldResolved
	if warning != "" {
		field.Error = warning
	}
	return field
}

func (r *Resolver) fromLearned(label string) (string, bool) {
	a, ok := r.learned.Lookup(r.company, label)
	if !ok {
		return "", false
	}
	return a.Value, true
}

func (r *Resolver) fromProfile(label string) (string, bool) {
	for _, p := range profilePatterns {
		if !p.pattern.MatchString(label) {
			continue
		}
		if value, ok := r.profile.GetByPath(p.path); ok {
			return value, true
		}
	}
	return "", false
}

func (r *Resolver) fromYesNo(label string) (string, bool) {
	for _, p := range yesNoPatterns {
		if p.pattern.MatchString(label) {
			return p.answer, true
		}
	}
	return "", false
}

// fromFile resolves a file field (résumé, cover letter) to the matching
// path configured on the candidate's profile, so the file-field handler
// in the Autofill Engine has an attach target without re-deriving it.
func (r *Resolver) fromFile(label string) (string, bool) {
	path := documentPathForLabel(r.profile, label)
	if path == "" {
		return "", false
	}
	return path, true
}

func documentPathForLabel(profile models.Profile, label string) string {
	if strings.Contains(label, "cover letter") && profile.Files.DefaultCoverLetter != "" {
		return profile.Files.DefaultCoverLetter
	}
	return profile.Files.DefaultResume
}

func (r *Resolver) fromDemographic(label string) (string, bool) {
	for key, getter := range demographicLabels {
		if !strings.Contains(label, key) {
			continue
		}
		if v := getter(r.profile); v != "" {
			return v, true
		}
		if r.profile.Demographics.DeclineToAnswer {
			return r.defaults.DemographicDecline, true
		}
		return "", false
	}
	return "", false
}

// fromOptions applies category-aware option matching: demographics,
// country (prefer "United States"), state (match profile state against
// option text), and yes/no, scored by substring and word-overlap.
func (r *Resolver) fromOptions(label string, options []models.FieldOption) (string, bool) {
	switch {
	case strings.Contains(label, "country"):
		if opt, ok := bestOptionContaining(options, "united states"); ok {
			return opt, true
		}
	case strings.Contains(label, "state"):
		if state, ok := r.profile.GetByPath("personal.state"); ok {
			if opt, ok := bestOptionContaining(options, state); ok {
				return opt, true
			}
		}
	case isDemographicLabel(label):
		for key, getter := range demographicLabels {
			if strings.Contains(label, key) {
				if v := getter(r.profile); v != "" {
					if opt, ok := bestOptionContaining(options, v); ok {
						return opt, true
					}
				}
			}
		}
	}

	if answer, ok := r.fromYesNo(label); ok {
		if opt, ok := bestOptionContaining(options, answer); ok {
			return opt, true
		}
	}

	return "", false
}

func isDemographicLabel(label string) bool {
	for key := range demographicLabels {
		if strings.Contains(label, key) {
			return true
		}
	}
	return false
}

// bestOptionContaining scores every option against target using the
// substring/word-overlap rules shared with the autocomplete fill path.
func bestOptionContaining(options []models.FieldOption, target string) (string, bool) {
	best := ""
	bestScore := 0
	for _, opt := range options {
		score := scoreMatch(target, opt.Label)
		if score > bestScore {
			bestScore = score
			best = opt.Value
		}
	}
	if bestScore == 0 {
		return "", false
	}
	return best, true
}

// scoreMatch delegates to the scoring table shared with the Autofill
// Engine's dropdown fill paths (models.ScoreOptionMatch), so a field
// resolved from fixed options and one resolved from prescanned or
// dynamically rendered options score candidates identically.
func scoreMatch(answer, option string) int {
	return models.ScoreOptionMatch(answer, option)
}

func (r *Resolver) fromTextDefault(label string) (string, bool) {
	for _, p := range textDefaultPatterns {
		if !p.pattern.MatchString(label) {
			continue
		}
		if v, ok := r.profile.GetByPath(p.path); ok {
			return v, true
		}
	}
	if v, ok := r.profile.CommonAnswers[label]; ok {
		return v, true
	}
	return "", false
}

func (r *Resolver) fromOracle(ctx context.Context, field models.FormField, label string) (string, bool) {
	if len(field.Options) > 0 {
		optionLabels := make([]string, len(field.Options))
		for i, o := range field.Options {
			optionLabels[i] = o.Label
		}
		answer, err := r.oracle.ChooseOption(ctx, field.Label, optionLabels)
		if err != nil || answer == "" {
			return "", false
		}
		return answer, true
	}

	answer, err := r.oracle.Generate(ctx, field.Label)
	if err != nil || strings.TrimSpace(answer) == "" {
		return "", false
	}
	return answer, true
}

// normalizeLabel lowercases and trims a label for pattern matching; it
// does not strip punctuation, unlike the Learned DB's stricter key
// normalization in §4.J.
func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
