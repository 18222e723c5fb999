package autofill

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vellum/internal/common"
	"github.com/ternarybob/vellum/internal/documents"
	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

// maxPrescanOptions caps how many rendered option labels the Prescan
// phase reads per field, per spec.md §4.H step 7.
const maxPrescanOptions = 25

// searchTypeLabelHints flag an autocomplete field as search-mode (types a
// query and waits for server-filtered results) rather than fixed-option
// (every choice is already rendered), so Prescan skips opening it.
var searchTypeLabelHints = []string{"location", "school", "university", "college", "city", "address"}

// knownApplySelectors and knownApplyTexts are the curated "Apply" control
// heuristics consulted in the apply-click phase when a page has too few
// visible fields to be the application form itself (e.g. a job posting
// page with a separate "Apply" button that opens the real form).
var knownApplySelectors = []string{
	"#apply_button", "a.apply-button", "button.postings-btn", `a[data-mapped="true"]`,
}

var knownApplyTexts = []string{"apply now", "apply for this job", "apply"}

// fewFieldsThreshold below which the engine attempts the apply-click
// phase before resolving the scanned fields.
const fewFieldsThreshold = 3

// loginURLMarkers are substrings that flag a URL as a likely login/auth
// handoff page, per spec.md §4.H step 4.
var loginURLMarkers = []string{"login", "signin", "sign-in", "oauth", "sso"}

// JobInfo is the extracted job-posting context used to personalize
// downstream documents (cover letters, summaries).
type JobInfo struct {
	Title       string
	Company     string
	Description string
}

// Engine runs the Autofill Engine (component H) state machine over an
// injected PageController.
type Engine struct {
	page     interfaces.PageController
	resolver *Resolver
	learned  interfaces.LearnedDB
	logger   arbor.ILogger
	config   common.AutofillConfig
	profile  models.Profile
	company  string
}

// New constructs an Engine for one application session. learned may be
// nil, in which case the learn phase is skipped.
func New(page interfaces.PageController, resolver *Resolver, learned interfaces.LearnedDB, logger arbor.ILogger, config common.AutofillConfig, profile models.Profile, company string) *Engine {
	return &Engine{page: page, resolver: resolver, learned: learned, logger: logger, config: config, profile: profile, company: company}
}

// Result summarizes one autofill run for the caller (API handler, CLI).
type Result struct {
	JobInfo JobInfo
	Fields  []models.FormField
}

// Run drives the full phase sequence from spec.md §4.H over url.
func (e *Engine) Run(ctx context.Context, url string) (Result, error) {
	if err := e.page.Navigate(ctx, url); err != nil {
		return Result{}, fmt.Errorf("autofill: navigate: %w", err)
	}
	if err := e.page.WaitStable(ctx, e.config.StableTimeout); err != nil && e.logger != nil {
		e.logger.Warn().Err(err).Msg("autofill: page did not settle within stable timeout")
	}

	fields, err := e.page.Scan(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("autofill: initial scan: %w", err)
	}

	if len(fields) < fewFieldsThreshold {
		if clicked := e.tryApplyClick(ctx); clicked {
			_ = e.page.WaitStable(ctx, e.config.StableTimeout)
			fields, err = e.page.Scan(ctx)
			if err != nil {
				return Result{}, fmt.Errorf("autofill: post-apply-click scan: %w", err)
			}
		}
	}

	if looksLikeLoginURL(url) {
		if e.logger != nil {
			e.logger.Info().Str("url", url).Msg("autofill: login-like URL detected, waiting for human auth handoff")
		}
		_ = e.page.WaitStable(ctx, e.config.NavTimeout)
	}

	jobInfo := e.extractJobInfo(ctx, fields)

	fields = dedupeBySelector(fields)
	fields = e.prescanOptions(ctx, fields)
	fields = e.resolveAll(ctx, fields)
	fields = e.FillRepeatableSections(ctx, fields)

	fields = e.mainFillLoop(ctx, fields)

	_ = e.page.Blur(ctx)
	fields = e.verify(ctx, fields)
	e.learn(ctx, fields)

	return Result{JobInfo: jobInfo, Fields: fields}, nil
}

func (e *Engine) tryApplyClick(ctx context.Context) bool {
	for _, sel := range knownApplySelectors {
		if err := e.page.Click(ctx, sel); err == nil {
			return true
		}
	}
	return false
}

func looksLikeLoginURL(url string) bool {
	lower := strings.ToLower(url)
	for _, marker := range loginURLMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// extractJobInfo pulls best-effort title/company context out of the page's
// title bar, URL, and description selectors per spec.md §4.H step 5;
// downstream doc personalization treats empty fields as "unknown" rather
// than an error.
func (e *Engine) extractJobInfo(ctx context.Context, fields []models.FormField) JobInfo {
	info := JobInfo{Company: e.company}

	title, pageURL, description, err := e.page.JobContext(ctx)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn().Err(err).Msg("autofill: job info extraction failed")
		}
		return info
	}

	info.Title = cleanJobTitle(title)
	info.Description = description
	if info.Company == "" {
		info.Company = companyFromURL(pageURL)
	}
	return info
}

// cleanJobTitle strips the trailing "- Company Name" / "| ATS Name" suffix
// ATS page titles commonly append after the job title itself.
func cleanJobTitle(title string) string {
	for _, sep := range []string{" - ", " | ", " :: "} {
		if idx := strings.Index(title, sep); idx > 0 {
			return strings.TrimSpace(title[:idx])
		}
	}
	return strings.TrimSpace(title)
}

// companyFromURL falls back to the job board URL's first path segment
// (e.g. boards.greenhouse.io/acme/jobs/123 -> "acme") when the orchestrator
// didn't pass a company name into the session.
func companyFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segment := strings.Trim(parsed.Path, "/")
	if idx := strings.Index(segment, "/"); idx > 0 {
		segment = segment[:idx]
	}
	return segment
}

// prescanOptions implements spec.md §4.H step 7: for every non-search
// autocomplete field without already-populated options (native <select>
// options come from Scan directly), open the widget, read its rendered
// option labels, and cap the result so Resolve's option-matching rung has
// real choices to score against at fill time.
func (e *Engine) prescanOptions(ctx context.Context, fields []models.FormField) []models.FormField {
	for i := range fields {
		f := &fields[i]
		if f.Type != models.FieldAutocomplete || len(f.Options) > 0 {
			continue
		}
		if strings.Contains(f.Selector, "s2id_") || isSearchTypeField(f.Label) {
			continue
		}

		options, err := e.page.OpenOptions(ctx, f.Selector)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn().Err(err).Str("selector", f.Selector).Msg("autofill: prescan options failed")
			}
			continue
		}
		if len(options) > maxPrescanOptions {
			options = options[:maxPrescanOptions]
		}
		f.Options = options
	}
	return fields
}

func isSearchTypeField(label string) bool {
	l := strings.ToLower(label)
	for _, hint := range searchTypeLabelHints {
		if strings.Contains(l, hint) {
			return true
		}
	}
	return false
}

func dedupeBySelector(fields []models.FormField) []models.FormField {
	seen := make(map[string]bool, len(fields))
	out := make([]models.FormField, 0, len(fields))
	for _, f := range fields {
		if seen[f.Selector] {
			continue
		}
		seen[f.Selector] = true
		out = append(out, f)
	}
	return out
}

func (e *Engine) resolveAll(ctx context.Context, fields []models.FormField) []models.FormField {
	out := make([]models.FormField, len(fields))
	for i, f := range fields {
		out[i] = e.resolver.Resolve(ctx, f, DOMConstraints{})
	}
	return out
}

// mainFillLoop implements spec.md §4.H step 11: fill every ready field,
// wait, re-scan, and continue resolving newly appeared fields until no
// new ones show up or MaxRescans is exhausted.
func (e *Engine) mainFillLoop(ctx context.Context, fields []models.FormField) []models.FormField {
	maxRescans := e.config.MaxRescans
	if maxRescans <= 0 {
		maxRescans = 1
	}

	for iteration := 0; iteration < maxRescans; iteration++ {
		e.fillReady(ctx, fields)

		time.Sleep(200 * time.Millisecond)
		rescanned, err := e.page.Scan(ctx)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn().Err(err).Int("iteration", iteration).Msg("autofill: rescan failed, stopping main fill loop")
			}
			break
		}

		existing := make(map[string]bool, len(fields))
		for _, f := range fields {
			existing[f.Selector] = true
		}

		var newFields []models.FormField
		for _, f := range rescanned {
			if !existing[f.Selector] {
				newFields = append(newFields, f)
			}
		}
		if len(newFields) == 0 {
			break
		}

		resolvedNew := e.resolveAll(ctx, newFields)
		fields = append(fields, resolvedNew...)
	}

	return fields
}

func (e *Engine) fillReady(ctx context.Context, fields []models.FormField) {
	for i := range fields {
		f := &fields[i]
		if f.Status != models.FieldResolved {
			continue
		}
		f.Attempts++

		var err error
		if f.Type == models.FieldFile {
			err = e.fillFile(ctx, f)
		} else {
			err = e.page.SetValue(ctx, *f, f.Value)
		}
		if err != nil {
			f.Status = models.FieldFailed
			f.Error = err.Error()
			if e.logger != nil {
				e.logger.Warn().Err(err).Str("selector", f.Selector).Msg("autofill: field fill failed")
			}
			continue
		}
		f.Status = models.FieldFilled
		f.FilledAt = time.Now()
	}
}

// fillFile validates the path the resolver already attached to f.Value
// (via the Answer Resolver's file rung) against the Document Templater's
// PDF check, then uploads it via the PageController's
// Attach-button-or-set_input_files path.
func (e *Engine) fillFile(ctx context.Context, f *models.FormField) error {
	if f.Value == "" {
		return fmt.Errorf("autofill: no document configured for file field %q", f.Label)
	}
	if err := documents.ValidateResumeFile(f.Value); err != nil {
		return err
	}
	return e.page.UploadFile(ctx, f.Selector, f.Value)
}

// verify implements spec.md §4.H step 13: re-read every filled field and
// compare against the value that was assigned.
func (e *Engine) verify(ctx context.Context, fields []models.FormField) []models.FormField {
	for i := range fields {
		f := &fields[i]
		if f.Status != models.FieldFilled {
			continue
		}
		if f.Type == models.FieldFile {
			if f.Value == "" {
				f.Status = models.FieldFailed
				f.Error = "file field filled but no document was attached"
				continue
			}
			f.Status = models.FieldVerified
			continue
		}
		actual, err := e.page.ReadValue(ctx, f.Selector)
		if err != nil {
			f.Status = models.FieldFailed
			f.Error = err.Error()
			continue
		}
		if valuesMatch(f.Value, actual) {
			f.Status = models.FieldVerified
		} else {
			f.Status = models.FieldFailed
			f.Error = fmt.Sprintf("verification mismatch: expected %q, read %q", f.Value, actual)
		}
	}
	return fields
}

func valuesMatch(expected, actual string) bool {
	e := strings.TrimSpace(strings.ToLower(expected))
	a := strings.TrimSpace(strings.ToLower(actual))
	if e == "" || a == "" {
		return e == a
	}
	return e == a || strings.Contains(e, a) || strings.Contains(a, e)
}

// learn implements spec.md §4.H step 14: persist every field whose
// answer came from the LLM oracle and survived verification.
func (e *Engine) learn(ctx context.Context, fields []models.FormField) {
	if e.learned == nil {
		return
	}
	for _, f := range fields {
		if f.Status != models.FieldVerified || f.Source != models.SourceOracle {
			continue
		}
		if err := e.learned.Record(e.company, f.Label, f.Value, f.Type, true, time.Now()); err != nil && e.logger != nil {
			e.logger.Warn().Err(err).Str("label", f.Label).Msg("autofill: failed to persist learned answer")
		}
	}
}
