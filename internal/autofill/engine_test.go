package autofill

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vellum/internal/common"
	"github.com/ternarybob/vellum/internal/models"
)

// fakePage is an in-memory PageController for engine tests: it owns a
// fixed field list and a map of selector -> current value, and reports
// back exactly what SetValue wrote when ReadValue is called, modelling a
// form that accepts every fill without JS-side rejection.
type fakePage struct {
	mu          sync.Mutex
	fields      []models.FormField
	values      map[string]string
	checked     map[string]bool
	checkedReads []string
	prescanned  map[string][]models.FieldOption
	uploaded    map[string]string
	jobTitle, jobURL, jobDescription string
	clicks      []string
	navigated   string
	scans       int
	mismatchReads bool
}

func newFakePage(fields []models.FormField) *fakePage {
	return &fakePage{fields: fields, values: make(map[string]string), checked: make(map[string]bool), uploaded: make(map[string]string)}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.navigated = url
	return nil
}
func (p *fakePage) WaitStable(ctx context.Context, timeout time.Duration) error { return nil }
func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, selector)
	return errors.New("no such apply control in fake page")
}
func (p *fakePage) Scan(ctx context.Context) ([]models.FormField, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scans++
	out := make([]models.FormField, len(p.fields))
	copy(out, p.fields)
	return out, nil
}
func (p *fakePage) SetValue(ctx context.Context, field models.FormField, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[field.Selector] = value
	return nil
}
func (p *fakePage) UploadFile(ctx context.Context, selector, localPath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploaded[selector] = localPath
	return nil
}
func (p *fakePage) IsChecked(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkedReads = append(p.checkedReads, selector)
	return p.checked[selector], nil
}
func (p *fakePage) OpenOptions(ctx context.Context, selector string) ([]models.FieldOption, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prescanned[selector], nil
}
func (p *fakePage) JobContext(ctx context.Context) (string, string, string, error) {
	return p.jobTitle, p.jobURL, p.jobDescription, nil
}
func (p *fakePage) ReadValue(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mismatchReads {
		return "something else entirely", nil
	}
	return p.values[selector], nil
}
func (p *fakePage) Blur(ctx context.Context) error                                  { return nil }
func (p *fakePage) Screenshot(ctx context.Context, selector string) ([]byte, error) { return nil, nil }
func (p *fakePage) Close() error                                                    { return nil }

func testProfileForEngine() models.Profile {
	return models.Profile{
		Personal: models.PersonalInfo{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"},
	}
}

func TestEngine_FillsAndVerifiesProfileField(t *testing.T) {
	fields := []models.FormField{
		{Selector: `input[name="email"]`, Label: "Email", Type: models.FieldText, Status: models.FieldPending},
	}
	page := newFakePage(fields)
	profile := testProfileForEngine()
	resolver := NewResolver(profile, models.NewLearnedAnswers(), common.DefaultResolverDefaults(), nil, "Acme")
	engine := New(page, resolver, nil, nil, common.AutofillConfig{MaxRescans: 1}, profile, "Acme")

	result, err := engine.Run(context.Background(), "https://boards.greenhouse.io/acme/jobs/1")
	require.NoError(t, err)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, models.FieldVerified, result.Fields[0].Status)
	assert.Equal(t, "jane@example.com", result.Fields[0].Value)
}

func TestEngine_UnresolvableFieldEndsSkipped(t *testing.T) {
	fields := []models.FormField{
		{Selector: "#mystery", Label: "Describe your spirit animal", Type: models.FieldText, Status: models.FieldPending},
	}
	page := newFakePage(fields)
	profile := models.Profile{}
	resolver := NewResolver(profile, models.NewLearnedAnswers(), common.DefaultResolverDefaults(), nil, "Acme")
	engine := New(page, resolver, nil, nil, common.AutofillConfig{MaxRescans: 1}, profile, "Acme")

	result, err := engine.Run(context.Background(), "https://boards.greenhouse.io/acme/jobs/1")
	require.NoError(t, err)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, models.FieldSkipped, result.Fields[0].Status)
}

func TestEngine_VerificationMismatchMarksFailed(t *testing.T) {
	fields := []models.FormField{
		{Selector: `input[name="email"]`, Label: "Email", Type: models.FieldText, Status: models.FieldPending},
	}
	page := newFakePage(fields)
	page.mismatchReads = true
	profile := testProfileForEngine()
	resolver := NewResolver(profile, models.NewLearnedAnswers(), common.DefaultResolverDefaults(), nil, "Acme")
	engine := New(page, resolver, nil, nil, common.AutofillConfig{MaxRescans: 1}, profile, "Acme")

	result, err := engine.Run(context.Background(), "https://boards.greenhouse.io/acme/jobs/1")
	require.NoError(t, err)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, models.FieldFailed, result.Fields[0].Status)
}

func TestEngine_LearnsOracleSourcedVerifiedAnswers(t *testing.T) {
	fields := []models.FormField{
		{Selector: "#why", Label: "Why do you want to work here", Type: models.FieldText, Status: models.FieldPending},
	}
	page := newFakePage(fields)
	profile := models.Profile{}
	oracle := &fakeOracle{generateResp: "Because the mission matters to me"}
	resolver := NewResolver(profile, models.NewLearnedAnswers(), common.DefaultResolverDefaults(), oracle, "Acme")
	recorder := &recordingLearnedDB{}
	engine := New(page, resolver, recorder, nil, common.AutofillConfig{MaxRescans: 1}, profile, "Acme")

	_, err := engine.Run(context.Background(), "https://boards.greenhouse.io/acme/jobs/1")
	require.NoError(t, err)
	require.Len(t, recorder.recorded, 1)
	assert.Equal(t, "Because the mission matters to me", recorder.recorded[0].value)
}

func TestEngine_ExtractsJobInfoFromPageContext(t *testing.T) {
	page := newFakePage(nil)
	page.jobTitle = "Senior Backend Engineer - Acme Corp"
	page.jobURL = "https://boards.greenhouse.io/acme/jobs/1"
	page.jobDescription = "Build the pipeline."
	profile := models.Profile{}
	resolver := NewResolver(profile, models.NewLearnedAnswers(), common.DefaultResolverDefaults(), nil, "")
	engine := New(page, resolver, nil, nil, common.AutofillConfig{MaxRescans: 1}, profile, "")

	result, err := engine.Run(context.Background(), page.jobURL)
	require.NoError(t, err)
	assert.Equal(t, "Senior Backend Engineer", result.JobInfo.Title)
	assert.Equal(t, "acme", result.JobInfo.Company)
	assert.Equal(t, "Build the pipeline.", result.JobInfo.Description)
}

func TestEngine_FileFieldWithoutDocumentConfiguredIsSkipped(t *testing.T) {
	fields := []models.FormField{
		{Selector: "#resume", Label: "Resume", Type: models.FieldFile, Status: models.FieldPending},
	}
	page := newFakePage(fields)
	profile := models.Profile{}
	resolver := NewResolver(profile, models.NewLearnedAnswers(), common.DefaultResolverDefaults(), nil, "Acme")
	engine := New(page, resolver, nil, nil, common.AutofillConfig{MaxRescans: 1}, profile, "Acme")

	result, err := engine.Run(context.Background(), "https://boards.greenhouse.io/acme/jobs/1")
	require.NoError(t, err)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, models.FieldSkipped, result.Fields[0].Status)
	assert.Empty(t, page.uploaded)
}

func TestEngine_FileFieldWithInvalidDocumentFails(t *testing.T) {
	fields := []models.FormField{
		{Selector: "#resume", Label: "Resume", Type: models.FieldFile, Status: models.FieldPending},
	}
	page := newFakePage(fields)
	profile := models.Profile{Files: models.ProfileFiles{DefaultResume: "/nonexistent/resume.pdf"}}
	resolver := NewResolver(profile, models.NewLearnedAnswers(), common.DefaultResolverDefaults(), nil, "Acme")
	engine := New(page, resolver, nil, nil, common.AutofillConfig{MaxRescans: 1}, profile, "Acme")

	result, err := engine.Run(context.Background(), "https://boards.greenhouse.io/acme/jobs/1")
	require.NoError(t, err)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, models.FieldFailed, result.Fields[0].Status)
	assert.Empty(t, page.uploaded)
}

func TestPrescanOptions_SkipsSelect2AndSearchFields(t *testing.T) {
	fields := []models.FormField{
		{Selector: "s2id_school_0", Label: "School", Type: models.FieldAutocomplete},
		{Selector: "#location", Label: "Location", Type: models.FieldAutocomplete},
		{Selector: "#department", Label: "Department", Type: models.FieldAutocomplete},
	}
	page := newFakePage(nil)
	page.prescanned = map[string][]models.FieldOption{
		"#department": {{Value: "eng", Label: "Engineering"}},
	}
	profile := models.Profile{}
	resolver := NewResolver(profile, models.NewLearnedAnswers(), common.DefaultResolverDefaults(), nil, "Acme")
	engine := New(page, resolver, nil, nil, common.AutofillConfig{MaxRescans: 1}, profile, "Acme")

	out := engine.prescanOptions(context.Background(), fields)
	assert.Empty(t, out[0].Options)
	assert.Empty(t, out[1].Options)
	assert.Equal(t, []models.FieldOption{{Value: "eng", Label: "Engineering"}}, out[2].Options)
}

type recordingLearnedDB struct {
	recorded []struct {
		company, label, value string
	}
}

func (r *recordingLearnedDB) Lookup(company, label string) (models.LearnedAnswer, bool, error) {
	return models.LearnedAnswer{}, false, nil
}
func (r *recordingLearnedDB) Record(company, label, value string, ft models.FieldType, confirmed bool, at time.Time) error {
	r.recorded = append(r.recorded, struct{ company, label, value string }{company, label, value})
	return nil
}
func (r *recordingLearnedDB) All() (models.LearnedAnswers, error) {
	return models.NewLearnedAnswers(), nil
}
