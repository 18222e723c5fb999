package ingestion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vellum/internal/common"
	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

type fakeParser struct {
	tag  string
	jobs []models.Job
	err  error
}

func (f *fakeParser) Tag() string { return f.tag }
func (f *fakeParser) FetchJobs(ctx context.Context, company, boardURL string) ([]models.Job, error) {
	return f.jobs, f.err
}

type fakeParsers struct {
	byTag map[string]interfaces.ATSParser
}

func (f *fakeParsers) Get(tag string) (interfaces.ATSParser, bool) {
	p, ok := f.byTag[tag]
	return p, ok
}

type fakeStore struct {
	mu              sync.Mutex
	added           []models.Job
	lastSeenBulkIDs [][]string
	markMissingArgs []string
}

func (s *fakeStore) Add(job models.Job) error { return nil }
func (s *fakeStore) AddBulk(jobs []models.Job) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.added = append(s.added, jobs...)
	return len(jobs), 0, nil
}
func (s *fakeStore) UpdateStatus(id string, status models.Status, reason string) error { return nil }
func (s *fakeStore) UpdateDetails(id string, notes string, folderPath string, jdSummary *models.JDSummary) error {
	return nil
}
func (s *fakeStore) UpdateLastSeen(id string, at time.Time) error                      { return nil }
func (s *fakeStore) UpdateLastSeenBulk(ids []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeenBulkIDs = append(s.lastSeenBulkIDs, ids)
	return nil
}
func (s *fakeStore) MarkMissing(company string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markMissingArgs = append(s.markMissingArgs, company)
	return 0, nil
}
func (s *fakeStore) GetAll() ([]models.Job, error)                        { return nil, nil }
func (s *fakeStore) GetByStatus(st models.Status) ([]models.Job, error)   { return nil, nil }
func (s *fakeStore) GetActive() ([]models.Job, error)                     { return nil, nil }
func (s *fakeStore) GetArchive() ([]models.Job, error)                    { return nil, nil }
func (s *fakeStore) GetByID(id string) (models.Job, bool, error)          { return models.Job{}, false, nil }
func (s *fakeStore) Exists(id string) (bool, error)                       { return false, nil }
func (s *fakeStore) IsRejected(atsJobID string) (bool, error)             { return false, nil }
func (s *fakeStore) Stats() (interfaces.StoreStats, error)                { return interfaces.StoreStats{}, nil }

type fakeStatusCache struct {
	mu       sync.Mutex
	recorded []models.CompanyFetchStatus
}

func (c *fakeStatusCache) Put(status models.CompanyFetchStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorded = append(c.recorded, status)
	return nil
}
func (c *fakeStatusCache) Get(profile, company string) (models.CompanyFetchStatus, bool, error) {
	return models.CompanyFetchStatus{}, false, nil
}
func (c *fakeStatusCache) ListByProfile(profile string) ([]models.CompanyFetchStatus, error) {
	return nil, nil
}
func (c *fakeStatusCache) Close() error { return nil }

type fakeJDSummarizer struct {
	mu      sync.Mutex
	calls   []models.Job
	summary *models.JDSummary
	err     error
}

func (f *fakeJDSummarizer) Fetch(ctx context.Context, job models.Job) (*models.JDSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, job)
	return f.summary, f.err
}

type fakeDiscoverySniffer struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeDiscoverySniffer) Sniff(ctx context.Context, boardURL string) (*models.DiscoveryCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, boardURL)
	return nil, nil
}

func testConfig(companies ...common.CompanyConfig) common.IngestionConfig {
	return common.IngestionConfig{
		Companies:      companies,
		WorkerPoolSize: 4,
		SweepAfter:     48 * time.Hour,
		Geo: common.GeoConfig{
			TargetState: "NC",
			NeighborUSA: []string{"VA"},
			LocalCities: []string{"raleigh"},
		},
	}
}

func TestOrchestrator_FetchesAnnotatesAndBulkInserts(t *testing.T) {
	parsers := &fakeParsers{byTag: map[string]interfaces.ATSParser{
		"greenhouse": &fakeParser{tag: "greenhouse", jobs: []models.Job{
			{ATSJobID: "1", Title: "Senior Product Manager", Location: "Raleigh, NC"},
		}},
	}}
	store := &fakeStore{}
	statusCache := &fakeStatusCache{}

	orch := New(parsers, store, statusCache, nil, nil, nil,
		testConfig(common.CompanyConfig{Name: "Acme", ATS: "greenhouse", BoardURL: "acme", Priority: 10}),
		common.DefaultResolverDefaults(), "default")

	require.NoError(t, orch.Run(context.Background()))

	require.Len(t, store.added, 1)
	job := store.added[0]
	assert.Equal(t, "greenhouse", job.ATS)
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, "product", job.RoleFamily)
	assert.Equal(t, "local", job.GeoBucket)
	assert.Equal(t, 110, job.GeoScore) // 100 local + 10 priority

	require.Len(t, statusCache.recorded, 1)
	assert.True(t, statusCache.recorded[0].OK)
	assert.Equal(t, 1, len(store.lastSeenBulkIDs))
	assert.Equal(t, []string{"Acme"}, store.markMissingArgs)
}

func TestOrchestrator_PermanentErrorRecordsStatusAndContinues(t *testing.T) {
	parsers := &fakeParsers{byTag: map[string]interfaces.ATSParser{
		"greenhouse": &fakeParser{tag: "greenhouse", err: &interfaces.PermanentError{Err: errors.New("404")}},
		"lever":      &fakeParser{tag: "lever", jobs: []models.Job{{ATSJobID: "2", Title: "TPM", Location: "Remote"}}},
	}}
	store := &fakeStore{}
	statusCache := &fakeStatusCache{}

	orch := New(parsers, store, statusCache, nil, nil, nil,
		testConfig(
			common.CompanyConfig{Name: "Broken", ATS: "greenhouse", BoardURL: "broken"},
			common.CompanyConfig{Name: "Works", ATS: "lever", BoardURL: "works"},
		),
		common.DefaultResolverDefaults(), "default")

	require.NoError(t, orch.Run(context.Background()))

	require.Len(t, store.added, 1)
	assert.Equal(t, "Works", store.added[0].Company)

	require.Len(t, statusCache.recorded, 2)
	var brokenStatus models.CompanyFetchStatus
	for _, s := range statusCache.recorded {
		if s.Company == "Broken" {
			brokenStatus = s
		}
	}
	assert.False(t, brokenStatus.OK)
	assert.NotEmpty(t, brokenStatus.Error)
}

func TestOrchestrator_UnregisteredATSIsReportedNotFatal(t *testing.T) {
	parsers := &fakeParsers{byTag: map[string]interfaces.ATSParser{}}
	store := &fakeStore{}

	orch := New(parsers, store, nil, nil, nil, nil,
		testConfig(common.CompanyConfig{Name: "Unknown", ATS: "bamboohr", BoardURL: "x"}),
		common.DefaultResolverDefaults(), "default")

	require.NoError(t, orch.Run(context.Background()))
	assert.Empty(t, store.added)
}

func TestOrchestrator_UnregisteredATSTriggersDiscoverySniff(t *testing.T) {
	parsers := &fakeParsers{byTag: map[string]interfaces.ATSParser{}}
	store := &fakeStore{}
	sniffer := &fakeDiscoverySniffer{}

	orch := New(parsers, store, nil, nil, sniffer, nil,
		testConfig(common.CompanyConfig{Name: "Unknown", ATS: "bamboohr", BoardURL: "https://unknown.example.com/jobs"}),
		common.DefaultResolverDefaults(), "default")

	require.NoError(t, orch.Run(context.Background()))
	require.Len(t, sniffer.calls, 1)
	assert.Equal(t, "https://unknown.example.com/jobs", sniffer.calls[0])
}

func TestOrchestrator_SummarizesJobsAboveScoreThreshold(t *testing.T) {
	parsers := &fakeParsers{byTag: map[string]interfaces.ATSParser{
		"greenhouse": &fakeParser{tag: "greenhouse", jobs: []models.Job{
			{ATSJobID: "1", Title: "Senior Product Manager", Location: "Raleigh, NC"},
		}},
	}}
	store := &fakeStore{}
	summarizer := &fakeJDSummarizer{summary: &models.JDSummary{}}

	config := testConfig(common.CompanyConfig{Name: "Acme", ATS: "greenhouse", BoardURL: "acme", Priority: 10})
	config.JDSummaryEnabled = true
	config.JDSummaryMinScore = 50

	orch := New(parsers, store, nil, summarizer, nil, nil, config, common.DefaultResolverDefaults(), "default")

	require.NoError(t, orch.Run(context.Background()))
	require.Len(t, summarizer.calls, 1)
	require.Len(t, store.added, 1)
	assert.NotNil(t, store.added[0].JDSummary)
}

func TestOrchestrator_SkipsSummaryBelowScoreThreshold(t *testing.T) {
	parsers := &fakeParsers{byTag: map[string]interfaces.ATSParser{
		"greenhouse": &fakeParser{tag: "greenhouse", jobs: []models.Job{
			{ATSJobID: "1", Title: "Senior Product Manager", Location: "Somewhere Else"},
		}},
	}}
	store := &fakeStore{}
	summarizer := &fakeJDSummarizer{summary: &models.JDSummary{}}

	config := testConfig(common.CompanyConfig{Name: "Acme", ATS: "greenhouse", BoardURL: "acme"})
	config.JDSummaryEnabled = true
	config.JDSummaryMinScore = 1000

	orch := New(parsers, store, nil, summarizer, nil, nil, config, common.DefaultResolverDefaults(), "default")

	require.NoError(t, orch.Run(context.Background()))
	assert.Empty(t, summarizer.calls)
	require.Len(t, store.added, 1)
	assert.Nil(t, store.added[0].JDSummary)
}
