// Package ingestion implements the Ingestion Orchestrator (component E):
// for every configured (company, ats, board_url), it invokes the
// registered ATS parser, annotates the returned jobs, and bulk-writes them
// into the Pipeline Store, finishing with the last-seen sweep that demotes
// postings no longer observed on the source.
package ingestion

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vellum/internal/common"
	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
	"github.com/ternarybob/vellum/internal/normalize"
)

// Parsers resolves an ATS tag to its parser, satisfied by *ats.Registry.
type Parsers interface {
	Get(tag string) (interfaces.ATSParser, bool)
}

// JDSummarizer fetches and summarizes a job's full posting, satisfied by
// *jdsummary.Fetcher.
type JDSummarizer interface {
	Fetch(ctx context.Context, job models.Job) (*models.JDSummary, error)
}

// DiscoverySniffer fingerprints a board URL for an ATS vendor the Parsers
// registry doesn't recognize, satisfied by *discovery.Sniffer.
type DiscoverySniffer interface {
	Sniff(ctx context.Context, boardURL string) (*models.DiscoveryCandidate, error)
}

// Orchestrator runs one ingestion pass across every configured company,
// bounding concurrency with a semaphore so distinct companies' parsers run
// in parallel without unbounded goroutine fan-out.
type Orchestrator struct {
	parsers       Parsers
	store         interfaces.PipelineStore
	statusCache   interfaces.CompanyStatusCache
	jdSummary     JDSummarizer
	discovery     DiscoverySniffer
	logger        arbor.ILogger
	config        common.IngestionConfig
	resolver      common.ResolverDefaults
	profile       string
}

// New constructs an Orchestrator. statusCache, jdSummary, and discovery may
// all be nil, in which case company fetch status recording, JD
// summarization, and unregistered-ATS discovery are each skipped.
func New(
	parsers Parsers,
	store interfaces.PipelineStore,
	statusCache interfaces.CompanyStatusCache,
	jdSummary JDSummarizer,
	discovery DiscoverySniffer,
	logger arbor.ILogger,
	config common.IngestionConfig,
	resolver common.ResolverDefaults,
	profile string,
) *Orchestrator {
	return &Orchestrator{
		parsers:     parsers,
		store:       store,
		statusCache: statusCache,
		jdSummary:   jdSummary,
		discovery:   discovery,
		logger:      logger,
		config:      config,
		resolver:    resolver,
		profile:     profile,
	}
}

// companyResult is one company's fetch outcome, merged before the single
// bulk write to the store.
type companyResult struct {
	company common.CompanyConfig
	jobs    []models.Job
	err     error
}

// Run executes one full ingestion pass: fan out to every configured
// company concurrently (bounded by WorkerPoolSize), annotate and merge the
// results, bulk-insert into the store, then sweep postings not observed in
// this pass.
func (o *Orchestrator) Run(ctx context.Context) error {
	poolSize := o.config.WorkerPoolSize
	if poolSize <= 0 {
		poolSize = 1
	}

	results := make([]companyResult, len(o.config.Companies))
	sem := make(chan struct{}, poolSize)
	var wg sync.WaitGroup

	for i, company := range o.config.Companies {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, company common.CompanyConfig) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					results[i] = companyResult{company: company, err: errorFromPanic(r)}
				}
			}()
			results[i] = o.fetchOne(ctx, company)
		}(i, company)
	}
	wg.Wait()

	var allJobs []models.Job
	observedByCompany := make(map[string][]string)

	for _, res := range results {
		o.recordStatus(res)
		if res.err != nil {
			if o.logger != nil {
				o.logger.Warn().Err(res.err).Str("company", res.company.Name).Msg("ingestion: company fetch failed")
			}
			continue
		}
		for _, job := range res.jobs {
			o.annotate(&job, res.company)
			o.maybeSummarize(ctx, &job)
			allJobs = append(allJobs, job)
			observedByCompany[res.company.Name] = append(observedByCompany[res.company.Name], job.ATSJobID)
		}
	}

	if len(allJobs) > 0 {
		if _, _, err := o.store.AddBulk(allJobs); err != nil {
			return err
		}
	}

	now := time.Now()
	for _, company := range o.config.Companies {
		ids := observedByCompany[company.Name]
		if len(ids) > 0 {
			if err := o.store.UpdateLastSeenBulk(ids, now); err != nil {
				return err
			}
		}
		cutoff := now.Add(-o.config.SweepAfter)
		if _, err := o.store.MarkMissing(company.Name, cutoff); err != nil {
			return err
		}
	}

	return nil
}

func (o *Orchestrator) fetchOne(ctx context.Context, company common.CompanyConfig) companyResult {
	parser, ok := o.parsers.Get(company.ATS)
	if !ok {
		o.sniffUnregistered(ctx, company)
		return companyResult{company: company, err: errors.New("no parser registered for ats " + company.ATS)}
	}

	jobs, err := parser.FetchJobs(ctx, company.Name, company.BoardURL)
	return companyResult{company: company, jobs: jobs, err: err}
}

// sniffUnregistered implements the Company/ATS Discovery trigger: a board
// configured against an ATS tag the Parsers registry doesn't know gets
// fingerprinted so a future vendor can be recognized without a manual
// parser addition.
func (o *Orchestrator) sniffUnregistered(ctx context.Context, company common.CompanyConfig) {
	if o.discovery == nil || company.BoardURL == "" {
		return
	}
	if _, err := o.discovery.Sniff(ctx, company.BoardURL); err != nil && o.logger != nil {
		o.logger.Warn().Err(err).Str("company", company.Name).Msg("ingestion: discovery sniff failed")
	}
}

// maybeSummarize fetches a best-effort JD summary for jobs scoring above
// the configured threshold, attaching it before the bulk store write.
func (o *Orchestrator) maybeSummarize(ctx context.Context, job *models.Job) {
	if o.jdSummary == nil || !o.config.JDSummaryEnabled {
		return
	}
	if job.GeoScore < o.config.JDSummaryMinScore {
		return
	}
	summary, err := o.jdSummary.Fetch(ctx, *job)
	if err != nil {
		if o.logger != nil {
			o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("ingestion: jd summary fetch failed")
		}
		return
	}
	job.JDSummary = summary
}

// annotate adds company-level and derived fields to job in place, per
// spec.md §4.E step 2.
func (o *Orchestrator) annotate(job *models.Job, company common.CompanyConfig) {
	job.ATS = company.ATS
	job.Company = company.Name
	job.ID = models.JobID(job.ATS, job.ATSJobID)

	job.LocationNorm = normalize.Location(job.Location, normalize.LocationOptions{
		MultiStatePrimary: o.resolver.MultiStatePrimary,
	})

	role := normalize.Role(job.Title, "", o.resolver.RoleFamilyOverrides)
	job.RoleFamily = role.Family
	job.RoleConfidence = role.Confidence

	bucket, score := normalize.Geo(job.LocationNorm, normalize.GeoParams{
		TargetState: o.config.Geo.TargetState,
		NeighborUSA: toSet(o.config.Geo.NeighborUSA),
		LocalCities: toLowerSet(o.config.Geo.LocalCities),
	})
	job.GeoBucket = bucket
	job.GeoScore = score + company.Priority
}

func (o *Orchestrator) recordStatus(res companyResult) {
	if o.statusCache == nil {
		return
	}
	status := models.CompanyFetchStatus{
		Profile:   o.profile,
		Company:   res.company.Name,
		ATS:       res.company.ATS,
		URL:       res.company.BoardURL,
		OK:        res.err == nil,
		JobCount:  len(res.jobs),
		CheckedAt: time.Now(),
	}
	if res.err != nil {
		status.Error = res.err.Error()
	}
	if err := o.statusCache.Put(status); err != nil && o.logger != nil {
		o.logger.Warn().Err(err).Str("company", res.company.Name).Msg("ingestion: failed to record company fetch status")
	}
}

func errorFromPanic(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.New("ingestion: panic during company fetch")
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}

func toLowerSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[lower(it)] = true
	}
	return out
}

func lower(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r - 'A' + 'a'
		}
		out = append(out, r)
	}
	return string(out)
}
