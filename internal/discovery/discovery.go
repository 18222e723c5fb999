// Package discovery implements the Company/ATS Discovery sniffer
// (component K): given a board URL that matched no registered parser
// convention, it fetches the page and inspects the DOM for fingerprints
// of a known ATS, staging a DiscoveryCandidate for human review without
// ever touching the Pipeline Store.
package discovery

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

const candidatesKey = "discovery/unsupported_ats.json"

// fingerprint is one known-host or generator-meta signature checked
// against the fetched page.
type fingerprint struct {
	ats        string
	hostSubstr string
	confidence float64
}

var hostFingerprints = []fingerprint{
	{ats: "greenhouse", hostSubstr: "boards-api.greenhouse.io", confidence: 1.0},
	{ats: "lever", hostSubstr: "jobs.lever.co", confidence: 1.0},
	{ats: "ashby", hostSubstr: "ashbyhq.com", confidence: 1.0},
	{ats: "workday", hostSubstr: "myworkday.com", confidence: 1.0},
	{ats: "smartrecruiters", hostSubstr: "jobs.smartrecruiters.com", confidence: 1.0},
}

var generatorFingerprints = map[string]string{
	"greenhouse":      "greenhouse",
	"lever":           "lever",
	"ashby":           "ashby",
	"workday":         "workday",
	"smartrecruiters": "smartrecruiters",
}

var textHints = map[string]string{
	"powered by greenhouse":      "greenhouse",
	"powered by lever":           "lever",
	"powered by ashby":           "ashby",
	"workday":                    "workday",
	"powered by smartrecruiters": "smartrecruiters",
}

// candidatesFile is the on-disk shape of the discovery scratch area,
// keyed by board URL so re-running discovery on the same URL updates the
// existing entry instead of appending a duplicate.
type candidatesFile struct {
	Candidates map[string]models.DiscoveryCandidate `json:"candidates"`
}

// Sniffer runs the discovery fetch-and-fingerprint pass.
type Sniffer struct {
	client *http.Client
	kernel interfaces.StorageKernel
	logger arbor.ILogger
}

// New constructs a Sniffer. client may be nil, in which case
// http.DefaultClient is used.
func New(client *http.Client, kernel interfaces.StorageKernel, logger arbor.ILogger) *Sniffer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Sniffer{client: client, kernel: kernel, logger: logger}
}

// Sniff fetches boardURL and stages a DiscoveryCandidate if any
// fingerprint fires. It never returns an error for a fingerprint miss —
// only for a fetch-level failure, since discovery is best-effort and
// re-run on the next sweep regardless.
func (s *Sniffer) Sniff(ctx context.Context, boardURL string) (*models.DiscoveryCandidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, boardURL, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: building request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery: fetching %s: %w", boardURL, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("discovery: parsing %s: %w", boardURL, err)
	}

	candidate := fingerprintDocument(doc, boardURL)
	if candidate == nil {
		return nil, nil
	}

	if err := s.stage(*candidate); err != nil {
		return candidate, err
	}
	return candidate, nil
}

// fingerprintDocument applies the three detection rungs in descending
// confidence order, keeping the highest-confidence match found across
// all evidence rather than stopping at the first hit, since a page can
// carry both a generator meta tag and a lower-confidence text hint.
func fingerprintDocument(doc *goquery.Document, boardURL string) *models.DiscoveryCandidate {
	best := ""
	bestConfidence := 0.0
	var evidence []string

	doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		for _, fp := range hostFingerprints {
			if strings.Contains(src, fp.hostSubstr) {
				evidence = append(evidence, "script host: "+fp.hostSubstr)
				if fp.confidence > bestConfidence {
					best, bestConfidence = fp.ats, fp.confidence
				}
			}
		}
	})

	generator, _ := doc.Find(`meta[name="generator"]`).Attr("content")
	generator = strings.ToLower(generator)
	for marker, ats := range generatorFingerprints {
		if strings.Contains(generator, marker) {
			evidence = append(evidence, "generator meta: "+generator)
			if 0.7 > bestConfidence {
				best, bestConfidence = ats, 0.7
			}
		}
	}

	bodyText := strings.ToLower(doc.Find("body").Text())
	for hint, ats := range textHints {
		if strings.Contains(bodyText, hint) {
			evidence = append(evidence, "text hint: "+hint)
			if 0.3 > bestConfidence {
				best, bestConfidence = ats, 0.3
			}
		}
	}

	if best == "" {
		return nil
	}

	sort.Strings(evidence)
	return &models.DiscoveryCandidate{
		BoardURL:   boardURL,
		GuessedATS: best,
		Confidence: bestConfidence,
		Evidence:   evidence,
		StagedAt:   time.Now(),
	}
}

func (s *Sniffer) stage(candidate models.DiscoveryCandidate) error {
	var file candidatesFile
	if err := s.kernel.Load(candidatesKey, &file); err != nil {
		return err
	}
	if file.Candidates == nil {
		file.Candidates = make(map[string]models.DiscoveryCandidate)
	}
	file.Candidates[candidate.BoardURL] = candidate
	return s.kernel.Save(candidatesKey, file)
}

// Candidates returns every currently staged candidate, for a future
// human-review endpoint or CLI command.
func (s *Sniffer) Candidates() ([]models.DiscoveryCandidate, error) {
	var file candidatesFile
	if err := s.kernel.Load(candidatesKey, &file); err != nil {
		return nil, err
	}
	out := make([]models.DiscoveryCandidate, 0, len(file.Candidates))
	for _, c := range file.Candidates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BoardURL < out[j].BoardURL })
	return out, nil
}
