// Package jdsummary implements the JD Fetch & Summarizer (component L):
// a best-effort collaborator that fetches a job posting's page, converts
// it to markdown, and asks the Oracle to extract a structured summary.
package jdsummary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

// maxMarkdownChars bounds the content sent to the Oracle so a bloated
// posting page doesn't blow the prompt budget.
const maxMarkdownChars = 8000

const extractionPromptTemplate = `You are extracting structured data from a job posting. Read the job description below and respond with nothing but a single JSON object of this exact shape:

{"responsibilities": ["..."], "requirements": ["..."], "seniority": "...", "remote_policy": "..."}

seniority should be one of: intern, entry, mid, senior, staff, principal, unknown.
remote_policy should be one of: remote, hybrid, onsite, unknown.

Job description:
%s`

// Fetcher is the concrete JD Fetch & Summarizer.
type Fetcher struct {
	client *http.Client
	oracle interfaces.Oracle
	conv   *md.Converter
}

// New constructs a Fetcher. client may be nil, in which case
// http.DefaultClient is used.
func New(client *http.Client, oracle interfaces.Oracle) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, oracle: oracle, conv: md.NewConverter("", true, nil)}
}

// Fetch retrieves job.URL, converts it to markdown, and asks the Oracle
// to extract a JDSummary. Every failure stage returns (nil, err); the
// caller treats a failed fetch as best-effort and proceeds without a
// summary.
func (f *Fetcher) Fetch(ctx context.Context, job models.Job) (*models.JDSummary, error) {
	if job.URL == "" {
		return nil, fmt.Errorf("jdsummary: job has no URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("jdsummary: building request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jdsummary: fetching %s: %w", job.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("jdsummary: unexpected status %d fetching %s", resp.StatusCode, job.URL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("jdsummary: reading body: %w", err)
	}

	markdown, err := f.conv.ConvertString(string(body))
	if err != nil {
		return nil, fmt.Errorf("jdsummary: converting to markdown: %w", err)
	}
	markdown = truncate(markdown, maxMarkdownChars)

	if f.oracle == nil {
		return nil, fmt.Errorf("jdsummary: no oracle configured")
	}

	raw, err := f.oracle.Generate(ctx, fmt.Sprintf(extractionPromptTemplate, markdown))
	if err != nil {
		return nil, fmt.Errorf("jdsummary: oracle generation failed: %w", err)
	}

	summary, err := parseSummary(raw)
	if err != nil {
		return nil, fmt.Errorf("jdsummary: parsing oracle response: %w", err)
	}
	summary.FetchedAt = time.Now()
	return summary, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// parseSummary extracts the JSON object from the oracle's raw response,
// tolerating surrounding prose or a markdown code fence since the Oracle
// contract makes no guarantee of bare JSON output.
func parseSummary(raw string) (*models.JDSummary, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var summary models.JDSummary
	if err := json.Unmarshal([]byte(raw[start:end+1]), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
