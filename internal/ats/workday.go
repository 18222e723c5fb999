package ats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

// WorkdayParser fetches postings from a Workday CXS tenant's jobs endpoint,
// paginating until the server reports no more results.
type WorkdayParser struct {
	fetcher *httpFetcher
}

func (p *WorkdayParser) Tag() string { return "workday" }

const workdayPageSize = 20

type workdayRequest struct {
	AppliedFacets map[string]interface{} `json:"appliedFacets"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
	SearchText    string                 `json:"searchText"`
}

type workdayResponse struct {
	Total        int                `json:"total"`
	JobPostings  []workdayJobPosting `json:"jobPostings"`
}

type workdayJobPosting struct {
	Title               string `json:"title"`
	ExternalPath        string `json:"externalPath"`
	LocationsText       string `json:"locationsText"`
	PostedOn            string `json:"postedOn"`
	BulletFields        []string `json:"bulletFields"`
}

// FetchJobs posts to https://{host}/wday/cxs/{co}/{site}/jobs, paginating
// with limit/offset until offset >= total. boardURL is expected to carry
// the full Workday endpoint base
// (e.g. "https://acme.wd1.myworkdayjobs.com/wday/cxs/acme/External").
func (p *WorkdayParser) FetchJobs(ctx context.Context, company, boardURL string) ([]models.Job, error) {
	endpoint, err := workdayJobsEndpoint(boardURL)
	if err != nil {
		return nil, &interfaces.PermanentError{Err: err}
	}

	var jobs []models.Job
	offset := 0
	for {
		reqBody, err := json.Marshal(workdayRequest{
			AppliedFacets: map[string]interface{}{},
			Limit:         workdayPageSize,
			Offset:        offset,
		})
		if err != nil {
			return nil, &interfaces.PermanentError{Err: err}
		}

		body, err := p.fetcher.postJSON(ctx, endpoint+"/jobs", reqBody)
		if err != nil {
			return nil, err
		}

		var resp workdayResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &interfaces.PermanentError{Err: fmt.Errorf("decoding workday response: %w", err)}
		}

		for i, posting := range resp.JobPostings {
			atsJobID := fmt.Sprintf("%s-%d", strings.TrimPrefix(posting.ExternalPath, "/"), offset+i)
			jobs = append(jobs, models.Job{
				ATS:      p.Tag(),
				Company:  company,
				ATSJobID: atsJobID,
				ID:       models.JobID(p.Tag(), atsJobID),
				Title:    posting.Title,
				Location: posting.LocationsText,
				URL:      endpoint + posting.ExternalPath,
			})
		}

		offset += len(resp.JobPostings)
		if len(resp.JobPostings) == 0 || offset >= resp.Total {
			break
		}
	}

	return jobs, nil
}

func workdayJobsEndpoint(boardURL string) (string, error) {
	endpoint := strings.TrimSuffix(strings.TrimSpace(boardURL), "/")
	if endpoint == "" {
		return "", fmt.Errorf("empty workday board url")
	}
	return endpoint, nil
}
