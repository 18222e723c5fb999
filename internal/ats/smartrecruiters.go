package ats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

// SmartRecruitersParser fetches postings from the SmartRecruiters public
// postings API, paginating with limit/offset.
type SmartRecruitersParser struct {
	fetcher *httpFetcher
}

func (p *SmartRecruitersParser) Tag() string { return "smartrecruiters" }

const smartRecruitersPageSize = 100

type smartRecruitersResponse struct {
	TotalFound int                    `json:"totalFound"`
	Content    []smartRecruitersPosting `json:"content"`
}

type smartRecruitersPosting struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Department struct {
		Label string `json:"label"`
	} `json:"department"`
	ReleasedDate string `json:"releasedDate"`
	UpdatedOn    string `json:"updatedOn"`
}

// FetchJobs calls GET
// https://api.smartrecruiters.com/v1/companies/{slug}/postings?limit&offset.
func (p *SmartRecruitersParser) FetchJobs(ctx context.Context, company, boardURL string) ([]models.Job, error) {
	slug, err := boardSlug(boardURL)
	if err != nil {
		return nil, &interfaces.PermanentError{Err: err}
	}

	var jobs []models.Job
	offset := 0
	for {
		endpoint := fmt.Sprintf("https://api.smartrecruiters.com/v1/companies/%s/postings?limit=%d&offset=%d",
			slug, smartRecruitersPageSize, offset)
		body, err := p.fetcher.get(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		var resp smartRecruitersResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &interfaces.PermanentError{Err: fmt.Errorf("decoding smartrecruiters response: %w", err)}
		}

		for _, posting := range resp.Content {
			location := posting.Location.City
			if posting.Location.Region != "" {
				location = location + ", " + posting.Location.Region
			}
			job := models.Job{
				ATS:        p.Tag(),
				Company:    company,
				ATSJobID:   posting.ID,
				ID:         models.JobID(p.Tag(), posting.ID),
				Title:      posting.Name,
				Location:   location,
				Department: posting.Department.Label,
				URL:        fmt.Sprintf("https://jobs.smartrecruiters.com/%s/%s", slug, posting.ID),
			}
			job.FirstPublished, _ = parseATSTime(posting.ReleasedDate)
			job.UpdatedAt, _ = parseATSTime(posting.UpdatedOn)
			jobs = append(jobs, job)
		}

		offset += len(resp.Content)
		if len(resp.Content) == 0 || offset >= resp.TotalFound {
			break
		}
	}

	return jobs, nil
}
