package ats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

// AshbyParser fetches postings from the Ashby public job-board API.
type AshbyParser struct {
	fetcher *httpFetcher
}

func (p *AshbyParser) Tag() string { return "ashby" }

type ashbyResponse struct {
	Jobs []ashbyJob `json:"jobs"`
}

type ashbyJob struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Location     string `json:"location"`
	Department   string `json:"department"`
	JobURL       string `json:"jobUrl"`
	PublishedAt  string `json:"publishedAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// FetchJobs calls GET https://api.ashbyhq.com/posting-api/job-board/{slug}.
func (p *AshbyParser) FetchJobs(ctx context.Context, company, boardURL string) ([]models.Job, error) {
	slug, err := boardSlug(boardURL)
	if err != nil {
		return nil, &interfaces.PermanentError{Err: err}
	}

	endpoint := fmt.Sprintf("https://api.ashbyhq.com/posting-api/job-board/%s", slug)
	body, err := p.fetcher.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp ashbyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &interfaces.PermanentError{Err: fmt.Errorf("decoding ashby response: %w", err)}
	}

	jobs := make([]models.Job, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		job := models.Job{
			ATS:        p.Tag(),
			Company:    company,
			ATSJobID:   j.ID,
			ID:         models.JobID(p.Tag(), j.ID),
			Title:      j.Title,
			Location:   j.Location,
			Department: j.Department,
			URL:        j.JobURL,
		}
		job.FirstPublished, _ = parseATSTime(j.PublishedAt)
		job.UpdatedAt, _ = parseATSTime(j.UpdatedAt)
		jobs = append(jobs, job)
	}
	return jobs, nil
}
