package ats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

// GreenhouseParser fetches postings from the Greenhouse boards API.
type GreenhouseParser struct {
	fetcher *httpFetcher
}

func (p *GreenhouseParser) Tag() string { return "greenhouse" }

type ghResponse struct {
	Jobs []ghJob `json:"jobs"`
}

type ghJob struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	Departments []struct {
		Name string `json:"name"`
	} `json:"departments"`
	AbsoluteURL    string `json:"absolute_url"`
	FirstPublished string `json:"first_published"`
	UpdatedAt      string `json:"updated_at"`
}

// FetchJobs calls GET https://boards-api.greenhouse.io/v1/boards/{slug}/jobs.
// boardURL carries the company's board slug.
func (p *GreenhouseParser) FetchJobs(ctx context.Context, company, boardURL string) ([]models.Job, error) {
	slug, err := boardSlug(boardURL)
	if err != nil {
		return nil, &interfaces.PermanentError{Err: err}
	}

	endpoint := fmt.Sprintf("https://boards-api.greenhouse.io/v1/boards/%s/jobs", slug)
	body, err := p.fetcher.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return decodeGreenhouseJobs(company, body)
}

func decodeGreenhouseJobs(company string, body []byte) ([]models.Job, error) {
	var resp ghResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &interfaces.PermanentError{Err: fmt.Errorf("decoding greenhouse response: %w", err)}
	}

	jobs := make([]models.Job, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		dept := ""
		if len(j.Departments) > 0 {
			dept = j.Departments[0].Name
		}
		atsJobID := fmt.Sprintf("%d", j.ID)
		job := models.Job{
			ATS:        "greenhouse",
			Company:    company,
			ATSJobID:   atsJobID,
			ID:         models.JobID("greenhouse", atsJobID),
			Title:      j.Title,
			Location:   j.Location.Name,
			Department: dept,
			URL:        j.AbsoluteURL,
		}
		job.FirstPublished, _ = parseATSTime(j.FirstPublished)
		job.UpdatedAt, _ = parseATSTime(j.UpdatedAt)
		jobs = append(jobs, job)
	}
	return jobs, nil
}
