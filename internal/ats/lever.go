package ats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

// LeverParser fetches postings from the Lever postings API.
type LeverParser struct {
	fetcher *httpFetcher
}

func (p *LeverParser) Tag() string { return "lever" }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Categories struct {
		Location string `json:"location"`
		Team     string `json:"team"`
	} `json:"categories"`
	HostedURL string `json:"hostedUrl"`
	CreatedAt int64  `json:"createdAt"` // epoch milliseconds
}

// FetchJobs calls GET https://api.lever.co/v0/postings/{slug}?mode=json.
func (p *LeverParser) FetchJobs(ctx context.Context, company, boardURL string) ([]models.Job, error) {
	slug, err := boardSlug(boardURL)
	if err != nil {
		return nil, &interfaces.PermanentError{Err: err}
	}

	endpoint := fmt.Sprintf("https://api.lever.co/v0/postings/%s?mode=json", slug)
	body, err := p.fetcher.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return decodeLeverJobs(company, body)
}

func decodeLeverJobs(company string, body []byte) ([]models.Job, error) {
	var postings []leverPosting
	if err := json.Unmarshal(body, &postings); err != nil {
		return nil, &interfaces.PermanentError{Err: fmt.Errorf("decoding lever response: %w", err)}
	}

	jobs := make([]models.Job, 0, len(postings))
	for _, posting := range postings {
		job := models.Job{
			ATS:        "lever",
			Company:    company,
			ATSJobID:   posting.ID,
			ID:         models.JobID("lever", posting.ID),
			Title:      posting.Text,
			Location:   posting.Categories.Location,
			Department: posting.Categories.Team,
			URL:        posting.HostedURL,
		}
		if posting.CreatedAt > 0 {
			job.FirstPublished = time.UnixMilli(posting.CreatedAt)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
