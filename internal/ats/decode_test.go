package ats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vellum/internal/interfaces"
)

func TestDecodeGreenhouseJobs_MapsFieldsAndAnnotates(t *testing.T) {
	body := []byte(`{
		"jobs": [
			{
				"id": 4242,
				"title": "Senior Product Manager",
				"location": {"name": "Raleigh, NC"},
				"departments": [{"name": "Product"}],
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/4242",
				"first_published": "2026-01-15T00:00:00-05:00",
				"updated_at": "2026-02-01T00:00:00-05:00"
			}
		]
	}`)

	jobs, err := decodeGreenhouseJobs("Acme", body)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Equal(t, "greenhouse", job.ATS)
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, "4242", job.ATSJobID)
	assert.Equal(t, "greenhouse_4242", job.ID)
	assert.Equal(t, "Senior Product Manager", job.Title)
	assert.Equal(t, "Product", job.Department)
	assert.False(t, job.FirstPublished.IsZero())
}

func TestDecodeGreenhouseJobs_MissingOptionalFieldsAreEmptyNotNull(t *testing.T) {
	body := []byte(`{"jobs": [{"id": 1, "title": "Role", "location": {}, "absolute_url": "https://x"}]}`)

	jobs, err := decodeGreenhouseJobs("Acme", body)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "", jobs[0].Department)
	assert.Equal(t, "", jobs[0].Location)
	assert.True(t, jobs[0].FirstPublished.IsZero())
}

func TestDecodeGreenhouseJobs_MalformedBodyIsPermanentError(t *testing.T) {
	_, err := decodeGreenhouseJobs("Acme", []byte("not json"))
	require.Error(t, err)

	var permErr *interfaces.PermanentError
	assert.True(t, errors.As(err, &permErr))
}

func TestDecodeLeverJobs_MapsFields(t *testing.T) {
	body := []byte(`[
		{
			"id": "abc-123",
			"text": "Technical Program Manager",
			"categories": {"location": "Remote - USA", "team": "Engineering"},
			"hostedUrl": "https://jobs.lever.co/acme/abc-123",
			"createdAt": 1700000000000
		}
	]`)

	jobs, err := decodeLeverJobs("Acme", body)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "lever", jobs[0].ATS)
	assert.Equal(t, "lever_abc-123", jobs[0].ID)
	assert.Equal(t, "Engineering", jobs[0].Department)
	assert.False(t, jobs[0].FirstPublished.IsZero())
}
