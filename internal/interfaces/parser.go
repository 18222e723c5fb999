package interfaces

import (
	"context"

	"github.com/ternarybob/vellum/internal/models"
)

// ATSParser is the plug-in contract every per-ATS adapter (Greenhouse,
// Lever, Workday, Ashby, SmartRecruiters) satisfies. Registered into the
// ATS Parser Registry (component D) by tag.
type ATSParser interface {
	// Tag returns the short ATS identifier used in job IDs ("greenhouse",
	// "lever", ...).
	Tag() string

	// FetchJobs retrieves the current open-job listing for boardURL and
	// returns normalized-but-unannotated jobs (role/geo annotation is the
	// Normalizer's job, not the parser's).
	FetchJobs(ctx context.Context, company, boardURL string) ([]models.Job, error)
}

// TransientError marks a request-level parser failure (network timeout,
// connection error) that persisted through the fetcher's own retries; a
// later run may succeed. HTTP error statuses, including 5xx and 429, are
// reported as PermanentError once the retries are spent.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a parser failure retrying will not fix (404,
// malformed board config, 410 gone).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }
