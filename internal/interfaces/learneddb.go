package interfaces

import (
	"time"

	"github.com/ternarybob/vellum/internal/models"
)

// LearnedDB is the Learned-answer DB (component J). Reads go through the
// same per-file mutex as writes so a lookup never observes a torn write.
type LearnedDB interface {
	Lookup(company, label string) (models.LearnedAnswer, bool, error)
	Record(company, label, value string, ft models.FieldType, confirmed bool, at time.Time) error
	All() (models.LearnedAnswers, error)
}

// CompanyStatusCache is the Company Fetch-Status Cache (component O).
type CompanyStatusCache interface {
	Put(status models.CompanyFetchStatus) error
	Get(profile, company string) (models.CompanyFetchStatus, bool, error)
	ListByProfile(profile string) ([]models.CompanyFetchStatus, error)
	Close() error
}
