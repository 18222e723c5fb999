package common

import (
	"github.com/google/uuid"
)

// NewRunID generates a unique identifier for one ingestion or autofill
// run, used to correlate log lines.
func NewRunID() string {
	return "run_" + uuid.New().String()
}
