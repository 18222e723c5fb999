package models

import "time"

// DiscoveryCandidate is one staged finding from the Company/ATS Discovery
// sniffer (component K), written to the unsupported_ats.json scratch file
// for human review.
type DiscoveryCandidate struct {
	BoardURL   string    `json:"board_url"`
	GuessedATS string    `json:"guessed_ats"`
	Confidence float64   `json:"confidence"`
	Evidence   []string  `json:"evidence"`
	StagedAt   time.Time `json:"staged_at"`
}
