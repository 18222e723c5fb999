package ats

import (
	"fmt"
	"strings"
	"time"
)

// boardSlug extracts the trailing path segment from a board URL, or
// returns the input unchanged if it is already a bare slug.
func boardSlug(boardURL string) (string, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(boardURL), "/")
	if trimmed == "" {
		return "", fmt.Errorf("empty board url")
	}
	if !strings.Contains(trimmed, "/") {
		return trimmed, nil
	}
	parts := strings.Split(trimmed, "/")
	slug := parts[len(parts)-1]
	if slug == "" {
		return "", fmt.Errorf("could not derive slug from %q", boardURL)
	}
	return slug, nil
}

var atsTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02",
}

// parseATSTime tries a handful of timestamp layouts seen across ATS APIs.
// A parse failure yields the zero time rather than an error the caller
// needs to propagate, since missing optional fields must surface as empty
// values, not failures.
func parseATSTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range atsTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
