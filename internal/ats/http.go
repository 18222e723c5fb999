package ats

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

func newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "vellum-ingestion/1.0")
	return req, nil
}

func readAll(r io.Reader) ([]byte, error) {
	return io.ReadAll(r)
}
