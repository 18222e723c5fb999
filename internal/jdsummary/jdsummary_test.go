package jdsummary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vellum/internal/models"
)

type fakeOracle struct {
	resp string
	err  error
}

func (f *fakeOracle) Generate(ctx context.Context, prompt string) (string, error) {
	return f.resp, f.err
}
func (f *fakeOracle) ChooseOption(ctx context.Context, question string, options []string) (string, error) {
	return "", nil
}
func (f *fakeOracle) VisionAnalyzeField(ctx context.Context, label string, screenshotPNG []byte) (string, error) {
	return "", nil
}

func TestFetch_ParsesStructuredSummaryFromOracleResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1>Senior Engineer</h1><p>Build things. Own outcomes.</p></body></html>`))
	}))
	defer srv.Close()

	oracle := &fakeOracle{resp: "Here you go:\n```json\n{\"responsibilities\":[\"Build things\"],\"requirements\":[\"5 years experience\"],\"seniority\":\"senior\",\"remote_policy\":\"remote\"}\n```"}
	fetcher := New(srv.Client(), oracle)

	job := models.Job{URL: srv.URL}
	summary, err := fetcher.Fetch(context.Background(), job)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, []string{"Build things"}, summary.Responsibilities)
	assert.Equal(t, "senior", summary.Seniority)
	assert.Equal(t, "remote", summary.RemotePolicy)
	assert.False(t, summary.FetchedAt.IsZero())
}

func TestFetch_EmptyURLIsError(t *testing.T) {
	fetcher := New(nil, &fakeOracle{})
	_, err := fetcher.Fetch(context.Background(), models.Job{})
	assert.Error(t, err)
}

func TestFetch_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher := New(srv.Client(), &fakeOracle{})
	_, err := fetcher.Fetch(context.Background(), models.Job{URL: srv.URL})
	assert.Error(t, err)
}

func TestFetch_OracleErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>posting</body></html>`))
	}))
	defer srv.Close()

	fetcher := New(srv.Client(), &fakeOracle{err: errors.New("oracle down")})
	_, err := fetcher.Fetch(context.Background(), models.Job{URL: srv.URL})
	assert.Error(t, err)
}

func TestFetch_UnparsableOracleResponseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>posting</body></html>`))
	}))
	defer srv.Close()

	fetcher := New(srv.Client(), &fakeOracle{resp: "sorry, I can't help with that"})
	_, err := fetcher.Fetch(context.Background(), models.Job{URL: srv.URL})
	assert.Error(t, err)
}

func TestTruncate_LeavesShortStringsUnchanged(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 100))
}

func TestTruncate_CutsLongStringsAtMax(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, truncate(string(long), 50), 50)
}
