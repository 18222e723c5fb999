package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vellum/internal/common"
)

func TestMatchOption_ExactCaseInsensitiveMatch(t *testing.T) {
	options := []string{"Yes", "No", "Decline to answer"}
	assert.Equal(t, "Yes", matchOption("yes", options))
	assert.Equal(t, "Decline to answer", matchOption("DECLINE TO ANSWER", options))
}

func TestMatchOption_SubstringContainmentFallback(t *testing.T) {
	options := []string{"White", "Black or African American", "Asian"}
	assert.Equal(t, "Black or African American", matchOption("I'd answer Black or African American here", options))
}

func TestMatchOption_UnmatchedFallsBackToRawTrimmed(t *testing.T) {
	options := []string{"Yes", "No"}
	assert.Equal(t, "Maybe later", matchOption("  Maybe later  ", options))
}

func TestFormatOptions_OneLinePerOption(t *testing.T) {
	out := formatOptions([]string{"A", "B"})
	assert.Equal(t, "- A\n- B\n", out)
}

func TestNewClaudeOracle_RequiresAPIKey(t *testing.T) {
	_, err := NewClaudeOracle(common.LLMConfig{}, "")
	require.Error(t, err)
}

func TestNewClaudeOracle_DefaultsModelAndTimeout(t *testing.T) {
	oracle, err := NewClaudeOracle(common.LLMConfig{}, "sk-test")
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-4-5", oracle.model)
	assert.Equal(t, 60*time.Second, oracle.timeout)
}

func TestLocalOracle_GenerateRoundTrips(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.1", req.Model)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "Raleigh, NC"})
	}))
	defer srv.Close()

	oracle := NewLocalOracle(common.LLMConfig{LocalBaseURL: srv.URL, LocalModel: "llama3.1"})
	out, err := oracle.Generate(context.Background(), "Where is this role based?")
	require.NoError(t, err)
	assert.Equal(t, "Raleigh, NC", out)
}

func TestLocalOracle_ChooseOptionMatchesAgainstOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "no"})
	}))
	defer srv.Close()

	oracle := NewLocalOracle(common.LLMConfig{LocalBaseURL: srv.URL})
	out, err := oracle.ChooseOption(context.Background(), "Are you authorized to work in the US?", []string{"Yes", "No"})
	require.NoError(t, err)
	assert.Equal(t, "No", out)
}

func TestLocalOracle_NonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	oracle := NewLocalOracle(common.LLMConfig{LocalBaseURL: srv.URL})
	_, err := oracle.Generate(context.Background(), "hello")
	require.Error(t, err)
}

func TestLocalOracle_EmptyResponseIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: ""})
	}))
	defer srv.Close()

	oracle := NewLocalOracle(common.LLMConfig{LocalBaseURL: srv.URL})
	_, err := oracle.Generate(context.Background(), "hello")
	require.Error(t, err)
}
