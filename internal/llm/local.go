package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/vellum/internal/common"
	"github.com/ternarybob/vellum/internal/interfaces"
)

// LocalOracle satisfies interfaces.Oracle against a local Ollama-compatible
// HTTP endpoint (POST /api/generate), used when LLM.Provider is "local" so
// the autofill cascade's last resort does not require a paid API key.
type LocalOracle struct {
	client  *http.Client
	baseURL string
	model   string
}

var _ interfaces.Oracle = (*LocalOracle)(nil)

// NewLocalOracle builds a LocalOracle from LLMConfig.
func NewLocalOracle(cfg common.LLMConfig) *LocalOracle {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	model := cfg.LocalModel
	if model == "" {
		model = "llama3.1"
	}
	return &LocalOracle{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(cfg.LocalBaseURL, "/"),
		model:   model,
	}
}

type ollamaGenerateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// Generate asks the local model for a free-text completion of prompt.
func (o *LocalOracle) Generate(ctx context.Context, prompt string) (string, error) {
	return o.generate(ctx, prompt, nil)
}

// ChooseOption asks the local model to pick the best-matching option.
func (o *LocalOracle) ChooseOption(ctx context.Context, question string, options []string) (string, error) {
	prompt := fmt.Sprintf(
		"Question: %s\nOptions:\n%s\nRespond with exactly one option from the list above, verbatim, and nothing else.",
		question, formatOptions(options))

	raw, err := o.generate(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	return matchOption(raw, options), nil
}

// VisionAnalyzeField asks the local model to interpret a cropped
// screenshot, if it supports vision; models that don't will typically
// ignore the image and answer from the label alone.
func (o *LocalOracle) VisionAnalyzeField(ctx context.Context, label string, screenshotPNG []byte) (string, error) {
	prompt := fmt.Sprintf("This is a screenshot of a form field labeled %q. What value should be entered? Respond with just the value.", label)
	encoded := base64.StdEncoding.EncodeToString(screenshotPNG)
	return o.generate(ctx, prompt, []string{encoded})
}

func (o *LocalOracle) generate(ctx context.Context, prompt string, images []string) (string, error) {
	reqBody, err := json.Marshal(ollamaGenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Images: images,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("local oracle: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("local oracle: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("local oracle: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("local oracle: unexpected status %d", resp.StatusCode)
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("local oracle: decoding response: %w", err)
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", fmt.Errorf("local oracle: empty response")
	}
	return out.Response, nil
}
