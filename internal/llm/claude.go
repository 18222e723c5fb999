// Package llm implements the Oracle interface (interfaces.Oracle): the LLM
// fallback consulted last in the Answer Resolver's cascade and by the JD
// Fetch & Summarizer. Two adapters are provided — Claude (anthropic-sdk-go)
// and a local Ollama-compatible HTTP endpoint — selected by LLM.Provider.
package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ternarybob/vellum/internal/common"
	"github.com/ternarybob/vellum/internal/interfaces"
)

// ClaudeOracle satisfies interfaces.Oracle against the Anthropic API.
type ClaudeOracle struct {
	client    anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

var _ interfaces.Oracle = (*ClaudeOracle)(nil)

// NewClaudeOracle builds a ClaudeOracle from LLMConfig. apiKey must be
// resolved by the caller (config file, VELLUM_LLM_* env, or
// ANTHROPIC_API_KEY).
func NewClaudeOracle(cfg common.LLMConfig, apiKey string) (*ClaudeOracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required for the claude oracle")
	}
	model := cfg.ClaudeModel
	if model == "" {
		model = "claude-haiku-4-5"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &ClaudeOracle{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: 1024,
		timeout:   timeout,
	}, nil
}

// Generate asks Claude for a free-text completion of prompt.
func (o *ClaudeOracle) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: int64(o.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude oracle: generate: %w", err)
	}
	return extractText(resp)
}

// ChooseOption asks Claude to pick the best-matching option for question,
// constraining the prompt so the answer can be matched back to an exact
// option string verbatim.
func (o *ClaudeOracle) ChooseOption(ctx context.Context, question string, options []string) (string, error) {
	prompt := fmt.Sprintf(
		"Question: %s\nOptions:\n%s\nRespond with exactly one option from the list above, verbatim, and nothing else.",
		question, formatOptions(options))

	raw, err := o.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return matchOption(raw, options), nil
}

// VisionAnalyzeField asks Claude to interpret a cropped screenshot of an
// ambiguous field in the context of its label.
func (o *ClaudeOracle) VisionAnalyzeField(ctx context.Context, label string, screenshotPNG []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	encoded := base64.StdEncoding.EncodeToString(screenshotPNG)
	prompt := fmt.Sprintf("This is a screenshot of a form field labeled %q. What value should be entered? Respond with just the value.", label)

	resp, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: int64(o.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64("image/png", encoded),
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude oracle: vision analyze: %w", err)
	}
	return extractText(resp)
}

func extractText(resp *anthropic.Message) (string, error) {
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("claude oracle: empty response")
	}
	return text.String(), nil
}

func formatOptions(options []string) string {
	var b strings.Builder
	for _, opt := range options {
		b.WriteString("- ")
		b.WriteString(opt)
		b.WriteString("\n")
	}
	return b.String()
}

// matchOption finds the option whose text the raw response contains,
// falling back to the raw trimmed response (the caller treats an
// unmatched value as a free-text answer rather than an error).
func matchOption(raw string, options []string) string {
	trimmed := strings.TrimSpace(raw)
	for _, opt := range options {
		if strings.EqualFold(trimmed, opt) {
			return opt
		}
	}
	for _, opt := range options {
		if strings.Contains(trimmed, opt) {
			return opt
		}
	}
	return trimmed
}
