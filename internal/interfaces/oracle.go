package interfaces

import "context"

// Oracle is the narrow LLM fallback consulted last in the Answer
// Resolver's cascade and by the JD Fetch & Summarizer. It is a fallible
// collaborator with no retry: callers decide what to do on error, never
// the Oracle itself.
type Oracle interface {
	// Generate asks a free-text completion for prompt, returning the raw
	// text response.
	Generate(ctx context.Context, prompt string) (string, error)

	// ChooseOption asks the oracle to pick the best-matching option label
	// for a question among the given choices, returning the chosen label
	// verbatim from options.
	ChooseOption(ctx context.Context, question string, options []string) (string, error)

	// VisionAnalyzeField asks the oracle to interpret a cropped
	// screenshot of an ambiguous field (png bytes) in the context of its
	// label, returning a best-guess answer.
	VisionAnalyzeField(ctx context.Context, label string, screenshotPNG []byte) (string, error)
}
