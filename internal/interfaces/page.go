package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/vellum/internal/models"
)

// PageController abstracts the headless browser session the Autofill
// Engine drives. The concrete implementation lives in
// internal/autofill/page on top of chromedp; a fake in-memory controller
// satisfies the same contract for tests.
type PageController interface {
	Navigate(ctx context.Context, url string) error

	// WaitStable waits, bounded by timeout, for the page to settle. The
	// chromedp controller waits for the document body and then a fixed
	// short pause; it does not watch DOM mutations or iframes.
	WaitStable(ctx context.Context, timeout time.Duration) error

	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error

	// Scan returns every form field currently present in the top-level
	// document, for the Field Detector to classify. Fields inside iframes
	// are not returned.
	Scan(ctx context.Context) ([]models.FormField, error)

	// SetValue fills selector with value according to field's detected
	// type (text input, select option, checkbox/radio toggle, etc).
	SetValue(ctx context.Context, field models.FormField, value string) error

	// IsChecked reads the current checked state of a checkbox or radio
	// input at selector, so the caller can click only on mismatch.
	IsChecked(ctx context.Context, selector string) (bool, error)

	// OpenOptions opens a non-native dropdown at selector, reads its
	// rendered option labels (capped by the caller), and closes it again.
	// Used by the Autofill Engine's Prescan phase.
	OpenOptions(ctx context.Context, selector string) ([]models.FieldOption, error)

	// JobContext reads the page title, current URL, and a best-effort job
	// description snippet, for downstream document personalization.
	JobContext(ctx context.Context) (title string, url string, description string, err error)

	// UploadFile attaches localPath to the file input at selector.
	UploadFile(ctx context.Context, selector, localPath string) error

	// ReadValue reads back the current value at selector, for the
	// verification step.
	ReadValue(ctx context.Context, selector string) (string, error)

	// Blur removes focus from the currently focused element, triggering
	// any blur-bound validation the page attaches.
	Blur(ctx context.Context) error

	// Screenshot captures selector's bounding box as PNG, used for
	// vision-oracle fallback on ambiguous fields.
	Screenshot(ctx context.Context, selector string) ([]byte, error)

	Close() error
}
