// Package page implements interfaces.PageController on top of chromedp: a
// single browser context per autofill session, started by New and torn
// down by Close. Controllers are not pooled.
package page

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vellum/internal/autofill"
	"github.com/ternarybob/vellum/internal/common"
	"github.com/ternarybob/vellum/internal/interfaces"
	"github.com/ternarybob/vellum/internal/models"
)

// scanScript is evaluated in the top-level document to collect every
// candidate field as a flat JSON array the Go side decodes into
// scannedElement. Fields inside iframes are not collected.
const scanScript = `
(() => {
  const out = [];
  const els = document.querySelectorAll('input, select, textarea');
  els.forEach((el, idx) => {
    if (el.type === 'hidden' || el.type === 'submit' || el.type === 'button') return;
    const style = window.getComputedStyle(el);
    if (style.display === 'none' || style.visibility === 'hidden') return;

    let label = '';
    if (el.id) {
      const lbl = document.querySelector('label[for="' + el.id + '"]');
      if (lbl) label = lbl.textContent.trim();
    }
    if (!label && el.closest('label')) {
      label = el.closest('label').textContent.trim();
    }
    if (!label) label = el.getAttribute('aria-label') || el.placeholder || el.name || el.id || '';

    let selector = el.id ? ('#' + el.id) : (el.name ? el.tagName.toLowerCase() + '[name="' + el.name + '"]' : null);
    if (!selector) {
      el.setAttribute('data-vellum-idx', String(idx));
      selector = '[data-vellum-idx="' + idx + '"]';
    }

    let options = [];
    if (el.tagName.toLowerCase() === 'select') {
      options = Array.from(el.options).map((o) => ({ value: o.value, label: o.textContent.trim() }));
    }

    out.push({
      selector: selector,
      tag: el.tagName.toLowerCase(),
      input_type: el.type || '',
      role: el.getAttribute('role') || '',
      aria_haspopup: el.getAttribute('aria-haspopup') || '',
      label: label,
      placeholder: el.placeholder || '',
      name: el.name || '',
      id: el.id || '',
      max_length: el.maxLength > 0 ? el.maxLength : 0,
      pattern: el.pattern || '',
      required: !!el.required,
      options: options
    });
  });
  return JSON.stringify(out);
})()
`

// prescanOptionsScript reads the rendered option labels of whichever
// popup is currently expanded, preferring the element named by the
// trigger's aria-controls and falling back to known result-list classes
// for widgets (Select2) that don't wire aria-controls correctly.
const prescanOptionsScript = `
(() => {
  const trigger = document.querySelector('[aria-expanded="true"]');
  let scope = document;
  if (trigger) {
    const controls = trigger.getAttribute('aria-controls');
    if (controls) {
      const el = document.getElementById(controls);
      if (el) scope = el;
    }
  }
  const nodes = scope.querySelectorAll('[role="option"], .select2-results__option, li.select2-result');
  return JSON.stringify(Array.from(nodes).map((el) => el.textContent.trim()).filter(Boolean));
})()
`

// descriptionScript pulls a best-effort job description snippet from a
// curated list of selectors ATS posting pages commonly use.
const descriptionScript = `
(() => {
  const selectors = ['.job-description', '#content', '[data-mapped="description"]', 'main', 'article'];
  for (const sel of selectors) {
    const el = document.querySelector(sel);
    if (el && el.textContent && el.textContent.trim()) {
      return el.textContent.trim().slice(0, 4000);
    }
  }
  return '';
})()
`

type scannedOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type scannedElement struct {
	Selector     string           `json:"selector"`
	Tag          string           `json:"tag"`
	InputType    string           `json:"input_type"`
	Role         string           `json:"role"`
	AriaHasPopup string           `json:"aria_haspopup"`
	Label        string           `json:"label"`
	Placeholder  string           `json:"placeholder"`
	Name         string           `json:"name"`
	ID           string           `json:"id"`
	MaxLength    int              `json:"max_length"`
	Pattern      string           `json:"pattern"`
	Required     bool             `json:"required"`
	Options      []scannedOption  `json:"options"`
}

// Controller is the concrete PageController backed by one chromedp
// browser context.
type Controller struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger arbor.ILogger
}

var _ interfaces.PageController = (*Controller)(nil)

// New allocates a dedicated chromedp browser context configured from
// AutofillConfig, the shape chromedp_pool.go's createBrowserInstance
// used for the Quaero crawler, adapted here to a single per-session
// context rather than a pre-warmed pool (the Autofill Engine runs one
// session per application, not a high-throughput crawl).
func New(cfg common.AutofillConfig, logger arbor.ILogger) (*Controller, error) {
	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("page: failed to start browser: %w", err)
	}

	return &Controller{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		logger: logger,
	}, nil
}

func (c *Controller) Navigate(ctx context.Context, url string) error {
	return chromedp.Run(c.ctx, chromedp.Navigate(url))
}

// WaitStable waits (bounded by timeout) until the document body is ready
// and then pauses a fixed 300ms. It does not watch network activity,
// DOM mutations, or iframes.
func (c *Controller) WaitStable(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()

	err := chromedp.Run(waitCtx, chromedp.WaitReady("body", chromedp.ByQuery))
	if err != nil {
		return err
	}
	time.Sleep(300 * time.Millisecond)
	return nil
}

func (c *Controller) Click(ctx context.Context, selector string) error {
	clickCtx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()
	return chromedp.Run(clickCtx, chromedp.Click(selector, chromedp.ByQuery))
}

// Scan traverses the page's candidate elements and runs each through the
// Field Detector (internal/autofill.Detect) so the returned FormFields
// already carry a classified Type/DetectionMethod and, for native
// <select> elements, their option list.
func (c *Controller) Scan(ctx context.Context) ([]models.FormField, error) {
	var raw string
	if err := chromedp.Run(c.ctx, chromedp.Evaluate(scanScript, &raw)); err != nil {
		return nil, fmt.Errorf("page: scan: %w", err)
	}

	var elements []scannedElement
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return nil, fmt.Errorf("page: decoding scan result: %w", err)
	}

	fields := make([]models.FormField, 0, len(elements))
	for _, el := range elements {
		rawField := autofill.RawField{
			Selector:     el.Selector,
			Tag:          el.Tag,
			InputType:    el.InputType,
			Role:         el.Role,
			AriaHasPopup: el.AriaHasPopup,
			LabelText:    el.Label,
			Placeholder:  el.Placeholder,
			Name:         el.Name,
			ID:           el.ID,
			MaxLength:    el.MaxLength,
			Pattern:      el.Pattern,
			Required:     el.Required,
		}
		if autofill.IsIgnored(rawField) {
			continue
		}

		field := autofill.Detect(rawField).Field
		for _, opt := range el.Options {
			field.Options = append(field.Options, models.FieldOption{Value: opt.Value, Label: opt.Label})
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func (c *Controller) SetValue(ctx context.Context, field models.FormField, value string) error {
	setCtx, cancel := context.WithTimeout(c.ctx, 8*time.Second)
	defer cancel()

	switch field.Type {
	case models.FieldCheckbox, models.FieldRadio:
		return c.setCheckable(setCtx, field, value)
	case models.FieldSelect:
		return chromedp.Run(setCtx, chromedp.SetValue(field.Selector, value, chromedp.ByQuery))
	case models.FieldAutocomplete:
		if strings.Contains(field.Selector, "s2id_") {
			return c.fillSelect2(setCtx, field, value)
		}
		return c.fillAutocomplete(setCtx, field, value)
	case models.FieldFile:
		return c.UploadFile(ctx, field.Selector, value)
	default:
		if isPhoneField(field.Label) {
			return c.fillPhone(setCtx, field.Selector, value)
		}
		return chromedp.Run(setCtx,
			chromedp.Clear(field.Selector, chromedp.ByQuery),
			chromedp.SendKeys(field.Selector, value, chromedp.ByQuery),
		)
	}
}

// setCheckable implements spec.md §4.H: click only if the box's current
// checked state doesn't already match the desired one, since an
// unconditional click can flip an already-correct checkbox.
func (c *Controller) setCheckable(ctx context.Context, field models.FormField, value string) error {
	checked, err := c.isChecked(ctx, field.Selector)
	if err != nil {
		return err
	}
	if checked == desiredChecked(value) {
		return nil
	}
	return chromedp.Run(ctx, chromedp.Click(field.Selector, chromedp.ByQuery))
}

func desiredChecked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "no", "false", "0", "off", "unchecked":
		return false
	default:
		return true
	}
}

func (c *Controller) isChecked(ctx context.Context, selector string) (bool, error) {
	sel, err := json.Marshal(selector)
	if err != nil {
		return false, fmt.Errorf("page: encoding selector %s: %w", selector, err)
	}
	script := fmt.Sprintf(`(() => { const el = document.querySelector(%s); return !!(el && el.checked); })()`, sel)
	var checked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &checked)); err != nil {
		return false, fmt.Errorf("page: reading checked state of %s: %w", selector, err)
	}
	return checked, nil
}

// IsChecked exposes the current checked state to callers outside the
// fill path, with a 5-second read timeout.
func (c *Controller) IsChecked(ctx context.Context, selector string) (bool, error) {
	readCtx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()
	return c.isChecked(readCtx, selector)
}

// fillAutocomplete implements the React-Select-style branch of spec.md
// §4.H: open the widget, pick from the prescanned option set by score, or
// in search mode type a filter and pick the first real result. Either
// path falls back to a keyboard ArrowDown+Enter commit.
func (c *Controller) fillAutocomplete(ctx context.Context, field models.FormField, value string) error {
	if err := chromedp.Run(ctx, chromedp.Click(field.Selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("page: opening autocomplete %s: %w", field.Selector, err)
	}
	time.Sleep(150 * time.Millisecond)

	if len(field.Options) > 0 {
		if best, ok := bestOption(field.Options, value); ok {
			if err := c.clickOptionByText(ctx, best); err == nil {
				return nil
			}
		}
	} else {
		if err := chromedp.Run(ctx, chromedp.SendKeys(field.Selector, value, chromedp.ByQuery)); err != nil {
			return fmt.Errorf("page: typing autocomplete filter %s: %w", field.Selector, err)
		}
		time.Sleep(400 * time.Millisecond)
		if err := c.clickFirstResult(ctx); err == nil {
			return nil
		}
	}

	return chromedp.Run(ctx, chromedp.KeyEvent(kb.ArrowDown), chromedp.KeyEvent(kb.Enter))
}

// fillSelect2 implements the Select2 branch of spec.md §4.H: mousedown
// the visible choice anchor to open, type into the search box it reveals,
// then score the actual observed results (min 80 for school fields, with
// an "Other" fallback, else 40).
func (c *Controller) fillSelect2(ctx context.Context, field models.FormField, value string) error {
	choiceSelector := field.Selector + " .select2-choice"
	if err := chromedp.Run(ctx, chromedp.Click(choiceSelector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("page: opening select2 %s: %w", field.Selector, err)
	}
	time.Sleep(150 * time.Millisecond)

	if err := chromedp.Run(ctx, chromedp.SendKeys("input.select2-input", value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("page: typing select2 search for %s: %w", field.Selector, err)
	}
	time.Sleep(400 * time.Millisecond)

	minScore := 40
	if isSchoolField(field.Label) {
		minScore = 80
	}

	best, ok, err := c.bestRenderedResult(ctx, value, minScore)
	if err != nil {
		return err
	}
	if ok {
		return c.clickOptionByText(ctx, best)
	}
	if isSchoolField(field.Label) {
		if err := c.clickOptionByText(ctx, "Other"); err == nil {
			return nil
		}
	}
	return c.clickFirstResult(ctx)
}

func isSchoolField(label string) bool {
	l := strings.ToLower(label)
	return strings.Contains(l, "school") || strings.Contains(l, "university") || strings.Contains(l, "college")
}

func isPhoneField(label string) bool {
	return strings.Contains(strings.ToLower(label), "phone")
}

func bestOption(options []models.FieldOption, target string) (string, bool) {
	best := ""
	bestScore := 0
	for _, opt := range options {
		if score := models.ScoreOptionMatch(target, opt.Label); score > bestScore {
			bestScore, best = score, opt.Label
		}
	}
	return best, bestScore > 0
}

// bestRenderedResult reads the option labels currently rendered in a
// React-Select/Select2 result list and scores them against target,
// distinct from prescanned options because a search-mode widget only
// renders matches after the filter text is typed.
func (c *Controller) bestRenderedResult(ctx context.Context, target string, minScore int) (string, bool, error) {
	var raw string
	script := `JSON.stringify(Array.from(document.querySelectorAll('[role="option"], .select2-results__option, li.select2-result')).map((el) => el.textContent.trim()).filter(Boolean))`
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &raw)); err != nil {
		return "", false, fmt.Errorf("page: reading rendered results: %w", err)
	}
	var texts []string
	if err := json.Unmarshal([]byte(raw), &texts); err != nil {
		return "", false, fmt.Errorf("page: decoding rendered results: %w", err)
	}

	best := ""
	bestScore := 0
	for _, t := range texts {
		if score := models.ScoreOptionMatch(target, t); score > bestScore {
			bestScore, best = score, t
		}
	}
	if bestScore < minScore {
		return "", false, nil
	}
	return best, true, nil
}

func (c *Controller) clickOptionByText(ctx context.Context, text string) error {
	target, err := json.Marshal(text)
	if err != nil {
		return fmt.Errorf("page: encoding option text: %w", err)
	}
	script := fmt.Sprintf(`(() => {
		const opts = document.querySelectorAll('[role="option"], .select2-results__option, li.select2-result');
		for (const el of opts) {
			if (el.textContent.trim() === %s) { el.click(); return true; }
		}
		return false;
	})()`, target)
	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return fmt.Errorf("page: clicking option %q: %w", text, err)
	}
	if !clicked {
		return fmt.Errorf("page: no option matched %q", text)
	}
	return nil
}

func (c *Controller) clickFirstResult(ctx context.Context) error {
	script := `(() => {
		const opts = document.querySelectorAll('[role="option"], .select2-results__option, li.select2-result');
		for (const el of opts) {
			const t = el.textContent.trim().toLowerCase();
			if (t && !t.includes('no results') && !t.includes('no matches')) { el.click(); return true; }
		}
		return false;
	})()`
	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return fmt.Errorf("page: clicking first result: %w", err)
	}
	if !clicked {
		return fmt.Errorf("page: no selectable result found")
	}
	return nil
}

// fillPhone types value one character at a time with a short delay
// between keystrokes, the pacing intl-tel-input-style masks need to
// reformat the field without dropping characters.
func (c *Controller) fillPhone(ctx context.Context, selector, value string) error {
	if err := chromedp.Run(ctx, chromedp.Clear(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("page: clearing phone field %s: %w", selector, err)
	}
	for _, r := range value {
		if err := chromedp.Run(ctx, chromedp.SendKeys(selector, string(r), chromedp.ByQuery)); err != nil {
			return fmt.Errorf("page: typing phone digit into %s: %w", selector, err)
		}
		time.Sleep(30 * time.Millisecond)
	}
	return nil
}

// OpenOptions implements spec.md §4.H step 7 (Pre-scan options): open the
// dropdown, read its role=option items scoped to the trigger's
// aria-controls target (falling back to known result-list classes), then
// close it again without committing a selection.
func (c *Controller) OpenOptions(ctx context.Context, selector string) ([]models.FieldOption, error) {
	openCtx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	if err := chromedp.Run(openCtx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("page: opening dropdown %s: %w", selector, err)
	}
	time.Sleep(200 * time.Millisecond)

	var raw string
	if err := chromedp.Run(openCtx, chromedp.Evaluate(prescanOptionsScript, &raw)); err != nil {
		return nil, fmt.Errorf("page: reading dropdown options %s: %w", selector, err)
	}

	_ = chromedp.Run(openCtx, chromedp.KeyEvent(kb.Escape))

	var texts []string
	if err := json.Unmarshal([]byte(raw), &texts); err != nil {
		return nil, fmt.Errorf("page: decoding dropdown options %s: %w", selector, err)
	}

	options := make([]models.FieldOption, 0, len(texts))
	for _, t := range texts {
		options = append(options, models.FieldOption{Value: t, Label: t})
	}
	return options, nil
}

// JobContext reads the page title, current URL, and a best-effort
// description snippet in one round trip, for spec.md §4.H step 5's
// job-info extraction.
func (c *Controller) JobContext(ctx context.Context) (title, url, description string, err error) {
	infoCtx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()
	err = chromedp.Run(infoCtx,
		chromedp.Title(&title),
		chromedp.Location(&url),
		chromedp.Evaluate(descriptionScript, &description),
	)
	return title, url, description, err
}

// knownAttachSelectors are curated "Attach resume" controls (Greenhouse
// style) tried before falling back to setting the hidden file input
// directly.
var knownAttachSelectors = []string{
	`button[aria-label="Attach"]`, `.attach-resume-button`, `[data-source="attach"]`,
}

func (c *Controller) UploadFile(ctx context.Context, selector, localPath string) error {
	setCtx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
	defer cancel()

	for _, attachSel := range knownAttachSelectors {
		if err := chromedp.Run(setCtx, chromedp.Click(attachSel, chromedp.ByQuery)); err == nil {
			time.Sleep(200 * time.Millisecond)
			break
		}
	}

	var nodes []*cdp.Node
	if err := chromedp.Run(setCtx, chromedp.Nodes(selector, &nodes, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("page: locating file input: %w", err)
	}
	if len(nodes) == 0 {
		return fmt.Errorf("page: no element matched %s", selector)
	}
	return chromedp.Run(setCtx, chromedp.SetUploadFiles(selector, []string{localPath}, chromedp.ByQuery))
}

func (c *Controller) ReadValue(ctx context.Context, selector string) (string, error) {
	readCtx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	var value string
	err := chromedp.Run(readCtx, chromedp.Value(selector, &value, chromedp.ByQuery))
	return value, err
}

func (c *Controller) Blur(ctx context.Context) error {
	return chromedp.Run(c.ctx, chromedp.Evaluate(`document.activeElement && document.activeElement.blur()`, nil))
}

func (c *Controller) Screenshot(ctx context.Context, selector string) ([]byte, error) {
	shotCtx, cancel := context.WithTimeout(c.ctx, 5*time.Second)
	defer cancel()

	var buf []byte
	err := chromedp.Run(shotCtx, chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery))
	return buf, err
}

func (c *Controller) Close() error {
	c.cancel()
	return nil
}
