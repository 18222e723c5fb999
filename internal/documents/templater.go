// Package documents implements the Document Templater (component M): a
// narrow interfaces.DocumentTemplater adapter that renders a named
// text/template against profile/job data, converts the rendered markdown
// to PDF bytes, and validates an existing résumé file before the Autofill
// Engine attaches it to a file field.
package documents

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/ternarybob/vellum/internal/interfaces"
)

// Templater renders named templates to markdown and then to PDF bytes.
// Templates are loaded once at construction; unknown template names are a
// render-time error rather than a silent fallback.
type Templater struct {
	templates map[string]*template.Template
	logger    arbor.ILogger
}

var _ interfaces.DocumentTemplater = (*Templater)(nil)

// New parses every template body in templates, registering each under its
// map key. Reading *.tmpl files from disk is the caller's job.
func New(templates map[string]string, logger arbor.ILogger) (*Templater, error) {
	t := &Templater{templates: make(map[string]*template.Template), logger: logger}
	for name, body := range templates {
		parsed, err := template.New(name).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("documents: parsing template %q: %w", name, err)
		}
		t.templates[name] = parsed
	}
	return t, nil
}

// Render executes templateName against data, producing markdown, then
// renders that markdown to a single-page-flowing PDF via fpdf.
func (t *Templater) Render(ctx context.Context, templateName string, data interfaces.TemplateData) ([]byte, error) {
	tmpl, ok := t.templates[templateName]
	if !ok {
		return nil, fmt.Errorf("documents: unknown template %q", templateName)
	}

	var markdownBuf bytes.Buffer
	if err := tmpl.Execute(&markdownBuf, map[string]interface{}(data)); err != nil {
		return nil, fmt.Errorf("documents: executing template %q: %w", templateName, err)
	}

	return markdownToPDF(markdownBuf.String())
}

// markdownToPDF walks a goldmark AST over markdown and writes it to an
// fpdf document, handling headings, paragraphs, emphasis, and lists.
func markdownToPDF(markdown string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 10)

	md := goldmark.New(
		goldmark.WithExtensions(extension.Strikethrough),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	r := &renderer{pdf: pdf, source: source, font: "Arial", size: 10}
	if err := ast.Walk(doc, r.walk); err != nil {
		return nil, fmt.Errorf("documents: rendering markdown: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("documents: writing pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

type renderer struct {
	pdf    *fpdf.Fpdf
	source []byte
	font   string
	size   float64
	bold   bool
	italic bool
}

func (r *renderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(r.font, style, r.size)
}

func (r *renderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		h := n.(*ast.Heading)
		if entering {
			r.pdf.Ln(4)
			size := 14.0
			switch h.Level {
			case 1:
				size = 14
			case 2:
				size = 12
			default:
				size = 11
			}
			r.pdf.SetFont(r.font, "B", size)
		} else {
			r.pdf.Ln(6)
			r.updateFont()
		}
	case ast.KindParagraph:
		if !entering {
			r.pdf.Ln(5)
		}
	case ast.KindText:
		if entering {
			r.pdf.Write(5, string(n.(*ast.Text).Text(r.source)))
		}
	case ast.KindEmphasis:
		em := n.(*ast.Emphasis)
		if em.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.updateFont()
	case ast.KindListItem:
		if entering {
			r.pdf.Write(5, "- ")
		} else {
			r.pdf.Ln(5)
		}
	}
	return ast.WalkContinue, nil
}

// ValidateResumeFile checks that the file at path is a well-formed,
// readable PDF before the Autofill Engine attaches it to a file field;
// a corrupt or non-PDF résumé should fail fast here rather than silently
// uploading garbage to an ATS.
func ValidateResumeFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("documents: résumé file not found: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("documents: résumé file %q is not a PDF", path)
	}
	if _, err := api.ReadContextFile(path); err != nil {
		return fmt.Errorf("documents: résumé file %q failed PDF validation: %w", path, err)
	}
	return nil
}
