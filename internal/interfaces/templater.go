package interfaces

import "context"

// TemplateData is the input handed to a DocumentTemplater render call: a
// flat map keeps the interface agnostic to whether the caller is
// rendering a résumé, a cover letter, or something else entirely.
type TemplateData map[string]interface{}

// DocumentTemplater is the narrow collaborator for turning a profile and
// job into a rendered document. It is deliberately not part of the
// Autofill Engine's decision logic: the engine only ever asks it to
// render bytes, never to decide what content belongs in them.
type DocumentTemplater interface {
	Render(ctx context.Context, templateName string, data TemplateData) ([]byte, error)
}
