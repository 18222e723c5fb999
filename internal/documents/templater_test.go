package documents

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vellum/internal/interfaces"
)

func TestRender_ExecutesTemplateAndProducesPDFBytes(t *testing.T) {
	templater, err := New(map[string]string{
		"cover_letter": "# Cover Letter\n\nDear {{.Company}},\n\nI am {{.Name}} and I want to work at {{.Company}}.\n",
	}, nil)
	require.NoError(t, err)

	out, err := templater.Render(context.Background(), "cover_letter", interfaces.TemplateData{
		"Company": "Acme",
		"Name":    "Jane Doe",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRender_UnknownTemplateIsError(t *testing.T) {
	templater, err := New(map[string]string{"a": "hello"}, nil)
	require.NoError(t, err)

	_, err = templater.Render(context.Background(), "missing", interfaces.TemplateData{})
	assert.Error(t, err)
}

func TestNew_InvalidTemplateSyntaxIsError(t *testing.T) {
	_, err := New(map[string]string{"bad": "{{.Unclosed"}, nil)
	assert.Error(t, err)
}

func TestValidateResumeFile_MissingFileIsError(t *testing.T) {
	err := ValidateResumeFile(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Error(t, err)
}

func TestValidateResumeFile_WrongExtensionIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0644))

	err := ValidateResumeFile(path)
	assert.Error(t, err)
}

func TestValidateResumeFile_CorruptPDFIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not actually a pdf"), 0644))

	err := ValidateResumeFile(path)
	assert.Error(t, err)
}

func TestValidateResumeFile_WellFormedPDFPasses(t *testing.T) {
	templater, err := New(map[string]string{"resume": "# {{.Name}}\n\nExperienced engineer.\n"}, nil)
	require.NoError(t, err)

	pdfBytes, err := templater.Render(context.Background(), "resume", interfaces.TemplateData{"Name": "Jane Doe"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, pdfBytes, 0644))

	assert.NoError(t, ValidateResumeFile(path))
}
