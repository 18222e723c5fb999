package autofill

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/vellum/internal/models"
)

// repeatableField maps one indexed-field suffix (as it appears
// after the entry index in the selector naming conventions observed
// across ATS boards: "company-name-{N}", "school--{N}", Select2's
// "s2id_…_{N}", and bare combobox variants) to the WorkExperience or
// Education struct field it fills.
type repeatableField struct {
	suffix string
	value  func(models.WorkExperience) string
}

var workFieldSuffixes = []repeatableField{
	{"company-name", func(w models.WorkExperience) string { return w.Company }},
	{"title", func(w models.WorkExperience) string { return w.Title }},
	{"start-month", func(w models.WorkExperience) string { return w.StartMonth }},
	{"start-year", func(w models.WorkExperience) string { return w.StartYear }},
	{"end-month", func(w models.WorkExperience) string { return w.EndMonth }},
	{"end-year", func(w models.WorkExperience) string { return w.EndYear }},
}

type educationField struct {
	suffix string
	value  func(models.Education) string
}

var educationFieldSuffixes = []educationField{
	{"school", func(ed models.Education) string { return ed.School }},
	{"degree", func(ed models.Education) string { return ed.Degree }},
	{"discipline", func(ed models.Education) string { return ed.FieldOfStudy }},
	{"start-year", func(ed models.Education) string { return ed.StartYear }},
	{"end-year", func(ed models.Education) string { return ed.EndYear }},
}

// FillRepeatableSections implements spec.md §4.H steps 9-10: for every
// profile work-experience and education entry, fill the matching indexed
// field set (looked up among the already-scanned fields by selector
// suffix + index), skipping an "end date" field when the entry is
// current, and marking every filled field verified so the main fill
// loop does not touch it again.
func (e *Engine) FillRepeatableSections(ctx context.Context, fields []models.FormField) []models.FormField {
	for i, entry := range e.profile.WorkExperience {
		e.fillWorkEntry(ctx, fields, i, entry)
	}
	for i, entry := range e.profile.Education {
		e.fillEducationEntry(ctx, fields, i, entry)
	}
	return fields
}

func (e *Engine) fillWorkEntry(ctx context.Context, fields []models.FormField, index int, entry models.WorkExperience) {
	for _, wf := range workFieldSuffixes {
		if ShouldSkipEndDate(strings.ReplaceAll(wf.suffix, "-", " "), true, entry.Current) {
			continue
		}
		value := wf.value(entry)
		if value == "" {
			continue
		}
		field, ok := findIndexedField(fields, wf.suffix, index)
		if !ok {
			continue
		}
		e.fillAndMarkVerified(ctx, fields, field, value)
	}
}

func (e *Engine) fillEducationEntry(ctx context.Context, fields []models.FormField, index int, entry models.Education) {
	for _, ef := range educationFieldSuffixes {
		value := ef.value(entry)
		if value == "" {
			continue
		}
		field, ok := findIndexedField(fields, ef.suffix, index)
		if !ok {
			continue
		}
		e.fillAndMarkVerified(ctx, fields, field, value)
	}
}

// findIndexedField locates the scanned field whose selector matches one
// of the known naming conventions for suffix at index: "{suffix}-{N}",
// "{suffix}--{N}", or a selector containing "s2id_" and the suffix text
// and ending in "_{N}". Selectors following any other naming scheme are
// not matched.
func findIndexedField(fields []models.FormField, suffix string, index int) (models.FormField, bool) {
	candidates := []string{
		fmt.Sprintf("%s-%d", suffix, index),
		fmt.Sprintf("%s--%d", suffix, index),
	}
	for _, f := range fields {
		if f.Status == models.FieldVerified {
			continue
		}
		sel := strings.ToLower(f.Selector)
		for _, c := range candidates {
			if strings.Contains(sel, c) {
				return f, true
			}
		}
		if strings.Contains(sel, "s2id_") && strings.Contains(sel, suffix) && strings.HasSuffix(sel, fmt.Sprintf("_%d", index)) {
			return f, true
		}
	}
	return models.FormField{}, false
}

func (e *Engine) fillAndMarkVerified(ctx context.Context, fields []models.FormField, field models.FormField, value string) {
	adapted, _ := AdaptValue(value, DOMConstraints{})
	field.Value = adapted
	field.Source = models.SourceProfile

	if err := e.page.SetValue(ctx, field, adapted); err != nil {
		field.Status = models.FieldFailed
		field.Error = err.Error()
	} else {
		field.Status = models.FieldVerified
	}

	for i := range fields {
		if fields[i].Selector == field.Selector {
			fields[i] = field
			return
		}
	}
}
