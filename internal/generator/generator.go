// Package generator fills a template's document with a profile's values.
package generator

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/a3tai/pdf-template-filler/internal/geometry"
	"github.com/a3tai/pdf-template-filler/internal/model"
	"github.com/a3tai/pdf-template-filler/internal/pdf"
)

// Result is a generated document.
type Result struct {
	Data        []byte
	FileName    string
	ContentType string
	// Warnings lists the field-local failures that were skipped.
	Warnings []*model.FillError
}

// Generator resolves mappings against a profile and writes the values into a
// fresh copy of the template's document.
type Generator struct {
	engine pdf.Engine
	logger *slog.Logger
}

// New creates a generator that opens documents with engine.
func New(engine pdf.Engine, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{engine: engine, logger: logger}
}

// Generate produces the filled document for tpl and profile. Mappings are
// applied in order. A failure confined to one field is recorded as a warning
// and the remaining mappings are still applied. The call fails with a
// Generation error, and returns no data, only when the stored document
// cannot be opened or serialized.
//
// Generation never consults any viewer zoom; manual fields are placed from
// their stored document-space boxes.
func (g *Generator) Generate(ctx context.Context, tpl *model.Template, profile *model.Profile) (*Result, error) {
	doc, err := g.engine.Open(ctx, tpl.Document)
	if err != nil {
		return nil, model.NewGenerationError("cannot open template document", err)
	}

	logger := g.logger.With("template", tpl.Name)
	var warnings []*model.FillError
	warn := func(w *model.FillError) {
		logger.Warn("skipped field", "field_id", w.FieldID, "type", w.Type.String(), "error", w)
		warnings = append(warnings, w)
	}

	for _, m := range tpl.Mappings {
		field, ok := tpl.Field(m.TemplateFieldID)
		if !ok {
			warn(model.NewFieldError(model.ErrorTypeStaleMapping, m.TemplateFieldID,
				"mapping references a deleted field", nil))
			continue
		}

		value := m.Transformation.Apply(profile.Value(m.ProfileKey))
		if !field.IsManual {
			if err := doc.SetFieldValue(field.ID, value); err != nil {
				warn(model.NewFieldError(model.ErrorTypeFieldWrite, field.ID, "cannot set form field", err))
			}
			continue
		}

		if w := paintField(doc, field, value); w != nil {
			warn(w)
		}
	}

	data, err := doc.Bytes()
	if err != nil {
		return nil, model.NewGenerationError("cannot serialize filled document", err)
	}

	logger.Info("generated document", "mappings", len(tpl.Mappings), "warnings", len(warnings), "bytes", len(data))
	return &Result{
		Data:        data,
		FileName:    OutputFileName(tpl.Name, profileName(profile)),
		ContentType: pdf.ContentType,
		Warnings:    warnings,
	}, nil
}

// paintField draws value inside a manual field's box.
func paintField(doc pdf.Document, field *model.TemplateField, value string) *model.FillError {
	if !field.HasGeometry() {
		return model.NewFieldError(model.ErrorTypeMissingGeometry, field.ID, "manual field has no box", nil)
	}

	size, err := doc.PageSize(field.PageIndex)
	if err != nil {
		var pageErr *pdf.PageError
		if errors.As(err, &pageErr) {
			return model.NewFieldError(model.ErrorTypePageOutOfRange, field.ID, "field page is not in the document", err)
		}
		return model.NewFieldError(model.ErrorTypeFieldWrite, field.ID, "cannot read page size", err)
	}

	box := *field.Box
	y := geometry.PaintY(size.Height, box)
	if err := doc.DrawText(field.PageIndex, box.X, y, value, field.EffectiveFontSize(), box.Width); err != nil {
		return model.NewFieldError(model.ErrorTypeFieldWrite, field.ID, "cannot draw text", err)
	}
	return nil
}

func profileName(p *model.Profile) string {
	if p == nil {
		return ""
	}
	return p.Name
}

// OutputFileName returns the download name "<template>_<profile>.pdf". Path
// separators in either name are replaced with underscores.
func OutputFileName(templateName, profileName string) string {
	clean := strings.NewReplacer("/", "_", `\`, "_")
	return clean.Replace(templateName) + "_" + clean.Replace(profileName) + ".pdf"
}
