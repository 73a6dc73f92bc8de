// Package analyzer turns an uploaded document into an initial template.
package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/a3tai/pdf-template-filler/internal/model"
	"github.com/a3tai/pdf-template-filler/internal/pdf"
)

// Analyzer builds templates from the native form fields of a document.
type Analyzer struct {
	inspector pdf.FormInspector
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an analyzer that discovers fields through inspector.
func New(inspector pdf.FormInspector, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		inspector: inspector,
		logger:    logger,
		now:       time.Now,
	}
}

// Analyze returns a template named name wrapping every native field of data
// as a non-manual text field on page 0. The template has no mappings and no
// id; it is ready to persist. Unreadable documents fail with an analysis
// error.
func (a *Analyzer) Analyze(ctx context.Context, name string, data []byte) (*model.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("template name cannot be empty")
	}

	names, err := a.inspector.ListFields(ctx, data)
	if err != nil {
		a.logger.Warn("document analysis failed", "template", name, "error", err)
		return nil, model.NewAnalysisError(err)
	}

	seen := make(map[string]bool, len(names))
	fields := make([]model.TemplateField, 0, len(names))
	for _, fieldName := range names {
		if fieldName == "" || seen[fieldName] {
			a.logger.Debug("skipping duplicate or unnamed form field", "template", name, "field_id", fieldName)
			continue
		}
		seen[fieldName] = true
		// Native fields are not resolved to their real page.
		fields = append(fields, model.TemplateField{
			ID:        fieldName,
			Name:      fieldName,
			Kind:      model.FieldKindText,
			IsManual:  false,
			PageIndex: 0,
		})
	}

	document := make([]byte, len(data))
	copy(document, data)

	a.logger.Info("analyzed document", "template", name, "fields", len(fields), "bytes", len(data))
	return &model.Template{
		Name:      name,
		Document:  document,
		Fields:    fields,
		Mappings:  []model.Mapping{},
		CreatedAt: a.now(),
	}, nil
}
