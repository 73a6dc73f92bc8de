// Package mapping binds template fields to profile keys.
package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/a3tai/pdf-template-filler/internal/model"
)

// Store persists a template's fields and mappings.
type Store interface {
	UpdateTemplate(ctx context.Context, t *model.Template) error
}

// Resolver edits the mapping set of templates. Every call writes the full
// mapping set of the template it changed.
type Resolver struct {
	store  Store
	logger *slog.Logger
}

// NewResolver creates a resolver that persists through store.
func NewResolver(store Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// Bind maps fieldID to profileKey. An existing mapping for the field is
// replaced in place; an empty profileKey removes it instead. tpl is updated
// only once the write succeeds.
//
// Binding a field the template does not have fails with an UnknownField
// error and writes nothing.
func (r *Resolver) Bind(ctx context.Context, tpl *model.Template, fieldID, profileKey string,
	transformation model.Transformation,
) error {
	profileKey = strings.TrimSpace(profileKey)
	if profileKey == "" {
		return r.Unbind(ctx, tpl, fieldID)
	}
	if _, ok := tpl.Field(fieldID); !ok {
		return model.NewFieldError(model.ErrorTypeUnknownField, fieldID, "cannot bind unknown field", nil)
	}
	if transformation == "" {
		transformation = model.TransformNone
	}

	next := tpl.Clone()
	next.SetMapping(model.Mapping{
		TemplateFieldID: fieldID,
		ProfileKey:      profileKey,
		Transformation:  transformation,
	})
	if err := r.persist(ctx, tpl, &next); err != nil {
		return err
	}
	r.logger.Debug("bound field", "template", tpl.Name, "field_id", fieldID,
		"profile_key", profileKey, "transformation", string(transformation))
	return nil
}

// Unbind removes any mapping for fieldID. Unbinding an unmapped field still
// writes the mapping set.
func (r *Resolver) Unbind(ctx context.Context, tpl *model.Template, fieldID string) error {
	if _, ok := tpl.Field(fieldID); !ok {
		return model.NewFieldError(model.ErrorTypeUnknownField, fieldID, "cannot unbind unknown field", nil)
	}

	next := tpl.Clone()
	removed := next.RemoveMapping(fieldID)
	if err := r.persist(ctx, tpl, &next); err != nil {
		return err
	}
	r.logger.Debug("unbound field", "template", tpl.Name, "field_id", fieldID, "removed", removed)
	return nil
}

func (r *Resolver) persist(ctx context.Context, tpl, next *model.Template) error {
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	if err := r.store.UpdateTemplate(ctx, next); err != nil {
		return fmt.Errorf("persisting mappings: %w", err)
	}
	tpl.Mappings = next.Mappings
	return nil
}
