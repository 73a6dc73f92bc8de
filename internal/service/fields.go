package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/a3tai/pdf-template-filler/internal/geometry"
	"github.com/a3tai/pdf-template-filler/internal/model"
)

// AddField adds a manual field with the default box on page.
func (s *Service) AddField(ctx context.Context, templateID int64, page int) (*model.TemplateField, error) {
	ed, err := s.Editor(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if err := ed.SetPage(ctx, page); err != nil {
		return nil, err
	}
	return ed.AddManualField(ctx)
}

// DragField replays a pointer gesture on a field. from and to are viewport
// pixels for a page laid out in a container containerWidth pixels wide;
// zero keeps the current layout. The field is selected first, so a press
// inside its resize handle resizes it and any other press on it moves it.
func (s *Service) DragField(ctx context.Context, templateID int64, fieldID string, from, to geometry.Point,
	containerWidth float64,
) (*model.TemplateField, error) {
	ed, err := s.Editor(ctx, templateID)
	if err != nil {
		return nil, err
	}

	tpl := ed.Template()
	field, ok := tpl.Field(fieldID)
	if !ok {
		return nil, model.NewFieldError(model.ErrorTypeUnknownField, fieldID, "no such field", nil)
	}
	if !field.IsManual {
		return nil, fmt.Errorf("field %s is a form field and cannot be moved", fieldID)
	}
	if ed.Page() != field.PageIndex {
		if err := ed.SetPage(ctx, field.PageIndex); err != nil {
			return nil, err
		}
	}
	if containerWidth > 0 {
		if _, err := ed.Layout(ctx, containerWidth); err != nil {
			return nil, err
		}
	}
	if err := ed.Select(fieldID); err != nil {
		return nil, err
	}

	g, err := ed.PointerDown(from)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, errors.New("pointer does not hit any field")
	}
	if g.FieldID() != fieldID {
		_ = g.Up(ctx)
		return nil, fmt.Errorf("pointer hits field %s, not %s", g.FieldID(), fieldID)
	}
	g.Move(to)
	if err := g.Up(ctx); err != nil {
		return nil, err
	}

	tpl = ed.Template()
	field, _ = tpl.Field(fieldID)
	return field, nil
}

// SetFieldBox places a manual field at box, in document points.
func (s *Service) SetFieldBox(ctx context.Context, templateID int64, fieldID string, box geometry.Rect) error {
	ed, err := s.Editor(ctx, templateID)
	if err != nil {
		return err
	}
	return ed.SetBox(ctx, fieldID, box)
}

// RenameField changes a field's display name.
func (s *Service) RenameField(ctx context.Context, templateID int64, fieldID, name string) error {
	ed, err := s.Editor(ctx, templateID)
	if err != nil {
		return err
	}
	return ed.Rename(ctx, fieldID, name)
}

// SetFieldFontSize changes the font size of a manual field.
func (s *Service) SetFieldFontSize(ctx context.Context, templateID int64, fieldID string, size float64) error {
	ed, err := s.Editor(ctx, templateID)
	if err != nil {
		return err
	}
	return ed.SetFontSize(ctx, fieldID, size)
}

// DeleteField removes a field and its mapping.
func (s *Service) DeleteField(ctx context.Context, templateID int64, fieldID string) error {
	ed, err := s.Editor(ctx, templateID)
	if err != nil {
		return err
	}
	return ed.DeleteField(ctx, fieldID)
}

// Bind maps a field to a profile key. An empty key unbinds the field.
func (s *Service) Bind(ctx context.Context, templateID int64, fieldID, profileKey, transformation string) error {
	t, err := model.ParseTransformation(transformation)
	if err != nil {
		return err
	}
	return s.withMappings(ctx, templateID, func(tpl *model.Template) error {
		return s.resolver.Bind(ctx, tpl, fieldID, profileKey, t)
	})
}

// Unbind removes a field's mapping.
func (s *Service) Unbind(ctx context.Context, templateID int64, fieldID string) error {
	return s.withMappings(ctx, templateID, func(tpl *model.Template) error {
		return s.resolver.Unbind(ctx, tpl, fieldID)
	})
}

func (s *Service) withMappings(ctx context.Context, templateID int64, change func(*model.Template) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tpl, ed, err := s.currentLocked(ctx, templateID)
	if err != nil {
		return err
	}
	if err := change(tpl); err != nil {
		return err
	}
	if ed != nil {
		if err := ed.Replace(tpl); err != nil {
			// The session is mid-gesture; reopen it from the store next time.
			delete(s.sessions, templateID)
		}
	}
	return nil
}
