// Package model defines templates, their fields and mappings, and the data
// profiles that fill them.
package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/a3tai/pdf-template-filler/internal/geometry"
)

// DefaultFontSize is used for manual fields that carry no font size.
const DefaultFontSize = 12.0

// FieldKind is the kind of value a field holds.
type FieldKind string

const (
	FieldKindText FieldKind = "TEXT"
	// FieldKindCheckbox is reserved; generation treats it like text.
	FieldKindCheckbox FieldKind = "CHECKBOX"
)

// Transformation is applied to a profile value before it is written.
type Transformation string

const (
	TransformNone      Transformation = "none"
	TransformUppercase Transformation = "uppercase"
	TransformLowercase Transformation = "lowercase"
)

// ParseTransformation accepts the names above case-insensitively; an empty
// string means none.
func ParseTransformation(s string) (Transformation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(TransformNone):
		return TransformNone, nil
	case string(TransformUppercase):
		return TransformUppercase, nil
	case string(TransformLowercase):
		return TransformLowercase, nil
	default:
		return TransformNone, fmt.Errorf("unknown transformation %q (must be one of: none, uppercase, lowercase)", s)
	}
}

// Apply returns value with the transformation applied. Unknown
// transformations pass the value through unchanged.
func (t Transformation) Apply(value string) string {
	switch t {
	case TransformUppercase:
		return strings.ToUpper(value)
	case TransformLowercase:
		return strings.ToLower(value)
	default:
		return value
	}
}

// Profile is a named bag of values keyed by label.
type Profile struct {
	ID     int64             `json:"id"`
	Name   string            `json:"name"`
	Fields map[string]string `json:"fields"`
}

// Value returns the value stored under key, or "" when the key is absent.
func (p *Profile) Value(key string) string {
	if p == nil || p.Fields == nil {
		return ""
	}
	return p.Fields[key]
}

// Keys returns the profile's keys in sorted order.
func (p *Profile) Keys() []string {
	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks the profile can be persisted.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile name cannot be empty")
	}
	return nil
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	fields := make(map[string]string, len(p.Fields))
	for k, v := range p.Fields {
		fields[k] = v
	}
	p.Fields = fields
	return p
}

// TemplateField is one fillable region of a template. Native form fields
// carry no geometry; manual fields carry a box in document space.
type TemplateField struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Kind      FieldKind      `json:"type"`
	IsManual  bool           `json:"isManual"`
	PageIndex int            `json:"pageIndex"`
	Box       *geometry.Rect `json:"box,omitempty"`
	FontSize  float64        `json:"fontSize,omitempty"`
}

// EffectiveFontSize returns the field's font size or DefaultFontSize.
func (f *TemplateField) EffectiveFontSize() float64 {
	if f.FontSize <= 0 {
		return DefaultFontSize
	}
	return f.FontSize
}

// HasGeometry reports whether the field can be placed on a page.
func (f *TemplateField) HasGeometry() bool {
	return f.Box != nil
}

// Mapping binds a template field to a profile key.
type Mapping struct {
	TemplateFieldID string         `json:"templateFieldId"`
	ProfileKey      string         `json:"profileFieldKey"`
	Transformation  Transformation `json:"transformation,omitempty"`
}

// Template is a source document plus its fields and mappings. Document is
// never modified after analysis.
type Template struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Document  []byte          `json:"-"`
	Fields    []TemplateField `json:"fields"`
	Mappings  []Mapping       `json:"mappings"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Field returns the field with the given id.
func (t *Template) Field(id string) (*TemplateField, bool) {
	for i := range t.Fields {
		if t.Fields[i].ID == id {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// Mapping returns the mapping for the given field id.
func (t *Template) Mapping(fieldID string) (*Mapping, bool) {
	for i := range t.Mappings {
		if t.Mappings[i].TemplateFieldID == fieldID {
			return &t.Mappings[i], true
		}
	}
	return nil, false
}

// FieldsOnPage returns the manual fields placed on page.
func (t *Template) FieldsOnPage(page int) []TemplateField {
	var fields []TemplateField
	for _, f := range t.Fields {
		if f.IsManual && f.PageIndex == page {
			fields = append(fields, f)
		}
	}
	return fields
}

// SetMapping replaces the mapping for m.TemplateFieldID or appends it.
func (t *Template) SetMapping(m Mapping) {
	if existing, ok := t.Mapping(m.TemplateFieldID); ok {
		existing.ProfileKey = m.ProfileKey
		existing.Transformation = m.Transformation
		return
	}
	t.Mappings = append(t.Mappings, m)
}

// RemoveMapping drops the mapping for fieldID. It reports whether one existed.
func (t *Template) RemoveMapping(fieldID string) bool {
	kept := t.Mappings[:0]
	removed := false
	for _, m := range t.Mappings {
		if m.TemplateFieldID == fieldID {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	t.Mappings = kept
	return removed
}

// RemoveField deletes the field and any mapping that references it.
func (t *Template) RemoveField(id string) bool {
	kept := t.Fields[:0]
	removed := false
	for _, f := range t.Fields {
		if f.ID == id {
			removed = true
			continue
		}
		kept = append(kept, f)
	}
	t.Fields = kept
	if removed {
		t.RemoveMapping(id)
	}
	return removed
}

// Validate checks the invariants every persisted template must hold.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("template name cannot be empty")
	}
	ids := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if f.ID == "" {
			return errors.New("template field id cannot be empty")
		}
		if ids[f.ID] {
			return fmt.Errorf("duplicate template field id: %s", f.ID)
		}
		ids[f.ID] = true
	}
	mapped := make(map[string]bool, len(t.Mappings))
	for _, m := range t.Mappings {
		if m.ProfileKey == "" {
			return fmt.Errorf("mapping for field %s has an empty profile key", m.TemplateFieldID)
		}
		if !ids[m.TemplateFieldID] {
			return fmt.Errorf("mapping references unknown field: %s", m.TemplateFieldID)
		}
		if mapped[m.TemplateFieldID] {
			return fmt.Errorf("field %s is mapped more than once", m.TemplateFieldID)
		}
		mapped[m.TemplateFieldID] = true
	}
	return nil
}

// Clone returns a deep copy of t. The document bytes are shared since they
// are never modified.
func (t Template) Clone() Template {
	fields := make([]TemplateField, len(t.Fields))
	for i, f := range t.Fields {
		if f.Box != nil {
			box := *f.Box
			f.Box = &box
		}
		fields[i] = f
	}
	t.Fields = fields
	t.Mappings = append([]Mapping(nil), t.Mappings...)
	return t
}
