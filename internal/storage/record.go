package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/a3tai/pdf-template-filler/internal/model"
)

// TemplateRecord is the serialized form of a template without its document
// bytes, which backends store separately.
type TemplateRecord struct {
	ID        int64                 `json:"id"`
	Name      string                `json:"name"`
	Fields    []model.TemplateField `json:"fields"`
	Mappings  []model.Mapping       `json:"mappings"`
	CreatedAt int64                 `json:"createdAt"`
}

// NewTemplateRecord converts t into its record form.
func NewTemplateRecord(t *model.Template) TemplateRecord {
	fields := t.Fields
	if fields == nil {
		fields = []model.TemplateField{}
	}
	mappings := t.Mappings
	if mappings == nil {
		mappings = []model.Mapping{}
	}
	return TemplateRecord{
		ID:        t.ID,
		Name:      t.Name,
		Fields:    fields,
		Mappings:  mappings,
		CreatedAt: t.CreatedAt.UnixMilli(),
	}
}

// Template converts the record back, attaching document.
func (r TemplateRecord) Template(document []byte) model.Template {
	return model.Template{
		ID:        r.ID,
		Name:      r.Name,
		Document:  document,
		Fields:    r.Fields,
		Mappings:  r.Mappings,
		CreatedAt: time.UnixMilli(r.CreatedAt),
	}
}

// EncodeJSON marshals v, naming what failed.
func EncodeJSON(what string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", what, err)
	}
	return data, nil
}

// DecodeJSON unmarshals data into v, naming what failed.
func DecodeJSON(what string, data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshalling %s: %w", what, err)
	}
	return nil
}
