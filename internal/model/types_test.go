package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-template-filler/internal/geometry"
)

func TestTransformation_Apply(t *testing.T) {
	tests := []struct {
		name  string
		tr    Transformation
		input string
		want  string
	}{
		{name: "uppercase", tr: TransformUppercase, input: "john doe", want: "JOHN DOE"},
		{name: "lowercase", tr: TransformLowercase, input: "JOHN", want: "john"},
		{name: "none", tr: TransformNone, input: "MiXed", want: "MiXed"},
		{name: "unspecified", tr: "", input: "MiXed", want: "MiXed"},
		{name: "unknown tag", tr: "titlecase", input: "MiXed", want: "MiXed"},
		{name: "uppercase digits", tr: TransformUppercase, input: "2024-01-01", want: "2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tr.Apply(tt.input))
		})
	}
}

func TestParseTransformation(t *testing.T) {
	tr, err := ParseTransformation("")
	require.NoError(t, err)
	assert.Equal(t, TransformNone, tr)

	tr, err = ParseTransformation("UpperCase")
	require.NoError(t, err)
	assert.Equal(t, TransformUppercase, tr)

	_, err = ParseTransformation("reverse")
	assert.Error(t, err)
}

func TestProfile(t *testing.T) {
	p := &Profile{Name: "Me", Fields: map[string]string{"Full Name": "Jane Doe", "City": "Oslo"}}

	assert.Equal(t, "Jane Doe", p.Value("Full Name"))
	assert.Equal(t, "", p.Value("Missing"))
	assert.Equal(t, []string{"City", "Full Name"}, p.Keys())
	assert.NoError(t, p.Validate())

	clone := p.Clone()
	clone.Fields["City"] = "Bergen"
	assert.Equal(t, "Oslo", p.Fields["City"])

	assert.Error(t, (&Profile{Name: "  "}).Validate())

	var nilProfile *Profile
	assert.Equal(t, "", nilProfile.Value("x"))
}

func newTestTemplate() *Template {
	return &Template{
		Name: "W-9",
		Fields: []TemplateField{
			{ID: "name", Name: "name", Kind: FieldKindText},
			{ID: "custom_1", Name: "Custom", Kind: FieldKindText, IsManual: true, PageIndex: 1,
				Box: &geometry.Rect{X: 50, Y: 50, Width: 150, Height: 30}},
		},
		Mappings: []Mapping{
			{TemplateFieldID: "name", ProfileKey: "Full Name"},
			{TemplateFieldID: "custom_1", ProfileKey: "City", Transformation: TransformUppercase},
		},
	}
}

func TestTemplate_SetMapping(t *testing.T) {
	tpl := newTestTemplate()

	tpl.SetMapping(Mapping{TemplateFieldID: "name", ProfileKey: "Legal Name", Transformation: TransformLowercase})
	tpl.SetMapping(Mapping{TemplateFieldID: "name", ProfileKey: "Given Name"})

	count := 0
	for _, m := range tpl.Mappings {
		if m.TemplateFieldID == "name" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	m, ok := tpl.Mapping("name")
	require.True(t, ok)
	assert.Equal(t, "Given Name", m.ProfileKey)
	assert.Equal(t, Transformation(""), m.Transformation)
}

func TestTemplate_RemoveFieldCascades(t *testing.T) {
	tpl := newTestTemplate()

	assert.True(t, tpl.RemoveField("custom_1"))
	_, ok := tpl.Field("custom_1")
	assert.False(t, ok)
	_, ok = tpl.Mapping("custom_1")
	assert.False(t, ok)
	assert.Len(t, tpl.Mappings, 1)
	assert.NoError(t, tpl.Validate())

	assert.False(t, tpl.RemoveField("custom_1"))
}

func TestTemplate_FieldsOnPage(t *testing.T) {
	tpl := newTestTemplate()
	assert.Empty(t, tpl.FieldsOnPage(0))
	fields := tpl.FieldsOnPage(1)
	require.Len(t, fields, 1)
	assert.Equal(t, "custom_1", fields[0].ID)
}

func TestTemplate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Template)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Template) {}},
		{name: "empty name", mutate: func(t *Template) { t.Name = "" }, wantErr: true},
		{name: "duplicate field id", mutate: func(t *Template) {
			t.Fields = append(t.Fields, TemplateField{ID: "name"})
		}, wantErr: true},
		{name: "empty profile key", mutate: func(t *Template) { t.Mappings[0].ProfileKey = "" }, wantErr: true},
		{name: "orphan mapping", mutate: func(t *Template) {
			t.Mappings = append(t.Mappings, Mapping{TemplateFieldID: "gone", ProfileKey: "x"})
		}, wantErr: true},
		{name: "double mapping", mutate: func(t *Template) {
			t.Mappings = append(t.Mappings, Mapping{TemplateFieldID: "name", ProfileKey: "x"})
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := newTestTemplate()
			tt.mutate(tpl)
			err := tpl.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTemplate_CloneIsDeep(t *testing.T) {
	tpl := newTestTemplate()
	clone := tpl.Clone()

	clone.Fields[1].Box.X = 999
	clone.Mappings[0].ProfileKey = "changed"

	assert.Equal(t, 50.0, tpl.Fields[1].Box.X)
	assert.Equal(t, "Full Name", tpl.Mappings[0].ProfileKey)
}

func TestTemplateField_EffectiveFontSize(t *testing.T) {
	f := TemplateField{}
	assert.Equal(t, DefaultFontSize, f.EffectiveFontSize())
	f.FontSize = 9
	assert.Equal(t, 9.0, f.EffectiveFontSize())
}

func TestFillError(t *testing.T) {
	cause := errors.New("no such field")
	err := NewFieldError(ErrorTypeFieldWrite, "signature_date", "cannot set field value", cause)

	assert.True(t, errors.Is(err, ErrFieldWrite))
	assert.False(t, errors.Is(err, ErrGeneration))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, err.IsWarning())
	assert.Contains(t, err.Error(), "FIELD_WRITE_WARNING")
	assert.Contains(t, err.Error(), "signature_date")

	wrapped := fmt.Errorf("upload: %w", NewAnalysisError(cause))
	assert.True(t, errors.Is(wrapped, ErrAnalysis))
	assert.Equal(t, SeverityError, ErrorTypeAnalysis.Severity())
	assert.Equal(t, "UNKNOWN", ErrorTypeUnknown.String())
}
