package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// maxFieldDepth bounds recursion through malformed Kids cycles.
const maxFieldDepth = 32

// Field type names as stored in the FT entry.
const (
	fieldTypeText      = "Tx"
	fieldTypeButton    = "Btn"
	fieldTypeChoice    = "Ch"
	fieldTypeSignature = "Sig"
)

// formField is a terminal field of the AcroForm field tree.
type formField struct {
	Name    string
	Type    string
	Dict    types.Dict
	Widgets []types.Dict
}

// newConfiguration returns the relaxed pdfcpu configuration used for all
// reads; real-world forms rarely pass strict validation.
func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// readContext parses data into a pdfcpu context.
func readContext(data []byte, conf *model.Configuration) (*model.Context, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("document is empty")
	}
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

// acroForm returns the AcroForm dictionary, or nil if the document has none.
func acroForm(ctx *model.Context) (types.Dict, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, nil
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	return acroFormDict, nil
}

// collectFields walks the AcroForm field tree and returns its terminal
// fields in document order.
func collectFields(ctx *model.Context, form types.Dict, logger *slog.Logger) ([]*formField, error) {
	if form == nil {
		return nil, nil
	}

	fieldsObj, found := form.Find("Fields")
	if !found {
		return nil, nil
	}

	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	var fields []*formField
	for i, obj := range fieldsArray {
		if err := walkField(ctx, obj, "", "", 0, &fields); err != nil {
			logger.Debug("skipping unreadable form field", "index", i, "error", err)
		}
	}
	return fields, nil
}

func walkField(ctx *model.Context, obj types.Object, parentName, inheritedType string, depth int, out *[]*formField) error {
	if depth > maxFieldDepth {
		return fmt.Errorf("field tree deeper than %d levels", maxFieldDepth)
	}

	fieldDict, err := ctx.DereferenceDict(obj)
	if err != nil {
		return fmt.Errorf("failed to dereference field: %w", err)
	}
	if fieldDict == nil {
		return nil
	}

	name := parentName
	if nameObj, found := fieldDict.Find("T"); found {
		if partial, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil && partial != "" {
			if name == "" {
				name = partial
			} else {
				name = name + "." + partial
			}
		}
	}

	fieldType := inheritedType
	if ftObj, found := fieldDict.Find("FT"); found {
		if ftName, err := ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
			fieldType = string(ftName)
		}
	}

	// Kids carrying a partial name are child fields, the rest are widgets.
	var children []types.Object
	var widgets []types.Dict
	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kids, err := ctx.DereferenceArray(kidsObj); err == nil {
			for _, kid := range kids {
				kidDict, err := ctx.DereferenceDict(kid)
				if err != nil || kidDict == nil {
					continue
				}
				if _, named := kidDict.Find("T"); named {
					children = append(children, kid)
				} else {
					widgets = append(widgets, kidDict)
				}
			}
		}
	}

	if len(children) > 0 {
		for _, child := range children {
			if err := walkField(ctx, child, name, fieldType, depth+1, out); err != nil {
				return err
			}
		}
		return nil
	}

	if name == "" {
		return nil
	}
	*out = append(*out, &formField{Name: name, Type: fieldType, Dict: fieldDict, Widgets: widgets})
	return nil
}

// PDFCPUInspector lists form fields using pdfcpu.
type PDFCPUInspector struct {
	logger *slog.Logger
}

// NewPDFCPUInspector creates a form inspector backed by pdfcpu.
func NewPDFCPUInspector(logger *slog.Logger) *PDFCPUInspector {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFCPUInspector{logger: logger}
}

var _ FormInspector = (*PDFCPUInspector)(nil)

// ListFields returns the fully qualified names of all terminal fields.
func (i *PDFCPUInspector) ListFields(_ context.Context, data []byte) ([]string, error) {
	ctx, err := readContext(data, newConfiguration())
	if err != nil {
		return nil, err
	}

	form, err := acroForm(ctx)
	if err != nil {
		return nil, err
	}

	fields, err := collectFields(ctx, form, i.logger)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	i.logger.Debug("inspected form fields", "count", len(names))
	return names, nil
}

// FieldValue is a form field with its current value.
type FieldValue struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// FieldValues returns every terminal field with its type and current value.
// Values that are neither strings nor names are reported empty.
func (i *PDFCPUInspector) FieldValues(_ context.Context, data []byte) ([]FieldValue, error) {
	ctx, err := readContext(data, newConfiguration())
	if err != nil {
		return nil, err
	}
	form, err := acroForm(ctx)
	if err != nil {
		return nil, err
	}
	fields, err := collectFields(ctx, form, i.logger)
	if err != nil {
		return nil, err
	}

	values := make([]FieldValue, 0, len(fields))
	for _, f := range fields {
		fv := FieldValue{Name: f.Name, Type: describeFieldType(f.Type)}
		if v, found := f.Dict.Find("V"); found {
			fv.Value = fieldValue(ctx, v)
		}
		values = append(values, fv)
	}
	return values, nil
}

func fieldValue(ctx *model.Context, obj types.Object) string {
	if s, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
		return s
	}
	if n, err := ctx.DereferenceName(obj, model.V10, nil); err == nil {
		return string(n)
	}
	return ""
}

// isTextField reports whether values of this field type are plain strings.
func isTextField(fieldType string) bool {
	return strings.EqualFold(fieldType, fieldTypeText)
}
