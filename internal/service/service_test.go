package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-template-filler/internal/geometry"
	"github.com/a3tai/pdf-template-filler/internal/model"
	"github.com/a3tai/pdf-template-filler/internal/pdf"
	"github.com/a3tai/pdf-template-filler/internal/pdf/pdftest"
	"github.com/a3tai/pdf-template-filler/internal/storage"
	"github.com/a3tai/pdf-template-filler/internal/storage/memory"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "form.pdf"), pdftest.FormPDF(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.pdf"), pdftest.BlankPDF(2), 0o644))

	svc, err := New(Options{Store: memory.New(), WorkDirectory: dir})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc, dir
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Options{WorkDirectory: t.TempDir()})
	assert.Error(t, err)
}

func TestService_Profiles(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProfile(ctx, " Jane ", map[string]string{"Full Name": "Jane Doe", " City ": "Oslo", "": "x"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", p.Name)
	assert.Equal(t, map[string]string{"Full Name": "Jane Doe", "City": "Oslo"}, p.Fields)

	_, err = svc.CreateProfile(ctx, "  ", nil)
	assert.Error(t, err)

	updated, err := svc.UpdateProfile(ctx, p.ID, "Jane D", map[string]string{"Email": "jane@example.com"}, []string{"City"})
	require.NoError(t, err)
	assert.Equal(t, "Jane D", updated.Name)
	assert.Equal(t, map[string]string{"Full Name": "Jane Doe", "Email": "jane@example.com"}, updated.Fields)

	got, err := svc.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Fields, got.Fields)

	list, err := svc.ListProfiles(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteProfile(ctx, p.ID))
	_, err = svc.GetProfile(ctx, p.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestService_UploadTemplate(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	tpl, err := svc.UploadTemplate(ctx, "", "form.pdf")
	require.NoError(t, err)
	assert.Equal(t, "form", tpl.Name)
	assert.NotZero(t, tpl.ID)
	assert.Len(t, tpl.Fields, 3)
	assert.Empty(t, tpl.Mappings)

	tpl, err = svc.UploadTemplate(ctx, "Blank", filepath.Join(dir, "blank.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "Blank", tpl.Name)
	assert.Empty(t, tpl.Fields)

	list, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, l := range list {
		assert.Nil(t, l.Document)
	}
}

func TestService_UploadTemplate_Rejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		path string
	}{
		{"outside work directory", "../form.pdf"},
		{"missing file", "nope.pdf"},
		{"empty path", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadTemplate(ctx, "x", tt.path)
			assert.Error(t, err)
		})
	}

	_, err := svc.ImportTemplate(ctx, "bad", []byte("%PDF-1.7 but nothing else"))
	var fillErr *model.FillError
	require.True(t, errors.As(err, &fillErr))
	assert.Equal(t, model.ErrorTypeAnalysis, fillErr.Type)

	list, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "failed uploads store nothing")
}

func TestService_GenerateToFile(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()

	tpl, err := svc.UploadTemplate(ctx, "", "form.pdf")
	require.NoError(t, err)
	profile, err := svc.CreateProfile(ctx, "Jane", map[string]string{"Full Name": "Jane Doe"})
	require.NoError(t, err)

	require.NoError(t, svc.Bind(ctx, tpl.ID, "full_name", "Full Name", "uppercase"))
	field, err := svc.AddField(ctx, tpl.ID, 0)
	require.NoError(t, err)
	require.NoError(t, svc.Bind(ctx, tpl.ID, field.ID, "Full Name", ""))

	res, err := svc.GenerateToFile(ctx, tpl.ID, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "form_Jane.pdf", res.FileName)
	assert.Equal(t, "form_Jane.pdf", filepath.Base(res.Path))
	assert.Empty(t, res.Warnings)

	data, err := os.ReadFile(filepath.Join(dir, "form_Jane.pdf"))
	require.NoError(t, err)
	assert.Equal(t, res.Size, len(data))

	values, err := pdf.NewPDFCPUInspector(nil).FieldValues(ctx, data)
	require.NoError(t, err)
	byName := make(map[string]string)
	for _, v := range values {
		byName[v.Name] = v.Value
	}
	assert.Equal(t, "JANE DOE", byName["full_name"])

	// The stored document is the pristine upload.
	stored, err := svc.Store().GetTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, pdftest.FormPDF(), stored.Document)
}

func TestService_Generate_NotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tpl, err := svc.UploadTemplate(ctx, "", "form.pdf")
	require.NoError(t, err)

	_, err = svc.Generate(ctx, tpl.ID, 42)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	_, err = svc.Generate(ctx, 42, 1)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestService_DragField(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tpl, err := svc.UploadTemplate(ctx, "", "blank.pdf")
	require.NoError(t, err)
	field, err := svc.AddField(ctx, tpl.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, field.PageIndex)

	// 1224px container, no padding: scale 2.
	moved, err := svc.DragField(ctx, tpl.ID, field.ID, geometry.Point{X: 110, Y: 110},
		geometry.Point{X: 210, Y: 150}, 1224)
	require.NoError(t, err)
	assert.Equal(t, geometry.Rect{X: 100, Y: 70, Width: 150, Height: 30}, *moved.Box)

	// Handle of the moved box at scale 2 spans x 490..500, y 190..200.
	resized, err := svc.DragField(ctx, tpl.ID, field.ID, geometry.Point{X: 495, Y: 195},
		geometry.Point{X: 595, Y: 215}, 0)
	require.NoError(t, err)
	assert.Equal(t, geometry.Rect{X: 100, Y: 70, Width: 200, Height: 40}, *resized.Box)

	stored, err := svc.Store().GetTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	got, ok := stored.Field(field.ID)
	require.True(t, ok)
	assert.Equal(t, *resized.Box, *got.Box)

	_, err = svc.DragField(ctx, tpl.ID, field.ID, geometry.Point{X: 5, Y: 5}, geometry.Point{X: 50, Y: 50}, 0)
	assert.Error(t, err, "press misses the field")
	_, err = svc.DragField(ctx, tpl.ID, "custom_missing", geometry.Point{}, geometry.Point{}, 0)
	assert.Error(t, err)
}

func TestService_BindKeepsEditorCurrent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tpl, err := svc.UploadTemplate(ctx, "", "form.pdf")
	require.NoError(t, err)
	field, err := svc.AddField(ctx, tpl.ID, 0)
	require.NoError(t, err)

	require.NoError(t, svc.Bind(ctx, tpl.ID, "full_name", "Full Name", "lowercase"))
	// A later editor commit must not drop the mapping.
	require.NoError(t, svc.RenameField(ctx, tpl.ID, field.ID, "Signature"))
	require.NoError(t, svc.SetFieldFontSize(ctx, tpl.ID, field.ID, 9))

	stored, err := svc.Store().GetTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	m, ok := stored.Mapping("full_name")
	require.True(t, ok)
	assert.Equal(t, model.TransformLowercase, m.Transformation)
	f, ok := stored.Field(field.ID)
	require.True(t, ok)
	assert.Equal(t, "Signature", f.Name)
	assert.Equal(t, 9.0, f.FontSize)

	require.NoError(t, svc.Unbind(ctx, tpl.ID, "full_name"))
	current, err := svc.GetTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Empty(t, current.Mappings)

	assert.Error(t, svc.Bind(ctx, tpl.ID, "full_name", "Full Name", "reverse"))
}

func TestService_DeleteField(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tpl, err := svc.UploadTemplate(ctx, "", "form.pdf")
	require.NoError(t, err)
	field, err := svc.AddField(ctx, tpl.ID, 0)
	require.NoError(t, err)
	require.NoError(t, svc.Bind(ctx, tpl.ID, field.ID, "Full Name", ""))

	require.NoError(t, svc.SetFieldBox(ctx, tpl.ID, field.ID, geometry.Rect{X: 10, Y: 10, Width: 40, Height: 20}))
	require.NoError(t, svc.DeleteField(ctx, tpl.ID, field.ID))

	stored, err := svc.Store().GetTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	_, ok := stored.Field(field.ID)
	assert.False(t, ok)
	assert.Empty(t, stored.Mappings)
}

func TestService_RenameAndDeleteTemplate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tpl, err := svc.UploadTemplate(ctx, "", "form.pdf")
	require.NoError(t, err)
	_, err = svc.Editor(ctx, tpl.ID)
	require.NoError(t, err)

	renamed, err := svc.RenameTemplate(ctx, tpl.ID, "  W-9  ")
	require.NoError(t, err)
	assert.Equal(t, "W-9", renamed.Name)
	_, err = svc.RenameTemplate(ctx, tpl.ID, " ")
	assert.Error(t, err)

	ed, err := svc.Editor(ctx, tpl.ID)
	require.NoError(t, err)
	current := ed.Template()
	assert.Equal(t, "W-9", current.Name)

	require.NoError(t, svc.DeleteTemplate(ctx, tpl.ID))
	_, err = svc.GetTemplate(ctx, tpl.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	assert.True(t, errors.Is(svc.DeleteTemplate(ctx, tpl.ID), storage.ErrNotFound))
}
