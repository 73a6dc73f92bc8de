package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-template-filler/internal/pdf/pdftest"
)

func TestValidator_ValidateBytes(t *testing.T) {
	validator := NewValidator(1024 * 1024)

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{name: "valid pdf", data: pdftest.BlankPDF(1)},
		{name: "leading junk before header", data: append([]byte("junk\n"), pdftest.BlankPDF(1)...)},
		{name: "empty", data: nil, wantErr: true},
		{name: "not a pdf", data: []byte("hello world"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateBytes(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	small := NewValidator(10)
	assert.Error(t, small.ValidateBytes(pdftest.BlankPDF(1)))
}

func TestValidator_ReadFile(t *testing.T) {
	dir := t.TempDir()
	validator := NewValidator(1024 * 1024)

	valid := filepath.Join(dir, "form.pdf")
	require.NoError(t, os.WriteFile(valid, pdftest.FormPDF(), 0o600))

	data, err := validator.ReadFile(valid)
	require.NoError(t, err)
	assert.Equal(t, pdftest.FormPDF(), data)

	wrongExt := filepath.Join(dir, "form.txt")
	require.NoError(t, os.WriteFile(wrongExt, pdftest.FormPDF(), 0o600))
	_, err = validator.ReadFile(wrongExt)
	assert.Error(t, err)

	_, err = validator.ReadFile(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)

	_, err = validator.ReadFile(dir)
	assert.Error(t, err)

	_, err = validator.ReadFile("")
	assert.Error(t, err)
}
