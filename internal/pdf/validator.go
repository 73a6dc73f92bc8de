package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// pdfHeader starts every PDF file.
var pdfHeader = []byte("%PDF-")

// Validator performs cheap checks on uploaded documents before they are
// handed to the parser.
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified size limit
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateBytes checks size limits and the PDF header.
func (v *Validator) ValidateBytes(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("document is empty")
	}
	if int64(len(data)) > v.maxFileSize {
		return fmt.Errorf("document too large: %d bytes (max: %d bytes)", len(data), v.maxFileSize)
	}
	// The header may be preceded by up to 1024 bytes of junk.
	head := data
	if len(head) > 1024+len(pdfHeader) {
		head = head[:1024+len(pdfHeader)]
	}
	if !bytes.Contains(head, pdfHeader) {
		return fmt.Errorf("document is not a PDF: missing %s header", pdfHeader)
	}
	return nil
}

// ReadFile validates and reads the PDF file at filePath.
func (v *Validator) ReadFile(filePath string) ([]byte, error) {
	if filePath == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return nil, fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}
	if err := v.ValidateBytes(data); err != nil {
		return nil, err
	}
	return data, nil
}
