// Package pdf provides the document collaborators used by the analyzer, the
// field editor and the generator: a form inspector, a document engine whose
// documents accept form values and painted text, and a page renderer.
package pdf

import (
	"context"
	"fmt"
	"image"

	"github.com/a3tai/pdf-template-filler/internal/geometry"
)

// ContentType is the media type of generated documents.
const ContentType = "application/pdf"

// FormInspector lists the interactive form fields of a document.
type FormInspector interface {
	// ListFields returns the fully qualified names of all fields. It fails
	// when data is not a readable document.
	ListFields(ctx context.Context, data []byte) ([]string, error)
}

// FormWriter sets the displayed value of a native form field.
type FormWriter interface {
	// SetFieldValue fails when the field is unknown or cannot hold text.
	// Such failures are local to the field.
	SetFieldValue(name, value string) error
}

// TextPainter burns text into a page. Coordinates are document points with
// the origin at the bottom-left corner of the page and y growing upward.
type TextPainter interface {
	// DrawText places text with its origin at (x, y). maxWidth caps the
	// intended extent of the text; zero means unbounded.
	DrawText(pageIndex int, x, y float64, text string, fontSize, maxWidth float64) error
}

// Document is an opened copy of a template's source bytes being filled.
type Document interface {
	FormWriter
	TextPainter

	PageCount() int
	// PageSize returns the size of the zero-based page in points.
	PageSize(pageIndex int) (geometry.Size, error)
	// Bytes serializes the filled document.
	Bytes() ([]byte, error)
}

// Engine opens documents for filling.
type Engine interface {
	Open(ctx context.Context, data []byte) (Document, error)
}

// Rendering is the result of rendering one page for the editor.
type Rendering struct {
	// Bitmap is nil for renderers that only provide page geometry.
	Bitmap    image.Image
	WidthPx   int
	HeightPx  int
	PageSize  geometry.Size
	PageCount int
}

// Renderer renders page pageIndex of a document at a target width.
type Renderer interface {
	RenderPage(ctx context.Context, data []byte, pageIndex int, targetWidthPx float64) (*Rendering, error)
}

// PageError reports a page index outside the document.
type PageError struct {
	PageIndex int
	PageCount int
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page index %d out of range (document has %d pages)", e.PageIndex, e.PageCount)
}
