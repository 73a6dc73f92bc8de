package pdf

import (
	"bytes"
	"context"
	"fmt"
	"math"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/a3tai/pdf-template-filler/internal/geometry"
)

// US Letter, used when a page carries no readable MediaBox.
var defaultPageSize = geometry.Size{Width: 612, Height: 792}

// GeometryRenderer reports page geometry without rasterizing. Front ends
// that draw the page themselves use it to size the editor overlay.
type GeometryRenderer struct{}

// NewGeometryRenderer creates a renderer backed by ledongthuc/pdf.
func NewGeometryRenderer() *GeometryRenderer {
	return &GeometryRenderer{}
}

var _ Renderer = (*GeometryRenderer)(nil)

// RenderPage returns the pixel size of page pageIndex scaled to
// targetWidthPx, along with the page size in points and the page count.
func (r *GeometryRenderer) RenderPage(_ context.Context, data []byte, pageIndex int,
	targetWidthPx float64,
) (rendering *Rendering, err error) {
	// ledongthuc/pdf panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			rendering = nil
			err = fmt.Errorf("failed to read PDF: %v", rec)
		}
	}()

	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	pageCount := reader.NumPage()
	if pageIndex < 0 || pageIndex >= pageCount {
		return nil, &PageError{PageIndex: pageIndex, PageCount: pageCount}
	}

	page := reader.Page(pageIndex + 1)
	size := mediaBoxSize(page.V)

	scale := 1.0
	if targetWidthPx > 0 {
		scale = targetWidthPx / size.Width
	}

	return &Rendering{
		WidthPx:   int(math.Round(size.Width * scale)),
		HeightPx:  int(math.Round(size.Height * scale)),
		PageSize:  size,
		PageCount: pageCount,
	}, nil
}

// mediaBoxSize resolves the page's MediaBox, following Parent links for
// inherited boxes.
func mediaBoxSize(v lpdf.Value) geometry.Size {
	for depth := 0; depth < maxFieldDepth && v.Kind() == lpdf.Dict; depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == lpdf.Array && box.Len() == 4 {
			width := math.Abs(box.Index(2).Float64() - box.Index(0).Float64())
			height := math.Abs(box.Index(3).Float64() - box.Index(1).Float64())
			if width > 0 && height > 0 {
				return geometry.Size{Width: width, Height: height}
			}
		}
		v = v.Key("Parent")
	}
	return defaultPageSize
}
