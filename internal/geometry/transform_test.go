package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	points := []float64{0, 1, 12.5, 50, 612, 791.99, -30}
	scales := []float64{0.25, 0.5, 1, 1.3333, 2, 3.7}

	for _, p := range points {
		for _, s := range scales {
			got := ToDocument(ToViewport(p, s), s)
			assert.InDelta(t, p, got, 1e-9, "p=%v s=%v", p, s)
		}
	}
}

func TestPointAndRectConversion(t *testing.T) {
	p := PointToViewport(Point{X: 50, Y: 80}, 2)
	assert.Equal(t, Point{X: 100, Y: 160}, p)
	assert.Equal(t, Point{X: 50, Y: 80}, PointToDocument(p, 2))

	r := RectToViewport(Rect{X: 50, Y: 50, Width: 150, Height: 30}, 1.5)
	assert.Equal(t, Rect{X: 75, Y: 75, Width: 225, Height: 45}, r)
}

func TestToDocument_ZeroScale(t *testing.T) {
	assert.Equal(t, 0.0, ToDocument(10, 0))
}

func TestZoomFactor(t *testing.T) {
	tests := []struct {
		name      string
		container float64
		padding   float64
		page      float64
		want      float64
	}{
		{name: "fit letter page", container: 652, padding: 40, page: 612, want: 1},
		{name: "double width", container: 1264, padding: 40, page: 612, want: 2},
		{name: "zero page width", container: 800, padding: 40, page: 0, want: 1},
		{name: "container smaller than padding", container: 30, padding: 40, page: 612, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ZoomFactor(tt.container, tt.padding, tt.page), 1e-9)
		})
	}
}

func TestPaintY(t *testing.T) {
	box := Rect{X: 50, Y: 50, Width: 150, Height: 30}
	assert.Equal(t, 792.0-50-30+4, PaintY(792, box))
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 20, Height: 10}
	assert.True(t, r.Contains(Point{X: 10, Y: 10}))
	assert.True(t, r.Contains(Point{X: 30, Y: 20}))
	assert.False(t, r.Contains(Point{X: 31, Y: 15}))
	assert.False(t, r.Contains(Point{X: 15, Y: 9}))
}
