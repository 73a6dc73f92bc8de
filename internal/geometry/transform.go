// Package geometry converts between the two coordinate spaces a template is
// edited and generated in.
//
// Document space is measured in PDF points with the origin at the top-left
// corner of the page and y growing downward. Viewport space is measured in
// pixels of the rendered page bitmap, same origin and orientation, scaled by
// the current zoom factor. Field geometry is always stored in document space.
package geometry

const (
	// BaselineCorrection lifts painted text so its baseline sits inside the
	// field box instead of on its bottom edge.
	BaselineCorrection = 4.0

	// DefaultPadding is the horizontal space, in pixels, the editor leaves
	// around the rendered page.
	DefaultPadding = 40.0
)

// Point is a position in either coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair in either coordinate space.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an axis-aligned box anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToViewport scales a document-space length to viewport pixels.
func ToViewport(p, scale float64) float64 {
	return p * scale
}

// ToDocument scales a viewport length back to document points.
func ToDocument(v, scale float64) float64 {
	if scale == 0 {
		return 0
	}
	return v / scale
}

// PointToViewport converts a document-space point to viewport pixels.
func PointToViewport(p Point, scale float64) Point {
	return Point{X: ToViewport(p.X, scale), Y: ToViewport(p.Y, scale)}
}

// PointToDocument converts a viewport point to document points.
func PointToDocument(p Point, scale float64) Point {
	return Point{X: ToDocument(p.X, scale), Y: ToDocument(p.Y, scale)}
}

// RectToViewport converts a stored field box into the box drawn on screen.
func RectToViewport(r Rect, scale float64) Rect {
	return Rect{
		X:      ToViewport(r.X, scale),
		Y:      ToViewport(r.Y, scale),
		Width:  ToViewport(r.Width, scale),
		Height: ToViewport(r.Height, scale),
	}
}

// ZoomFactor returns the scale that fits a page of pageWidth points into a
// container of containerWidth pixels, leaving padding pixels free. It
// returns 1 when either width is unusable.
func ZoomFactor(containerWidth, padding, pageWidth float64) float64 {
	if pageWidth <= 0 {
		return 1
	}
	available := containerWidth - padding
	if available <= 0 {
		return 1
	}
	return available / pageWidth
}

// PaintY flips a top-down field box into the bottom-up y coordinate the text
// painter expects for the text origin.
func PaintY(pageHeight float64, box Rect) float64 {
	return pageHeight - box.Y - box.Height + BaselineCorrection
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Origin returns the top-left corner of r.
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}
