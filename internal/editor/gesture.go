package editor

import (
	"context"
	"math"
	"sync"

	"github.com/a3tai/pdf-template-filler/internal/geometry"
)

// Gesture captures pointer movement for one pointer-down to pointer-up
// interaction on a field. Moves only update a preview box; Up commits the
// last computed box. There is no way to abort a gesture.
type Gesture struct {
	editor  *Editor
	fieldID string
	start   geometry.Point
	origin  geometry.Rect
	scale   float64

	mu       sync.Mutex
	state    State
	preview  geometry.Rect
	released bool
}

// FieldID returns the field the gesture acts on.
func (g *Gesture) FieldID() string {
	return g.fieldID
}

// State returns the field's state within the gesture. A gesture that has not
// yet moved past the drag threshold reports StateSelected.
func (g *Gesture) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Preview returns the box the field currently occupies, in document points.
func (g *Gesture) Preview() geometry.Rect {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.preview
}

// Move feeds the pointer position p, in viewport pixels, to the gesture.
// The displacement from the pointer-down position is converted to document
// points before it is applied, so the same physical movement yields the same
// document displacement at any zoom. Moves after release are ignored.
func (g *Gesture) Move(p geometry.Point) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return
	}

	dxPx := p.X - g.start.X
	dyPx := p.Y - g.start.Y
	if g.state == StateSelected {
		if math.Hypot(dxPx, dyPx) <= DragThreshold {
			return
		}
		g.state = StateDragging
	}

	dx := geometry.ToDocument(dxPx, g.scale)
	dy := geometry.ToDocument(dyPx, g.scale)
	switch g.state {
	case StateDragging:
		g.preview.X = g.origin.X + dx
		g.preview.Y = g.origin.Y + dy
	case StateResizing:
		g.preview.Width = math.Max(MinFieldWidth, g.origin.Width+dx)
		g.preview.Height = math.Max(MinFieldHeight, g.origin.Height+dy)
	}
}

// Up releases the capture. A drag or resize commits the preview box to the
// store and the field returns to StateSelected. A click that never crossed
// the drag threshold writes nothing.
func (g *Gesture) Up(ctx context.Context) error {
	g.mu.Lock()
	if g.released {
		g.mu.Unlock()
		return nil
	}
	g.released = true
	state, box := g.state, g.preview
	g.state = StateSelected
	g.mu.Unlock()

	return g.editor.release(ctx, g, state, box)
}

// Track consumes pointer positions until moves is closed, then releases the
// gesture. If ctx is done first the capture is released early and the last
// computed box is still committed.
func (g *Gesture) Track(ctx context.Context, moves <-chan geometry.Point) error {
	for {
		select {
		case p, ok := <-moves:
			if !ok {
				return g.Up(ctx)
			}
			g.Move(p)
		case <-ctx.Done():
			return g.Up(context.WithoutCancel(ctx))
		}
	}
}
