// Package editor implements the interactive editing of manual template
// fields: creation, selection, dragging, resizing and deletion. Field
// geometry is kept in document points; viewport pixels only appear at the
// input and display boundary.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/a3tai/pdf-template-filler/internal/geometry"
	"github.com/a3tai/pdf-template-filler/internal/model"
	"github.com/a3tai/pdf-template-filler/internal/pdf"
)

// Seed geometry for new manual fields, in document points.
const (
	DefaultFieldX      = 50.0
	DefaultFieldY      = 50.0
	DefaultFieldWidth  = 150.0
	DefaultFieldHeight = 30.0
)

const (
	// MinFieldWidth and MinFieldHeight bound resizing, in document points.
	MinFieldWidth  = 20.0
	MinFieldHeight = 10.0

	// ResizeHandleSize is the side of the square resize hit region at a
	// field's bottom-right corner, in viewport pixels.
	ResizeHandleSize = 10.0

	// DragThreshold is the pointer travel, in viewport pixels, below which a
	// pointer-down stays a click.
	DragThreshold = 2.0

	// ManualFieldPrefix starts the id of every manual field.
	ManualFieldPrefix = "custom_"
)

// ErrGestureActive is returned when a pointer-down arrives while another
// gesture still holds the capture.
var ErrGestureActive = errors.New("another gesture is in progress")

// Store persists a template's fields and mappings.
type Store interface {
	UpdateTemplate(ctx context.Context, t *model.Template) error
}

// Overlay is one manual field as it should be drawn on the current page.
type Overlay struct {
	Field model.TemplateField
	// Box is the field's on-screen box in viewport pixels, including any
	// in-progress drag or resize.
	Box   geometry.Rect
	State State
}

// Editor edits the manual fields of one template. Every settled change is
// written to the store before it becomes visible; a failed write leaves the
// editor unchanged.
type Editor struct {
	mu       sync.Mutex
	tpl      model.Template
	store    Store
	renderer pdf.Renderer
	logger   *slog.Logger
	newID    func() (string, error)

	padding        float64
	containerWidth float64
	page           int
	pageCount      int
	pageSize       geometry.Size
	scale          float64

	selected string
	gesture  *Gesture
}

// New creates an editor over a copy of tpl. renderer may be nil, in which
// case the caller sets the zoom with SetScale.
func New(tpl *model.Template, store Store, renderer pdf.Renderer, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{
		tpl:      tpl.Clone(),
		store:    store,
		renderer: renderer,
		logger:   logger.With("template", tpl.Name),
		newID:    newManualFieldID,
		padding:  geometry.DefaultPadding,
		scale:    1,
	}
}

func newManualFieldID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating field id: %w", err)
	}
	return ManualFieldPrefix + id.String(), nil
}

// SetPadding sets the container padding used by Layout, in pixels.
func (e *Editor) SetPadding(padding float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if padding >= 0 {
		e.padding = padding
	}
}

// Template returns a copy of the template as last persisted.
func (e *Editor) Template() model.Template {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tpl.Clone()
}

// Replace adopts tpl, typically after its mappings were changed through
// another writer. The selection is kept when the selected field survives.
func (e *Editor) Replace(tpl *model.Template) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture != nil {
		return ErrGestureActive
	}
	e.tpl = tpl.Clone()
	if _, ok := e.tpl.Field(e.selected); !ok {
		e.selected = ""
	}
	return nil
}

// Page returns the current zero-based page index.
func (e *Editor) Page() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.page
}

// PageCount returns the page count learned from the last Layout, or 0.
func (e *Editor) PageCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pageCount
}

// PageSize returns the current page size learned from the last Layout.
func (e *Editor) PageSize() geometry.Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pageSize
}

// Scale returns the current zoom factor.
func (e *Editor) Scale() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scale
}

// SetScale sets the zoom factor directly. Stored geometry is not touched.
func (e *Editor) SetScale(scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("zoom factor must be positive, got %g", scale)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scale = scale
	return nil
}

// Layout fits the current page into a container containerWidth pixels wide
// and recomputes the zoom factor. Stored geometry is not touched.
func (e *Editor) Layout(ctx context.Context, containerWidth float64) (*pdf.Rendering, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.containerWidth = containerWidth
	return e.layoutLocked(ctx)
}

func (e *Editor) layoutLocked(ctx context.Context) (*pdf.Rendering, error) {
	if e.renderer == nil {
		return nil, errors.New("no renderer configured")
	}
	target := e.containerWidth - e.padding
	rendering, err := e.renderer.RenderPage(ctx, e.tpl.Document, e.page, target)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", e.page, err)
	}
	e.pageCount = rendering.PageCount
	e.pageSize = rendering.PageSize
	e.scale = geometry.ZoomFactor(e.containerWidth, e.padding, rendering.PageSize.Width)
	e.logger.Debug("layout", "page", e.page, "container_width", e.containerWidth, "scale", e.scale)
	return rendering, nil
}

// SetPage switches to page and clears the selection. When a renderer is
// configured and a layout has been done, the page is laid out again.
func (e *Editor) SetPage(ctx context.Context, page int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture != nil {
		return ErrGestureActive
	}
	if page < 0 || (e.pageCount > 0 && page >= e.pageCount) {
		return &pdf.PageError{PageIndex: page, PageCount: e.pageCount}
	}
	e.page = page
	e.selected = ""
	if e.renderer != nil && e.containerWidth > 0 {
		if _, err := e.layoutLocked(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Selected returns the selected field id, or "".
func (e *Editor) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// State returns the interaction state of the field with the given id.
func (e *Editor) State(id string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked(id)
}

func (e *Editor) stateLocked(id string) State {
	if id == "" || id != e.selected {
		return StateIdle
	}
	if e.gesture != nil && e.gesture.fieldID == id {
		return e.gesture.State()
	}
	return StateSelected
}

// Select makes id the selected field; any other field becomes idle.
func (e *Editor) Select(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture != nil {
		return ErrGestureActive
	}
	if _, ok := e.tpl.Field(id); !ok {
		return unknownField(id)
	}
	e.selected = id
	return nil
}

// Deselect returns the selected field to idle.
func (e *Editor) Deselect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture == nil {
		e.selected = ""
	}
}

// Overlays returns the manual fields on the current page in draw order,
// topmost last.
func (e *Editor) Overlays() []Overlay {
	e.mu.Lock()
	defer e.mu.Unlock()

	var overlays []Overlay
	for _, f := range e.tpl.FieldsOnPage(e.page) {
		if !f.HasGeometry() {
			continue
		}
		box := *f.Box
		if e.gesture != nil && e.gesture.fieldID == f.ID {
			box = e.gesture.Preview()
		}
		overlays = append(overlays, Overlay{
			Field: f,
			Box:   geometry.RectToViewport(box, e.scale),
			State: e.stateLocked(f.ID),
		})
	}
	return overlays
}

// AddManualField places a new text field with the default box on the
// current page, persists it and selects it.
func (e *Editor) AddManualField(ctx context.Context) (*model.TemplateField, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture != nil {
		return nil, ErrGestureActive
	}

	id, err := e.newID()
	if err != nil {
		return nil, err
	}
	field := model.TemplateField{
		ID:        id,
		Name:      fmt.Sprintf("Field %d", e.manualCountLocked()+1),
		Kind:      model.FieldKindText,
		IsManual:  true,
		PageIndex: e.page,
		Box: &geometry.Rect{
			X:      DefaultFieldX,
			Y:      DefaultFieldY,
			Width:  DefaultFieldWidth,
			Height: DefaultFieldHeight,
		},
		FontSize: model.DefaultFontSize,
	}

	next := e.tpl.Clone()
	next.Fields = append(next.Fields, field)
	if err := e.commitLocked(ctx, &next); err != nil {
		return nil, err
	}
	e.selected = id
	e.logger.Info("added manual field", "field_id", id, "page", e.page)
	return &field, nil
}

func (e *Editor) manualCountLocked() int {
	n := 0
	for _, f := range e.tpl.Fields {
		if f.IsManual {
			n++
		}
	}
	return n
}

// DeleteField removes the field and every mapping that references it in a
// single write.
func (e *Editor) DeleteField(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture != nil {
		return ErrGestureActive
	}

	next := e.tpl.Clone()
	if !next.RemoveField(id) {
		return unknownField(id)
	}
	if err := e.commitLocked(ctx, &next); err != nil {
		return err
	}
	if e.selected == id {
		e.selected = ""
	}
	e.logger.Info("deleted field", "field_id", id)
	return nil
}

// Rename changes a field's display name.
func (e *Editor) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("field name cannot be empty")
	}
	return e.updateField(ctx, id, func(f *model.TemplateField) error {
		f.Name = name
		return nil
	})
}

// SetFontSize changes the font size of a manual field.
func (e *Editor) SetFontSize(ctx context.Context, id string, size float64) error {
	if size <= 0 {
		return fmt.Errorf("font size must be positive, got %g", size)
	}
	return e.updateField(ctx, id, func(f *model.TemplateField) error {
		if !f.IsManual {
			return fmt.Errorf("field %s is a form field; its font is set by the document", id)
		}
		f.FontSize = size
		return nil
	})
}

// SetBox places a manual field at box, in document points, bypassing the
// pointer. The minimum size is enforced.
func (e *Editor) SetBox(ctx context.Context, id string, box geometry.Rect) error {
	if box.Width < MinFieldWidth || box.Height < MinFieldHeight {
		return fmt.Errorf("field box must be at least %gx%g points", MinFieldWidth, MinFieldHeight)
	}
	return e.updateField(ctx, id, func(f *model.TemplateField) error {
		if !f.IsManual {
			return fmt.Errorf("field %s is a form field and has no box", id)
		}
		f.Box = &box
		return nil
	})
}

func (e *Editor) updateField(ctx context.Context, id string, apply func(*model.TemplateField) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture != nil {
		return ErrGestureActive
	}

	next := e.tpl.Clone()
	f, ok := next.Field(id)
	if !ok {
		return unknownField(id)
	}
	if err := apply(f); err != nil {
		return err
	}
	return e.commitLocked(ctx, &next)
}

// PointerDown handles a pointer press at p, in viewport pixels.
//
// A press inside the resize handle of the already selected field starts a
// resize. A press elsewhere on a field selects it and starts a gesture that
// becomes a drag once the pointer travels past DragThreshold. A press on
// empty space deselects and returns a nil gesture.
func (e *Editor) PointerDown(p geometry.Point) (*Gesture, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture != nil {
		return nil, ErrGestureActive
	}

	f, ok := e.hitLocked(p)
	if !ok {
		e.selected = ""
		return nil, nil
	}

	state := StateSelected
	if f.ID == e.selected && inResizeHandle(geometry.RectToViewport(*f.Box, e.scale), p) {
		state = StateResizing
	}
	e.selected = f.ID

	g := &Gesture{
		editor:  e,
		fieldID: f.ID,
		start:   p,
		origin:  *f.Box,
		scale:   e.scale,
		state:   state,
		preview: *f.Box,
	}
	e.gesture = g
	return g, nil
}

// hitLocked returns the topmost manual field on the current page under p.
func (e *Editor) hitLocked(p geometry.Point) (model.TemplateField, bool) {
	fields := e.tpl.FieldsOnPage(e.page)
	for i := len(fields) - 1; i >= 0; i-- {
		f := fields[i]
		if f.HasGeometry() && geometry.RectToViewport(*f.Box, e.scale).Contains(p) {
			return f, true
		}
	}
	return model.TemplateField{}, false
}

func inResizeHandle(box geometry.Rect, p geometry.Point) bool {
	handle := geometry.Rect{
		X:      box.X + box.Width - ResizeHandleSize,
		Y:      box.Y + box.Height - ResizeHandleSize,
		Width:  ResizeHandleSize,
		Height: ResizeHandleSize,
	}
	return handle.Contains(p)
}

// release ends g. Only a drag or resize writes to the store.
func (e *Editor) release(ctx context.Context, g *Gesture, state State, box geometry.Rect) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture == g {
		e.gesture = nil
	}
	if state != StateDragging && state != StateResizing {
		return nil
	}

	next := e.tpl.Clone()
	f, ok := next.Field(g.fieldID)
	if !ok {
		return unknownField(g.fieldID)
	}
	f.Box = &box
	if err := e.commitLocked(ctx, &next); err != nil {
		return err
	}
	e.logger.Debug("committed field geometry", "field_id", g.fieldID, "state", state.String(),
		"x", box.X, "y", box.Y, "width", box.Width, "height", box.Height)
	return nil
}

// commitLocked persists next and adopts it once the write succeeds.
func (e *Editor) commitLocked(ctx context.Context, next *model.Template) error {
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	if err := e.store.UpdateTemplate(ctx, next); err != nil {
		e.logger.Warn("failed to persist template", "error", err)
		return fmt.Errorf("persisting template: %w", err)
	}
	e.tpl = *next
	return nil
}

func unknownField(id string) error {
	return model.NewFieldError(model.ErrorTypeUnknownField, id, "no such field", nil)
}
