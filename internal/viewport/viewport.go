// Package viewport pans the map layers in response to drag gestures.
package viewport

import "storymap/internal/view"

// MaxPanFraction bounds the pan offset on each axis as a fraction of the
// viewport extent.
const MaxPanFraction = 0.1

// Layer is a page layer that moves with the pan offset.
type Layer struct {
	Name   string
	offset view.Point
}

// NewLayer creates an untranslated layer.
func NewLayer(name string) *Layer {
	return &Layer{Name: name}
}

// Translate implements view.Draggable.
func (l *Layer) Translate(offset view.Point) {
	l.offset = offset
}

// Offset returns the translation currently applied to the layer.
func (l *Layer) Offset() view.Point {
	return l.offset
}

// Controller tracks the pan offset of the map and drives its layers.
type Controller struct {
	size     view.Size
	offset   view.Point
	anchor   view.Point
	dragging bool
	layers   []view.Draggable
	names    []*Layer
}

// New creates a controller for a viewport of the given size.
func New(size view.Size) *Controller {
	return &Controller{size: size}
}

// Attach adds layers that follow the offset in lock-step.
func (c *Controller) Attach(layers ...view.Draggable) {
	for _, l := range layers {
		l.Translate(c.offset)
		c.layers = append(c.layers, l)
		if named, ok := l.(*Layer); ok {
			c.names = append(c.names, named)
		}
	}
}

// BeginDrag starts a drag unless the pointer went down on interactive UI.
// It reports whether dragging started.
func (c *Controller) BeginDrag(pos view.Point, target view.Target) bool {
	if target.Interactive() {
		return false
	}
	c.anchor = pos.Sub(c.offset)
	c.dragging = true
	return true
}

// UpdateDrag moves the layers while dragging. It reports whether anything moved.
func (c *Controller) UpdateDrag(pos view.Point) bool {
	if !c.dragging {
		return false
	}
	next := c.clamp(pos.Sub(c.anchor))
	if next == c.offset {
		return false
	}
	c.offset = next
	for _, l := range c.layers {
		l.Translate(c.offset)
	}
	return true
}

// EndDrag leaves dragging mode. There is no inertia.
func (c *Controller) EndDrag() {
	c.dragging = false
}

// Resize records a new viewport size. The current offset is kept as is;
// later drag updates clamp against the new bounds.
func (c *Controller) Resize(size view.Size) {
	c.size = size
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool {
	return c.dragging
}

// Offset returns the current pan offset.
func (c *Controller) Offset() view.Point {
	return c.offset
}

// Bounds returns the maximum absolute offset on each axis.
func (c *Controller) Bounds() view.Point {
	return view.Point{
		X: MaxPanFraction * c.size.Width,
		Y: MaxPanFraction * c.size.Height,
	}
}

func (c *Controller) clamp(p view.Point) view.Point {
	b := c.Bounds()
	return view.Point{
		X: clamp(p.X, -b.X, b.X),
		Y: clamp(p.Y, -b.Y, b.Y),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Render implements view.Renderable.
func (c *Controller) Render(f *view.Frame) {
	f.Dragging = c.dragging
	f.Layers = f.Layers[:0]
	for _, l := range c.names {
		f.Layers = append(f.Layers, view.LayerView{Name: l.Name, Offset: l.Offset()})
	}
}
