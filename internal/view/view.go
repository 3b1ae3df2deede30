// Package view holds the view-model types shared by the map components and
// the capability interfaces they implement. Nothing here touches a real
// rendering surface: a Frame is plain data that the browser paints.
package view

// Point is a position in CSS pixels
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Size is the extent of the viewport in CSS pixels
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TargetKind classifies what a pointer event landed on
type TargetKind string

const (
	TargetBackdrop TargetKind = "backdrop"
	TargetMarker   TargetKind = "marker"
	TargetPanel    TargetKind = "panel"
	TargetChrome   TargetKind = "chrome"
)

// Target is the element under the pointer
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id,omitempty"`
}

// Interactive reports whether the target is UI that must never start a drag
func (t Target) Interactive() bool {
	switch t.Kind {
	case TargetMarker, TargetPanel, TargetChrome:
		return true
	}
	return false
}

// Draggable receives the shared pan translation
type Draggable interface {
	Translate(offset Point)
}

// Clickable reacts to a click on its element
type Clickable interface {
	Click()
}

// Renderable writes its part of a frame
type Renderable interface {
	Render(f *Frame)
}

// LayerView is a translated layer (background or markers)
type LayerView struct {
	Name   string `json:"name"`
	Offset Point  `json:"offset"`
}

// MarkerView is one story point marker
type MarkerView struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Selected bool    `json:"selected"`
}

// OptionView is one numbered dialogue option
type OptionView struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
	Label  string `json:"label"`
}

// PanelView is the dialogue panel
type PanelView struct {
	Visible  bool         `json:"visible"`
	Mode     string       `json:"mode"`
	PointID  string       `json:"pointId,omitempty"`
	Title    string       `json:"title"`
	Section  int          `json:"section"`
	Speaker  string       `json:"speaker"`
	Text     string       `json:"text"`
	Revealed bool         `json:"revealed"`
	Options  []OptionView `json:"options"`
}

// ChromeView is the toolbar and help overlay state
type ChromeView struct {
	Speed        string `json:"speed"`
	SpeedLabel   string `json:"speedLabel"`
	HighContrast bool   `json:"highContrast"`
	HelpVisible  bool   `json:"helpVisible"`
}

// Frame is a complete snapshot of the page for the browser to paint
type Frame struct {
	Seq      uint64       `json:"seq"`
	Dragging bool         `json:"dragging"`
	Layers   []LayerView  `json:"layers"`
	Markers  []MarkerView `json:"markers"`
	Panel    PanelView    `json:"panel"`
	Chrome   ChromeView   `json:"chrome"`
}
