// Package registry keeps one marker per story point and maps marker ids back
// to the points they stand for.
package registry

import (
	"storymap/internal/models"
	"storymap/internal/view"
)

// Marker is the interactive map pin for one story point.
type Marker struct {
	point    *models.StoryPoint
	selected bool
	onClick  func(*models.StoryPoint)
}

// Point returns the story point behind the marker.
func (m *Marker) Point() *models.StoryPoint {
	return m.point
}

// Selected reports whether the marker is highlighted.
func (m *Marker) Selected() bool {
	return m.selected
}

// Click implements view.Clickable.
func (m *Marker) Click() {
	if m.onClick != nil {
		m.onClick(m.point)
	}
}

// Registry holds the markers in story order.
type Registry struct {
	markers []*Marker
	byID    map[string]*Marker
	onClick func(*models.StoryPoint)
}

// New creates one marker per point. points must outlive the registry.
func New(points []models.StoryPoint) *Registry {
	r := &Registry{
		markers: make([]*Marker, 0, len(points)),
		byID:    make(map[string]*Marker, len(points)),
	}
	for i := range points {
		m := &Marker{point: &points[i], onClick: r.click}
		r.markers = append(r.markers, m)
		r.byID[points[i].ID] = m
	}
	return r
}

func (r *Registry) click(p *models.StoryPoint) {
	if r.onClick != nil {
		r.onClick(p)
	}
}

// OnClick sets the handler run when any marker is clicked.
func (r *Registry) OnClick(fn func(*models.StoryPoint)) {
	r.onClick = fn
}

// Lookup finds the marker for a point id.
func (r *Registry) Lookup(id string) (view.Clickable, bool) {
	m, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return m, true
}

// Len returns the number of markers.
func (r *Registry) Len() int {
	return len(r.markers)
}

// Select highlights the marker for id and clears every other marker.
func (r *Registry) Select(id string) {
	for _, m := range r.markers {
		m.selected = m.point.ID == id
	}
}

// ClearSelection un-highlights all markers.
func (r *Registry) ClearSelection() {
	for _, m := range r.markers {
		m.selected = false
	}
}

// SelectedID returns the highlighted point id, or "".
func (r *Registry) SelectedID() string {
	for _, m := range r.markers {
		if m.selected {
			return m.point.ID
		}
	}
	return ""
}

// Render implements view.Renderable. Positions are percentages of the
// untransformed marker layer; the layer translation moves them all.
func (r *Registry) Render(f *view.Frame) {
	f.Markers = make([]view.MarkerView, 0, len(r.markers))
	for _, m := range r.markers {
		f.Markers = append(f.Markers, view.MarkerView{
			ID:       m.point.ID,
			Title:    m.point.Title,
			X:        m.point.X,
			Y:        m.point.Y,
			Selected: m.selected,
		})
	}
}
