package models

import "fmt"

// Action is what an option does when chosen
type Action string

const (
	ActionClose Action = "close"
	ActionGoto  Action = "goto"
)

// Section is one page of dialogue within a story point
type Section struct {
	Speaker string `json:"speaker" yaml:"speaker"`
	Text    string `json:"text" yaml:"text"`
}

// Option is a selectable transition out of the current section
type Option struct {
	Text    string `json:"text" yaml:"text"`
	Action  Action `json:"action" yaml:"action"`
	Section *int   `json:"section,omitempty" yaml:"section,omitempty"`
}

// Target returns the section index a goto option leads to
func (o Option) Target() (int, bool) {
	if o.Action == ActionClose || o.Section == nil {
		return 0, false
	}
	return *o.Section, true
}

// StoryPoint is a marker on the map with its own branching dialogue
type StoryPoint struct {
	ID       string    `json:"id" yaml:"id"`
	X        float64   `json:"x" yaml:"x"` // percent of map width
	Y        float64   `json:"y" yaml:"y"` // percent of map height
	Title    string    `json:"title" yaml:"title"`
	Sections []Section `json:"sections" yaml:"sections"`
	Options  []Option  `json:"options" yaml:"options"`
}

// Document is the declarative story source loaded at startup
type Document struct {
	Title   string       `json:"title" yaml:"title"`
	Welcome Section      `json:"welcome" yaml:"welcome"`
	Points  []StoryPoint `json:"points" yaml:"points"`
}

// DataIntegrityError reports a story point that cannot be rendered safely
type DataIntegrityError struct {
	PointID string
	Option  int // -1 when the problem is not tied to an option
	Reason  string
}

func (e *DataIntegrityError) Error() string {
	if e.Option >= 0 {
		return fmt.Sprintf("story point %q option %d: %s", e.PointID, e.Option, e.Reason)
	}
	return fmt.Sprintf("story point %q: %s", e.PointID, e.Reason)
}

// Validate checks that the point is internally consistent
func (p *StoryPoint) Validate() error {
	if p.ID == "" {
		return &DataIntegrityError{PointID: p.Title, Option: -1, Reason: "id is required"}
	}
	if len(p.Sections) == 0 {
		return &DataIntegrityError{PointID: p.ID, Option: -1, Reason: "at least one section is required"}
	}
	if p.X < 0 || p.X > 100 || p.Y < 0 || p.Y > 100 {
		return &DataIntegrityError{PointID: p.ID, Option: -1, Reason: fmt.Sprintf("position (%g, %g) outside 0-100%%", p.X, p.Y)}
	}
	for i, o := range p.Options {
		switch o.Action {
		case ActionClose:
		case ActionGoto:
			if o.Section == nil {
				return &DataIntegrityError{PointID: p.ID, Option: i, Reason: "goto option has no section"}
			}
			if *o.Section < 0 || *o.Section >= len(p.Sections) {
				return &DataIntegrityError{PointID: p.ID, Option: i, Reason: fmt.Sprintf("section %d does not exist (have %d)", *o.Section, len(p.Sections))}
			}
		default:
			return &DataIntegrityError{PointID: p.ID, Option: i, Reason: fmt.Sprintf("unknown action %q", o.Action)}
		}
	}
	return nil
}

// Validate checks every point and that point IDs are unique
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Points))
	for i := range d.Points {
		p := &d.Points[i]
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.ID] {
			return &DataIntegrityError{PointID: p.ID, Option: -1, Reason: "duplicate id"}
		}
		seen[p.ID] = true
	}
	return nil
}
