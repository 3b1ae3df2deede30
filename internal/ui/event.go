package ui

import (
	"fmt"

	"storymap/internal/view"
)

// EventType names a browser input event
type EventType string

const (
	EventPointerDown EventType = "pointerdown"
	EventPointerMove EventType = "pointermove"
	EventPointerUp   EventType = "pointerup"
	EventTouchStart  EventType = "touchstart"
	EventTouchMove   EventType = "touchmove"
	EventTouchEnd    EventType = "touchend"
	EventClick       EventType = "click"
	EventKey         EventType = "key"
	EventResize      EventType = "resize"
	EventOption      EventType = "option"
	EventSpeed       EventType = "speed"
	EventContrast    EventType = "contrast"
	EventHelpOpen    EventType = "help-open"
	EventHelpClose   EventType = "help-close"
)

// Event is one input forwarded from the page
type Event struct {
	Type    EventType    `json:"type"`
	X       float64      `json:"x,omitempty"`
	Y       float64      `json:"y,omitempty"`
	Touches []view.Point `json:"touches,omitempty"`
	Target  view.Target  `json:"target"`
	Key     string       `json:"key,omitempty"`
	Option  int          `json:"option,omitempty"`
	Width   float64      `json:"width,omitempty"`
	Height  float64      `json:"height,omitempty"`
}

// Position returns where the event happened. Touch events use the first
// active touch; ok is false for a touch event with no touches.
func (e Event) Position() (view.Point, bool) {
	switch e.Type {
	case EventTouchStart, EventTouchMove:
		if len(e.Touches) == 0 {
			return view.Point{}, false
		}
		return e.Touches[0], true
	}
	return view.Point{X: e.X, Y: e.Y}, true
}

// Validate rejects events the controller cannot apply
func (e Event) Validate() error {
	switch e.Type {
	case EventPointerDown, EventPointerMove, EventPointerUp,
		EventTouchStart, EventTouchMove, EventTouchEnd,
		EventClick, EventSpeed, EventContrast, EventHelpOpen, EventHelpClose:
		return nil
	case EventKey:
		if len([]rune(e.Key)) != 1 {
			return fmt.Errorf("key event needs a single character, got %q", e.Key)
		}
		return nil
	case EventOption:
		if e.Option < 1 {
			return fmt.Errorf("option event needs a number >= 1, got %d", e.Option)
		}
		return nil
	case EventResize:
		if e.Width <= 0 || e.Height <= 0 {
			return fmt.Errorf("resize needs a positive size, got %gx%g", e.Width, e.Height)
		}
		return nil
	}
	return fmt.Errorf("unknown event type %q", e.Type)
}
