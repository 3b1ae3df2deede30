// Package dialogue implements the branching dialogue panel: which story
// point and section are on screen, which options are offered, and the
// typewriter reveal of the section text.
package dialogue

import (
	"errors"
	"fmt"

	"storymap/internal/models"
	"storymap/internal/view"
)

var (
	ErrNoActivePoint = errors.New("dialogue: no active story point")
	ErrPanelHidden   = errors.New("dialogue: panel is hidden")
	ErrNoSuchOption  = errors.New("dialogue: no such option")
	ErrNoSuchSection = errors.New("dialogue: no such section")
)

// Mode is the state of the dialogue panel.
type Mode int

const (
	// ModeHidden: panel not shown. The last point stays remembered.
	ModeHidden Mode = iota
	// ModeWelcome: intro panel with no story point behind it.
	ModeWelcome
	// ModeDialogue: a story point's section is on screen.
	ModeDialogue
)

func (m Mode) String() string {
	switch m {
	case ModeHidden:
		return "hidden"
	case ModeWelcome:
		return "welcome"
	case ModeDialogue:
		return "dialogue"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Selector tracks which marker is highlighted. At most one is selected.
type Selector interface {
	Select(id string)
	ClearSelection()
}

// State is a read-only snapshot of the session's dialogue state.
type State struct {
	Mode    Mode
	Point   *models.StoryPoint // nil in welcome mode and before any selection
	Section int
	Speed   Speed
}

// WelcomeContent is what the welcome panel shows.
type WelcomeContent struct {
	Title   string
	Section models.Section
	Dismiss string
}

// Engine is the dialogue state machine. It is not safe for concurrent use;
// callers serialize events and scheduler callbacks.
type Engine struct {
	mode    Mode
	point   *models.StoryPoint
	section int
	speed   Speed
	options []VisibleOption

	welcome WelcomeContent
	reveal  *Revealer
	markers Selector
}

// New creates a hidden engine. onChange runs after every reveal step.
func New(sched Scheduler, markers Selector, welcome WelcomeContent, onChange func()) *Engine {
	if welcome.Dismiss == "" {
		welcome.Dismiss = "Start exploring"
	}
	return &Engine{
		mode:    ModeHidden,
		speed:   DefaultSpeed,
		welcome: welcome,
		reveal:  NewRevealer(sched, onChange),
		markers: markers,
	}
}

// State returns the current state.
func (e *Engine) State() State {
	return State{Mode: e.mode, Point: e.point, Section: e.section, Speed: e.speed}
}

// Mode returns the panel mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// Visible reports whether the panel is on screen.
func (e *Engine) Visible() bool {
	return e.mode != ModeHidden
}

// Options returns the numbered options currently offered.
func (e *Engine) Options() []VisibleOption {
	return e.options
}

// Reveal exposes the text revealer.
func (e *Engine) Reveal() *Revealer {
	return e.reveal
}

// SelectPoint opens the dialogue of p at its first section and highlights
// its marker.
func (e *Engine) SelectPoint(p *models.StoryPoint) error {
	if p == nil {
		return ErrNoActivePoint
	}
	e.point = p
	e.markers.Select(p.ID)
	return e.ShowSection(0)
}

// ShowSection displays section index of the active point.
func (e *Engine) ShowSection(index int) error {
	if e.point == nil {
		return ErrNoActivePoint
	}
	if index < 0 || index >= len(e.point.Sections) {
		return fmt.Errorf("%w: %d of story point %q", ErrNoSuchSection, index, e.point.ID)
	}
	e.mode = ModeDialogue
	e.section = index
	e.options = VisibleOptions(e.point, index)
	e.reveal.Start(e.point.Sections[index].Text, e.speed)
	return nil
}

// ChooseOption acts on the option shown with the given number.
func (e *Engine) ChooseOption(number int) error {
	if e.mode == ModeHidden {
		return ErrPanelHidden
	}
	for _, o := range e.options {
		if o.Number != number {
			continue
		}
		if target, ok := o.Target(); ok {
			return e.ShowSection(target)
		}
		e.Close()
		return nil
	}
	return fmt.Errorf("%w: %d", ErrNoSuchOption, number)
}

// Key handles a key press. Digits 1-9 choose the matching option while the
// panel is visible. It reports whether the key was consumed.
func (e *Engine) Key(key rune) (bool, error) {
	if e.mode == ModeHidden || key < '1' || key > '0'+MaxKeyedOption {
		return false, nil
	}
	n := int(key - '0')
	if n > len(e.options) {
		return false, nil
	}
	return true, e.ChooseOption(n)
}

// Close hides the panel and clears marker selection. The active point is
// kept so a closed dialogue is distinguishable from the welcome panel.
func (e *Engine) Close() {
	e.mode = ModeHidden
	e.options = nil
	e.reveal.Clear()
	e.markers.ClearSelection()
}

// EnterWelcome shows the intro panel.
func (e *Engine) EnterWelcome() {
	e.mode = ModeWelcome
	e.point = nil
	e.section = 0
	e.markers.ClearSelection()
	e.options = []VisibleOption{{
		Number: 1,
		Option: models.Option{Text: e.welcome.Dismiss, Action: models.ActionClose},
	}}
	e.reveal.Start(e.welcome.Section.Text, e.speed)
}

// BackdropClick handles a click outside the panel and the markers. Only the
// welcome panel is dismissed this way; it reports whether it was.
func (e *Engine) BackdropClick() bool {
	if e.mode != ModeWelcome {
		return false
	}
	e.Close()
	return true
}

// SkipReveal shows the rest of the text on screen at once. It reports
// whether there was anything left to reveal.
func (e *Engine) SkipReveal() bool {
	if e.mode == ModeHidden || e.reveal.Done() {
		return false
	}
	e.reveal.Complete()
	return true
}

// Speed returns the reveal speed.
func (e *Engine) Speed() Speed {
	return e.speed
}

// SetSpeed changes the reveal speed. Text on screen restarts from the
// beginning at the new speed.
func (e *Engine) SetSpeed(s Speed) {
	e.speed = s
	switch e.mode {
	case ModeDialogue:
		e.reveal.Start(e.point.Sections[e.section].Text, s)
	case ModeWelcome:
		e.reveal.Start(e.welcome.Section.Text, s)
	}
}

// Hide closes the panel without touching the remembered point, for use
// when another overlay takes the screen.
func (e *Engine) Hide() {
	if e.mode != ModeHidden {
		e.Close()
	}
}

// Render implements view.Renderable.
func (e *Engine) Render(f *view.Frame) {
	p := view.PanelView{
		Visible:  e.mode != ModeHidden,
		Mode:     e.mode.String(),
		Section:  e.section,
		Text:     e.reveal.Visible(),
		Revealed: e.reveal.Done(),
		Options:  []view.OptionView{},
	}
	switch e.mode {
	case ModeDialogue:
		p.PointID = e.point.ID
		p.Title = e.point.Title
		p.Speaker = e.point.Sections[e.section].Speaker
	case ModeWelcome:
		p.Title = e.welcome.Title
		p.Speaker = e.welcome.Section.Speaker
	}
	for _, o := range e.options {
		p.Options = append(p.Options, view.OptionView{Number: o.Number, Text: o.Text, Label: o.Label()})
	}
	f.Panel = p
}
