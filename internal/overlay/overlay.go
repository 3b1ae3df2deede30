// Package overlay implements the page chrome around the dialogue panel: the
// text speed toggle, the high-contrast toggle and the help overlay.
package overlay

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"time"

	"storymap/internal/dialogue"
	"storymap/internal/view"

	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// WelcomeDelay is the pause between closing help and showing the welcome panel.
const WelcomeDelay = 300 * time.Millisecond

// unsafeHrefRe matches href/src attributes with dangerous URL schemes in goldmark output.
var unsafeHrefRe = regexp.MustCompile(`(?i)(href|src)="(?:javascript|vbscript|data):[^"]*"`)

// Dialogue is the part of the dialogue engine the chrome drives.
type Dialogue interface {
	Mode() dialogue.Mode
	Speed() dialogue.Speed
	SetSpeed(dialogue.Speed)
	Hide()
	EnterWelcome()
}

// Chrome holds the toggles. Help starts open: it is the intro overlay.
type Chrome struct {
	sched    dialogue.Scheduler
	dlg      Dialogue
	onChange func()

	highContrast bool
	helpVisible  bool
	gen          uint64
	welcome      dialogue.Timer
}

// New creates chrome with the help overlay showing.
func New(sched dialogue.Scheduler, dlg Dialogue, onChange func()) *Chrome {
	return &Chrome{
		sched:       sched,
		dlg:         dlg,
		onChange:    onChange,
		helpVisible: true,
	}
}

// CycleSpeed advances the reveal speed and returns the new one.
func (c *Chrome) CycleSpeed() dialogue.Speed {
	next := c.dlg.Speed().Next()
	c.dlg.SetSpeed(next)
	return next
}

// ToggleContrast flips high-contrast mode and returns the new value.
func (c *Chrome) ToggleContrast() bool {
	c.highContrast = !c.highContrast
	return c.highContrast
}

// HighContrast reports whether high-contrast mode is on.
func (c *Chrome) HighContrast() bool {
	return c.highContrast
}

// HelpVisible reports whether the help overlay is open.
func (c *Chrome) HelpVisible() bool {
	return c.helpVisible
}

// OpenHelp shows help and hides the dialogue panel.
func (c *Chrome) OpenHelp() {
	c.cancelWelcome()
	c.helpVisible = true
	c.dlg.Hide()
}

// DismissHelp closes help and schedules the welcome panel. The welcome is
// skipped if a dialogue opened in the meantime. It reports whether help was
// open.
func (c *Chrome) DismissHelp() bool {
	if !c.helpVisible {
		return false
	}
	c.helpVisible = false
	c.cancelWelcome()

	gen := c.gen
	c.welcome = c.sched.AfterFunc(WelcomeDelay, func() {
		if gen != c.gen || c.helpVisible {
			return
		}
		c.welcome = nil
		if c.dlg.Mode() != dialogue.ModeHidden {
			return
		}
		c.dlg.EnterWelcome()
		if c.onChange != nil {
			c.onChange()
		}
	})
	return true
}

// Close cancels pending transitions.
func (c *Chrome) Close() {
	c.cancelWelcome()
}

func (c *Chrome) cancelWelcome() {
	c.gen++
	if c.welcome != nil {
		c.welcome.Stop()
		c.welcome = nil
	}
}

// Render implements view.Renderable.
func (c *Chrome) Render(f *view.Frame) {
	s := c.dlg.Speed()
	f.Chrome = view.ChromeView{
		Speed:        s.String(),
		SpeedLabel:   s.Label(),
		HighContrast: c.highContrast,
		HelpVisible:  c.helpVisible,
	}
}

// RenderHelp converts the Markdown help text to HTML.
func RenderHelp(src []byte) (template.HTML, error) {
	md := goldmark.New(
		goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
	)
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render help: %w", err)
	}
	return template.HTML(unsafeHrefRe.ReplaceAllString(buf.String(), `$1="#"`)), nil
}
