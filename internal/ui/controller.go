// Package ui owns the complete page state for one browser session. All
// input events and timer callbacks run under a single lock, so the parts it
// composes can stay single-threaded.
package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"storymap/internal/dialogue"
	"storymap/internal/models"
	"storymap/internal/overlay"
	"storymap/internal/registry"
	"storymap/internal/story"
	"storymap/internal/view"
	"storymap/internal/viewport"
)

var (
	ErrUnknownMarker = errors.New("ui: unknown marker")
	ErrClosed        = errors.New("ui: controller closed")
)

// DefaultSize is assumed until the page reports its real size
var DefaultSize = view.Size{Width: 1280, Height: 720}

// Controller is the UIState of one session
type Controller struct {
	mu sync.Mutex

	store    *story.Store
	viewport *viewport.Controller
	registry *registry.Registry
	engine   *dialogue.Engine
	chrome   *overlay.Chrome
	parts    []view.Renderable

	seq     uint64
	subs    map[uint64]chan view.Frame
	nextSub uint64
	closed  bool

	lastAccessed time.Time
}

// New builds the page state for the given story. sched drives text reveal
// and UI transitions; its callbacks are serialized with Apply.
func New(store *story.Store, size view.Size, sched dialogue.Scheduler) *Controller {
	c := &Controller{
		store:        store,
		subs:         map[uint64]chan view.Frame{},
		lastAccessed: time.Now(),
	}
	locked := c.lockedScheduler(sched)

	c.viewport = viewport.New(size)
	c.viewport.Attach(viewport.NewLayer("background"), viewport.NewLayer("markers"))

	c.registry = registry.New(store.Points())
	c.engine = dialogue.New(locked, c.registry, dialogue.WelcomeContent{
		Title:   store.Title(),
		Section: store.Welcome(),
	}, c.publishLocked)
	c.chrome = overlay.New(locked, c.engine, c.publishLocked)

	c.registry.OnClick(func(p *models.StoryPoint) {
		if err := c.engine.SelectPoint(p); err != nil {
			slog.Error("select point failed", "point", p.ID, "error", err)
		}
	})

	c.parts = []view.Renderable{c.viewport, c.registry, c.engine, c.chrome}
	return c
}

// lockedScheduler wraps sched so callbacks run under the controller lock
// and are dropped once the controller is closed.
func (c *Controller) lockedScheduler(sched dialogue.Scheduler) dialogue.Scheduler {
	return dialogue.SchedulerFunc(func(d time.Duration, fn func()) dialogue.Timer {
		return sched.AfterFunc(d, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.closed {
				return
			}
			fn()
		})
	})
}

// Apply handles one input event and returns the resulting frame.
func (c *Controller) Apply(ev Event) (view.Frame, error) {
	if err := ev.Validate(); err != nil {
		return view.Frame{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return view.Frame{}, ErrClosed
	}
	c.lastAccessed = time.Now()

	changed, err := c.dispatch(ev)
	if changed {
		c.publishLocked()
	}
	return c.frameLocked(), err
}

func (c *Controller) dispatch(ev Event) (bool, error) {
	switch ev.Type {
	case EventPointerDown, EventTouchStart:
		pos, ok := ev.Position()
		if !ok || c.chrome.HelpVisible() {
			return false, nil
		}
		return c.viewport.BeginDrag(pos, ev.Target), nil

	case EventPointerMove, EventTouchMove:
		pos, ok := ev.Position()
		if !ok {
			return false, nil
		}
		return c.viewport.UpdateDrag(pos), nil

	case EventPointerUp, EventTouchEnd:
		was := c.viewport.Dragging()
		c.viewport.EndDrag()
		return was, nil

	case EventClick:
		return c.click(ev.Target)

	case EventKey:
		if c.chrome.HelpVisible() {
			return false, nil
		}
		return c.engine.Key([]rune(ev.Key)[0])

	case EventOption:
		return true, c.engine.ChooseOption(ev.Option)

	case EventResize:
		c.viewport.Resize(view.Size{Width: ev.Width, Height: ev.Height})
		return false, nil

	case EventSpeed:
		c.chrome.CycleSpeed()
		return true, nil

	case EventContrast:
		c.chrome.ToggleContrast()
		return true, nil

	case EventHelpOpen:
		c.chrome.OpenHelp()
		return true, nil

	case EventHelpClose:
		return c.chrome.DismissHelp(), nil
	}
	return false, fmt.Errorf("unhandled event type %q", ev.Type)
}

func (c *Controller) click(target view.Target) (bool, error) {
	switch target.Kind {
	case view.TargetBackdrop:
		if c.chrome.HelpVisible() {
			return c.chrome.DismissHelp(), nil
		}
		return c.engine.BackdropClick(), nil

	case view.TargetMarker:
		if c.chrome.HelpVisible() {
			return false, nil
		}
		m, ok := c.registry.Lookup(target.ID)
		if !ok {
			return false, fmt.Errorf("%w: %q", ErrUnknownMarker, target.ID)
		}
		m.Click()
		return true, nil

	case view.TargetPanel:
		return c.engine.SkipReveal(), nil
	}
	return false, nil
}

// Frame renders the current page state.
func (c *Controller) Frame() view.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frameLocked()
}

func (c *Controller) frameLocked() view.Frame {
	f := view.Frame{Seq: c.seq}
	for _, p := range c.parts {
		p.Render(&f)
	}
	return f
}

// SetSpeed changes the text reveal speed.
func (c *Controller) SetSpeed(s dialogue.Speed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.SetSpeed(s)
	c.publishLocked()
}

// State returns the dialogue state.
func (c *Controller) State() dialogue.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.State()
}

// publishLocked pushes a new frame to every subscriber. Slow subscribers
// only ever see the latest frame.
func (c *Controller) publishLocked() {
	c.seq++
	if len(c.subs) == 0 {
		return
	}
	f := c.frameLocked()
	for _, ch := range c.subs {
		select {
		case ch <- f:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- f:
			default:
			}
		}
	}
}

// Subscribe returns a channel of frames, starting with the current one.
// The channel is closed by cancel or Close.
func (c *Controller) Subscribe() (<-chan view.Frame, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan view.Frame, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- c.frameLocked()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Touch marks the session as used.
func (c *Controller) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAccessed = time.Now()
}

// LastAccessed returns when the session last handled a request.
func (c *Controller) LastAccessed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAccessed
}

// Close cancels timers and ends all subscriptions.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.chrome.Close()
	c.engine.Reveal().Cancel()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}
