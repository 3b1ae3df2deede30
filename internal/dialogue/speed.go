package dialogue

import (
	"fmt"
	"time"
)

// Speed is the text reveal preset
type Speed int

const (
	SpeedFast Speed = iota
	SpeedRelaxed
	SpeedZen
)

// DefaultSpeed is used for new sessions
const DefaultSpeed = SpeedRelaxed

// Delay returns the per-character reveal delay. Zero means reveal at once.
func (s Speed) Delay() time.Duration {
	switch s {
	case SpeedRelaxed:
		return 15 * time.Millisecond
	case SpeedZen:
		return 40 * time.Millisecond
	}
	return 0
}

// Next cycles Fast -> Relaxed -> Zen -> Fast
func (s Speed) Next() Speed {
	return (s + 1) % 3
}

func (s Speed) String() string {
	switch s {
	case SpeedFast:
		return "fast"
	case SpeedRelaxed:
		return "relaxed"
	case SpeedZen:
		return "zen"
	}
	return fmt.Sprintf("Speed(%d)", int(s))
}

// Label is the text shown on the speed toggle
func (s Speed) Label() string {
	switch s {
	case SpeedFast:
		return "Text: Fast"
	case SpeedRelaxed:
		return "Text: Relaxed"
	case SpeedZen:
		return "Text: Zen"
	}
	return s.String()
}

// ParseSpeed maps a speed name back to its preset
func ParseSpeed(name string) (Speed, error) {
	for _, s := range []Speed{SpeedFast, SpeedRelaxed, SpeedZen} {
		if s.String() == name {
			return s, nil
		}
	}
	return DefaultSpeed, fmt.Errorf("unknown speed %q", name)
}
