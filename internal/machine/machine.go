// Package machine implements the counter-strafe state machine.
//
// The machine is owned by a single goroutine. Every state handles every
// input; inputs that do not apply are no-ops.
package machine

import (
	"fmt"
	"time"

	"github.com/verte-zerg/strafe/internal/judge"
	"github.com/verte-zerg/strafe/internal/model"
)

// MessageBothKeys is reported when the counter key goes down before the strafe key is released.
const MessageBothKeys = "Both keys pressed"

// State is one of Idle, Strafing, Released, CounterStrafing or Completed.
type State interface {
	isState()
	// Name returns a short lowercase label for logs.
	Name() string
}

// Idle waits for the first strafe key.
type Idle struct{}

// Strafing holds a strafe key.
type Strafing struct {
	Key   model.StrafeKey
	Start time.Time
}

// Released waits for the counter key after the strafe key came up.
type Released struct {
	Original   model.StrafeKey
	ReleasedAt time.Time
}

// CounterStrafing times the counter key.
type CounterStrafing struct {
	Original model.StrafeKey
	Counter  model.StrafeKey
	Start    time.Time
}

// Completed shows the last verdict until the next press.
type Completed struct {
	Hold    time.Duration
	Quality model.Quality
	Message string
}

func (Idle) isState()            {}
func (Strafing) isState()        {}
func (Released) isState()        {}
func (CounterStrafing) isState() {}
func (Completed) isState()       {}

// Name implements State.
func (Idle) Name() string { return "idle" }

// Name implements State.
func (Strafing) Name() string { return "strafing" }

// Name implements State.
func (Released) Name() string { return "released" }

// Name implements State.
func (CounterStrafing) Name() string { return "counter-strafing" }

// Name implements State.
func (Completed) Name() string { return "completed" }

// Display is the renderer-facing projection of a state.
type Display struct {
	Main      string
	Sub       string
	ShowTimer bool
}

// Machine holds the current counter-strafe state.
type Machine struct {
	state State
}

// New returns a machine in the Idle state.
func New() *Machine {
	return &Machine{state: Idle{}}
}

// State returns the current state value.
func (m *Machine) State() State {
	return m.state
}

// Reset returns the machine to Idle.
func (m *Machine) Reset() {
	m.state = Idle{}
}

// Press handles a strafe key going down. ok reports whether an attempt completed.
func (m *Machine) Press(key model.StrafeKey, now time.Time) (result model.CompletionResult, ok bool) {
	switch s := m.state.(type) {
	case Idle, Completed:
		m.state = Strafing{Key: key, Start: now}
	case Strafing:
		if s.Key == key {
			return result, false
		}
		m.state = Completed{Quality: model.Failed, Message: MessageBothKeys}
		return model.CompletionResult{
			Quality:  model.Failed,
			Message:  MessageBothKeys,
			Original: s.Key,
			Counter:  key,
		}, true
	case Released:
		if s.Original == key {
			m.state = Strafing{Key: key, Start: now}
		} else {
			m.state = CounterStrafing{Original: s.Original, Counter: key, Start: now}
		}
	case CounterStrafing:
		// Repeat of the held counter key, or a stray press while timing.
	}
	return result, false
}

// Release handles a strafe key coming up. ok reports whether an attempt completed.
func (m *Machine) Release(key model.StrafeKey, now time.Time) (result model.CompletionResult, ok bool) {
	switch s := m.state.(type) {
	case Strafing:
		if s.Key == key {
			m.state = Released{Original: key, ReleasedAt: now}
		}
	case CounterStrafing:
		if s.Counter != key {
			return result, false
		}
		hold := now.Sub(s.Start)
		if hold < 0 {
			hold = 0
		}
		quality, message := judge.Verdict(hold)
		m.state = Completed{Hold: hold, Quality: quality, Message: message}
		return model.CompletionResult{
			Hold:     hold,
			Quality:  quality,
			Message:  message,
			Original: s.Original,
			Counter:  s.Counter,
		}, true
	case Idle, Released, Completed:
	}
	return result, false
}

// CheckTimeout drops a Released state back to Idle once the counter window
// has passed. It must run every tick, with or without input.
func (m *Machine) CheckTimeout(now time.Time) bool {
	s, ok := m.state.(Released)
	if !ok {
		return false
	}
	if now.Sub(s.ReleasedAt) < judge.CounterTimeout {
		return false
	}
	m.state = Idle{}
	return true
}

// LiveHold returns the running counter-strafe time while the counter key is held.
func (m *Machine) LiveHold(now time.Time) (time.Duration, bool) {
	s, ok := m.state.(CounterStrafing)
	if !ok {
		return 0, false
	}
	hold := now.Sub(s.Start)
	if hold < 0 {
		hold = 0
	}
	return hold, true
}

// Display returns the text the renderer shows for the current state.
func (m *Machine) Display() Display {
	return DisplayFor(m.state)
}

// DisplayFor projects any state to its display text.
func DisplayFor(state State) Display {
	switch s := state.(type) {
	case Strafing:
		return Display{Main: "RELEASE", Sub: fmt.Sprintf("Release %s", s.Key.Glyph())}
	case Released:
		return Display{Main: "COUNTER", Sub: fmt.Sprintf("Press %s", s.Original.Opposite().Glyph())}
	case CounterStrafing:
		return Display{ShowTimer: true}
	default:
		return Display{Main: "READY", Sub: "Press A or D"}
	}
}
