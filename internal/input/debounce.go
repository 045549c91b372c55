package input

import (
	"time"

	"github.com/verte-zerg/strafe/internal/model"
)

// KeyState is the raw transition reported by a source.
type KeyState int

// Raw key states. Repeat is auto-repeat while a key is held.
const (
	KeyUp KeyState = iota
	KeyDown
	KeyRepeat
)

// RawKey is one raw key transition.
type RawKey struct {
	Code  uint16
	State KeyState
	At    time.Time
}

// Debouncer tracks which physical codes are down and emits a logical edge
// only when the first code of a strafe key goes down or the last one comes
// up. Aliased codes therefore act as one key, and repeats are suppressed.
type Debouncer struct {
	keys  KeyMap
	held  map[uint16]bool
	count map[Action]int
}

// NewDebouncer returns a debouncer over the given key map.
func NewDebouncer(keys KeyMap) *Debouncer {
	if keys == nil {
		keys = DefaultKeyMap(true)
	}
	return &Debouncer{
		keys:  keys,
		held:  make(map[uint16]bool),
		count: make(map[Action]int),
	}
}

// Translate maps a raw transition to a logical event. ok is false when the
// transition is unmapped, a repeat, or leaves the strafe key's state unchanged.
func (d *Debouncer) Translate(raw RawKey) (model.InputEvent, bool) {
	pressed := raw.State == KeyDown || raw.State == KeyRepeat
	switch action := d.keys.Action(raw.Code); action {
	case ActionLeft:
		return d.track(raw.Code, action, pressed, model.LeftPress, model.LeftRelease)
	case ActionRight:
		return d.track(raw.Code, action, pressed, model.RightPress, model.RightRelease)
	case ActionFire:
		if pressed {
			return model.Fire, true
		}
	case ActionQuit:
		if pressed {
			return model.Quit, true
		}
	}
	return 0, false
}

// Reset forgets which keys are down.
func (d *Debouncer) Reset() {
	clear(d.held)
	clear(d.count)
}

func (d *Debouncer) track(code uint16, action Action, pressed bool, press, release model.InputEvent) (model.InputEvent, bool) {
	if pressed == d.held[code] {
		return 0, false
	}
	if pressed {
		d.held[code] = true
		d.count[action]++
		if d.count[action] == 1 {
			return press, true
		}
		return 0, false
	}
	delete(d.held, code)
	d.count[action]--
	if d.count[action] == 0 {
		return release, true
	}
	return 0, false
}
