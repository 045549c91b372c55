// Package input turns raw keyboard transitions into logical trainer events.
//
// A Source delivers raw key transitions from a background goroutine. The
// Listener debounces them into model.InputEvent values and publishes them to
// a non-blocking Queue that the render loop drains once per tick.
package input

import "slices"

// Linux input key codes (linux/input-event-codes.h) used by the trainer.
const (
	CodeEsc   uint16 = 1
	CodeA     uint16 = 30
	CodeD     uint16 = 32
	CodeSpace uint16 = 57

	// LeftAliasCode is Left Alt. It is a secondary binding for the left
	// strafe key, for players who bind movement off the home row.
	LeftAliasCode uint16 = 56
)

// Action is the logical meaning of a physical key.
type Action int

// Actions.
const (
	ActionNone Action = iota
	ActionLeft
	ActionRight
	ActionFire
	ActionQuit
)

// KeyMap maps key codes to actions. Unmapped codes are ignored.
type KeyMap map[uint16]Action

// DefaultKeyMap returns the A/D/Space/Esc bindings, plus the Left Alt alias
// for the left strafe key when leftAlias is set.
func DefaultKeyMap(leftAlias bool) KeyMap {
	km := KeyMap{
		CodeA:     ActionLeft,
		CodeD:     ActionRight,
		CodeSpace: ActionFire,
		CodeEsc:   ActionQuit,
	}
	if leftAlias {
		km[LeftAliasCode] = ActionLeft
	}
	return km
}

// Action returns the action bound to code.
func (m KeyMap) Action(code uint16) Action {
	return m[code]
}

// Codes returns the codes bound to action, in ascending order.
func (m KeyMap) Codes(action Action) []uint16 {
	var codes []uint16
	for code, a := range m {
		if a == action {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)
	return codes
}
