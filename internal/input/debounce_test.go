package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verte-zerg/strafe/internal/model"
)

func translateAll(d *Debouncer, raws ...RawKey) []model.InputEvent {
	var out []model.InputEvent
	for _, raw := range raws {
		if ev, ok := d.Translate(raw); ok {
			out = append(out, ev)
		}
	}
	return out
}

func TestDebouncerSuppressesRepeat(t *testing.T) {
	d := NewDebouncer(DefaultKeyMap(true))
	got := translateAll(d,
		RawKey{Code: CodeA, State: KeyDown},
		RawKey{Code: CodeA, State: KeyRepeat},
		RawKey{Code: CodeA, State: KeyDown},
		RawKey{Code: CodeA, State: KeyUp},
		RawKey{Code: CodeA, State: KeyUp},
	)
	assert.Equal(t, []model.InputEvent{model.LeftPress, model.LeftRelease}, got)
}

func TestDebouncerReleaseWithoutPressIgnored(t *testing.T) {
	d := NewDebouncer(DefaultKeyMap(true))
	_, ok := d.Translate(RawKey{Code: CodeD, State: KeyUp})
	assert.False(t, ok)
}

func TestDebouncerAliasSharesLeftState(t *testing.T) {
	d := NewDebouncer(DefaultKeyMap(true))
	got := translateAll(d,
		RawKey{Code: LeftAliasCode, State: KeyDown},
		RawKey{Code: CodeA, State: KeyDown},
		RawKey{Code: CodeA, State: KeyUp},
		RawKey{Code: LeftAliasCode, State: KeyUp},
	)
	assert.Equal(t, []model.InputEvent{model.LeftPress, model.LeftRelease}, got)
}

func TestDebouncerAliasDisabled(t *testing.T) {
	d := NewDebouncer(DefaultKeyMap(false))
	_, ok := d.Translate(RawKey{Code: LeftAliasCode, State: KeyDown})
	assert.False(t, ok)
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	d := NewDebouncer(DefaultKeyMap(true))
	got := translateAll(d,
		RawKey{Code: CodeA, State: KeyDown},
		RawKey{Code: CodeD, State: KeyDown},
		RawKey{Code: CodeA, State: KeyUp},
		RawKey{Code: CodeD, State: KeyUp},
	)
	assert.Equal(t, []model.InputEvent{model.LeftPress, model.RightPress, model.LeftRelease, model.RightRelease}, got)
}

func TestDebouncerFireAndQuitNotDebounced(t *testing.T) {
	d := NewDebouncer(DefaultKeyMap(true))
	got := translateAll(d,
		RawKey{Code: CodeSpace, State: KeyDown},
		RawKey{Code: CodeSpace, State: KeyRepeat},
		RawKey{Code: CodeSpace, State: KeyUp},
		RawKey{Code: CodeEsc, State: KeyDown},
	)
	assert.Equal(t, []model.InputEvent{model.Fire, model.Fire, model.Quit}, got)
}

func TestDebouncerReset(t *testing.T) {
	d := NewDebouncer(DefaultKeyMap(true))
	d.Translate(RawKey{Code: CodeA, State: KeyDown})
	d.Reset()
	ev, ok := d.Translate(RawKey{Code: CodeA, State: KeyDown})
	assert.True(t, ok)
	assert.Equal(t, model.LeftPress, ev)
}

func TestDebouncerAliasReleaseWaitsForLastKey(t *testing.T) {
	d := NewDebouncer(DefaultKeyMap(true))
	got := translateAll(d,
		RawKey{Code: CodeA, State: KeyDown},
		RawKey{Code: LeftAliasCode, State: KeyDown},
		RawKey{Code: CodeA, State: KeyUp},
		RawKey{Code: LeftAliasCode, State: KeyRepeat},
		RawKey{Code: LeftAliasCode, State: KeyUp},
	)
	assert.Equal(t, []model.InputEvent{model.LeftPress, model.LeftRelease}, got)
}

func TestDebouncerRepeatAfterMissedDownPresses(t *testing.T) {
	d := NewDebouncer(DefaultKeyMap(true))
	got := translateAll(d,
		RawKey{Code: CodeD, State: KeyRepeat},
		RawKey{Code: CodeD, State: KeyRepeat},
		RawKey{Code: CodeD, State: KeyUp},
	)
	assert.Equal(t, []model.InputEvent{model.RightPress, model.RightRelease}, got)
}
