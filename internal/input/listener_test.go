package input

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/strafe/internal/model"
)

type failingSource struct{ SourceFunc }

func (failingSource) Name() string { return "broken" }
func (failingSource) Open() error  { return errors.New("permission denied") }

func waitDone(t *testing.T, l *Listener) {
	t.Helper()
	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestStartUnavailable(t *testing.T) {
	_, err := Start(context.Background(), failingSource{}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrListenerUnavailable)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "broken", unavailable.Source)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestStartNilSource(t *testing.T) {
	_, err := Start(context.Background(), nil, Options{})
	assert.ErrorIs(t, err, ErrListenerUnavailable)
}

func TestListenerDeliversInOrder(t *testing.T) {
	src := SourceFunc(func(ctx context.Context, emit func(RawKey)) error {
		for _, raw := range []RawKey{
			{Code: CodeA, State: KeyDown},
			{Code: CodeA, State: KeyRepeat},
			{Code: CodeA, State: KeyUp},
			{Code: CodeD, State: KeyDown},
			{Code: CodeD, State: KeyUp},
			{Code: 17, State: KeyDown},
			{Code: CodeEsc, State: KeyDown},
		} {
			emit(raw)
		}
		return nil
	})
	l, err := Start(context.Background(), src, Options{})
	require.NoError(t, err)
	waitDone(t, l)

	want := []model.InputEvent{model.LeftPress, model.LeftRelease, model.RightPress, model.RightRelease, model.Quit}
	assert.Equal(t, want, l.DrainAll())
	assert.NoError(t, l.Err())
}

func TestListenerDropsUnderBackpressure(t *testing.T) {
	src := SourceFunc(func(ctx context.Context, emit func(RawKey)) error {
		for i := 0; i < 10; i++ {
			emit(RawKey{Code: CodeSpace, State: KeyDown})
		}
		return nil
	})
	l, err := Start(context.Background(), src, Options{QueueSize: 3})
	require.NoError(t, err)
	waitDone(t, l)

	assert.Len(t, l.DrainAll(), 3)
	assert.Equal(t, uint64(7), l.Dropped())
}

func TestListenerStopCancelsStream(t *testing.T) {
	src := SourceFunc(func(ctx context.Context, emit func(RawKey)) error {
		<-ctx.Done()
		return ctx.Err()
	})
	l, err := Start(context.Background(), src, Options{})
	require.NoError(t, err)
	assert.NoError(t, l.Stop())
	_, ok := l.TryNext()
	assert.False(t, ok)
}

func TestListenerRecordsStreamError(t *testing.T) {
	src := SourceFunc(func(ctx context.Context, emit func(RawKey)) error {
		return errors.New("device vanished")
	})
	l, err := Start(context.Background(), src, Options{})
	require.NoError(t, err)
	waitDone(t, l)
	assert.EqualError(t, l.Err(), "device vanished")
}
