package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/verte-zerg/strafe/internal/model"
)

// ErrListenerUnavailable reports that keyboard capture could not start.
var ErrListenerUnavailable = errors.New("input listener unavailable")

// UnavailableError wraps the reason a source could not be opened.
type UnavailableError struct {
	Source string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("input listener unavailable (%s): %v", e.Source, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is matches ErrListenerUnavailable.
func (e *UnavailableError) Is(target error) bool { return target == ErrListenerUnavailable }

// Source delivers raw key transitions.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Open establishes the subscription.
	Open() error
	// Stream blocks, calling emit for every transition in observed order,
	// until ctx is done or the source fails.
	Stream(ctx context.Context, emit func(RawKey)) error
	Close() error
}

// SourceFunc adapts a stream function to the Source interface.
type SourceFunc func(ctx context.Context, emit func(RawKey)) error

// Name implements Source.
func (f SourceFunc) Name() string { return "func" }

// Open implements Source.
func (f SourceFunc) Open() error { return nil }

// Stream calls the underlying function.
func (f SourceFunc) Stream(ctx context.Context, emit func(RawKey)) error { return f(ctx, emit) }

// Close implements Source.
func (f SourceFunc) Close() error { return nil }

// Options configures a Listener.
type Options struct {
	Keys      KeyMap
	QueueSize int
	Logger    *slog.Logger
}

// Listener runs a source on a background goroutine and queues debounced events.
type Listener struct {
	src      Source
	queue    *Queue
	debounce *Debouncer
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Start opens src and begins streaming. Open failures are returned as
// *UnavailableError.
func Start(ctx context.Context, src Source, opts Options) (*Listener, error) {
	if src == nil {
		return nil, &UnavailableError{Source: "none", Err: errors.New("no input source configured")}
	}
	if err := src.Open(); err != nil {
		return nil, &UnavailableError{Source: src.Name(), Err: err}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	keys := opts.Keys
	if keys == nil {
		keys = DefaultKeyMap(true)
	}
	ctx, cancel := context.WithCancel(ctx)
	l := &Listener{
		src:      src,
		queue:    NewQueue(opts.QueueSize),
		debounce: NewDebouncer(keys),
		logger:   logger,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	logger.Info("input listener started", "source", src.Name())
	go l.run(ctx)
	return l, nil
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)
	defer l.queue.Close()

	err := l.src.Stream(ctx, l.emit)
	if err != nil && !errors.Is(err, context.Canceled) {
		l.logger.Error("input stream stopped", "source", l.src.Name(), "error", err)
		l.mu.Lock()
		l.err = err
		l.mu.Unlock()
	}
	if cerr := l.src.Close(); cerr != nil {
		l.logger.Warn("failed to close input source", "source", l.src.Name(), "error", cerr)
	}
}

// emit may be called from several source goroutines; the debouncer needs a
// single ordered view of transitions.
func (l *Listener) emit(raw RawKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev, ok := l.debounce.Translate(raw)
	if !ok {
		return
	}
	if !l.queue.Publish(ev) {
		l.logger.Debug("input event dropped", "event", ev.String(), "dropped", l.queue.Dropped())
	}
}

// TryNext pops one event without blocking.
func (l *Listener) TryNext() (model.InputEvent, bool) {
	return l.queue.TryNext()
}

// DrainAll pops every pending event in arrival order without blocking.
func (l *Listener) DrainAll() []model.InputEvent {
	return l.queue.DrainAll()
}

// Dropped returns how many events were discarded under backpressure.
func (l *Listener) Dropped() uint64 {
	return l.queue.Dropped()
}

// Done is closed once the source has stopped.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

// Err returns the error that stopped the source, if any.
func (l *Listener) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Stop cancels the source and waits for it to finish.
func (l *Listener) Stop() error {
	l.cancel()
	<-l.done
	return l.Err()
}
