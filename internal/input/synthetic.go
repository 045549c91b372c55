package input

import (
	"context"
	"math/rand/v2"
	"time"
)

// SyntheticOptions configures the demo source.
type SyntheticOptions struct {
	// Attempts stops the stream after this many attempts. Zero runs until
	// the context is done.
	Attempts int
	Seed     uint64
	Clock    func() time.Time
	// Sleep waits between transitions. Tests replace it to run instantly.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Synthetic replays randomized counter-strafe attempts in real time. Hold
// times span all three quality bands, with occasional both-keys mistakes,
// auto-repeat noise and fire taps.
type Synthetic struct {
	attempts int
	rng      *rand.Rand
	clock    func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewSynthetic returns a demo source.
func NewSynthetic(opts SyntheticOptions) *Synthetic {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Synthetic{
		attempts: opts.Attempts,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		clock:    clock,
		sleep:    sleep,
	}
}

// Name implements Source.
func (s *Synthetic) Name() string { return "synthetic" }

// Open implements Source.
func (s *Synthetic) Open() error { return nil }

// Close implements Source.
func (s *Synthetic) Close() error { return nil }

// Stream emits attempts until ctx is done or the attempt budget is spent.
func (s *Synthetic) Stream(ctx context.Context, emit func(RawKey)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	for n := 0; s.attempts == 0 || n < s.attempts; n++ {
		steps := s.attempt()
		for _, st := range steps {
			if err := s.sleep(ctx, st.wait); err != nil {
				return err
			}
			emit(RawKey{Code: st.code, State: st.state, At: s.clock()})
		}
	}
	return nil
}

type step struct {
	wait  time.Duration
	code  uint16
	state KeyState
}

func (s *Synthetic) attempt() []step {
	original, counter := CodeA, CodeD
	if s.rng.IntN(2) == 1 {
		original, counter = counter, original
	}
	rest := s.between(350, 900)
	strafe := s.between(150, 450)

	// Pressing the counter key before letting go of the original.
	if s.rng.IntN(12) == 0 {
		return []step{
			{rest, original, KeyDown},
			{strafe, counter, KeyDown},
			{s.between(20, 60), original, KeyUp},
			{s.between(20, 60), counter, KeyUp},
		}
	}

	steps := []step{
		{rest, original, KeyDown},
		{s.between(30, 40), original, KeyRepeat},
		{strafe, original, KeyUp},
		{s.between(10, 90), counter, KeyDown},
		{s.hold(), counter, KeyUp},
	}
	if s.rng.IntN(4) == 0 {
		steps = append(steps,
			step{s.between(40, 120), CodeSpace, KeyDown},
			step{s.between(30, 70), CodeSpace, KeyUp},
		)
	}
	return steps
}

// hold draws a counter-strafe duration centred on the perfect band with
// tails into too fast and too slow.
func (s *Synthetic) hold() time.Duration {
	ms := 80 + s.rng.NormFloat64()*22
	if ms < 15 {
		ms = 15
	}
	return time.Duration(ms * float64(time.Millisecond))
}

func (s *Synthetic) between(loMs, hiMs int) time.Duration {
	return time.Duration(loMs+s.rng.IntN(hiMs-loMs+1)) * time.Millisecond
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
