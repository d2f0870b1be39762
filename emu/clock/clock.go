// Package clock paces an engine in real time: a fixed number of
// instructions per timer tick, and a fixed number of ticks per second.
package clock

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrStop can be returned by a hook to end Run without an error.
var ErrStop = errors.New("clock: stop")

// Stepper is the part of the engine the clock drives.
type Stepper interface {
	Step() error
	TickTimers()
}

// Config holds the driver-tunable rates.
type Config struct {
	CyclesPerTick int // Instructions executed per timer tick.
	TickRate      int // Timer ticks per second.
}

// Hooks run around every frame. Either may be nil.
type Hooks struct {
	Input   func() error // Refresh the key latch before the frame.
	Present func() error // Render and play sound after the frame.
}

// Pacer runs frames at the configured rate.
type Pacer struct {
	cfg    Config
	frames uint64
	cycles uint64
	start  time.Time
}

// New validates cfg and creates a Pacer.
func New(cfg Config) (*Pacer, error) {
	if cfg.CyclesPerTick <= 0 {
		return nil, errors.Errorf("cycles per tick must be positive, got %d", cfg.CyclesPerTick)
	}
	if cfg.TickRate <= 0 {
		return nil, errors.Errorf("tick rate must be positive, got %d", cfg.TickRate)
	}
	return &Pacer{cfg: cfg}, nil
}

// Interval returns the wall-clock time between ticks.
func (p *Pacer) Interval() time.Duration {
	return time.Second / time.Duration(p.cfg.TickRate)
}

// Frame executes CyclesPerTick instructions and then ticks the timers
// once. An instruction error ends the frame before the timers tick.
func (p *Pacer) Frame(s Stepper) error {
	for i := 0; i < p.cfg.CyclesPerTick; i++ {
		if err := s.Step(); err != nil {
			return err
		}
		p.cycles++
	}
	s.TickTimers()
	p.frames++
	return nil
}

// Run calls Frame once per tick until ctx is done, a hook returns ErrStop
// or an error occurs. Engine errors are returned unchanged.
func (p *Pacer) Run(ctx context.Context, s Stepper, hooks Hooks) error {
	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	p.start = time.Now()
	p.frames, p.cycles = 0, 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if err := runHook(hooks.Input); err != nil {
			return stopOrError(err)
		}
		if err := p.Frame(s); err != nil {
			return err
		}
		if err := runHook(hooks.Present); err != nil {
			return stopOrError(err)
		}
	}
}

// Frequency returns the measured instructions per second of the current
// or last Run.
func (p *Pacer) Frequency() float64 {
	elapsed := time.Since(p.start).Seconds()
	if p.start.IsZero() || elapsed == 0 {
		return 0
	}
	return float64(p.cycles) / elapsed
}

// Frames returns the number of frames completed by the current or last
// Run.
func (p *Pacer) Frames() uint64 {
	return p.frames
}

func runHook(f func() error) error {
	if f == nil {
		return nil
	}
	return f()
}

func stopOrError(err error) error {
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}
