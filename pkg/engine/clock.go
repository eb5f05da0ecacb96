package engine

import (
	"context"
	"log/slog"
	"time"
)

// Speed selects the real-time cadence of simulated days.
type Speed string

const (
	SpeedNominal Speed = "nominal"
	SpeedFast    Speed = "fast"
)

// Valid reports whether s is a known speed.
func (s Speed) Valid() bool {
	return s == SpeedNominal || s == SpeedFast
}

// Ticker delivers clock pulses. It mirrors the parts of *time.Ticker the runner needs.
type Ticker interface {
	C() <-chan time.Time
	Reset(d time.Duration)
	Stop()
}

// TickerFactory creates a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Reset(d time.Duration) { r.t.Reset(d) }
func (r realTicker) Stop() { r.t.Stop() }
func newRealTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

// Stepper advances a simulation by one day. *Engine satisfies it; callers that share an
// engine between goroutines wrap it with their own locking.
type Stepper interface {
	Tick() Result
}

// Runner drives a Stepper from a clock. Pulses are ignored by the engine unless the game
// is playing, so a paused or finished game simply stops advancing.
type Runner struct {
	stepper   Stepper
	intervals map[Speed]time.Duration
	newTicker TickerFactory
	logger    *slog.Logger

	speed   Speed
	speedCh chan Speed
}

// NewRunner returns a runner at nominal speed.
func NewRunner(s Stepper, nominal, fast time.Duration, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		stepper: s,
		intervals: map[Speed]time.Duration{
			SpeedNominal: nominal,
			SpeedFast:    fast,
		},
		newTicker: newRealTicker,
		logger:    logger,
		speed:     SpeedNominal,
		speedCh:   make(chan Speed, 1),
	}
}

// WithTickerFactory replaces the wall-clock ticker, mainly for tests.
// Returns the Runner for method chaining
func (r *Runner) WithTickerFactory(f TickerFactory) *Runner {
	r.newTicker = f
	return r
}

// SetSpeed changes the cadence of a running loop. The latest request wins.
// Unknown speeds are ignored.
func (r *Runner) SetSpeed(s Speed) {
	if !s.Valid() {
		return
	}
	for {
		select {
		case r.speedCh <- s:
			return
		default:
		}
		// Drop a pending request nobody has consumed yet.
		select {
		case <-r.speedCh:
		default:
		}
	}
}

// Interval returns the pulse period for s.
func (r *Runner) Interval(s Speed) time.Duration {
	return r.intervals[s]
}

// Run pulses the stepper until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	t := r.newTicker(r.intervals[r.speed])
	defer t.Stop()

	r.logger.Debug("Runner started", "speed", r.speed, "interval", r.intervals[r.speed])
	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("Runner stopped", "reason", ctx.Err())
			return
		case s := <-r.speedCh:
			if s == r.speed {
				continue
			}
			r.speed = s
			t.Reset(r.intervals[s])
			r.logger.Debug("Speed changed", "speed", s, "interval", r.intervals[s])
		case <-t.C():
			r.stepper.Tick()
		}
	}
}
