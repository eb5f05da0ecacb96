package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTicker struct {
	mu     sync.Mutex
	c      chan time.Time
	period time.Duration
	resets chan time.Duration
}

func newFakeTicker(d time.Duration) *fakeTicker {
	return &fakeTicker{c: make(chan time.Time), period: d, resets: make(chan time.Duration, 4)}
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop() {}

func (f *fakeTicker) Reset(d time.Duration) {
	f.mu.Lock()
	f.period = d
	f.mu.Unlock()
	f.resets <- d
}

func (f *fakeTicker) Period() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.period
}

type countingStepper struct{ n atomic.Int32 }

func (c *countingStepper) Tick() Result {
	c.n.Add(1)
	return Result{Applied: true}
}

func TestRunner_PulsesStepper(t *testing.T) {
	ft := newFakeTicker(0)
	st := &countingStepper{}
	r := NewRunner(st, time.Second, 250*time.Millisecond, nil).
		WithTickerFactory(func(d time.Duration) Ticker {
			ft.period = d
			return ft
		})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		ft.c <- time.Now()
	}
	cancel()
	<-done

	assert.Equal(t, int32(3), st.n.Load())
	assert.Equal(t, time.Second, ft.Period())
}

func TestRunner_SetSpeed(t *testing.T) {
	ft := newFakeTicker(0)
	r := NewRunner(&countingStepper{}, time.Second, 250*time.Millisecond, nil).
		WithTickerFactory(func(d time.Duration) Ticker { return ft })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	r.SetSpeed(SpeedFast)
	select {
	case d := <-ft.resets:
		assert.Equal(t, 250*time.Millisecond, d)
	case <-time.After(time.Second):
		require.Fail(t, "ticker was not reset")
	}

	r.SetSpeed("warp")
	r.SetSpeed(SpeedNominal)
	select {
	case d := <-ft.resets:
		assert.Equal(t, time.Second, d)
	case <-time.After(time.Second):
		require.Fail(t, "ticker was not reset")
	}
}

func TestRunner_DrivesEngine(t *testing.T) {
	ft := newFakeTicker(0)
	e := New(countyFair(), nil).WithRand(&scriptedRand{})
	started(t, e)

	r := NewRunner(e, time.Second, time.Millisecond, nil).
		WithTickerFactory(func(d time.Duration) Ticker { return ft })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	ft.c <- time.Now()
	ft.c <- time.Now()
	cancel()
	<-done

	assert.Equal(t, 3, e.Snapshot().State.Day)
}

func TestSpeed_Valid(t *testing.T) {
	assert.True(t, SpeedNominal.Valid())
	assert.True(t, SpeedFast.Valid())
	assert.False(t, Speed("warp").Valid())
}
