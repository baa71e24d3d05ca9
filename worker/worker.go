// Package worker runs the driver-side loop that consumes bus wakes.
package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"wlanbus-go/errcode"
	"wlanbus-go/hostbus"
	"wlanbus-go/x/mathx"
)

// Releaser hands consumed buffers back to the bus.
type Releaser interface {
	BufferFreed(dir hostbus.Direction) error
}

// Bus is the subset of *hostbus.Controller the worker needs.
type Bus interface {
	Releaser
	WaitAndDrain(ctx context.Context) error
}

// Poller reads everything the hardware has pending. Wakes are coalesced, so
// a Poll that stops early loses data until the next interrupt.
type Poller interface {
	Poll(ctx context.Context, rel Releaser) error
}

// PollerFunc adapts a function to Poller.
type PollerFunc func(ctx context.Context, rel Releaser) error

func (f PollerFunc) Poll(ctx context.Context, rel Releaser) error { return f(ctx, rel) }

// Config centralises timings and limits.
type Config struct {
	PollTimeout          time.Duration // per-wake poll budget; default 250ms
	MaxConsecutiveErrors int           // give up after this many failed polls in a row; default 8
	Logger               *slog.Logger
}

type Worker struct {
	cfg    Config
	bus    Bus
	poller Poller
	log    *slog.Logger

	startOnce sync.Once
	stopped   chan struct{}
	err       error

	polls    atomic.Uint32
	pollErrs atomic.Uint32
}

func New(bus Bus, p Poller, cfg Config) *Worker {
	cfg.PollTimeout = mathx.OrDefault(cfg.PollTimeout, 250*time.Millisecond, time.Millisecond, time.Minute)
	cfg.MaxConsecutiveErrors = mathx.OrDefault(cfg.MaxConsecutiveErrors, 8, 1, 1024)
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Worker{
		cfg:     cfg,
		bus:     bus,
		poller:  p,
		log:     cfg.Logger,
		stopped: make(chan struct{}),
	}
}

// Run loops until the bus shuts down (returns nil), ctx ends (returns
// ctx.Err()), or polling keeps failing.
func (w *Worker) Run(ctx context.Context) error {
	consecutive := 0
	for {
		err := w.bus.WaitAndDrain(ctx)
		switch {
		case err == nil:
		case errors.Is(err, errcode.ShutdownInProgress):
			w.log.Debug("worker stopping", "reason", "shutdown")
			return nil
		default:
			return err
		}

		pctx, cancel := context.WithTimeout(ctx, w.cfg.PollTimeout)
		err = w.poller.Poll(pctx, w.bus)
		if err != nil && ctx.Err() == nil && errors.Is(pctx.Err(), context.DeadlineExceeded) {
			err = &errcode.E{C: errcode.Timeout, Op: "poll", Msg: w.cfg.PollTimeout.String(), Err: err}
		}
		cancel()
		w.polls.Add(1)

		switch {
		case err == nil:
			consecutive = 0
		case errors.Is(err, errcode.ShutdownInProgress):
			w.log.Debug("worker stopping", "reason", "shutdown during poll")
			return nil
		default:
			w.pollErrs.Add(1)
			consecutive++
			w.log.Warn("poll failed", "error", err, "consecutive", consecutive)
			if consecutive >= w.cfg.MaxConsecutiveErrors {
				return &errcode.E{C: errcode.Error, Op: "poll", Msg: "too many consecutive failures", Err: err}
			}
		}
	}
}

// Start runs the loop in its own goroutine. Only the first call starts it.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		go func() {
			defer close(w.stopped)
			w.err = w.Run(ctx)
		}()
	})
}

// Done is closed when a started worker returns.
func (w *Worker) Done() <-chan struct{} { return w.stopped }

// Wait blocks until a started worker returns and reports its result.
func (w *Worker) Wait() error {
	<-w.stopped
	return w.err
}

func (w *Worker) Polls() uint32      { return w.polls.Load() }
func (w *Worker) PollErrors() uint32 { return w.pollErrs.Load() }
