package runner

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harunnryd/orb/pkg/errorsx"
)

type Options struct {
	Title      string
	Banner     io.Writer
	ShowBanner bool
	// DrainTimeout bounds Drainer.Drain. Defaults to 10s.
	DrainTimeout time.Duration
	Logger       *slog.Logger
}

// LifecycleRunner blocks in Run until its context ends or Stop is called,
// then drains exactly once.
type LifecycleRunner struct {
	state   atomic.Int32
	opts    Options
	hooks   Hooks
	drainer Drainer
	log     *slog.Logger

	stopping chan struct{}
	stopOnce sync.Once
	drained  sync.Once
	drainErr error
}

func NewLifecycleRunner(drainer Drainer, hooks Hooks, opts Options) *LifecycleRunner {
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = 10 * time.Second
	}
	if opts.Title == "" {
		opts.Title = "ORB"
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	r := &LifecycleRunner{
		opts:     opts,
		hooks:    hooks,
		drainer:  drainer,
		log:      log,
		stopping: make(chan struct{}),
	}
	r.state.Store(int32(StateNew))
	return r
}

func (r *LifecycleRunner) Run(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(StateNew), int32(StateStarting)) {
		return errorsx.New(errorsx.ReasonUnknown, "runner already started")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if r.opts.ShowBanner {
		PrintBanner(r.opts.Banner, r.opts.Title)
	}
	if r.hooks.OnStart != nil {
		r.hooks.OnStart()
	}
	r.state.CompareAndSwap(int32(StateStarting), int32(StateRunning))

	select {
	case <-ctx.Done():
	case <-r.stopping:
	}
	return r.drain()
}

// Stop ends Run (if running) and drains. Safe to call more than once and
// before Run.
func (r *LifecycleRunner) Stop() error {
	r.stopOnce.Do(func() { close(r.stopping) })
	return r.drain()
}

func (r *LifecycleRunner) State() State {
	return State(r.state.Load())
}

func (r *LifecycleRunner) drain() error {
	r.drained.Do(func() {
		r.stopOnce.Do(func() { close(r.stopping) })
		r.state.Store(int32(StateDraining))
		start := time.Now()
		if r.drainer != nil {
			r.drainErr = r.drainWithin(r.opts.DrainTimeout)
		}
		r.log.Debug("runner_drained",
			slog.Duration("took", time.Since(start)),
			slog.Bool("ok", r.drainErr == nil),
		)
		if r.hooks.OnStop != nil {
			r.hooks.OnStop()
		}
		r.state.Store(int32(StateStopped))
	})
	return r.drainErr
}

func (r *LifecycleRunner) drainWithin(timeout time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- r.drainer.Drain() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return errorsx.Errorf(errorsx.ReasonDrainTimeout, "drain did not finish within %s", timeout)
	}
}

var _ Runner = (*LifecycleRunner)(nil)
