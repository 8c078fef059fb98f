package orb

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/harunnryd/orb/pkg/errorsx"
	"github.com/harunnryd/orb/pkg/logging"
	"github.com/harunnryd/orb/pkg/metrics"
	"github.com/harunnryd/orb/pkg/observers"
	"github.com/harunnryd/orb/pkg/runner"
	"github.com/harunnryd/orb/pkg/session"
)

// Engine wires one voice session to its observers and process lifecycle.
type Engine struct {
	cfg      Config
	log      *slog.Logger
	session  *session.Session
	async    *metrics.AsyncObserver
	sampler  *metrics.SamplingObserver
	timeline *observers.TimelineObserver
	runner   *runner.LifecycleRunner
}

type EngineOptions struct {
	Config    Config
	Providers *ProviderRegistry
	Logger    *slog.Logger
	// Scheduler overrides the session timer source (tests).
	Scheduler session.Scheduler
	// Observers receive every metrics event in addition to the built-in ones.
	Observers []metrics.Observer
	// Listeners are attached to the session before it is returned.
	Listeners []session.Listener
	// Banner is where the startup banner goes when enabled.
	Banner io.Writer
}

func NewEngine(opts EngineOptions) (*Engine, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	providers := opts.Providers
	if providers == nil {
		providers = DefaultProviderRegistry()
	}
	level, err := providers.BuildLevel(cfg.Audio)
	if err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg, log: logging.NewComponentLogger(log, "engine")}

	sinks := append([]metrics.Observer{}, opts.Observers...)
	if dir := cfg.Observability.ArtifactsDir; dir != "" {
		maxAge := time.Duration(cfg.Observability.RetentionDays) * 24 * time.Hour
		if removed, err := observers.PurgeTimelines(dir, maxAge, time.Now()); err != nil {
			e.log.Warn("timeline_purge_failed", "error", errorsx.Wrap(err, errorsx.ReasonArtifactsPurge))
		} else if len(removed) > 0 {
			e.log.Info("timeline_purged", "removed", len(removed), "dir", dir)
		}
		e.timeline = observers.NewTimelineObserver(dir)
		sinks = append(sinks, e.timeline)
	}
	if cfg.Observability.LogMetrics {
		sinks = append(sinks, observers.NewLoggerObserver(logging.NewComponentLogger(log, "metrics")))
	}
	turns := observers.NewTurnObserver(logging.NewComponentLogger(log, "turn"), observers.NewMultiObserver(sinks...))
	sinks = append(sinks, turns)

	e.sampler = metrics.NewSamplingObserver(observers.NewMultiObserver(sinks...),
		cfg.Observability.AudioSampleRate, metrics.NameAudioLevel)
	e.async = metrics.NewAsyncObserver(e.sampler, 1024)

	listeners := append([]session.Listener{observers.NewSessionRecorder(e.async)}, opts.Listeners...)
	e.session = session.New(session.Options{
		Timings:   cfg.Session.Timings(),
		Level:     level,
		Scheduler: opts.Scheduler,
		Logger:    logging.NewComponentLogger(log, "session"),
		Listeners: listeners,
	})

	e.runner = runner.NewLifecycleRunner(runner.DrainFunc(e.drain), runner.Hooks{
		OnStart: func() {
			e.log.Info("orb_started",
				"environment", cfg.Environment,
				"session_id", e.session.ID(),
				"audio_provider", cfg.Audio.Provider,
			)
		},
		OnStop: func() {
			e.log.Info("orb_stopped", "session_id", e.session.ID())
		},
	}, runner.Options{
		Title:        "ORB",
		Banner:       opts.Banner,
		ShowBanner:   cfg.Runner.Banner,
		DrainTimeout: cfg.Runner.DrainTimeout(),
		Logger:       logging.NewComponentLogger(log, "runner"),
	})
	return e, nil
}

func (e *Engine) Session() *session.Session { return e.session }

func (e *Engine) Config() Config { return e.cfg }

// Run blocks until ctx is cancelled, then tears the session down.
func (e *Engine) Run(ctx context.Context) error {
	return e.runner.Run(ctx)
}

// Stop tears the session down without waiting for Run's context.
func (e *Engine) Stop() error {
	return e.runner.Stop()
}

func (e *Engine) drain() error {
	var err error
	if cerr := e.session.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if cerr := e.async.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	failures := 0
	if e.timeline != nil {
		if cerr := e.timeline.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
		failures = e.timeline.Failures()
	}
	if dropped := e.async.Dropped(); dropped > 0 || failures > 0 {
		e.log.Warn("metrics_lost", "dropped", dropped, "timeline_failures", failures)
	}
	e.log.Debug("metrics_sampled", "skipped", e.sampler.Skipped())
	return err
}
