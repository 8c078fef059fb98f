package observers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/harunnryd/orb/pkg/metrics"
)

// LoggerObserver logs every metrics event at debug level under the
// "metric" message, matching the JSONL observer's layout.
type LoggerObserver struct {
	log *slog.Logger
}

func NewLoggerObserver(log *slog.Logger) *LoggerObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LoggerObserver{log: log}
}

func (o *LoggerObserver) RecordEvent(ev metrics.MetricsEvent) {
	ctx := context.Background()
	if !o.log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	o.log.LogAttrs(ctx, slog.LevelDebug, "metric", metrics.Attrs(ev)...)
}

// MultiObserver fans one event out to several observers in order.
type MultiObserver struct {
	list []metrics.Observer
}

func NewMultiObserver(list ...metrics.Observer) *MultiObserver {
	return &MultiObserver{list: list}
}

func (m *MultiObserver) RecordEvent(ev metrics.MetricsEvent) {
	for _, obs := range m.list {
		if obs != nil {
			obs.RecordEvent(ev)
		}
	}
}

// Flush flushes every child that supports it and joins their errors.
func (m *MultiObserver) Flush() error {
	var errs error
	for _, obs := range m.list {
		if f, ok := obs.(metrics.Flusher); ok {
			errs = errors.Join(errs, f.Flush())
		}
	}
	return errs
}
