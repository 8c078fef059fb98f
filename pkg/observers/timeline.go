package observers

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/orb/pkg/metrics"
)

// TimelineObserver appends each session's events to <dir>/<session_id>.jsonl.
// Writes are buffered; Flush and Close push them to disk. I/O failures are
// counted and never surface to the session.
type TimelineObserver struct {
	dir string

	mu       sync.Mutex
	sessions map[string]*timelineFile
	failures int
}

type timelineFile struct {
	f   *os.File
	w   *bufio.Writer
	enc *json.Encoder
	seq int
}

type timelineEvent struct {
	Seq       int               `json:"seq"`
	Time      time.Time         `json:"time"`
	Event     string            `json:"event"`
	SessionID string            `json:"session_id"`
	Value     float64           `json:"value"`
	Tags      map[string]string `json:"tags,omitempty"`
	Fields    map[string]any    `json:"fields,omitempty"`
}

func NewTimelineObserver(dir string) *TimelineObserver {
	return &TimelineObserver{dir: dir, sessions: make(map[string]*timelineFile)}
}

func (o *TimelineObserver) RecordEvent(ev metrics.MetricsEvent) {
	id := ev.SessionID()
	if safeFileName(id) == "" || strings.TrimSpace(o.dir) == "" {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	tf := o.openLocked(id)
	if tf == nil {
		return
	}
	tf.seq++
	err := tf.enc.Encode(timelineEvent{
		Seq:       tf.seq,
		Time:      ev.Time.UTC(),
		Event:     ev.Name,
		SessionID: id,
		Value:     ev.Value,
		Tags:      withoutSessionID(ev.Tags),
		Fields:    ev.Fields,
	})
	if err != nil {
		o.failures++
	}
}

// Flush writes buffered entries and syncs every open file.
func (o *TimelineObserver) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var errs error
	for _, tf := range o.sessions {
		errs = errors.Join(errs, tf.w.Flush(), tf.f.Sync())
	}
	return errs
}

// Close flushes and closes every open file. The observer may be reused;
// later events reopen their file in append mode.
func (o *TimelineObserver) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	var errs error
	for id, tf := range o.sessions {
		errs = errors.Join(errs, tf.w.Flush(), tf.f.Close())
		delete(o.sessions, id)
	}
	return errs
}

// Failures counts entries that could not be written.
func (o *TimelineObserver) Failures() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failures
}

// Path returns the timeline file for a session.
func (o *TimelineObserver) Path(sessionID string) string {
	return filepath.Join(o.dir, safeFileName(sessionID)+timelineExt)
}

func (o *TimelineObserver) openLocked(id string) *timelineFile {
	if tf := o.sessions[id]; tf != nil {
		return tf
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		o.failures++
		return nil
	}
	f, err := os.OpenFile(o.Path(id), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		o.failures++
		return nil
	}
	w := bufio.NewWriter(f)
	tf := &timelineFile{f: f, w: w, enc: json.NewEncoder(w)}
	o.sessions[id] = tf
	return tf
}

// safeFileName keeps ASCII letters, digits, '-', '_' and '.'; anything else
// becomes '_'.
func safeFileName(id string) string {
	id = strings.TrimSpace(id)
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if r < 0x80 && (r == '-' || r == '_' || r == '.' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

func withoutSessionID(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if k != metrics.TagSessionID {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var (
	_ metrics.Observer = (*TimelineObserver)(nil)
	_ metrics.Flusher  = (*TimelineObserver)(nil)
)
