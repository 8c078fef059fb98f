package observers

import (
	"strconv"
	"sync"
	"time"

	"github.com/harunnryd/orb/pkg/metrics"
	"github.com/harunnryd/orb/pkg/session"
)

// SessionRecorder turns session events into metrics events. For state
// changes Value is the time spent in the previous state, in milliseconds.
type SessionRecorder struct {
	obs metrics.Observer

	mu      sync.Mutex
	entered map[string]time.Time
}

func NewSessionRecorder(obs metrics.Observer) *SessionRecorder {
	if obs == nil {
		obs = metrics.NoopObserver{}
	}
	return &SessionRecorder{obs: obs, entered: make(map[string]time.Time)}
}

func (r *SessionRecorder) OnEvent(ev session.Event) {
	tags := map[string]string{metrics.TagSessionID: ev.SessionID}
	out := metrics.MetricsEvent{Time: ev.Time, Tags: tags}

	switch ev.Type {
	case session.EventStateChanged:
		out.Name = metrics.NameStateChange
		tags[metrics.TagFrom] = ev.Change.From.String()
		tags[metrics.TagTo] = ev.Change.To.String()
		tags[metrics.TagAction] = string(ev.Change.Action)
		tags[metrics.TagReason] = ev.Change.Reason
		out.Value = r.dwell(ev.SessionID, ev.Time)
	case session.EventAudioLevel:
		out.Name = metrics.NameAudioLevel
		out.Value = ev.AudioLevel
	case session.EventVideoToggled:
		out.Name = metrics.NameVideoToggle
		tags["video_on"] = strconv.FormatBool(ev.VideoOn)
		if ev.VideoOn {
			out.Value = 1
		}
	case session.EventTimersCancelled:
		out.Name = metrics.NameTimersCancelled
		out.Value = float64(ev.Cancelled)
	default:
		return
	}
	r.obs.RecordEvent(out)
}

func (r *SessionRecorder) dwell(sessionID string, now time.Time) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.entered[sessionID]
	r.entered[sessionID] = now
	if !ok {
		return 0
	}
	return float64(now.Sub(prev).Milliseconds())
}

var _ session.Listener = (*SessionRecorder)(nil)
