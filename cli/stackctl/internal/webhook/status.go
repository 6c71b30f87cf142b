package webhook

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	LevelInfo  = "info"
	LevelError = "error"

	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
)

// Status is the payload of a status event.
type Status struct {
	Status      string `json:"status"`
	Level       string `json:"level"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// Event is what an Emitter receives. Type is always "status".
type Event struct {
	Type string `json:"type"`
	Data Status `json:"data"`
}

// Emitter is the caller-supplied status sink.
type Emitter interface {
	Emit(ctx context.Context, ev Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, ev Event) error

func (f EmitterFunc) Emit(ctx context.Context, ev Event) error { return f(ctx, ev) }

// throttle admits one non-terminal status per interval. Terminal statuses
// always pass and restart the interval.
type throttle struct {
	mu    sync.Mutex
	every time.Duration
	lim   *rate.Limiter
}

func newThrottle(every time.Duration) *throttle {
	t := &throttle{every: every}
	t.lim = t.fresh()
	return t
}

func (t *throttle) fresh() *rate.Limiter {
	limit := rate.Inf
	if t.every > 0 {
		limit = rate.Every(t.every)
	}
	return rate.NewLimiter(limit, 1)
}

func (t *throttle) allow(now time.Time, done bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if done {
		t.lim = t.fresh()
		t.lim.AllowN(now, 1)
		return true
	}
	return t.lim.AllowN(now, 1)
}

// EmitStatus sends a status event to em unless status indication is
// disabled, em is nil, or a non-terminal status arrives within EmitInterval
// of the previous emission. Sink errors are logged and dropped.
func (f *Forwarder) EmitStatus(ctx context.Context, em Emitter, level, message string, done bool) {
	if em == nil || !f.valves.EnableStatusIndicator {
		return
	}
	if !f.throttle.allow(f.now(), done) {
		log.WithField("description", message).Debug("status throttled")
		return
	}
	st := StatusInProgress
	if done {
		st = StatusComplete
	}
	ev := Event{Type: "status", Data: Status{Status: st, Level: level, Description: message, Done: done}}
	if err := em.Emit(ctx, ev); err != nil {
		log.WithError(err).Warn("status emitter failed")
	}
}
