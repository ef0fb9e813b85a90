package session

import (
	"context"
	"time"
)

const (
	// DefaultPollInterval is how often the watcher re-reads the session.
	DefaultPollInterval = 30 * time.Second

	// LowTimeThreshold is the remaining lifetime below which the warning
	// callback starts firing.
	LowTimeThreshold = 300 * time.Second
)

// Watcher polls the gate in the background and surfaces UI-level session
// warnings without ever blocking interaction. OnExpired fires once per
// valid-to-expired transition.
type Watcher struct {
	gate      *Gate
	interval  time.Duration
	threshold time.Duration

	OnWarning func(remaining int64)
	OnExpired func()

	wasExpired bool
}

func NewWatcher(gate *Gate, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		gate:      gate,
		interval:  interval,
		threshold: LowTimeThreshold,
	}
}

func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.wasExpired = w.gate.IsExpired()
	for {
		select {
		case <-ticker.C:
			w.poll()
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) poll() {
	expired := w.gate.IsExpired()
	if expired {
		if !w.wasExpired && w.OnExpired != nil {
			w.OnExpired()
		}
		w.wasExpired = true
		return
	}
	w.wasExpired = false

	remaining := w.gate.TimeRemaining()
	if time.Duration(remaining)*time.Second < w.threshold && w.OnWarning != nil {
		w.OnWarning(remaining)
	}
}
