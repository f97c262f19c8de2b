package offline

import (
	"context"
	"net/http"
	"time"

	"inspection-backend/internal/shared/telemetry"
)

// Signal announces that the server became reachable.
type Signal interface {
	Reachable() <-chan struct{}
}

// ManualSignal fires when Trigger is called. Triggers that arrive before the
// previous one was consumed collapse into one.
type ManualSignal struct {
	ch chan struct{}
}

// NewManualSignal constructs a ManualSignal.
func NewManualSignal() *ManualSignal {
	return &ManualSignal{ch: make(chan struct{}, 1)}
}

// Trigger emits a became-reachable event.
func (s *ManualSignal) Trigger() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *ManualSignal) Reachable() <-chan struct{} { return s.ch }

// ProbeSignal polls a health URL and emits on every unreachable to
// reachable transition. The process starts out unreachable, so the first
// successful probe emits too.
type ProbeSignal struct {
	URL      string
	Interval time.Duration
	Client   *http.Client

	ch chan struct{}
}

// NewProbeSignal constructs a ProbeSignal for healthURL.
func NewProbeSignal(healthURL string, interval time.Duration) *ProbeSignal {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &ProbeSignal{
		URL:      healthURL,
		Interval: interval,
		Client:   &http.Client{Timeout: 5 * time.Second},
		ch:       make(chan struct{}, 1),
	}
}

func (s *ProbeSignal) Reachable() <-chan struct{} { return s.ch }

// Run probes until ctx is done.
func (s *ProbeSignal) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	reachable := false
	for {
		up := s.probe(ctx)
		if up != reachable {
			telemetry.Info("connectivity.changed", map[string]any{"reachable": up, "url": s.URL})
		}
		if up && !reachable {
			select {
			case s.ch <- struct{}{}:
			default:
			}
		}
		reachable = up

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *ProbeSignal) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return false
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
