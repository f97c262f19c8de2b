package offline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"inspection-backend/internal/shared/telemetry"
)

// Flusher drains a queue.
type Flusher interface {
	Flush(ctx context.Context) (FlushResult, error)
}

// Monitor runs one flush per became-reachable event. Events arriving while
// a flush is running are dropped.
type Monitor struct {
	flusher Flusher
	signal  Signal

	mu      sync.Mutex
	cancel  context.CancelFunc
	loop    sync.WaitGroup
	flushes sync.WaitGroup

	running atomic.Bool
	dropped atomic.Int64
	// OnFlush, when set, observes every completed flush.
	OnFlush func(FlushResult, error)
}

// NewMonitor wires a flusher to a signal.
func NewMonitor(flusher Flusher, signal Signal) *Monitor {
	return &Monitor{flusher: flusher, signal: signal}
}

// Start begins listening. It fails if the monitor is already started.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return errors.New("monitor already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.loop.Add(1)
	go m.listen(ctx)
	return nil
}

// Stop stops listening and waits for an in-flight flush to finish.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	m.loop.Wait()
	m.flushes.Wait()
}

// Dropped counts events ignored because a flush was already running.
func (m *Monitor) Dropped() int64 {
	return m.dropped.Load()
}

func (m *Monitor) listen(ctx context.Context) {
	defer m.loop.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.signal.Reachable():
			if !m.running.CompareAndSwap(false, true) {
				m.dropped.Add(1)
				telemetry.Info("monitor.event_dropped", nil)
				continue
			}
			m.flushes.Add(1)
			go m.flush(context.WithoutCancel(ctx))
		}
	}
}

func (m *Monitor) flush(ctx context.Context) {
	defer m.flushes.Done()

	res, err := m.flusher.Flush(ctx)
	m.running.Store(false)
	if err != nil && !errors.Is(err, ErrFlushInProgress) {
		telemetry.Warn("monitor.flush_failed", map[string]any{"error": err.Error()})
	}
	if m.OnFlush != nil {
		m.OnFlush(res, err)
	}
}
