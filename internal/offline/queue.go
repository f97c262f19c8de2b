package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"inspection-backend/internal/shared/telemetry"
)

// ErrFlushInProgress is returned when another flush holds the queue.
var ErrFlushInProgress = errors.New("flush already in progress")

// Transport delivers a queued request. Any error counts as a failed attempt.
type Transport interface {
	Send(ctx context.Context, req Request) error
}

// Locker serializes flushes across processes sharing one Store.
type Locker interface {
	// Lock returns ErrFlushInProgress when another holder has the lock.
	Lock(ctx context.Context) (unlock func(), err error)
}

// FlushResult summarizes one pass over the queue.
type FlushResult struct {
	Attempted    int `json:"attempted"`
	Sent         int `json:"sent"`
	Failed       int `json:"failed"`
	Deferred     int `json:"deferred"`
	DeadLettered int `json:"deadLettered"`
	Remaining    int `json:"remaining"`
}

// Queue is the durable, ordered list of mutations waiting to be replayed.
type Queue struct {
	Store     Store
	Transport Transport
	Policy    RetryPolicy
	Locker    Locker
	Now       func() time.Time

	flushing atomic.Bool
}

func (q *Queue) now() time.Time {
	if q.Now != nil {
		return q.Now()
	}
	return time.Now().UTC()
}

// Enqueue appends req and returns it with its id and enqueue time filled.
// Storage failures are logged, not returned; the mutation is then lost.
func (q *Queue) Enqueue(ctx context.Context, req Request) Request {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = q.now()
	}
	payload, err := json.Marshal(req)
	if err == nil {
		err = q.Store.Append(ctx, pendingList, Item{ID: req.ID, Payload: payload})
	}
	if err != nil {
		telemetry.Error("queue.enqueue_failed", map[string]any{
			"request_id": req.ID,
			"method":     req.Method,
			"url":        req.URL,
			"error":      err.Error(),
		})
		return req
	}
	telemetry.Info("queue.enqueued", map[string]any{
		"request_id": req.ID,
		"method":     req.Method,
		"url":        req.URL,
	})
	return req
}

// Flush replays pending requests one at a time in enqueue order. Successes
// are removed; failures stay in place, so the survivors keep their relative
// order and anything enqueued meanwhile lands after them.
func (q *Queue) Flush(ctx context.Context) (FlushResult, error) {
	if !q.flushing.CompareAndSwap(false, true) {
		return FlushResult{}, ErrFlushInProgress
	}
	defer q.flushing.Store(false)

	if q.Locker != nil {
		unlock, err := q.Locker.Lock(ctx)
		if err != nil {
			return FlushResult{}, err
		}
		defer unlock()
	}

	items, err := q.Store.Items(ctx, pendingList)
	if err != nil {
		return FlushResult{}, fmt.Errorf("load queue: %w", err)
	}

	var res FlushResult
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			res.Remaining = q.count(ctx)
			return res, err
		}
		var req Request
		if err := json.Unmarshal(it.Payload, &req); err != nil {
			telemetry.Warn("queue.corrupt_item", map[string]any{"request_id": it.ID, "error": err.Error()})
			q.deadLetter(ctx, it)
			res.DeadLettered++
			continue
		}
		if q.Policy.Bounded() && req.NextAttemptAt != nil && req.NextAttemptAt.After(q.now()) {
			res.Deferred++
			continue
		}

		res.Attempted++
		sendErr := q.Transport.Send(ctx, req)
		if sendErr == nil {
			if err := q.Store.Remove(ctx, pendingList, req.ID); err != nil {
				return res, fmt.Errorf("remove sent request: %w", err)
			}
			res.Sent++
			continue
		}

		res.Failed++
		if err := q.recordFailure(ctx, req, sendErr, &res); err != nil {
			return res, err
		}
	}
	res.Remaining = q.count(ctx)

	telemetry.Info("queue.flushed", map[string]any{
		"attempted":     res.Attempted,
		"sent":          res.Sent,
		"failed":        res.Failed,
		"deferred":      res.Deferred,
		"dead_lettered": res.DeadLettered,
		"remaining":     res.Remaining,
	})
	return res, nil
}

func (q *Queue) recordFailure(ctx context.Context, req Request, sendErr error, res *FlushResult) error {
	req.Attempts++
	req.LastError = sendErr.Error()
	fields := map[string]any{
		"request_id": req.ID,
		"attempts":   req.Attempts,
		"error":      req.LastError,
	}

	if q.Policy.Bounded() {
		if req.Attempts >= q.Policy.MaxAttempts {
			payload, err := json.Marshal(req)
			if err != nil {
				return fmt.Errorf("encode request: %w", err)
			}
			q.deadLetter(ctx, Item{ID: req.ID, Payload: payload})
			res.DeadLettered++
			telemetry.Warn("queue.dead_lettered", fields)
			return nil
		}
		next := q.now().Add(q.Policy.Backoff(req.Attempts))
		req.NextAttemptAt = &next
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	if err := q.Store.Replace(ctx, pendingList, Item{ID: req.ID, Payload: payload}); err != nil {
		return fmt.Errorf("update failed request: %w", err)
	}
	telemetry.Warn("queue.replay_failed", fields)
	return nil
}

func (q *Queue) deadLetter(ctx context.Context, it Item) {
	if err := q.Store.Append(ctx, deadList, it); err != nil {
		telemetry.Error("queue.dead_letter_failed", map[string]any{"request_id": it.ID, "error": err.Error()})
		return
	}
	if err := q.Store.Remove(ctx, pendingList, it.ID); err != nil {
		telemetry.Error("queue.dead_letter_failed", map[string]any{"request_id": it.ID, "error": err.Error()})
	}
}

func (q *Queue) count(ctx context.Context) int {
	items, err := q.Store.Items(context.WithoutCancel(ctx), pendingList)
	if err != nil {
		return -1
	}
	return len(items)
}

// Pending lists queued requests in replay order.
func (q *Queue) Pending(ctx context.Context) ([]Request, error) {
	return q.list(ctx, pendingList)
}

// DeadLetters lists requests that exhausted their attempts.
func (q *Queue) DeadLetters(ctx context.Context) ([]Request, error) {
	return q.list(ctx, deadList)
}

func (q *Queue) list(ctx context.Context, list string) ([]Request, error) {
	items, err := q.Store.Items(ctx, list)
	if err != nil {
		return nil, err
	}
	out := make([]Request, 0, len(items))
	for _, it := range items {
		var req Request
		if err := json.Unmarshal(it.Payload, &req); err != nil {
			req = Request{ID: it.ID, LastError: "undecodable payload"}
		}
		out = append(out, req)
	}
	return out, nil
}
