package offline

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu      sync.Mutex
	sent    []string
	fail    map[string]bool
	block   chan struct{}
	started chan struct{}
}

func (f *fakeTransport) Send(_ context.Context, req Request) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req.URL)
	if f.fail[req.URL] {
		return &StatusError{StatusCode: http.StatusServiceUnavailable}
	}
	return nil
}

func (f *fakeTransport) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func enqueue(t *testing.T, q *Queue, urls ...string) {
	t.Helper()
	for _, u := range urls {
		req, err := NewRequest(http.MethodPost, u, map[string]string{"u": u})
		require.NoError(t, err)
		q.Enqueue(context.Background(), req)
	}
}

func pendingURLs(t *testing.T, q *Queue) []string {
	t.Helper()
	reqs, err := q.Pending(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.URL)
	}
	return out
}

func TestFlushDrainsQueueOnce(t *testing.T) {
	tr := &fakeTransport{}
	q := &Queue{Store: NewMemoryStore(), Transport: tr}
	enqueue(t, q, "/a", "/b", "/c", "/d")

	res, err := q.Flush(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, res.Sent)
	require.Equal(t, 0, res.Remaining)
	require.Empty(t, pendingURLs(t, q))

	res, err = q.Flush(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, res.Attempted)
	require.Equal(t, []string{"/a", "/b", "/c", "/d"}, tr.Sent())
}

func TestFlushKeepsFailuresInOrder(t *testing.T) {
	tr := &fakeTransport{fail: map[string]bool{"/b": true, "/d": true}}
	q := &Queue{Store: newSQLiteStore(t), Transport: tr}
	enqueue(t, q, "/a", "/b", "/c", "/d", "/e")

	res, err := q.Flush(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, res.Sent)
	require.Equal(t, 2, res.Failed)
	require.Equal(t, []string{"/a", "/b", "/c", "/d", "/e"}, tr.Sent())
	require.Equal(t, []string{"/b", "/d"}, pendingURLs(t, q))

	reqs, err := q.Pending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, reqs[0].Attempts)
	require.Nil(t, reqs[0].NextAttemptAt)
}

func TestFlushIsNotReentrantAndKeepsConcurrentEnqueues(t *testing.T) {
	tr := &fakeTransport{
		fail:    map[string]bool{"/a": true},
		block:   make(chan struct{}),
		started: make(chan struct{}, 8),
	}
	q := &Queue{Store: NewMemoryStore(), Transport: tr}
	enqueue(t, q, "/a", "/b")

	type outcome struct {
		res FlushResult
		err error
	}
	done := make(chan outcome)
	go func() {
		res, err := q.Flush(context.Background())
		done <- outcome{res, err}
	}()
	<-tr.started

	_, err := q.Flush(context.Background())
	require.ErrorIs(t, err, ErrFlushInProgress)

	enqueue(t, q, "/late")
	close(tr.block)
	out := <-done
	require.NoError(t, out.err)
	require.Equal(t, 1, out.res.Sent)
	require.Equal(t, []string{"/a", "/b"}, tr.Sent())
	require.Equal(t, []string{"/a", "/late"}, pendingURLs(t, q))
}

func TestBoundedRetryBacksOffAndDeadLetters(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tr := &fakeTransport{fail: map[string]bool{"/a": true}}
	q := &Queue{
		Store:     NewMemoryStore(),
		Transport: tr,
		Policy:    RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Minute, MaxBackoff: 90 * time.Second},
		Now:       func() time.Time { return now },
	}
	enqueue(t, q, "/a")
	ctx := context.Background()

	res, err := q.Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Failed)
	reqs, _ := q.Pending(ctx)
	require.Equal(t, now.Add(time.Minute), *reqs[0].NextAttemptAt)

	res, err = q.Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Deferred)
	require.Equal(t, 0, res.Attempted)

	now = now.Add(time.Minute)
	_, err = q.Flush(ctx)
	require.NoError(t, err)
	reqs, _ = q.Pending(ctx)
	require.Equal(t, 2, reqs[0].Attempts)
	require.Equal(t, now.Add(90*time.Second), *reqs[0].NextAttemptAt)

	now = now.Add(2 * time.Minute)
	res, err = q.Flush(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.DeadLettered)
	require.Empty(t, pendingURLs(t, q))

	dead, err := q.DeadLetters(ctx)
	require.NoError(t, err)
	require.Len(t, dead, 1)
	require.Equal(t, 3, dead[0].Attempts)
	require.Len(t, tr.Sent(), 3)
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{BaseBackoff: 30 * time.Second, MaxBackoff: 5 * time.Minute}
	require.Equal(t, time.Duration(0), p.Backoff(0))
	require.Equal(t, 30*time.Second, p.Backoff(1))
	require.Equal(t, 2*time.Minute, p.Backoff(3))
	require.Equal(t, 5*time.Minute, p.Backoff(10))
	require.False(t, p.Bounded())
}

func TestEnqueueSwallowsStoreFailure(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())
	q := &Queue{Store: s, Transport: &fakeTransport{}}

	req := q.Enqueue(context.Background(), Request{Method: http.MethodPost, URL: "/a"})
	require.NotEmpty(t, req.ID)
	require.False(t, req.EnqueuedAt.IsZero())
}

func TestRedisLockerBlocksSecondAgent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStoreWithClient(client, "agent:")

	tr := &fakeTransport{}
	first := &Queue{Store: store, Transport: tr, Locker: NewRedisLocker(client, "agent:flush", time.Minute)}
	second := &Queue{Store: store, Transport: tr, Locker: NewRedisLocker(client, "agent:flush", time.Minute)}
	enqueue(t, first, "/a")

	unlock, err := first.Locker.Lock(context.Background())
	require.NoError(t, err)

	_, err = second.Flush(context.Background())
	require.True(t, errors.Is(err, ErrFlushInProgress))
	require.Empty(t, tr.Sent())

	unlock()
	res, err := second.Flush(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Sent)
}
