package offline

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Request is a mutation recorded for later replay.
type Request struct {
	ID            string            `json:"id"`
	Method        string            `json:"method"`
	URL           string            `json:"url"`
	Body          json.RawMessage   `json:"body,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	EnqueuedAt    time.Time         `json:"enqueuedAt"`
	Attempts      int               `json:"attempts"`
	NextAttemptAt *time.Time        `json:"nextAttemptAt,omitempty"`
	LastError     string            `json:"lastError,omitempty"`
}

// NewRequest builds a JSON request with a fresh id; body is marshaled now.
// The id travels as X-Request-Id on the live attempt and every replay.
func NewRequest(method, url string, body any) (Request, error) {
	req := Request{ID: uuid.NewString(), Method: method, URL: url}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return Request{}, err
		}
		req.Body = raw
	}
	return req, nil
}

// RetryPolicy bounds replays. The zero value retries forever without backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Bounded reports whether attempts are capped.
func (p RetryPolicy) Bounded() bool {
	return p.MaxAttempts > 0
}

// Backoff is min(base*2^(attempts-1), max) for attempts >= 1.
func (p RetryPolicy) Backoff(attempts int) time.Duration {
	if attempts < 1 || p.BaseBackoff <= 0 {
		return 0
	}
	d := p.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}
