package offline

import (
	"context"
	"errors"
)

// Lists used by the queue inside a Store.
const (
	pendingList = "pending"
	deadList    = "dead"
)

// ErrStoreClosed is returned by stores used after Close.
var ErrStoreClosed = errors.New("offline store closed")

// Item is one entry of an ordered list.
type Item struct {
	ID      string
	Payload []byte
}

// Store is the durable client-side storage behind drafts and the pending
// request queue: a key/value space plus named append-only lists whose items
// keep insertion order.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	Append(ctx context.Context, list string, item Item) error
	Items(ctx context.Context, list string) ([]Item, error)
	// Replace overwrites the payload of an existing item in place. A
	// missing item is not an error.
	Replace(ctx context.Context, list string, item Item) error
	Remove(ctx context.Context, list, id string) error

	Close() error
}
