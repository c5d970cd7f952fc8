package output

import (
	"context"
	"time"
)

// StoredResponse is an HTTP response replayed for a repeated idempotency key
type StoredResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore keeps responses keyed by client-supplied idempotency key
type IdempotencyStore interface {
	// Get returns nil, nil on a miss
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Set(ctx context.Context, key string, resp *StoredResponse, ttl time.Duration) error
}
