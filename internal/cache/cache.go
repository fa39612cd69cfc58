package cache

import (
	"context"
	"time"
)

// BytesCache is a minimal cache API storing raw bytes with TTL. Remote
// implementations honour ctx cancellation and deadlines.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) GetBytes(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NopCache) SetBytes(context.Context, string, []byte, time.Duration) error {
	return nil
}
