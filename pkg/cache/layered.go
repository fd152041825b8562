package cache

import (
	"context"
	"time"
)

// Layered puts a Memory front in front of a shared backend, so the hot
// stats key is served in-process between redis round-trips. Writes go
// to both layers; backend hits are refilled into memory for refillTTL,
// which should be shorter than the caller's TTL so a stale front entry
// cannot outlive the authoritative one by much.
type Layered struct {
	front     *Memory
	back      Store
	refillTTL time.Duration
}

func NewLayered(front *Memory, back Store, refillTTL time.Duration) *Layered {
	if refillTTL <= 0 {
		refillTTL = time.Second
	}
	return &Layered{front: front, back: back, refillTTL: refillTTL}
}

func (l *Layered) Get(ctx context.Context, key string) (string, bool) {
	if v, ok := l.front.Get(ctx, key); ok {
		return v, true
	}
	v, ok := l.back.Get(ctx, key)
	if !ok {
		return "", false
	}
	l.front.Set(ctx, key, v, l.refillTTL)
	return v, true
}

func (l *Layered) Set(ctx context.Context, key, value string, ttl time.Duration) {
	l.back.Set(ctx, key, value, ttl)
	l.front.Set(ctx, key, value, ttl)
}

func (l *Layered) Delete(ctx context.Context, key string) {
	l.front.Delete(ctx, key)
	l.back.Delete(ctx, key)
}

func (l *Layered) Close() error {
	_ = l.front.Close()
	return l.back.Close()
}
