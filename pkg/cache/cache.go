package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store caches small rendered responses by key, with a TTL. Payloads
// are strings: the HTTP handlers cache marshaled JSON, and anything
// richer than that belongs in the signal store, not here. Lookups are
// best-effort; a miss and a backend failure look the same to callers.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Close() error
}

// Key builds a colon-separated cache key from a prefix and its
// parameters, e.g. Key("stats", "rpm", 60) -> "stats:rpm:60".
func Key(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range params {
		fmt.Fprintf(&b, ":%v", p)
	}
	return b.String()
}
