// Package cache provides the key-value stores behind the read-optimised views.
//
// A Store answers every lookup with one of three outcomes: a hit (Result.Found),
// a miss (zero Result, nil error) or a failure wrapping apperrors.ErrCacheUnavailable.
// Callers treat a failure like a miss and fall back to the source of truth.
package cache

import (
	"context"
	"strings"
	"time"
)

// Result is the outcome of a successful lookup.
type Result struct {
	Value []byte
	Found bool
}

// Hit builds a Result for a present key.
func Hit(value []byte) Result {
	return Result{Value: value, Found: true}
}

// Store is a best-effort key-value store with per-key expiry.
type Store interface {
	Get(ctx context.Context, key string) (Result, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Keys builds namespaced keys of the form <prefix>:<part>:<part>.
type Keys struct {
	Prefix string
}

// Key joins parts under the prefix.
func (k Keys) Key(parts ...string) string {
	if k.Prefix == "" {
		return strings.Join(parts, ":")
	}
	return k.Prefix + ":" + strings.Join(parts, ":")
}

// Disabled is a Store that never holds anything. Every read is a miss.
type Disabled struct{}

func (Disabled) Get(context.Context, string) (Result, error) { return Result{}, nil }
func (Disabled) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Disabled) Delete(context.Context, ...string) error { return nil }
func (Disabled) Close() error { return nil }
