// Package cache provides a small multi-backend cache used for tenant
// (application) lookups on the hot verify/setup paths.
//
// Backends:
//   - memory (in-process, default, also used in tests)
//   - redis (shared, for multi-instance deployments)
package cache

import (
	"context"
	"time"
)

// Client defines the cache operations.
type Client interface {
	// Get returns the value or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value; ttl 0 means the backend default.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a key (no error if absent).
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Kind  string // "memory" | "redis"
	Redis struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}
	Memory struct {
		DefaultTTL time.Duration
	}
}

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "cache: key not found" }

// IsNotFound reports whether err means the key was absent.
func IsNotFound(err error) bool {
	_, ok := err.(errNotFound)
	return ok
}

// New builds a cache client for the configured backend. Unknown kinds fall
// back to memory.
func New(cfg Config) (Client, error) {
	switch cfg.Kind {
	case "redis":
		return NewRedis(cfg)
	default:
		return NewMemory(cfg.Memory.DefaultTTL), nil
	}
}
