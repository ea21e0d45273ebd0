package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Well-known keys
const (
	KeyToken         = "token"
	KeyConversations = "conversations"
)

// ErrNotFound is returned by Get when a key has never been written
var ErrNotFound = errors.New("key not found")

// KV is a flat key/value store. Every write replaces the whole value.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options selects and configures a backend
type Options struct {
	Driver      string
	Path        string
	DSN         string
	RedisAddr   string
	RedisPrefix string
}

// Open creates the backend named by opts.Driver
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Driver {
	case "", "bolt":
		if err := ensureDir(opts.Path); err != nil {
			return nil, err
		}
		return OpenBolt(opts.Path)
	case "sqlite":
		if err := ensureDir(opts.Path); err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, opts.Path)
	case "postgres":
		return OpenPostgres(ctx, opts.DSN)
	case "redis":
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPrefix)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", opts.Driver)
	}
}

func ensureDir(path string) error {
	if path == "" {
		return fmt.Errorf("storage path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	return nil
}

// Copy writes the given keys from src to dst and returns how many existed.
// Keys missing from src are left untouched in dst.
func Copy(ctx context.Context, dst, src KV, keys ...string) (int, error) {
	copied := 0
	for _, key := range keys {
		value, err := src.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return copied, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if err := dst.Put(ctx, key, value); err != nil {
			return copied, fmt.Errorf("failed to write %s: %w", key, err)
		}
		copied++
	}
	return copied, nil
}
