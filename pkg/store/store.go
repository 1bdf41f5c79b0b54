// Package store is the asynchronous key/value persistence used by the
// orchestrator, the session store and the fallback cache. Values are JSON.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

// Well-known keys and prefixes.
const (
	KeyState       = "orchestrator:state"
	KeyHistory     = "orchestrator:history"
	SessionPrefix  = "session:"
	FallbackPrefix = "fallback:"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix, unordered.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

func SessionKey(contextID string) string {
	return SessionPrefix + contextID
}

func FallbackKey(platformTag, contentID string) string {
	return FallbackPrefix + platformTag + ":" + contentID
}

func GetJSON(ctx context.Context, s Store, key string, dst interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
