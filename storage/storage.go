// Package storage defines the key-value port the auth manager persists token
// state through, plus the key naming shared by every backend.
package storage

import (
	"context"
	"fmt"
)

// Storage is an asynchronous key-value store. Two independent instances back an
// auth manager: a session-scoped tier holding the full token bundle and a
// persistent tier holding only the bare refresh token.
//
// Get reports ok=false for a missing key; absence is never an error.
// Remove on a missing key is a no-op.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Noop is the fallback backend used when no storage is available in the
// runtime. Reads always report absence and writes are discarded.
var Noop Storage = noopStorage{}

type noopStorage struct{}

func (noopStorage) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (noopStorage) Set(context.Context, string, string) error        { return nil }
func (noopStorage) Remove(context.Context, string) error             { return nil }

// OrNoop returns s, or Noop when s is nil.
func OrNoop(s Storage) Storage {
	if s == nil {
		return Noop
	}
	return s
}

const keyPrefix = "nimbu"

// Keys holds the storage keys derived for one token holder.
type Keys struct {
	Session    string // full oauth2 bundle, session tier
	Persistent string // bare refresh token, persistent tier
}

// KeysFor derives the storage keys for a client id and optional holder name.
// Distinct (clientID, name) pairs never share a key.
func KeysFor(clientID, name string) Keys {
	base := fmt.Sprintf("%s-%s", keyPrefix, clientID)
	if name != "" {
		base = fmt.Sprintf("%s-%s", base, name)
	}
	return Keys{
		Session:    base + "-oauth2",
		Persistent: base + "-refresh",
	}
}
