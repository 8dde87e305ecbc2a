package tokencache

import (
	"context"
	"errors"
	"time"
)

// ErrBackendUnavailable is returned when a shared cache backend cannot be reached.
var ErrBackendUnavailable = errors.New("token cache backend unavailable")

// CacheKey identifies one cache entry and one in-flight fetch. Two templates for
// the same session are distinct keys.
type CacheKey struct {
	SessionID string
	Template  string
}

// Key builds a CacheKey.
func Key(sessionID, template string) CacheKey {
	return CacheKey{SessionID: sessionID, Template: template}
}

// String renders the key as "<session>" or "<session>-<template>".
func (k CacheKey) String() string {
	if k.Template == "" {
		return k.SessionID
	}
	return k.SessionID + "-" + k.Template
}

// Token is an issued JWT. It is immutable once issued.
type Token struct {
	JWT       string
	ExpiresAt time.Time
}

// ValidFor reports whether the token stays valid for more than buffer after now.
func (t Token) ValidFor(now time.Time, buffer time.Duration) bool {
	if t.JWT == "" {
		return false
	}
	return t.ExpiresAt.Sub(now) > buffer
}

// Cache is implemented by every token cache backend. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key CacheKey) (Token, bool, error)
	Set(ctx context.Context, key CacheKey, token Token) error
	Delete(ctx context.Context, key CacheKey) error
	DeleteSession(ctx context.Context, sessionID string) error
}
