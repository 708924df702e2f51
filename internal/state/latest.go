// Package state holds the caller-owned "current result" containers. Each
// request takes a token; only the response carrying the newest issued token
// may replace the stored value, so a slow early response can never
// overwrite a later one.
package state

import (
	"sync"
	"sync/atomic"
	"time"
)

// Token identifies one issued request. Zero is never issued.
type Token uint64

// Latest keeps the value of the most recently issued request that resolved
type Latest[T any] struct {
	issued atomic.Uint64

	mu        sync.RWMutex
	value     T
	token     Token
	updatedAt time.Time
	has       bool
	stale     uint64
}

// Issue returns a new, strictly increasing token
func (l *Latest[T]) Issue() Token {
	return Token(l.issued.Add(1))
}

// LastIssued returns the newest token handed out
func (l *Latest[T]) LastIssued() Token {
	return Token(l.issued.Load())
}

// IsCurrent reports whether tok is still the newest issued token
func (l *Latest[T]) IsCurrent(tok Token) bool {
	return tok != 0 && tok == l.LastIssued()
}

// Commit stores v wholesale if tok is the newest issued token. Stale
// commits are dropped and counted.
func (l *Latest[T]) Commit(tok Token, v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.IsCurrent(tok) || tok <= l.token {
		l.stale++
		return false
	}
	l.value = v
	l.token = tok
	l.updatedAt = time.Now()
	l.has = true
	return true
}

// Get returns the stored value and whether one has been committed
func (l *Latest[T]) Get() (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value, l.has
}

// Snapshot is a point-in-time view of a Latest container
type Snapshot[T any] struct {
	Value     T         `json:"value"`
	Token     Token     `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns the stored value with its token and commit time
func (l *Latest[T]) Snapshot() (Snapshot[T], bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Snapshot[T]{Value: l.value, Token: l.token, UpdatedAt: l.updatedAt}, l.has
}

// Stale returns how many commits were discarded
func (l *Latest[T]) Stale() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stale
}
