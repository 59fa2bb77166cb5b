package event

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Token identifies one registered callback. The zero Token never matches a
// registration, so it is safe to keep in a struct before anything is added.
type Token struct {
	id uuid.UUID
}

func newToken() Token {
	return Token{id: uuid.Must(uuid.NewV7())}
}

// IsZero reports whether t was never issued by a registry.
func (t Token) IsZero() bool {
	return t.id == uuid.Nil
}

func (t Token) String() string {
	return t.id.String()
}

type entry[T any] struct {
	token Token
	fn    func(T)
}

// Registry is an ordered list of callbacks. Emit walks a snapshot of the list,
// so callbacks may add or remove registrations while being notified.
type Registry[T any] struct {
	mu      sync.Mutex
	name    string
	entries []entry[T]
}

func NewRegistry[T any](name string) *Registry[T] {
	return &Registry[T]{name: name}
}

func (r *Registry[T]) Add(fn func(T)) Token {
	if fn == nil {
		return Token{}
	}
	tok := newToken()
	r.mu.Lock()
	r.entries = append(r.entries, entry[T]{token: tok, fn: fn})
	r.mu.Unlock()
	return tok
}

func (r *Registry[T]) Remove(tok Token) bool {
	if tok.IsZero() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.token == tok {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry[T]) Clear() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

// Emit calls every callback in registration order on the caller's goroutine.
// A panicking callback is logged and skipped.
func (r *Registry[T]) Emit(v T) {
	r.mu.Lock()
	entries := make([]entry[T], len(r.entries))
	copy(entries, r.entries)
	r.mu.Unlock()

	for _, e := range entries {
		r.call(e, v)
	}
}

func (r *Registry[T]) call(e entry[T], v T) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Callback panicked", "registry", r.name, "token", e.token.String(), "panic", rec)
		}
	}()
	e.fn(v)
}
