// Package singleflight coalesces concurrent calls that share a key.
package singleflight

import (
	"context"
	"sync"
)

type call[T any] struct {
	done chan struct{}
	val  T
	err  error
	dups int
}

// Group runs at most one fn per key at a time. The zero value is not
// usable; call New.
type Group[T any] struct {
	mu sync.Mutex
	m  map[string]*call[T]
}

// New returns an empty Group.
func New[T any]() *Group[T] {
	return &Group[T]{m: make(map[string]*call[T])}
}

// Do executes fn once per in-flight key. Callers arriving while fn runs
// block and receive the same result; shared reports whether the result
// was handed to more than one caller.
func (g *Group[T]) Do(key string, fn func() (T, error)) (val T, shared bool, err error) {
	return g.DoContext(context.Background(), key, fn)
}

// DoContext is Do with a bounded wait. A caller that joins a running call
// stops waiting when ctx is done and returns ctx.Err(); the call itself
// keeps running for the caller that started it.
func (g *Group[T]) DoContext(ctx context.Context, key string, fn func() (T, error)) (val T, shared bool, err error) {
	g.mu.Lock()
	if c, ok := g.m[key]; ok {
		c.dups++
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.val, true, c.err
		case <-ctx.Done():
			var zero T
			return zero, true, ctx.Err()
		}
	}

	c := &call[T]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	c.val, c.err = fn()

	g.mu.Lock()
	if g.m[key] == c {
		delete(g.m, key)
	}
	shared = c.dups > 0
	g.mu.Unlock()
	close(c.done)

	return c.val, shared, c.err
}

// InFlight reports the number of keys currently executing.
func (g *Group[T]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}

// Forget drops key so that the next Do starts a fresh call even if one is
// still running.
func (g *Group[T]) Forget(key string) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}
