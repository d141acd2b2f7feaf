package client

import (
	"context"
	"sync"
)

// Query holds the latest result of a fetch along with its loading and error state.
// A failed Refetch keeps the previous data.
type Query[T any] struct {
	fetch func(context.Context) (T, error)

	mu      sync.Mutex
	data    T
	loaded  bool
	loading bool
	err     error
}

// NewQuery wraps fetch. Nothing is fetched until Refetch is called.
func NewQuery[T any](fetch func(context.Context) (T, error)) *Query[T] {
	return &Query[T]{fetch: fetch}
}

// Refetch runs the fetch and records its outcome.
func (q *Query[T]) Refetch(ctx context.Context) error {
	q.mu.Lock()
	q.loading = true
	q.mu.Unlock()

	data, err := q.fetch(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.loading = false
	q.err = err
	if err == nil {
		q.data, q.loaded = data, true
	}
	return err
}

// Data returns the last successful result and whether there has been one.
func (q *Query[T]) Data() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.data, q.loaded
}

func (q *Query[T]) Loading() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loading
}

// Err returns the error of the most recent Refetch, nil if it succeeded.
func (q *Query[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}
