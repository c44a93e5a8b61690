package mdh

import (
	"context"
	"sync"
)

// Deferred is a single-assignment promise. Resolve or Reject settles it
// exactly once; later calls are ignored. Await blocks until the value
// is settled or the context ends.
type Deferred[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// NewDeferred returns an unsettled Deferred.
func NewDeferred[T any]() *Deferred[T] {
	return &Deferred[T]{done: make(chan struct{})}
}

// Resolve settles the Deferred with a value.
func (d *Deferred[T]) Resolve(v T) {
	d.once.Do(func() {
		d.val = v
		close(d.done)
	})
}

// Reject settles the Deferred with an error.
func (d *Deferred[T]) Reject(err error) {
	d.once.Do(func() {
		d.err = err
		close(d.done)
	})
}

// Await returns the settled value or rejection error. If the context
// ends first the context error is returned and the Deferred stays
// usable for a later Await.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.val, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// HookResult carries a hook's output, either immediately or as a
// Deferred the pipeline awaits. Producing a deferred result without
// WithAsync(true) is a configuration error.
type HookResult[T any] struct {
	value    T
	deferred *Deferred[T]
}

// Value wraps an immediate hook result.
func Value[T any](v T) HookResult[T] { return HookResult[T]{value: v} }

// Promised wraps a deferred hook result.
func Promised[T any](d *Deferred[T]) HookResult[T] { return HookResult[T]{deferred: d} }

// StringHook transforms source text before tokenization or rendered
// output after rendering.
type StringHook func(string) HookResult[string]

// TokensHook transforms the finished token tree before it is walked
// and rendered.
type TokensHook func([]*Token) HookResult[[]*Token]

// WalkFunc visits one token during the walk stage. Returning an error
// aborts the parse.
type WalkFunc func(*Token) error

// await resolves a hook result, blocking on a deferred when Async is
// enabled and failing when one appears without it.
func await[T any](ctx context.Context, o *Options, res HookResult[T]) (T, error) {
	if res.deferred == nil {
		return res.value, nil
	}
	if !o.Async {
		var zero T
		return zero, configError("hook returned a deferred result without WithAsync")
	}
	return res.deferred.Await(ctx)
}
