package dispatch

import (
	"context"
	"fmt"
	"reflect"
)

type (
	// Result carries the outcome of an asynchronously completing handler.
	Result struct {
		Value any
		Err   error
	}

	// HandlerFunc is the normalized form every registered handler takes.
	HandlerFunc[A any] func(ctx context.Context, actor A, msg any) (any, error)

	// Fallback handles messages no registered handler matches.
	Fallback func(ctx context.Context, msg any) (any, error)

	// Registrar collects handlers for an actor type.
	Registrar[A any] interface {
		Register(msgType reflect.Type, h HandlerFunc[A], opts HandleOpts)
	}

	// Registration registers one handler. Create these using [Handle],
	// [HandleMsg] and [HandleAsync].
	Registration[A any] func(registrar Registrar[A])
)

// HandleOpts configures handler registration.
type HandleOpts struct {
	// Priority orders handlers declared for unrelated interfaces that
	// both match a message. Higher wins.
	Priority int
}

// HandleOption configures handler registration behavior.
type HandleOption func(*HandleOpts)

func WithPriority(p int) HandleOption {
	return func(o *HandleOpts) { o.Priority = p }
}

// Handle registers a request handler for messages of type M.
func Handle[A any, M any](h func(ctx context.Context, actor A, msg M) (any, error), opts ...HandleOption) Registration[A] {
	return register[A, M](func(ctx context.Context, actor A, msg M) (any, error) {
		return h(ctx, actor, msg)
	}, opts)
}

// HandleMsg registers a one-way handler for messages of type M. Its result
// is always nil.
func HandleMsg[A any, M any](h func(ctx context.Context, actor A, msg M) error, opts ...HandleOption) Registration[A] {
	return register[A, M](func(ctx context.Context, actor A, msg M) (any, error) {
		return nil, h(ctx, actor, msg)
	}, opts)
}

// HandleAsync registers a handler that completes by sending one Result on
// the returned channel. A nil channel, or one closed without a value,
// completes with a nil result.
func HandleAsync[A any, M any](h func(ctx context.Context, actor A, msg M) <-chan Result, opts ...HandleOption) Registration[A] {
	return register[A, M](func(ctx context.Context, actor A, msg M) (any, error) {
		return Await(ctx, h(ctx, actor, msg))
	}, opts)
}

// Async runs f on its own goroutine and returns the channel its result
// will be delivered on.
func Async(f func() (any, error)) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		v, err := f()
		ch <- Result{Value: v, Err: err}
	}()
	return ch
}

// Await blocks until ch delivers or ctx ends.
func Await(ctx context.Context, ch <-chan Result) (any, error) {
	if ch == nil {
		return nil, nil
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r, ok := <-ch:
		if !ok {
			return nil, nil
		}
		return r.Value, r.Err
	}
}

func register[A any, M any](h func(ctx context.Context, actor A, msg M) (any, error), opts []HandleOption) Registration[A] {
	handleOpts := HandleOpts{}
	for _, opt := range opts {
		opt(&handleOpts)
	}
	return func(registrar Registrar[A]) {
		registrar.Register(
			reflect.TypeFor[M](),
			func(ctx context.Context, actor A, msg any) (any, error) {
				m, ok := msg.(M)
				if !ok {
					return nil, fmt.Errorf("invalid message type: %T", msg)
				}
				return h(ctx, actor, m)
			},
			handleOpts,
		)
	}
}
