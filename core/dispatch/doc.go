// Package dispatch routes a message to the most specific handler registered
// for its runtime type.
//
// Handlers are registered explicitly per actor type with typed generic
// functions; there is no method discovery:
//
//	d := dispatch.MustNew[*Lightbulb](
//	    dispatch.Handle(func(ctx context.Context, l *Lightbulb, m Toggle) (any, error) { ... }),
//	    dispatch.HandleMsg(func(ctx context.Context, l *Lightbulb, m Command) error { ... }),
//	    dispatch.HandleAsync(func(ctx context.Context, l *Lightbulb, m Query) <-chan dispatch.Result { ... }),
//	)
//	res, err := d.Dispatch(ctx, bulb, Toggle{}, nil)
//
// # Resolution
//
// A handler declared for the message's exact runtime type always wins.
// Otherwise handlers declared for interface types the message implements
// are candidates, and the most derived interface wins: X beats Y when X
// implements Y. Unrelated candidates are ordered by [WithPriority], then by
// registration order. The declared type any matches every message and is
// the least specific candidate.
//
// Resolutions are cached per runtime type for the lifetime of the
// [Dispatcher].
//
// # Results
//
// Synchronous handlers and handlers completing through a channel of
// [Result] look the same to callers: Dispatch returns once the result is
// available or the context ends.
package dispatch
