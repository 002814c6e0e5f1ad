package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

type entry[A any] struct {
	typ      reflect.Type
	handle   HandlerFunc[A]
	priority int
	order    int
}

// resolution is a cached lookup result; a nil entry means no handler.
type resolution[A any] struct {
	e *entry[A]
}

// Dispatcher holds the handler table of one actor type A. It is safe for
// concurrent use by any number of instances of A.
type Dispatcher[A any] struct {
	exact      map[reflect.Type]*entry[A]
	interfaces []*entry[A]
	cache      sync.Map // reflect.Type -> resolution[A]
	err        error
}

// New builds the dispatcher for actor type A from the given registrations.
// Registering two handlers for the same message type is an error.
func New[A any](regs ...Registration[A]) (*Dispatcher[A], error) {
	d := &Dispatcher[A]{
		exact: make(map[reflect.Type]*entry[A]),
	}
	for _, reg := range regs {
		reg(d)
	}
	if d.err != nil {
		return nil, d.err
	}
	return d, nil
}

// MustNew is like New but panics on error.
func MustNew[A any](regs ...Registration[A]) *Dispatcher[A] {
	d, err := New[A](regs...)
	if err != nil {
		panic(err)
	}
	return d
}

// Register implements Registrar. Use [New] instead of calling it directly.
func (d *Dispatcher[A]) Register(msgType reflect.Type, h HandlerFunc[A], opts HandleOpts) {
	if d.err != nil {
		return
	}
	if _, ok := d.exact[msgType]; ok {
		d.err = &DuplicateHandlerError{Type: msgType}
		return
	}

	e := &entry[A]{
		typ:      msgType,
		handle:   h,
		priority: opts.Priority,
		order:    len(d.exact),
	}
	d.exact[msgType] = e
	if msgType.Kind() == reflect.Interface {
		d.interfaces = append(d.interfaces, e)
	}
}

// Dispatch invokes the handler resolved for msg's runtime type. Without a
// match it calls fallback, or fails with *UnhandledMessageError when
// fallback is nil.
func (d *Dispatcher[A]) Dispatch(ctx context.Context, actor A, msg any, fallback Fallback) (any, error) {
	if isNil(msg) {
		return nil, ErrNilMessage
	}

	if e := d.resolve(reflect.TypeOf(msg)); e != nil {
		return e.handle(ctx, actor, msg)
	}

	if fallback != nil {
		return fallback(ctx, msg)
	}

	return nil, &UnhandledMessageError{Actor: actor, Message: msg}
}

// Handles reports whether a message of type t resolves to a handler.
func (d *Dispatcher[A]) Handles(t reflect.Type) bool {
	return t != nil && d.resolve(t) != nil
}

// DispatchAs dispatches msg and converts the result to R. A nil result
// yields the zero R.
func DispatchAs[R any, A any](ctx context.Context, d *Dispatcher[A], actor A, msg any, fallback Fallback) (out R, err error) {
	res, err := d.Dispatch(ctx, actor, msg, fallback)
	if err != nil || res == nil {
		return out, err
	}
	out, ok := res.(R)
	if !ok {
		return out, fmt.Errorf("dispatch result %T is not %v", res, reflect.TypeFor[R]())
	}
	return out, nil
}

func (d *Dispatcher[A]) resolve(t reflect.Type) *entry[A] {
	if v, ok := d.cache.Load(t); ok {
		return v.(resolution[A]).e
	}

	// concurrent first lookups may both compute; only one result is stored
	v, _ := d.cache.LoadOrStore(t, resolution[A]{e: d.lookup(t)})
	return v.(resolution[A]).e
}

func (d *Dispatcher[A]) lookup(t reflect.Type) *entry[A] {
	if e, ok := d.exact[t]; ok {
		return e
	}

	var candidates []*entry[A]
	for _, e := range d.interfaces {
		if t.Implements(e.typ) {
			candidates = append(candidates, e)
		}
	}

	var best *entry[A]
	for _, c := range candidates {
		if dominated(c, candidates) {
			continue
		}
		if best == nil || c.priority > best.priority ||
			(c.priority == best.priority && c.order < best.order) {
			best = c
		}
	}
	return best
}

// dominated reports whether some other candidate is strictly more derived
// than c.
func dominated[A any](c *entry[A], candidates []*entry[A]) bool {
	for _, o := range candidates {
		if o != c && o.typ.Implements(c.typ) && !c.typ.Implements(o.typ) {
			return true
		}
	}
	return false
}

func isNil(msg any) bool {
	if msg == nil {
		return true
	}
	v := reflect.ValueOf(msg)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
