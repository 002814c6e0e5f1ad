package sf

import "golang.org/x/sync/singleflight"

// Group deduplicates concurrent calls returning T. The zero value is ready
// to use.
type Group[T any] struct {
	group singleflight.Group
}

// Do executes fn for key unless a call for key is already in flight, in
// which case it waits for that call. shared reports whether the result was
// handed to more than one caller.
func (g *Group[T]) Do(key string, fn func() (T, error)) (out T, shared bool, err error) {
	v, err, shared := g.group.Do(key, func() (any, error) {
		return fn()
	})
	if v != nil {
		out = v.(T)
	}
	return out, shared, err
}

// Forget makes the next Do for key execute even if a call is in flight.
func (g *Group[T]) Forget(key string) {
	g.group.Forget(key)
}
