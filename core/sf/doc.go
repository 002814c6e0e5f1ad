// Package sf provides a generic single-flight mechanism for deduplicating
// concurrent function calls with the same key.
//
// If multiple goroutines call [Group.Do] with the same key while a call is
// in flight, only the first executes the function; the others wait and
// receive the same result. Nothing is cached once the call returns.
//
//	var activations sf.Group[*activation]
//
//	act, shared, err := activations.Do(id.String(), func() (*activation, error) {
//	    return activate(ctx, id)
//	})
package sf
