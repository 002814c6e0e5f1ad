package typecode

import (
	"reflect"
	"sort"
	"sync"

	"github.com/codewandler/grain-go/core/reflector"
)

// TypeCoder is implemented by types that declare their own type code.
// The method is called on a zero value and must not depend on its state.
type TypeCoder interface {
	TypeCode() string
}

var typeCoderType = reflect.TypeFor[TypeCoder]()

// CodeOf derives the code for t without registering it.
func CodeOf(t reflect.Type) string {
	ti := reflector.TypeInfoForType(t)
	if ti.Type == nil {
		return ""
	}

	// *T carries the method sets of both T and *T
	if ti.Type.Kind() != reflect.Interface && reflect.PointerTo(ti.Type).Implements(typeCoderType) {
		if code := reflect.New(ti.Type).Interface().(TypeCoder).TypeCode(); code != "" {
			return code
		}
	}

	return ti.Name
}

// CodeFor derives the code for T without registering it.
func CodeFor[T any]() string {
	return CodeOf(reflect.TypeFor[T]())
}

// Registry is a bidirectional type <-> code mapping.
type Registry struct {
	mu    sync.RWMutex
	codes map[string]reflect.Type
	types map[reflect.Type]string
}

func NewRegistry() *Registry {
	return &Registry{
		codes: make(map[string]reflect.Type),
		types: make(map[reflect.Type]string),
	}
}

// Register binds t to CodeOf(t). It fails without mutating the registry
// when the code is taken by another type or t is already registered.
func (r *Registry) Register(t reflect.Type) error {
	if t == nil {
		return ErrNilType
	}
	t = normalize(t)
	code := CodeOf(t)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.codes[code]; ok {
		if existing != t {
			return &DuplicateTypeCodeError{Code: code, Existing: existing, Type: t}
		}
		return &AlreadyRegisteredError{Type: t}
	}

	r.codes[code] = t
	r.types[t] = code
	return nil
}

// MustRegister is like Register but panics on error. Intended for package
// init functions.
func (r *Registry) MustRegister(t reflect.Type) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// RegisterType registers T with r.
func RegisterType[T any](r *Registry) error {
	return r.Register(reflect.TypeFor[T]())
}

func (r *Registry) ResolveType(code string) (reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.codes[code]
	if !ok {
		return nil, &UnknownTypeCodeError{Code: code}
	}
	return t, nil
}

func (r *Registry) ResolveCode(t reflect.Type) (string, error) {
	t = normalize(t)

	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.types[t]
	if !ok {
		return "", &UnknownTypeError{Type: t}
	}
	return code, nil
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codes)
}

// Codes returns all registered codes in sorted order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	codes := make([]string, 0, len(r.codes))
	for c := range r.codes {
		codes = append(codes, c)
	}
	r.mu.RUnlock()

	sort.Strings(codes)
	return codes
}

// Reset clears the registry. Not safe while other calls are in flight.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.codes)
	clear(r.types)
}

// normalize maps *T and T to the same registry key.
func normalize(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}
