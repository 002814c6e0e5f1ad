package typecode

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type (
	plainActor  struct{}
	codedActor  struct{}
	codedByPtr  struct{}
	clashActorA struct{}
	clashActorB struct{}
	emptyCoded  struct{}
)

func (codedActor) TypeCode() string { return "coded" }
func (*codedByPtr) TypeCode() string { return "coded-ptr" }
func (clashActorA) TypeCode() string { return "clash" }
func (clashActorB) TypeCode() string { return "clash" }
func (emptyCoded) TypeCode() string { return "" }

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want string
	}{
		{"fully qualified name", reflect.TypeFor[plainActor](), "github.com/codewandler/grain-go/core/typecode.plainActor"},
		{"pointer uses element", reflect.TypeFor[*plainActor](), "github.com/codewandler/grain-go/core/typecode.plainActor"},
		{"value receiver override", reflect.TypeFor[codedActor](), "coded"},
		{"value receiver override via pointer", reflect.TypeFor[*codedActor](), "coded"},
		{"pointer receiver override", reflect.TypeFor[codedByPtr](), "coded-ptr"},
		{"empty override falls back", reflect.TypeFor[emptyCoded](), "github.com/codewandler/grain-go/core/typecode.emptyCoded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CodeOf(tt.typ))
		})
	}

	require.Equal(t, "coded", CodeFor[codedActor]())
}

func TestRegistry_RoundTrip(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterType[plainActor](r))
	require.NoError(t, RegisterType[codedActor](r))
	require.NoError(t, RegisterType[*codedByPtr](r))

	for _, typ := range []reflect.Type{
		reflect.TypeFor[plainActor](),
		reflect.TypeFor[codedActor](),
		reflect.TypeFor[codedByPtr](),
	} {
		code, err := r.ResolveCode(typ)
		require.NoError(t, err)

		resolved, err := r.ResolveType(code)
		require.NoError(t, err)
		require.Equal(t, typ, resolved)

		back, err := r.ResolveCode(resolved)
		require.NoError(t, err)
		require.Equal(t, code, back)
	}

	require.Equal(t, 3, r.Len())
	require.Equal(t, []string{"coded", "coded-ptr", "github.com/codewandler/grain-go/core/typecode.plainActor"}, r.Codes())
}

func TestRegistry_DuplicateCode(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterType[clashActorA](r))

	err := RegisterType[clashActorB](r)
	require.ErrorIs(t, err, ErrDuplicateTypeCode)

	var dupErr *DuplicateTypeCodeError
	require.ErrorAs(t, err, &dupErr)
	require.Equal(t, "clash", dupErr.Code)
	require.Equal(t, reflect.TypeFor[clashActorA](), dupErr.Existing)

	// no partial mutation
	typ, err := r.ResolveType("clash")
	require.NoError(t, err)
	require.Equal(t, reflect.TypeFor[clashActorA](), typ)

	_, err = r.ResolveCode(reflect.TypeFor[clashActorB]())
	require.ErrorIs(t, err, ErrUnknownType)
	require.Equal(t, 1, r.Len())
}

func TestRegistry_AlreadyRegistered(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterType[codedActor](r))
	require.ErrorIs(t, RegisterType[codedActor](r), ErrAlreadyRegistered)
	require.ErrorIs(t, RegisterType[*codedActor](r), ErrAlreadyRegistered)
	require.NotErrorIs(t, RegisterType[*codedActor](r), ErrDuplicateTypeCode)
}

func TestRegistry_MustRegister(t *testing.T) {
	r := NewRegistry()
	require.NotPanics(t, func() { r.MustRegister(reflect.TypeFor[plainActor]()) })
	require.Panics(t, func() { r.MustRegister(reflect.TypeFor[plainActor]()) })
	require.ErrorIs(t, r.Register(nil), ErrNilType)
}

func TestRegistry_Unknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.ResolveType("nope")
	require.ErrorIs(t, err, ErrUnknownTypeCode)
	require.ErrorContains(t, err, `"nope"`)

	_, err = r.ResolveCode(reflect.TypeFor[plainActor]())
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterType[codedActor](r))

	r.Reset()

	_, err := r.ResolveType("anything")
	require.ErrorIs(t, err, ErrUnknownTypeCode)
	_, err = r.ResolveType("coded")
	require.ErrorIs(t, err, ErrUnknownTypeCode)
	require.Zero(t, r.Len())

	// usable again after reset
	require.NoError(t, RegisterType[codedActor](r))
}

func TestRegistry_ConcurrentRegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	types := []reflect.Type{
		reflect.TypeFor[plainActor](),
		reflect.TypeFor[codedActor](),
		reflect.TypeFor[codedByPtr](),
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		errs int
	)
	for range 50 {
		for _, typ := range types {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := r.Register(typ)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					oks++
				} else {
					errs++
				}
			}()
		}
	}
	wg.Wait()

	require.Equal(t, len(types), oks)
	require.Equal(t, 50*len(types)-len(types), errs)

	wg.Add(100)
	for range 100 {
		go func() {
			defer wg.Done()
			for _, typ := range types {
				code, err := r.ResolveCode(typ)
				if err != nil {
					t.Error(err)
					return
				}
				if _, err := r.ResolveType(code); err != nil {
					t.Error(err)
				}
			}
		}()
	}
	wg.Wait()
}
