package reflector

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Name string
}

type anotherStruct struct {
	Value int
}

const testStructName = "github.com/codewandler/grain-go/core/reflector.testStruct"

func TestTypeInfoOf(t *testing.T) {
	ti := TypeInfoOf(testStruct{Name: "test"})

	require.Equal(t, testStructName, ti.Name)
	require.Equal(t, "testStruct", ti.Type.Name())
	require.False(t, ti.Pointer)
	require.True(t, ti.Named())
}

func TestTypeInfoOf_Pointer(t *testing.T) {
	ti := TypeInfoOf(&testStruct{Name: "test"})

	require.Equal(t, testStructName, ti.Name)
	require.NotEqual(t, reflect.Pointer, ti.Type.Kind())
	require.True(t, ti.Pointer)
}

func TestTypeInfoFor(t *testing.T) {
	require.Equal(t, testStructName, TypeInfoFor[testStruct]().Name)
	require.Equal(t, testStructName, TypeInfoFor[*testStruct]().Name)
}

func TestTypeInfoForType_Unnamed(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want string
	}{
		{reflect.TypeFor[string](), "string"},
		{reflect.TypeFor[[]int](), "[]int"},
		{reflect.TypeFor[map[string]bool](), "map[string]bool"},
	}
	for _, tt := range tests {
		ti := TypeInfoForType(tt.typ)
		require.Equal(t, tt.want, ti.Name)
	}
}

func TestTypeInfoForType_Nil(t *testing.T) {
	ti := TypeInfoForType(nil)
	require.Empty(t, ti.Name)
	require.Nil(t, ti.Type)
}

func TestTypeInfo_Cached(t *testing.T) {
	ti1 := TypeInfoOf(testStruct{})
	ti2 := TypeInfoOf(testStruct{})
	require.Equal(t, ti1, ti2)

	_, ok := cache.Load(reflect.TypeFor[testStruct]())
	require.True(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	const goroutines = 100
	const iterations = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				_ = TypeInfoOf(testStruct{})
				_ = TypeInfoFor[anotherStruct]()
				_ = TypeInfoForType(reflect.TypeFor[string]())
			}
		}()
	}

	wg.Wait()
}
