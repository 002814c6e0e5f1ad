// Package reflector provides type reflection utilities with caching.
// It derives and caches the fully qualified name of Go types, which is the
// fallback type code for actor types that do not declare their own.
package reflector

import (
	"reflect"
	"sync"
)

var cache sync.Map // reflect.Type -> TypeInfo

// TypeInfo holds metadata about a reflected type.
type TypeInfo struct {
	Name    string       // Fully qualified name: "pkg/path.TypeName"
	Type    reflect.Type // The element type for pointers, the type itself otherwise
	Pointer bool         // Whether the inspected type was a pointer
}

// Named reports whether the type has a declared name. Unnamed types
// (slices, maps, anonymous structs) use their Go syntax as Name.
func (ti TypeInfo) Named() bool {
	return ti.Type != nil && ti.Type.Name() != ""
}

// TypeInfoOf returns TypeInfo for the dynamic type of x.
func TypeInfoOf(x any) TypeInfo {
	return TypeInfoForType(reflect.TypeOf(x))
}

// TypeInfoFor returns TypeInfo for type parameter T.
func TypeInfoFor[T any]() TypeInfo {
	return TypeInfoForType(reflect.TypeFor[T]())
}

// TypeInfoForType returns TypeInfo for the given reflect.Type. Pointer
// types resolve to their element type. Safe for concurrent use.
func TypeInfoForType(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{}
	}

	if v, ok := cache.Load(t); ok {
		return v.(TypeInfo)
	}

	ti := TypeInfo{Type: t}
	if t.Kind() == reflect.Pointer {
		ti.Pointer = true
		ti.Type = t.Elem()
	}
	ti.Name = nameOf(ti.Type)

	v, _ := cache.LoadOrStore(t, ti)
	return v.(TypeInfo)
}

func nameOf(t reflect.Type) string {
	if t.Name() == "" || t.PkgPath() == "" {
		// builtin or unnamed: "string", "[]int", "struct { ... }"
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
