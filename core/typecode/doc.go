// Package typecode maintains the bijective mapping between actor types and
// the short, stable string codes used to address them.
//
// A type's code is derived by [CodeOf]: types implementing [TypeCoder]
// supply their own code, all other types use their fully qualified name.
//
//	type Lightbulb struct{ ... }
//	func (*Lightbulb) TypeCode() string { return "lightbulb" }
//
//	reg := typecode.NewRegistry()
//	if err := typecode.RegisterType[*Lightbulb](reg); err != nil {
//	    return err // duplicate or conflicting code: do not start
//	}
//	code, _ := reg.ResolveCode(reflect.TypeFor[*Lightbulb]()) // "lightbulb"
//
// Registration is meant to happen once at startup. Lookups are safe for
// concurrent use afterwards. Tests construct a fresh [Registry] instead of
// sharing one.
package typecode
