// Package types implements the Valley type system: a small closed set of
// primitive types plus array, function, any and class/object types, each
// interned through a Registry so that structurally-equal types share a
// single canonical Handle. Grounded on the original compiler's
// types.hpp/types.cpp (TypeRegistry, TypeComparator) and generalized from
// lib/analyzer/types.go's Type interface.
package types

import "fmt"

// Primitive enumerates the scalar built-in types, ordered the way
// maxNumericPrecision expects: earlier entries have lower numeric
// precision than later ones.
type Primitive int

const (
	Bool Primitive = iota
	Char
	Byte
	Short
	Int
	Long
	Float
	Double
	Void
	Str
	Any
)

func (p Primitive) String() string {
	switch p {
	case Bool:
		return "bool"
	case Char:
		return "char"
	case Byte:
		return "byte"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Void:
		return "void"
	case Str:
		return "str"
	case Any:
		return "any"
	default:
		return "?"
	}
}

// tag orders the sum-type's variants for the total order used when
// interning into the registry's canonical set, mirroring
// TypeComparator's variant-index-first comparison.
type tag int

const (
	tagPrimitive tag = iota
	tagArray
	tagFunc
	tagClass
	tagObject
)

// Type is a canonical, interned type value. Two Types compare equal with
// == if and only if they are structurally equal, because Registry.intern
// always returns the previously-interned Handle for an equal shape.
type Type struct {
	tag       tag
	primitive Primitive
	elem      *Type   // array element type
	ret       *Type   // func return type
	params    []*Type // func parameter types
	variadic  bool    // last param is a varargs collector
	className string  // class/object name
}

// Handle is a stable, comparable identity for an interned Type. Because the
// registry deduplicates by structural equality, two Handles are equal
// exactly when the underlying Types are structurally equal — this is what
// spec.md calls a "type handle."
type Handle = *Type

func (t *Type) Kind() string {
	switch t.tag {
	case tagPrimitive:
		return "primitive"
	case tagArray:
		return "array"
	case tagFunc:
		return "func"
	case tagClass:
		return "class"
	case tagObject:
		return "object"
	default:
		return "?"
	}
}

func (t *Type) IsPrimitive() bool  { return t.tag == tagPrimitive }
func (t *Type) IsArray() bool      { return t.tag == tagArray }
func (t *Type) IsFunc() bool       { return t.tag == tagFunc }
func (t *Type) IsClass() bool      { return t.tag == tagClass }
func (t *Type) IsObject() bool     { return t.tag == tagObject }
func (t *Type) Primitive() Primitive { return t.primitive }
func (t *Type) Elem() *Type        { return t.elem }
func (t *Type) Return() *Type      { return t.ret }
func (t *Type) Params() []*Type    { return t.params }
func (t *Type) Variadic() bool     { return t.variadic }
func (t *Type) ClassName() string  { return t.className }

// Equals reports structural equality, following TypeComparator's ordering
// rule: first the variant tag, then the payload.
func (t *Type) Equals(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.tag != o.tag {
		return false
	}
	switch t.tag {
	case tagPrimitive:
		return t.primitive == o.primitive
	case tagArray:
		return t.elem.Equals(o.elem)
	case tagFunc:
		if t.variadic != o.variadic || len(t.params) != len(o.params) || !t.ret.Equals(o.ret) {
			return false
		}
		for i := range t.params {
			if !t.params[i].Equals(o.params[i]) {
				return false
			}
		}
		return true
	case tagClass, tagObject:
		return t.className == o.className
	default:
		return false
	}
}

// less defines a total order over types: variant tag first, then
// structural comparison within the tag. This mirrors TypeComparator, which
// orders std::set<Type> entries the same way. Registry.intern does not use
// it; it deduplicates with Equals.
func (t *Type) less(o *Type) bool {
	if t.tag != o.tag {
		return t.tag < o.tag
	}
	switch t.tag {
	case tagPrimitive:
		return t.primitive < o.primitive
	case tagArray:
		return t.elem.less(o.elem)
	case tagFunc:
		if len(t.params) != len(o.params) {
			return len(t.params) < len(o.params)
		}
		if t.variadic != o.variadic {
			return !t.variadic
		}
		if !t.ret.Equals(o.ret) {
			return t.ret.less(o.ret)
		}
		for i := range t.params {
			if !t.params[i].Equals(o.params[i]) {
				return t.params[i].less(o.params[i])
			}
		}
		return false
	case tagClass, tagObject:
		return t.className < o.className
	default:
		return false
	}
}

// Repr renders a type back to Valley source syntax: "T[]" for arrays,
// "R(P1,P2,...)" for functions with a trailing "..." marking the variadic
// slot, plain names for primitives and classes, matching typeHandleRepr.
func Repr(t *Type) string {
	switch t.tag {
	case tagPrimitive:
		return t.primitive.String()
	case tagArray:
		return Repr(t.elem) + "[]"
	case tagFunc:
		parts := make([]string, len(t.params))
		for i, p := range t.params {
			s := Repr(p)
			if t.variadic && i == len(t.params)-1 {
				s += "..."
			}
			parts[i] = s
		}
		joined := ""
		for i, p := range parts {
			if i > 0 {
				joined += ","
			}
			joined += p
		}
		return fmt.Sprintf("%s(%s)", Repr(t.ret), joined)
	case tagClass:
		return t.className
	case tagObject:
		return t.className
	default:
		return "?"
	}
}

// Registry interns Types by structural equality so callers can compare
// Handles with == instead of walking structure every time, mirroring
// TypeRegistry's std::set<Type> of canonical instances.
type Registry struct {
	primitives map[Primitive]*Type
	set        []*Type // every interned type in insertion order; intern scans it linearly
}

func NewRegistry() *Registry {
	r := &Registry{primitives: make(map[Primitive]*Type)}
	for p := Bool; p <= Any; p++ {
		h := &Type{tag: tagPrimitive, primitive: p}
		r.primitives[p] = h
		r.set = append(r.set, h)
	}
	return r
}

func (r *Registry) Primitive(p Primitive) *Type { return r.primitives[p] }
func (r *Registry) Bool() *Type                 { return r.primitives[Bool] }
func (r *Registry) Char() *Type                 { return r.primitives[Char] }
func (r *Registry) Byte() *Type                 { return r.primitives[Byte] }
func (r *Registry) Short() *Type                { return r.primitives[Short] }
func (r *Registry) Int() *Type                  { return r.primitives[Int] }
func (r *Registry) Long() *Type                 { return r.primitives[Long] }
func (r *Registry) Float() *Type                { return r.primitives[Float] }
func (r *Registry) Double() *Type               { return r.primitives[Double] }
func (r *Registry) Void() *Type                 { return r.primitives[Void] }
func (r *Registry) Str() *Type                  { return r.primitives[Str] }
func (r *Registry) Any() *Type                  { return r.primitives[Any] }

// intern returns the canonical Handle structurally equal to candidate,
// inserting candidate itself if none exists yet.
func (r *Registry) intern(candidate *Type) *Type {
	for _, existing := range r.set {
		if existing.Equals(candidate) {
			return existing
		}
	}
	r.set = append(r.set, candidate)
	return candidate
}

func (r *Registry) Array(elem *Type) *Type {
	return r.intern(&Type{tag: tagArray, elem: elem})
}

func (r *Registry) Func(ret *Type, params []*Type, variadic bool) *Type {
	cp := make([]*Type, len(params))
	copy(cp, params)
	return r.intern(&Type{tag: tagFunc, ret: ret, params: cp, variadic: variadic})
}

func (r *Registry) Class(name string) *Type {
	return r.intern(&Type{tag: tagClass, className: name})
}

func (r *Registry) Object(name string) *Type {
	return r.intern(&Type{tag: tagObject, className: name})
}

// numericPrecision orders numeric types from lowest to highest precision:
// bool < char < byte < short < int < long < float < double, matching
// maxNumericPrecision in expression.cpp.
var numericPrecision = map[Primitive]int{
	Bool: 0, Char: 1, Byte: 2, Short: 3, Int: 4, Long: 5, Float: 6, Double: 7,
}

// IsNumeric reports whether t participates in the numeric widening chain.
func IsNumeric(t *Type) bool {
	if !t.IsPrimitive() {
		return false
	}
	_, ok := numericPrecision[t.primitive]
	return ok
}

// MaxNumericPrecision returns whichever of a, b has the higher numeric
// precision. Both must be numeric.
func MaxNumericPrecision(a, b *Type) *Type {
	if numericPrecision[a.primitive] >= numericPrecision[b.primitive] {
		return a
	}
	return b
}
