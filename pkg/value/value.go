// Package value implements Sald's runtime value representation.
//
// A Value is a tagged discriminated union: every runtime datum the VM
// touches — numbers, strings, arrays, class instances, closures, even the
// transient spread marker used during call-argument expansion — is one of
// the Kind variants below. Containers (Array, Dict, Instance) are reference
// types so that equality for them is Go pointer identity, matching the
// spec's reference-identity equality rule. Everything else (Null, Boolean,
// Number, String) compares structurally.
package value

import "math"

// Kind tags which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindArray
	KindDict
	KindFunction
	KindClass
	KindInstance
	KindBoundMethod
	KindInstanceMethod
	KindNativeFunction
	KindNamespace
	KindEnum
	KindFuture
	KindSpreadMarker
)

// Value is Sald's tagged runtime datum. The zero Value is Null.
type Value struct {
	kind Kind
	num  float64
	str  string
	obj  any
}

// Null is the canonical null value.
var Null = Value{kind: KindNull}

// Bool wraps a Go bool as a Sald Boolean value.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBoolean, num: 1}
	}
	return Value{kind: KindBoolean, num: 0}
}

// Number wraps a float64 as a Sald Number value. Integer-flavored
// operations coerce via truncation at the point of use, never here.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// String wraps Go text as a Sald String value. Sald strings are shared and
// immutable; this constructor does not itself intern, but callers that want
// hash-consing can do so before calling it.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Object wraps any heap-tracked or opaque runtime object (Array, Dict,
// Function, Class, Instance, BoundMethod, InstanceMethod, NativeFunction,
// Namespace, Enum, Future, or a SpreadMarker's payload) under the given Kind.
func Object(kind Kind, obj any) Value { return Value{kind: kind, obj: obj} }

// Kind reports the variant this Value holds.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the Null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload; only meaningful when Kind is KindBoolean.
func (v Value) AsBool() bool { return v.num != 0 }

// AsNumber returns the float64 payload; only meaningful when Kind is KindNumber.
func (v Value) AsNumber() float64 { return v.num }

// AsString returns the string payload; only meaningful when Kind is KindString.
func (v Value) AsString() string { return v.str }

// AsObject returns the object payload; only meaningful for object-kinded Values.
func (v Value) AsObject() any { return v.obj }

// AsInt truncates a Number toward zero, per the spec's "integer operations
// coerce via truncation" rule.
func (v Value) AsInt() int64 { return int64(v.num) }

// Truthy implements Sald's truthiness rule: only Null and Boolean(false) are
// falsey. Everything else — 0, "", [], {} — is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBoolean:
		return v.num != 0
	default:
		return true
	}
}

// Equal implements Sald's equality rule: structural for Null/Boolean/Number/
// String (with float NaN semantics preserved), reference-identity for every
// container and object kind.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBoolean:
		return a.num == b.num
	case KindNumber:
		return a.num == b.num // NaN != NaN falls out of IEEE-754 comparison
	case KindString:
		return a.str == b.str
	default:
		// Containers and objects: reference identity. Non-pointer payloads
		// (there are none among the object kinds) would fall through to
		// false, which is the conservative, spec-correct answer.
		return a.obj == b.obj
	}
}

// Root returns the object payload if v is a container or object kind the
// heap registry can track, or nil for primitive kinds. Used by Array, Dict,
// and Instance to implement heap.Tracked's Roots method.
func (v Value) Root() any {
	switch v.kind {
	case KindNull, KindBoolean, KindNumber, KindString:
		return nil
	default:
		return v.obj
	}
}

// IsNaN reports whether v is a Number holding NaN.
func (v Value) IsNaN() bool { return v.kind == KindNumber && math.IsNaN(v.num) }

// TypeName returns the lowercase Sald type name used in error messages.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindDict:
		return "dictionary"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	case KindBoundMethod, KindInstanceMethod, KindNativeFunction:
		return "method"
	case KindNamespace:
		return "namespace"
	case KindEnum:
		return "enum"
	case KindFuture:
		return "future"
	case KindSpreadMarker:
		return "spread"
	default:
		return "unknown"
	}
}
