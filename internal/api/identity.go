package api

import (
	"fmt"
	"reflect"
	"strings"
)

// Type describes the type a supplier provides.
//
// Raw is the erased type name (package path and name without generic
// arguments), Params carries the generic arguments in their printed form.
// Two descriptors are equal when both fields are equal; the registry indexes
// its containers by RawType so that Box[int] and Box[string] share a key.
type Type struct {
	Raw    string
	Params string
}

// NewType builds a descriptor by name. Params may be empty.
func NewType(raw, params string) Type {
	return Type{Raw: raw, Params: params}
}

// TypeOf returns the descriptor of T.
func TypeOf[T any]() Type {
	return typeFromReflect(reflect.TypeFor[T]())
}

// TypeOfValue returns the descriptor of the dynamic type of v.
// A nil v yields the zero Type.
func TypeOfValue(v any) Type {
	if v == nil {
		return Type{}
	}
	return typeFromReflect(reflect.TypeOf(v))
}

func typeFromReflect(rt reflect.Type) Type {
	name := rt.Name()
	if name == "" {
		// Unnamed composite types ([]string, map[string]int, *Foo) have no
		// generic arguments of their own.
		return Type{Raw: rt.String()}
	}
	raw := name
	params := ""
	if i := strings.IndexByte(name, '['); i >= 0 {
		raw = name[:i]
		params = name[i:]
	}
	if pkg := rt.PkgPath(); pkg != "" {
		raw = pkg + "." + raw
	}
	return Type{Raw: raw, Params: params}
}

// IsZero reports whether the descriptor names no type.
func (t Type) IsZero() bool { return t.Raw == "" }

// RawType returns the descriptor with its generic arguments erased.
func (t Type) RawType() Type { return Type{Raw: t.Raw} }

// String returns "raw[params]".
func (t Type) String() string {
	if t.Raw == "" {
		return "<none>"
	}
	return t.Raw + t.Params
}

// Qualifier narrows an ID. The zero value means unqualified.
//
// A qualifier either carries an instance (Value) or only a qualifier type,
// mirroring "named" versus "marker" qualifiers.
type Qualifier struct {
	Type  Type
	Value any
}

// IsZero reports whether the qualifier is absent.
func (q Qualifier) IsZero() bool { return q.Type.IsZero() && q.Value == nil }

// Equal compares by instance when either side carries one, otherwise by
// qualifier type.
func (q Qualifier) Equal(o Qualifier) bool {
	if q.Value != nil || o.Value != nil {
		return valuesEqual(q.Value, o.Value)
	}
	return q.Type == o.Type
}

func (q Qualifier) String() string {
	switch {
	case q.Value != nil:
		return fmt.Sprintf("%v", q.Value)
	case !q.Type.IsZero():
		return q.Type.String()
	default:
		return ""
	}
}

func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// ID identifies a supplier registration by type and optional qualifier.
// IDs are immutable values; compare them with Equal, not ==, because
// qualifier instances may not be comparable.
type ID struct {
	Type      Type
	Qualifier Qualifier
}

// NewID returns an unqualified ID for t.
func NewID(t Type) ID {
	return ID{Type: t}
}

// NewQualifiedID returns an ID qualified by a qualifier type only.
func NewQualifiedID(t Type, qualifierType Type) ID {
	return ID{Type: t, Qualifier: Qualifier{Type: qualifierType}}
}

// NewNamedID returns an ID qualified by a qualifier instance.
func NewNamedID(t Type, value any) ID {
	return ID{Type: t, Qualifier: Qualifier{Type: TypeOfValue(value), Value: value}}
}

// IDFor returns the unqualified ID of T.
func IDFor[T any]() ID {
	return NewID(TypeOf[T]())
}

// NamedIDFor returns the ID of T qualified by value.
func NamedIDFor[T any](value any) ID {
	return NewNamedID(TypeOf[T](), value)
}

// IsZero reports whether the ID names no type.
func (id ID) IsZero() bool { return id.Type.IsZero() }

// IsQualified reports whether the ID carries a qualifier.
func (id ID) IsQualified() bool { return !id.Qualifier.IsZero() }

// Equal reports whether both IDs have the same type and qualifier.
func (id ID) Equal(o ID) bool {
	return id.Type == o.Type && id.Qualifier.Equal(o.Qualifier)
}

// Matches implements the registry's compatibility rule: an unqualified ID
// accepts any other ID of the same raw type, a qualified ID requires exact
// equality.
func (id ID) Matches(other ID) bool {
	if !id.IsQualified() && id.Type.Raw == other.Type.Raw && (id.Type.Params == "" || id.Type == other.Type) {
		return true
	}
	return id.Equal(other)
}

// String renders "type@qualifier".
func (id ID) String() string {
	if !id.IsQualified() {
		return id.Type.String()
	}
	return id.Type.String() + "@" + id.Qualifier.String()
}
