// Package model declares the host ORM runtime's model/field/index descriptors
// that the connector core consumes (spec.md §3, §1 "host query runtime's
// abstract model descriptors"). These are data shapes, not behavior owned by
// this module — a real host populates them from its own schema definitions.
// Only the shapes and the read-only accessors the connector needs live here.
package model

// Kind is the type descriptor tag set of spec.md §3.
type Kind int

const (
	KindInt Kind = iota
	KindInt64
	KindFloat32
	KindFloat
	KindBool
	KindString
	KindObjectID
	KindDate
	KindDateTime
	KindDecimal
	KindEnumVariant
	KindArray
	KindDictionary
)

// Type is a field/property type descriptor. Array and Dictionary carry an
// Inner type; EnumVariant carries the path naming the enum in the host
// namespace. Optional marks whether this type's own occurrence may be absent
// — for Array/Dictionary inner types this is the "inner-type carries an
// optional bit" of spec.md §3.
type Type struct {
	Kind     Kind
	Inner    *Type
	EnumPath []string
	Optional bool
}

func Int() Type                  { return Type{Kind: KindInt} }
func Int64() Type                { return Type{Kind: KindInt64} }
func Float32() Type              { return Type{Kind: KindFloat32} }
func Float() Type                { return Type{Kind: KindFloat} }
func Bool() Type                 { return Type{Kind: KindBool} }
func String() Type                { return Type{Kind: KindString} }
func ObjectID() Type              { return Type{Kind: KindObjectID} }
func Date() Type                  { return Type{Kind: KindDate} }
func DateTime() Type              { return Type{Kind: KindDateTime} }
func Decimal() Type               { return Type{Kind: KindDecimal} }
func EnumVariant(path []string) Type {
	return Type{Kind: KindEnumVariant, EnumPath: path}
}
func Array(inner Type, innerOptional bool) Type {
	inner.Optional = innerOptional
	return Type{Kind: KindArray, Inner: &inner}
}
func Dictionary(inner Type, innerOptional bool) Type {
	inner.Optional = innerOptional
	return Type{Kind: KindDictionary, Inner: &inner}
}

// Name returns a human-readable name for use in decoding-error "expected"
// strings: a short lowercase noun such as "int 32" or "object id".
func (t Type) Name() string {
	switch t.Kind {
	case KindInt:
		return "int 32"
	case KindInt64:
		return "int 64"
	case KindFloat32, KindFloat:
		return "double"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindObjectID:
		return "object id"
	case KindDate, KindDateTime:
		return "datetime"
	case KindDecimal:
		return "decimal"
	case KindEnumVariant:
		return "enum"
	case KindArray:
		return "array"
	case KindDictionary:
		return "document"
	default:
		return "unknown"
	}
}
