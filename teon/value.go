// Package teon implements the tagged value union that flows between the host
// query runtime and the MongoDB connector core. It is the Go counterpart of
// teo_teon::value::Value in the original Rust implementation, minus the
// literal/parsing machinery (the `teon!` macro and the TEON text format),
// which remains a host concern.
package teon

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Tag identifies which variant of Value is populated.
type Tag int

const (
	TagNull Tag = iota
	TagBool
	TagI32
	TagI64
	TagF32
	TagF64
	TagDecimal
	TagString
	TagObjectID
	TagDate
	TagDateTime
	TagEnumVariant
	TagArray
	TagDictionary
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagI32:
		return "i32"
	case TagI64:
		return "i64"
	case TagF32:
		return "f32"
	case TagF64:
		return "f64"
	case TagDecimal:
		return "decimal"
	case TagString:
		return "string"
	case TagObjectID:
		return "objectId"
	case TagDate:
		return "date"
	case TagDateTime:
		return "dateTime"
	case TagEnumVariant:
		return "enumVariant"
	case TagArray:
		return "array"
	case TagDictionary:
		return "dictionary"
	default:
		return "unknown"
	}
}

// EnumVariant names a single member of a declared enum.
type EnumVariant struct {
	EnumPath []string
	Member   string
}

// Value is the tagged union described in spec.md §3. The zero Value is Null.
type Value struct {
	tag Tag

	b     bool
	i32   int32
	i64   int64
	f32   float32
	f64   float64
	str   string
	oid   primitive.ObjectID
	date  time.Time
	dt    time.Time
	enum  EnumVariant
	arr   []Value
	dict  *Dictionary
}

// Null returns the Null value.
func Null() Value { return Value{tag: TagNull} }

func Bool(b bool) Value   { return Value{tag: TagBool, b: b} }
func I32(i int32) Value   { return Value{tag: TagI32, i32: i} }
func I64(i int64) Value   { return Value{tag: TagI64, i64: i} }
func F32(f float32) Value { return Value{tag: TagF32, f32: f} }
func F64(f float64) Value { return Value{tag: TagF64, f64: f} }
func String(s string) Value { return Value{tag: TagString, str: s} }
func ObjectID(id primitive.ObjectID) Value { return Value{tag: TagObjectID, oid: id} }

// Date stores the date-only portion of t (local-naive UTC date, per spec.md §4.2).
func Date(t time.Time) Value {
	y, m, d := t.Date()
	return Value{tag: TagDate, date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateTime stores a full timestamp.
func DateTime(t time.Time) Value { return Value{tag: TagDateTime, dt: t} }

func Enum(enumPath []string, member string) Value {
	return Value{tag: TagEnumVariant, enum: EnumVariant{EnumPath: enumPath, Member: member}}
}

func Array(vs ...Value) Value { return Value{tag: TagArray, arr: vs} }

// NewDictionary wraps an ordered, insertion-ordered key→Value map as a Value.
func NewDictionary(d *Dictionary) Value {
	if d == nil {
		d = NewDict()
	}
	return Value{tag: TagDictionary, dict: d}
}

// Decimal constructs a Decimal-tagged value. The MongoDB connector core never
// accepts this tag past the codec boundary (spec.md §2, §4.2, §9); it exists
// only so the host's Value type is representable here for completeness.
func Decimal(raw string) Value { return Value{tag: TagDecimal, str: raw} }

func (v Value) Tag() Tag    { return v.tag }
func (v Value) IsNull() bool { return v.tag == TagNull }

func (v Value) AsBool() (bool, bool) {
	if v.tag != TagBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsI32() (int32, bool) {
	if v.tag != TagI32 {
		return 0, false
	}
	return v.i32, true
}

func (v Value) AsI64() (int64, bool) {
	if v.tag != TagI64 {
		return 0, false
	}
	return v.i64, true
}

func (v Value) AsF32() (float32, bool) {
	if v.tag != TagF32 {
		return 0, false
	}
	return v.f32, true
}

func (v Value) AsF64() (float64, bool) {
	if v.tag != TagF64 {
		return 0, false
	}
	return v.f64, true
}

func (v Value) AsString() (string, bool) {
	if v.tag != TagString {
		return "", false
	}
	return v.str, true
}

func (v Value) AsDecimalRaw() (string, bool) {
	if v.tag != TagDecimal {
		return "", false
	}
	return v.str, true
}

func (v Value) AsObjectID() (primitive.ObjectID, bool) {
	if v.tag != TagObjectID {
		return primitive.ObjectID{}, false
	}
	return v.oid, true
}

func (v Value) AsDate() (time.Time, bool) {
	if v.tag != TagDate {
		return time.Time{}, false
	}
	return v.date, true
}

func (v Value) AsDateTime() (time.Time, bool) {
	if v.tag != TagDateTime {
		return time.Time{}, false
	}
	return v.dt, true
}

func (v Value) AsEnumVariant() (EnumVariant, bool) {
	if v.tag != TagEnumVariant {
		return EnumVariant{}, false
	}
	return v.enum, true
}

func (v Value) AsArray() ([]Value, bool) {
	if v.tag != TagArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) AsDictionary() (*Dictionary, bool) {
	if v.tag != TagDictionary {
		return nil, false
	}
	return v.dict, true
}

// AsIntCoercible reports whether the value can stand in for a 32-bit integer
// field (spec.md §4.2 "Int → Bson.Int32 if value is integer-coercible").
func (v Value) AsIntCoercible() (int32, bool) {
	switch v.tag {
	case TagI32:
		return v.i32, true
	case TagI64:
		return int32(v.i64), true
	default:
		return 0, false
	}
}

// AsInt64Coercible is the Int64 analogue of AsIntCoercible.
func (v Value) AsInt64Coercible() (int64, bool) {
	switch v.tag {
	case TagI32:
		return int64(v.i32), true
	case TagI64:
		return v.i64, true
	default:
		return 0, false
	}
}

// Get navigates one level into a Dictionary value by key. It returns the zero
// Value and false if v is not a dictionary or the key is absent — a
// convenience used when interpreting finder shapes (select/include/take).
func (v Value) Get(key string) (Value, bool) {
	if v.tag != TagDictionary || v.dict == nil {
		return Value{}, false
	}
	return v.dict.Get(key)
}

// Neg negates a numeric value, used to translate "decrement" into a negated
// "$inc" operand (spec.md §4.3.3).
func (v Value) Neg() Value {
	switch v.tag {
	case TagI32:
		return I32(-v.i32)
	case TagI64:
		return I64(-v.i64)
	case TagF32:
		return F32(-v.f32)
	case TagF64:
		return F64(-v.f64)
	default:
		return v
	}
}

// Reciprocal returns the absolute value of 1/v as an F64, the exact (and, per
// spec.md's Open Questions, sign-losing) semantics the source connector uses
// to translate "divide" into a "$mul" operand.
func (v Value) Reciprocal() Value {
	var f float64
	switch v.tag {
	case TagI32:
		f = float64(v.i32)
	case TagI64:
		f = float64(v.i64)
	case TagF32:
		f = float64(v.f32)
	case TagF64:
		f = v.f64
	default:
		return Null()
	}
	r := 1 / f
	if r < 0 {
		r = -r
	}
	return F64(r)
}
