package connector

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/teodevgroup/teo-mongodb-connector/dberrors"
	"github.com/teodevgroup/teo-mongodb-connector/keypath"
	"github.com/teodevgroup/teo-mongodb-connector/model"
	"github.com/teodevgroup/teo-mongodb-connector/teon"
)

// BsonCodec is the bidirectional, type-directed mapping between runtime
// Values and BSON described in spec.md §4.2 (C2). Because teon.Value is
// already a tagged union rather than a property tree requiring traversal,
// this codec is a pair of short, directly-dispatched recursive functions
// rather than a visitor walking a tree one sub-property at a time.
type BsonCodec struct{}

// Encode converts value, which is declared to have type t, to its BSON
// representation. Encode is total over every declared scalar kind except
// Decimal, which always fails (spec.md §2 Non-goals, §4.2).
func (BsonCodec) Encode(t model.Type, value teon.Value) (bson.RawValue, error) {
	b, err := encodeToBson(t, value)
	if err != nil {
		return bson.RawValue{}, err
	}
	return toRawValue(b), nil
}

// EncodeBson is the same mapping as Encode but returns the bson.Bson-shaped
// value (any) directly, which is what callers building insert/update
// documents need rather than a bson.RawValue.
func (BsonCodec) EncodeBson(t model.Type, value teon.Value) (any, error) {
	return encodeToBson(t, value)
}

func encodeToBson(t model.Type, value teon.Value) (any, error) {
	switch t.Kind {
	case model.KindInt:
		if i, ok := value.AsIntCoercible(); ok {
			return int32(i), nil
		}
		return nil, nil
	case model.KindInt64:
		if i, ok := value.AsInt64Coercible(); ok {
			return i, nil
		}
		return nil, nil
	case model.KindDecimal:
		return nil, dberrors.DecimalUnsupported(keypath.Root())
	default:
		return TeonValueToBson(value), nil
	}
}

// Decode converts a BSON value read off the wire back into a runtime Value
// typed t. model is used only to scope decoding errors with the owning
// model's name (spec.md §4.2, §6). optional permits a BSON null to decode as
// Value Null instead of failing. ns resolves declared enum membership for
// KindEnumVariant fields; a string whose value is not a member of the
// declared enum is a decoding error, not merely any string (spec.md §4.2).
func (BsonCodec) Decode(ns model.Namespace, m *model.Model, t model.Type, optional bool, v bson.RawValue, path keypath.KeyPath) (teon.Value, error) {
	if v.Type == bson.TypeNull && optional {
		return teon.Null(), nil
	}
	switch t.Kind {
	case model.KindObjectID:
		oid, ok := asObjectID(v)
		if !ok {
			return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, t.Name())
		}
		return teon.ObjectID(oid), nil
	case model.KindBool:
		b, ok := asBool(v)
		if !ok {
			return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, t.Name())
		}
		return teon.Bool(b), nil
	case model.KindInt:
		n, ok := asInt32(v)
		if !ok {
			return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, t.Name())
		}
		return teon.I32(n), nil
	case model.KindInt64:
		n, ok := asInt64(v)
		if !ok {
			return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, t.Name())
		}
		return teon.I64(n), nil
	case model.KindFloat32:
		n, ok := asDouble(v)
		if !ok {
			return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, t.Name())
		}
		// Narrowing to 32 bits is lossy by design (spec.md §4.2, §9): only
		// representable-range values are guaranteed to round trip.
		return teon.F32(float32(n)), nil
	case model.KindFloat:
		n, ok := asDouble(v)
		if !ok {
			return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, t.Name())
		}
		return teon.F64(n), nil
	case model.KindDecimal:
		return teon.Value{}, dberrors.DecimalUnsupported(path)
	case model.KindString:
		s, ok := asString(v)
		if !ok {
			return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, t.Name())
		}
		return teon.String(s), nil
	case model.KindDate:
		dt, ok := asDateTime(v)
		if !ok {
			return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, t.Name())
		}
		// Date-only: keep the local-naive UTC date portion (spec.md §4.2).
		y, mo, d := dt.UTC().Date()
		return teon.Date(time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)), nil
	case model.KindDateTime:
		dt, ok := asDateTime(v)
		if !ok {
			return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, t.Name())
		}
		return teon.DateTime(dt), nil
	case model.KindEnumVariant:
		s, ok := asString(v)
		if !ok {
			return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, t.Name())
		}
		enumName := pathJoin(t.EnumPath)
		members, found := ns.EnumMembers(t.EnumPath)
		if !found {
			return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, "string value for enum `"+enumName+"'")
		}
		for _, mem := range members {
			if mem == s {
				return teon.Enum(t.EnumPath, s), nil
			}
		}
		return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, "string value for enum `"+enumName+"'")
	case model.KindArray:
		arr, ok := asArray(v)
		if !ok {
			return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, t.Name())
		}
		out := make([]teon.Value, len(arr))
		for i, elem := range arr {
			decoded, err := (BsonCodec{}).Decode(ns, m, *t.Inner, t.Inner.Optional, elem, path.Index(i))
			if err != nil {
				return teon.Value{}, err
			}
			out[i] = decoded
		}
		return teon.Array(out...), nil
	case model.KindDictionary:
		doc, ok := asDocument(v)
		if !ok {
			return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, t.Name())
		}
		dict := teon.NewDict()
		elems, _ := doc.Elements()
		for _, e := range elems {
			decoded, err := (BsonCodec{}).Decode(ns, m, *t.Inner, t.Inner.Optional, e.Value(), path.Key(e.Key()))
			if err != nil {
				return teon.Value{}, err
			}
			dict.Set(e.Key(), decoded)
		}
		return teon.NewDictionary(dict), nil
	default:
		return teon.Value{}, dberrors.RecordDecodingError(m.Name(), path, t.Name())
	}
}

func pathJoin(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}

// TeonValueToBson is teon_value_to_bson, the non-type-directed canonical
// encoder used for identifiers and atomic-updater operands (spec.md §6).
func TeonValueToBson(v teon.Value) any {
	switch v.Tag() {
	case teon.TagNull:
		return nil
	case teon.TagObjectID:
		oid, _ := v.AsObjectID()
		return oid
	case teon.TagBool:
		b, _ := v.AsBool()
		return b
	case teon.TagI32:
		i, _ := v.AsI32()
		return i
	case teon.TagI64:
		i, _ := v.AsI64()
		return i
	case teon.TagF32:
		f, _ := v.AsF32()
		return float64(f)
	case teon.TagF64:
		f, _ := v.AsF64()
		return f
	case teon.TagString:
		s, _ := v.AsString()
		return s
	case teon.TagDate:
		d, _ := v.AsDate()
		return primitive.NewDateTimeFromTime(time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
	case teon.TagDateTime:
		t, _ := v.AsDateTime()
		return primitive.NewDateTimeFromTime(t)
	case teon.TagArray:
		arr, _ := v.AsArray()
		out := bson.A{}
		for _, e := range arr {
			out = append(out, TeonValueToBson(e))
		}
		return out
	case teon.TagDictionary:
		dict, _ := v.AsDictionary()
		doc := bson.D{}
		dict.Range(func(k string, val teon.Value) bool {
			doc = append(doc, bson.E{Key: k, Value: TeonValueToBson(val)})
			return true
		})
		return doc
	case teon.TagEnumVariant:
		ev, _ := v.AsEnumVariant()
		return ev.Member
	case teon.TagDecimal:
		panic("Decimal is not implemented by MongoDB.")
	default:
		panic("cannot convert to Bson value")
	}
}

func toRawValue(v any) bson.RawValue {
	data, err := bson.Marshal(bson.D{{Key: "v", Value: v}})
	if err != nil {
		return bson.RawValue{}
	}
	raw := bson.Raw(data)
	return raw.Lookup("v")
}

func asObjectID(v bson.RawValue) (primitive.ObjectID, bool) {
	if v.Type != bson.TypeObjectID {
		return primitive.ObjectID{}, false
	}
	return v.ObjectID(), true
}

func asBool(v bson.RawValue) (bool, bool) {
	if v.Type != bson.TypeBoolean {
		return false, false
	}
	return v.Boolean(), true
}

func asInt32(v bson.RawValue) (int32, bool) {
	if v.Type != bson.TypeInt32 {
		return 0, false
	}
	return v.Int32(), true
}

func asInt64(v bson.RawValue) (int64, bool) {
	if v.Type != bson.TypeInt64 {
		return 0, false
	}
	return v.Int64(), true
}

func asDouble(v bson.RawValue) (float64, bool) {
	if v.Type != bson.TypeDouble {
		return 0, false
	}
	return v.Double(), true
}

func asString(v bson.RawValue) (string, bool) {
	if v.Type != bson.TypeString {
		return "", false
	}
	return v.StringValue(), true
}

func asDateTime(v bson.RawValue) (time.Time, bool) {
	if v.Type != bson.TypeDateTime {
		return time.Time{}, false
	}
	return v.Time(), true
}

func asArray(v bson.RawValue) ([]bson.RawValue, bool) {
	if v.Type != bson.TypeArray {
		return nil, false
	}
	arr, err := v.Array().Values()
	if err != nil {
		return nil, false
	}
	return arr, true
}

func asDocument(v bson.RawValue) (bson.Raw, bool) {
	if v.Type != bson.TypeEmbeddedDocument {
		return nil, false
	}
	return v.Document(), true
}
