package connector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/teodevgroup/teo-mongodb-connector/dberrors"
	"github.com/teodevgroup/teo-mongodb-connector/keypath"
	"github.com/teodevgroup/teo-mongodb-connector/model"
	"github.com/teodevgroup/teo-mongodb-connector/teon"
)

func testModel() *model.Model {
	return &model.Model{ModelName: "widget"}
}

func rawValueOf(t *testing.T, v any) bson.RawValue {
	t.Helper()
	data, err := bson.Marshal(bson.D{{Key: "v", Value: v}})
	require.NoError(t, err)
	return bson.Raw(data).Lookup("v")
}

func TestBsonCodecEncode(t *testing.T) {
	codec := BsonCodec{}

	t.Run("int coercible from i64", func(t *testing.T) {
		b, err := codec.EncodeBson(model.Int(), teon.I64(7))
		require.NoError(t, err)
		assert.Equal(t, int32(7), b)
	})

	t.Run("int not coercible encodes null", func(t *testing.T) {
		b, err := codec.EncodeBson(model.Int(), teon.String("nope"))
		require.NoError(t, err)
		assert.Nil(t, b)
	})

	t.Run("int64 coercible from i32", func(t *testing.T) {
		b, err := codec.EncodeBson(model.Int64(), teon.I32(3))
		require.NoError(t, err)
		assert.Equal(t, int64(3), b)
	})

	t.Run("decimal is rejected", func(t *testing.T) {
		_, err := codec.EncodeBson(model.Decimal(), teon.Decimal("1.50"))
		require.ErrorIs(t, err, dberrors.ErrProgrammer)
	})

	t.Run("string passes through TeonValueToBson", func(t *testing.T) {
		b, err := codec.EncodeBson(model.String(), teon.String("hello"))
		require.NoError(t, err)
		assert.Equal(t, "hello", b)
	})
}

func TestBsonCodecDecode(t *testing.T) {
	codec := BsonCodec{}
	m := testModel()
	ns := newFakeNamespace(m)

	t.Run("object id round trips", func(t *testing.T) {
		oid := primitive.NewObjectID()
		v, err := codec.Decode(ns, m, model.ObjectID(), false, rawValueOf(t, oid), keypath.Root())
		require.NoError(t, err)
		got, ok := v.AsObjectID()
		require.True(t, ok)
		assert.Equal(t, oid, got)
	})

	t.Run("int 32 mismatch produces a scoped decoding error", func(t *testing.T) {
		_, err := codec.Decode(ns, m, model.Int(), false, rawValueOf(t, "not an int"), keypath.Root().Key("count"))
		require.ErrorIs(t, err, dberrors.ErrDecoding)
		assert.Contains(t, err.Error(), "widget")
		assert.Contains(t, err.Error(), "count")
		assert.Contains(t, err.Error(), "int 32")
	})

	t.Run("null decodes to Null when optional", func(t *testing.T) {
		v, err := codec.Decode(ns, m, model.String(), true, rawValueOf(t, nil), keypath.Root())
		require.NoError(t, err)
		assert.True(t, v.IsNull())
	})

	t.Run("null fails when not optional", func(t *testing.T) {
		_, err := codec.Decode(ns, m, model.String(), false, rawValueOf(t, nil), keypath.Root())
		require.Error(t, err)
	})

	t.Run("decimal always fails", func(t *testing.T) {
		_, err := codec.Decode(ns, m, model.Decimal(), true, rawValueOf(t, "1.5"), keypath.Root())
		require.ErrorIs(t, err, dberrors.ErrProgrammer)
	})

	t.Run("date keeps only the date portion", func(t *testing.T) {
		ts := time.Date(2026, time.March, 4, 13, 45, 0, 0, time.UTC)
		v, err := codec.Decode(ns, m, model.Date(), false, rawValueOf(t, primitive.NewDateTimeFromTime(ts)), keypath.Root())
		require.NoError(t, err)
		got, ok := v.AsDate()
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("array decodes each element with an indexed path", func(t *testing.T) {
		arrType := model.Array(model.Int(), false)
		v, err := codec.Decode(ns, m, arrType, false, rawValueOf(t, bson.A{int32(1), int32(2)}), keypath.Root())
		require.NoError(t, err)
		arr, ok := v.AsArray()
		require.True(t, ok)
		require.Len(t, arr, 2)
		a0, _ := arr[0].AsI32()
		a1, _ := arr[1].AsI32()
		assert.Equal(t, int32(1), a0)
		assert.Equal(t, int32(2), a1)
	})

	t.Run("dictionary decodes each field preserving insertion order", func(t *testing.T) {
		dictType := model.Dictionary(model.String(), false)
		v, err := codec.Decode(ns, m, dictType, false, rawValueOf(t, bson.D{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}}), keypath.Root())
		require.NoError(t, err)
		dict, ok := v.AsDictionary()
		require.True(t, ok)
		assert.Equal(t, []string{"b", "a"}, dict.Keys())
	})

	t.Run("enum decodes a declared member", func(t *testing.T) {
		enumNS := newFakeNamespace(m)
		enumNS.setEnum([]string{"status"}, []string{"active", "inactive"})
		enumType := model.EnumVariant([]string{"status"})
		v, err := codec.Decode(enumNS, m, enumType, false, rawValueOf(t, "active"), keypath.Root())
		require.NoError(t, err)
		ev, ok := v.AsEnumVariant()
		require.True(t, ok)
		assert.Equal(t, "active", ev.Member)
	})

	t.Run("enum rejects an undeclared member", func(t *testing.T) {
		enumNS := newFakeNamespace(m)
		enumNS.setEnum([]string{"status"}, []string{"active", "inactive"})
		enumType := model.EnumVariant([]string{"status"})
		_, err := codec.Decode(enumNS, m, enumType, false, rawValueOf(t, "deleted"), keypath.Root())
		require.ErrorIs(t, err, dberrors.ErrDecoding)
	})

	t.Run("enum with unknown namespace path fails", func(t *testing.T) {
		enumType := model.EnumVariant([]string{"status"})
		_, err := codec.Decode(ns, m, enumType, false, rawValueOf(t, "active"), keypath.Root())
		require.ErrorIs(t, err, dberrors.ErrDecoding)
	})
}

func TestTeonValueToBson(t *testing.T) {
	t.Run("null", func(t *testing.T) {
		assert.Nil(t, TeonValueToBson(teon.Null()))
	})

	t.Run("array recurses element-wise", func(t *testing.T) {
		got := TeonValueToBson(teon.Array(teon.I32(1), teon.String("x")))
		assert.Equal(t, bson.A{int32(1), "x"}, got)
	})

	t.Run("dictionary preserves key order", func(t *testing.T) {
		dict := teon.NewDict().Set("z", teon.I32(1)).Set("a", teon.I32(2))
		got := TeonValueToBson(teon.NewDictionary(dict))
		assert.Equal(t, bson.D{{Key: "z", Value: int32(1)}, {Key: "a", Value: int32(2)}}, got)
	})

	t.Run("decimal panics", func(t *testing.T) {
		assert.Panics(t, func() {
			TeonValueToBson(teon.Decimal("1.5"))
		})
	})
}
