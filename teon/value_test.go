package teon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAccessorsRejectWrongTag(t *testing.T) {
	v := String("hi")
	_, ok := v.AsI32()
	assert.False(t, ok)

	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "hi", s)
}

func TestAsIntCoercible(t *testing.T) {
	i, ok := I64(9).AsIntCoercible()
	require.True(t, ok)
	assert.Equal(t, int32(9), i)

	_, ok = String("x").AsIntCoercible()
	assert.False(t, ok)
}

func TestNeg(t *testing.T) {
	got, ok := I32(5).Neg().AsI32()
	require.True(t, ok)
	assert.Equal(t, int32(-5), got)

	got64, ok := I64(5).Neg().AsI64()
	require.True(t, ok)
	assert.Equal(t, int64(-5), got64)
}

func TestReciprocalIsSignLosing(t *testing.T) {
	r, ok := F64(-4).Reciprocal().AsF64()
	require.True(t, ok)
	assert.Equal(t, 0.25, r)

	r, ok = F64(4).Reciprocal().AsF64()
	require.True(t, ok)
	assert.Equal(t, 0.25, r)
}

func TestReciprocalOfNonNumericIsNull(t *testing.T) {
	assert.True(t, String("x").Reciprocal().IsNull())
}

func TestGetNavigatesDictionary(t *testing.T) {
	dict := NewDict().Set("a", I32(1))
	v := NewDictionary(dict)

	got, ok := v.Get("a")
	require.True(t, ok)
	n, _ := got.AsI32()
	assert.Equal(t, int32(1), n)

	_, ok = v.Get("missing")
	assert.False(t, ok)

	_, ok = String("x").Get("a")
	assert.False(t, ok)
}
