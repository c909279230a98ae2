package dberrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teodevgroup/teo-mongodb-connector/keypath"
)

func TestRecordDecodingErrorWrapsPrototype(t *testing.T) {
	err := RecordDecodingError("widget", keypath.Root().Key("count"), "int 32")
	require.ErrorIs(t, err, ErrDecoding)
	assert.Contains(t, err.Error(), "widget")
	assert.Contains(t, err.Error(), "count")
	assert.Contains(t, err.Error(), "int 32")
}

func TestUniqueValueDuplicatedWrapsPrototype(t *testing.T) {
	err := UniqueValueDuplicated(keypath.Root().Key("email"), "dup key")
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestRawSQLUnsupportedIsProgrammerError(t *testing.T) {
	err := RawSQLUnsupported()
	require.ErrorIs(t, err, ErrProgrammer)
}

func TestDecimalUnsupportedIsProgrammerError(t *testing.T) {
	err := DecimalUnsupported(keypath.Root())
	require.ErrorIs(t, err, ErrProgrammer)
}
