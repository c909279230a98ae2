// Package dberrors defines the host-facing error taxonomy of spec.md §7: a
// small set of package-level prototype values, wrapped with fmt.Errorf to
// attach the offending KeyPath and message.
package dberrors

import (
	"fmt"

	"github.com/teodevgroup/teo-mongodb-connector/keypath"
)

// Kind is one error prototype of the host taxonomy.
type Kind struct {
	name string
}

func (k *Kind) Error() string { return k.name }

var (
	ErrDecoding      = &Kind{name: "decoding"}
	ErrDuplicateKey  = &Kind{name: "duplicateKey"}
	ErrWriteFailure  = &Kind{name: "writeFailure"}
	ErrFindFailure   = &Kind{name: "findFailure"}
	ErrDeleteFailure = &Kind{name: "deleteFailure"}
	ErrIllegalState  = &Kind{name: "illegalState"}
	ErrProgrammer    = &Kind{name: "programmerError"}
)

// RecordDecodingError reports a type-mismatched or otherwise invalid BSON
// value encountered while decoding a field (spec.md §4.2, §6).
func RecordDecodingError(modelName string, path keypath.KeyPath, expected string) error {
	return fmt.Errorf("%w: model %q, path %q: expected %s", ErrDecoding, modelName, path.String(), expected)
}

// UniqueValueDuplicated reports a MongoDB duplicate-key write error, scoped to
// the offending field when the model resolves it (spec.md §4.5).
func UniqueValueDuplicated(path keypath.KeyPath, message string) error {
	return fmt.Errorf("%w: path %q: %s", ErrDuplicateKey, path.String(), message)
}

func UnknownDatabaseWriteError(path keypath.KeyPath, message string) error {
	return fmt.Errorf("%w: path %q: %s", ErrWriteFailure, path.String(), message)
}

func UnknownDatabaseFindError(path keypath.KeyPath, message string) error {
	return fmt.Errorf("%w: path %q: %s", ErrFindFailure, path.String(), message)
}

func UnknownDatabaseDeleteError(path keypath.KeyPath, message string) error {
	return fmt.Errorf("%w: path %q: %s", ErrDeleteFailure, path.String(), message)
}

// ObjectIsNotSavedThusCantBeDeleted reports a delete attempted against an
// object that was never persisted (spec.md §4.3.4).
func ObjectIsNotSavedThusCantBeDeleted(path keypath.KeyPath) error {
	return fmt.Errorf("%w: path %q: object is not saved thus can't be deleted", ErrIllegalState, path.String())
}

// RawSQLUnsupported reports an attempt to run raw SQL against this connector
// (spec.md §4.3.6): "this connector does not accept SQL".
func RawSQLUnsupported() error {
	return fmt.Errorf("%w: do not run raw sql on MongoDB database", ErrProgrammer)
}

// DecimalUnsupported reports an attempt to encode or decode a Decimal value,
// which has no Decimal128 mapping in this core (spec.md §2, §4.2, §9).
func DecimalUnsupported(path keypath.KeyPath) error {
	return fmt.Errorf("%w: path %q: Decimal is not implemented by this MongoDB connector", ErrProgrammer, path.String())
}

// SessionsNotSupported reports that the target deployment rejected a session
// or transaction operation outright, with the fixed message spec.md §4.5
// requires (distinct from a generic write failure).
func SessionsNotSupported(path keypath.KeyPath) error {
	return fmt.Errorf("%w: path %q: session is not supported", ErrWriteFailure, path.String())
}
