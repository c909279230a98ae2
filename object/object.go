// Package object declares the host Object capability set the connector core
// materializes into and reads atomic updators and write-sets from (spec.md
// §3 "Object — host-runtime entity"). Like package model, this is a contract
// a real host implements; this module only consumes it.
package object

import (
	"context"

	"github.com/teodevgroup/teo-mongodb-connector/model"
	"github.com/teodevgroup/teo-mongodb-connector/teon"
)

// ActionFlags mirrors the bitset the original connector passes to the host
// when instantiating a nested related object during $lookup materialization
// (spec.md §4.4): NESTED | FIND | (MANY|SINGLE).
type ActionFlags uint8

const (
	Nested ActionFlags = 1 << iota
	Find
	Many
	Single
)

// Object is the capability set the Transaction needs from a host entity.
type Object interface {
	Model() *model.Model

	// GetValue reads a previously set field value. ok is false if the field
	// was never populated.
	GetValue(key string) (teon.Value, bool)

	// SetValue writes a decoded value onto the object under its runtime name.
	SetValue(key string, value teon.Value) error

	// GetPropertyValue resolves a virtual property's value, possibly via I/O.
	GetPropertyValue(ctx context.Context, key string) (teon.Value, error)

	// GetAtomicUpdator returns the one-entry {operator: operand} dictionary
	// registered for key, if the caller applied an atomic updator to it
	// instead of a plain value (spec.md §4.3.3).
	GetAtomicUpdator(key string) (*teon.Dictionary, bool)

	// KeysForSave returns, in order, the field/property keys that participate
	// in the next save operation.
	KeysForSave() []string

	// DBIdentifier returns the Dictionary value used as the update/delete
	// selector — typically {_id: <value>}.
	DBIdentifier() teon.Value

	IsNew() bool

	// MarkSaved transitions the object to initialized/persisted state after a
	// successful materialization or write (spec.md §4.4's
	// "is_initialized=true, is_new=false").
	MarkSaved()

	// SetSelect records the effective field projection applied while
	// materializing this level of the document.
	SetSelect(selection teon.Value) error

	// SetRelation attaches materialized related objects under key.
	SetRelation(key string, related []Object)
}

// Factory creates new, empty host objects for a model, used when the
// Transaction builds result rows and nested related rows from documents.
type Factory interface {
	NewObject(ctx context.Context, modelPath string, action ActionFlags) (Object, error)
}
