package connector

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/teodevgroup/teo-mongodb-connector/model"
	"github.com/teodevgroup/teo-mongodb-connector/object"
	"github.com/teodevgroup/teo-mongodb-connector/teon"
)

// updateBuilder assembles the "$set"/"$unset"/"$inc"/"$mul"/"$push" buckets
// of an update document using an operator-keyed-bucket shape. Here the
// buckets are atomic-updator targets rather than query operators (spec.md
// §4.3.3): increment/decrement route to $inc, multiply/divide to $mul, push
// to $push, and a plain value routes to $set or $unset depending on whether
// it is BSON null.
type updateBuilder struct {
	set   bson.D
	unset bson.D
	inc   bson.D
	mul   bson.D
	push  bson.D
}

func newUpdateBuilder() *updateBuilder {
	return &updateBuilder{}
}

func (b *updateBuilder) routePlain(column string, bsonValue any) {
	if bsonValue == nil {
		b.unset = append(b.unset, bson.E{Key: column, Value: ""})
		return
	}
	b.set = append(b.set, bson.E{Key: column, Value: bsonValue})
}

// routeAtomic dispatches one atomic updator entry to its bucket. operator
// names an operation unrecognized by this connector is a programmer error,
// not a runtime condition a caller can recover from, so it panics rather than
// returning an error.
func (b *updateBuilder) routeAtomic(column, operator string, operand teon.Value) {
	switch operator {
	case "increment":
		b.inc = append(b.inc, bson.E{Key: column, Value: TeonValueToBson(operand)})
	case "decrement":
		b.inc = append(b.inc, bson.E{Key: column, Value: TeonValueToBson(operand.Neg())})
	case "multiply":
		b.mul = append(b.mul, bson.E{Key: column, Value: TeonValueToBson(operand)})
	case "divide":
		b.mul = append(b.mul, bson.E{Key: column, Value: TeonValueToBson(operand.Reciprocal())})
	case "push":
		b.push = append(b.push, bson.E{Key: column, Value: TeonValueToBson(operand)})
	default:
		panic("unknown atomic updator: " + operator)
	}
}

// hasAtomic reports whether any $inc/$mul/$push bucket is populated. Its
// result decides updateOne vs findOneAndUpdate(After) in update_object
// (spec.md §4.3.3, P4): atomic operators need the server-computed result
// value read back, a plain $set/$unset does not.
func (b *updateBuilder) hasAtomic() bool {
	return len(b.inc) > 0 || len(b.mul) > 0 || len(b.push) > 0
}

// document assembles the final update document. An object with no changed
// keys produces an empty bson.D, which update_object treats as a no-op
// success rather than issuing a write (spec.md §4.3.3).
func (b *updateBuilder) document() bson.D {
	doc := bson.D{}
	if len(b.set) > 0 {
		doc = append(doc, bson.E{Key: "$set", Value: b.set})
	}
	if len(b.unset) > 0 {
		doc = append(doc, bson.E{Key: "$unset", Value: b.unset})
	}
	if len(b.inc) > 0 {
		doc = append(doc, bson.E{Key: "$inc", Value: b.inc})
	}
	if len(b.mul) > 0 {
		doc = append(doc, bson.E{Key: "$mul", Value: b.mul})
	}
	if len(b.push) > 0 {
		doc = append(doc, bson.E{Key: "$push", Value: b.push})
	}
	return doc
}

// atomicColumns returns the column names with an atomic updator applied, in
// bucket order ($inc, $mul, $push). update_object re-decodes exactly these
// columns from the findOneAndUpdate(After) result (spec.md §4.3.3).
func (b *updateBuilder) atomicColumns() []string {
	var cols []string
	for _, e := range b.inc {
		cols = append(cols, e.Key)
	}
	for _, e := range b.mul {
		cols = append(cols, e.Key)
	}
	for _, e := range b.push {
		cols = append(cols, e.Key)
	}
	return cols
}

// BuildUpdateDocument walks obj's save keys and routes each one, either as an
// atomic updator or a plain value, into an updateBuilder (spec.md §4.3.3).
func BuildUpdateDocument(codec BsonCodec, m *model.Model, obj object.Object) (*updateBuilder, error) {
	b := newUpdateBuilder()
	for _, key := range obj.KeysForSave() {
		field, ok := m.Field(key)
		if !ok {
			continue
		}
		if updator, ok := obj.GetAtomicUpdator(key); ok {
			operator, operand, ok := updator.SingleEntry()
			if !ok {
				continue
			}
			b.routeAtomic(field.ColumnName, operator, operand)
			continue
		}
		value, ok := obj.GetValue(key)
		if !ok {
			continue
		}
		bsonValue, err := codec.EncodeBson(field.Type, value)
		if err != nil {
			return nil, err
		}
		b.routePlain(field.ColumnName, bsonValue)
	}
	return b, nil
}
