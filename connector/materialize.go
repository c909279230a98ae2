package connector

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/teodevgroup/teo-mongodb-connector/keypath"
	"github.com/teodevgroup/teo-mongodb-connector/model"
	"github.com/teodevgroup/teo-mongodb-connector/object"
	"github.com/teodevgroup/teo-mongodb-connector/teon"
)

// DocumentToObject turns one raw BSON document fetched from a collection into
// a host Object, per spec.md §4.4. It is the read-side counterpart of the
// atomic-updator routing table in updatebuilder.go: where that file turns an
// Object's write-set into a BSON update document, this turns a BSON document
// back into an Object, including recursively materializing any relations
// that arrived as $lookup-joined sub-arrays.
func DocumentToObject(ctx context.Context, factory object.Factory, ns model.Namespace, codec BsonCodec, m *model.Model, modelPath string, doc bson.Raw, selection, include teon.Value) (object.Object, error) {
	obj, err := factory.NewObject(ctx, modelPath, 0)
	if err != nil {
		return nil, err
	}

	elems, err := doc.Elements()
	if err != nil {
		return nil, err
	}

	byColumn := make(map[string]bson.RawValue, len(elems))
	for _, e := range elems {
		byColumn[e.Key()] = e.Value()
	}

	for _, field := range m.Fields() {
		raw, present := byColumn[field.ColumnName]
		if !present {
			continue
		}
		decoded, err := codec.Decode(ns, m, field.Type, field.Optional, raw, keypath.Root().Key(field.Name))
		if err != nil {
			return nil, err
		}
		if err := obj.SetValue(field.Name, decoded); err != nil {
			return nil, err
		}
	}

	for name, relation := range m.RelationsValue {
		raw, present := byColumn[name]
		if !present {
			continue
		}
		innerFinder, _ := include.Get(name)
		innerSelect, _ := innerFinder.Get("select")
		innerInclude, _ := innerFinder.Get("include")
		related, err := materializeRelation(ctx, factory, ns, codec, relation, raw, innerSelect, innerInclude)
		if err != nil {
			return nil, err
		}
		obj.SetRelation(name, related)
	}

	if err := obj.SetSelect(selection); err != nil {
		return nil, err
	}
	obj.MarkSaved()
	return obj, nil
}

// materializeRelation decodes the $lookup-joined sub-array or sub-document
// stored under a relation's column and recursively materializes each element
// into a nested Object (spec.md §4.4). Singular relations are represented as
// a one-element array by the aggregation pipeline the same as to-many ones;
// the flags passed to the factory (Nested|Find|Many or Nested|Find|Single)
// tell the host which shape it should report back to its caller. select and
// include are this relation's own sub-finder, carried down from the parent
// finder's include[name] entry so a nested relation can apply its own
// projection instead of always materializing unfiltered (spec.md §4.4).
func materializeRelation(ctx context.Context, factory object.Factory, ns model.Namespace, codec BsonCodec, relation model.Relation, raw bson.RawValue, selection, include teon.Value) ([]object.Object, error) {
	target, ok := ns.ModelByPath(relation.ModelPath)
	if !ok {
		return nil, nil
	}

	var docs []bson.Raw
	switch raw.Type {
	case bson.TypeArray:
		values, err := raw.Array().Values()
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if v.Type != bson.TypeEmbeddedDocument {
				continue
			}
			docs = append(docs, v.Document())
		}
	case bson.TypeEmbeddedDocument:
		docs = append(docs, raw.Document())
	default:
		return nil, nil
	}

	flags := object.Nested | object.Find
	if relation.Vector {
		flags |= object.Many
	} else {
		flags |= object.Single
	}

	related := make([]object.Object, 0, len(docs))
	for _, d := range docs {
		nestedFactory := nestedFactoryWithFlags{inner: factory, flags: flags}
		obj, err := DocumentToObject(ctx, nestedFactory, ns, codec, target, relation.ModelPath, d, selection, include)
		if err != nil {
			return nil, err
		}
		related = append(related, obj)
	}
	return related, nil
}

// nestedFactoryWithFlags forces every NewObject call made while materializing
// a relation to carry the flags computed for that relation, regardless of the
// flags DocumentToObject itself would otherwise pass.
type nestedFactoryWithFlags struct {
	inner object.Factory
	flags object.ActionFlags
}

func (f nestedFactoryWithFlags) NewObject(ctx context.Context, modelPath string, _ object.ActionFlags) (object.Object, error) {
	return f.inner.NewObject(ctx, modelPath, f.flags)
}
