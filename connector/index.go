package connector

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/teodevgroup/teo-mongodb-connector/model"
)

// liveIndexName is the name MongoDB assigns the implicit primary-key index,
// always present and never declared explicitly (spec.md §4.6).
const liveIndexName = "_id_"

// indexFromLive converts one document off coll.Indexes().List() into a model.Ix,
// the same shape used for declared indexes, so the two can be diffed with
// plain equality once a declared index's field names are resolved to column
// names and its Primary kind is read as Unique (spec.md §4.6, grounded on
// original_source's FromIndexModel impl for the Rust driver's IndexModel).
func indexFromLive(raw bson.Raw) (model.Ix, bool) {
	name, _ := raw.Lookup("name").StringValueOK()
	if name == liveIndexName {
		return model.Ix{}, false
	}

	keyVal, err := raw.LookupErr("key")
	if err != nil {
		return model.Ix{}, false
	}
	keyDoc, ok := keyVal.DocumentOK()
	if !ok {
		return model.Ix{}, false
	}
	elems, err := keyDoc.Elements()
	if err != nil {
		return model.Ix{}, false
	}

	items := make([]model.IndexItem, 0, len(elems))
	for _, e := range elems {
		sort := model.Asc
		if n, ok := e.Value().Int32OK(); ok && n < 0 {
			sort = model.Desc
		} else if n64, ok := e.Value().Int64OK(); ok && n64 < 0 {
			sort = model.Desc
		}
		items = append(items, model.IndexItem{FieldName: e.Key(), Sort: sort})
	}

	kind := model.Index
	if unique, ok := raw.Lookup("unique").BooleanOK(); ok && unique {
		kind = model.Unique
	}

	return model.Ix{Name: name, Kind: kind, Items: items}, true
}

// indexesEqual reports whether a and b describe the same index for
// reconciliation purposes: same kind and the same ordered key/direction
// pairs. Name is intentionally excluded — declared and live indexes are
// already matched by name before this is called (spec.md §4.6).
func indexesEqual(a, b model.Ix) bool {
	if a.Kind != b.Kind {
		return false
	}
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if a.Items[i] != b.Items[i] {
			return false
		}
	}
	return true
}

// isImplicitIDIndex reports whether ix is a single-key index over the
// model's "_id" column, which MongoDB always maintains on its own and which
// the migrator must never attempt to create (spec.md §4.6).
func isImplicitIDIndex(ix model.Ix) bool {
	return len(ix.Items) == 1 && ix.Items[0].FieldName == "_id"
}

// indexUnique reports whether kind should produce a unique index. Both
// Unique and Primary declared kinds map to MongoDB's unique option — Primary
// has no separate representation once reconciled against a live index
// (spec.md §4.6).
func indexUnique(kind model.IndexKind) bool {
	return kind == model.Unique || kind == model.Primary
}
