package connector

import (
	"context"
	"regexp"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/teodevgroup/teo-mongodb-connector/aggregation"
	"github.com/teodevgroup/teo-mongodb-connector/dberrors"
	"github.com/teodevgroup/teo-mongodb-connector/keypath"
	"github.com/teodevgroup/teo-mongodb-connector/model"
	"github.com/teodevgroup/teo-mongodb-connector/object"
	"github.com/teodevgroup/teo-mongodb-connector/teon"
)

// dupKeyPattern extracts the offending column name out of a MongoDB
// duplicate-key write error message, e.g. `E11000 duplicate key error
// collection: db.widgets index: idx_email dup key: { email: "a@b.com" }`
// (spec.md §4.5).
var dupKeyPattern = regexp.MustCompile(`dup key: \{ (.+?):`)

// sessionsNotSupportedPattern matches the driver/server message produced when
// a deployment rejects a session or transaction command outright, e.g.
// "Transaction numbers are only allowed on a replica set member or mongos"
// (spec.md §4.5, §4.7).
var sessionsNotSupportedPattern = regexp.MustCompile(`(?i)transaction numbers are only allowed on a replica set`)

// Transaction is the connector core's C6 component: the single object a host
// query runtime drives through one logical unit of work, whether or not a
// MongoDB session/transaction actually backs it (spec.md §4.3, §4.7).
type Transaction struct {
	database      *mongo.Database
	session       *OwnedSession
	codec         BsonCodec
	namespace     model.Namespace
	aggBuilder    aggregation.Builder
	objectFactory object.Factory
	migrator      *Migrator
	committed     atomic.Bool
}

// NewTransaction constructs a Transaction over an already-started session, or
// with session nil for the session-less degraded mode used when the target
// deployment does not support transactions (spec.md §4.7).
func NewTransaction(db *mongo.Database, session *OwnedSession, ns model.Namespace, agg aggregation.Builder, factory object.Factory) *Transaction {
	return &Transaction{
		database:      db,
		session:       session,
		namespace:     ns,
		aggBuilder:    agg,
		objectFactory: factory,
		migrator:      NewMigrator(db),
	}
}

// IsTransaction reports whether this unit of work is backed by a real
// MongoDB session/transaction, as opposed to running bare (spec.md §4.7).
func (tx *Transaction) IsTransaction() bool { return tx.session != nil }

// IsCommitted reports whether Commit has already completed successfully.
func (tx *Transaction) IsCommitted() bool { return tx.committed.Load() }

func (tx *Transaction) ctx(ctx context.Context) context.Context {
	if tx.session == nil {
		return ctx
	}
	return tx.session.Context(ctx)
}

// Commit finalizes a transaction-backed unit of work. Calling it when there
// is no session backing this Transaction is a no-op success (spec.md §4.7).
func (tx *Transaction) Commit(ctx context.Context) error {
	if tx.session == nil {
		tx.committed.Store(true)
		return nil
	}
	if err := tx.session.CommitTransaction(ctx); err != nil {
		return err
	}
	tx.committed.Store(true)
	return nil
}

// Abort rolls back a transaction-backed unit of work. A no-op when there is
// no session backing this Transaction.
func (tx *Transaction) Abort(ctx context.Context) error {
	if tx.session == nil {
		return nil
	}
	return tx.session.AbortTransaction(ctx)
}

// Spawn produces an independent Transaction sharing this one's collaborators
// but none of its session state, mirroring the source connector's spawn().
func (tx *Transaction) Spawn() *Transaction {
	return NewTransaction(tx.database, nil, tx.namespace, tx.aggBuilder, tx.objectFactory)
}

func (tx *Transaction) collectionFor(m *model.Model) *mongo.Collection {
	return tx.database.Collection(m.TableName())
}

// SaveObject routes to CreateObject or UpdateObject depending on whether the
// object has ever been persisted (spec.md §4.3.4).
func (tx *Transaction) SaveObject(ctx context.Context, obj object.Object) error {
	if obj.IsNew() {
		return tx.CreateObject(ctx, obj)
	}
	return tx.UpdateObject(ctx, obj)
}

// CreateObject inserts a fresh document for obj's save keys, then writes any
// server-populated auto keys (most commonly the generated _id) back onto obj
// (spec.md §4.3.1).
func (tx *Transaction) CreateObject(ctx context.Context, obj object.Object) error {
	m := obj.Model()
	doc := bson.D{}
	for _, key := range obj.KeysForSave() {
		if field, ok := m.Field(key); ok {
			value, ok := obj.GetValue(key)
			if !ok {
				continue
			}
			b, err := tx.codec.EncodeBson(field.Type, value)
			if err != nil {
				return err
			}
			if b == nil {
				continue
			}
			doc = append(doc, bson.E{Key: field.ColumnName, Value: b})
			continue
		}
		if prop, ok := m.Property(key); ok {
			value, err := obj.GetPropertyValue(ctx, key)
			if err != nil {
				return err
			}
			b, err := tx.codec.EncodeBson(prop.Type, value)
			if err != nil {
				return err
			}
			if b == nil {
				continue
			}
			doc = append(doc, bson.E{Key: key, Value: b})
		}
	}

	res, err := tx.collectionFor(m).InsertOne(tx.ctx(ctx), doc)
	if err != nil {
		return tx.translateWriteError(m, err)
	}

	for _, autoKey := range m.AutoKeys() {
		field, ok := m.Field(autoKey)
		if !ok || field.ColumnName != "_id" {
			continue
		}
		decoded, err := tx.codec.Decode(tx.namespace, m, field.Type, field.Optional, rawValueFromAny(res.InsertedID), keypath.Root().Key(autoKey))
		if err != nil {
			return err
		}
		if err := obj.SetValue(autoKey, decoded); err != nil {
			return err
		}
	}
	obj.MarkSaved()
	return nil
}

// UpdateObject applies obj's pending write-set via $set/$unset/$inc/$mul/$push.
// When any atomic-updator bucket is populated, the result is read back with
// findOneAndUpdate(After) and re-decoded onto obj (spec.md §4.3.3, P4); a
// change-set with no entries at all is a successful no-op.
func (tx *Transaction) UpdateObject(ctx context.Context, obj object.Object) error {
	m := obj.Model()
	builder, err := BuildUpdateDocument(tx.codec, m, obj)
	if err != nil {
		return err
	}
	updateDoc := builder.document()
	if len(updateDoc) == 0 {
		obj.MarkSaved()
		return nil
	}

	identifier := TeonValueToBson(obj.DBIdentifier())
	coll := tx.collectionFor(m)

	if builder.hasAtomic() {
		opt := options.FindOneAndUpdate().SetReturnDocument(options.After)
		sr := coll.FindOneAndUpdate(tx.ctx(ctx), identifier, updateDoc, opt)
		if err := sr.Err(); err != nil {
			return tx.translateWriteError(m, err)
		}
		var raw bson.Raw
		if err := sr.Decode(&raw); err != nil {
			return err
		}
		for _, column := range builder.atomicColumns() {
			field, ok := m.FieldWithColumnName(column)
			if !ok {
				continue
			}
			v := raw.Lookup(column)
			decoded, err := tx.codec.Decode(tx.namespace, m, field.Type, field.Optional, v, keypath.Root().Key(field.Name))
			if err != nil {
				return err
			}
			if err := obj.SetValue(field.Name, decoded); err != nil {
				return err
			}
		}
		obj.MarkSaved()
		return nil
	}

	if _, err := coll.UpdateOne(tx.ctx(ctx), identifier, updateDoc); err != nil {
		return tx.translateWriteError(m, err)
	}
	obj.MarkSaved()
	return nil
}

// DeleteObject removes obj's document by its DBIdentifier. Deleting an
// object that was never saved is an illegal-state error (spec.md §4.3.4).
func (tx *Transaction) DeleteObject(ctx context.Context, obj object.Object) error {
	if obj.IsNew() {
		return dberrors.ObjectIsNotSavedThusCantBeDeleted(keypath.Root())
	}
	m := obj.Model()
	identifier := TeonValueToBson(obj.DBIdentifier())
	if _, err := tx.collectionFor(m).DeleteOne(tx.ctx(ctx), identifier); err != nil {
		return dberrors.UnknownDatabaseDeleteError(keypath.Root(), err.Error())
	}
	return nil
}

// FindUnique runs finder through the aggregation builder and materializes at
// most one result (spec.md §4.3.5).
func (tx *Transaction) FindUnique(ctx context.Context, modelPath string, finder teon.Value) (object.Object, error) {
	objs, err := tx.find(ctx, modelPath, finder, tx.aggBuilder.Build)
	if err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, nil
	}
	return objs[0], nil
}

// FindMany runs finder and materializes every matching document. A negative
// "take" is honored by the aggregation pipeline itself (it sorts in reverse
// and limits); FindMany then un-reverses the result order by prepending
// instead of appending, matching the source connector's find_many.
func (tx *Transaction) FindMany(ctx context.Context, modelPath string, finder teon.Value, negativeTake bool) ([]object.Object, error) {
	objs, err := tx.find(ctx, modelPath, finder, tx.aggBuilder.Build)
	if err != nil {
		return nil, err
	}
	if !negativeTake {
		return objs, nil
	}
	reversed := make([]object.Object, 0, len(objs))
	for _, o := range objs {
		reversed = append([]object.Object{o}, reversed...)
	}
	return reversed, nil
}

type pipelineFn func(ns model.Namespace, m *model.Model, finder teon.Value) (mongo.Pipeline, error)

func (tx *Transaction) find(ctx context.Context, modelPath string, finder teon.Value, build pipelineFn) ([]object.Object, error) {
	m, ok := tx.namespace.ModelByPath(modelPath)
	if !ok {
		return nil, dberrors.UnknownDatabaseFindError(keypath.Root(), "unknown model: "+modelPath)
	}
	pipeline, err := build(tx.namespace, m, finder)
	if err != nil {
		return nil, err
	}
	cur, err := tx.collectionFor(m).Aggregate(tx.ctx(ctx), pipeline)
	if err != nil {
		return nil, dberrors.UnknownDatabaseFindError(keypath.Root(), err.Error())
	}
	defer cur.Close(ctx)

	selection, _ := finder.Get("select")
	include, _ := finder.Get("include")
	var out []object.Object
	for cur.Next(ctx) {
		obj, err := DocumentToObject(ctx, tx.objectFactory, tx.namespace, tx.codec, m, modelPath, cur.Current, selection, include)
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, cur.Err()
}

// Count runs finder through BuildForCount and reads the single count bucket
// off the first (and only) result document, unless finder carries a `select`
// key, in which case it delegates to countFields (spec.md §4.3.5).
func (tx *Transaction) Count(ctx context.Context, modelPath string, finder teon.Value) (teon.Value, error) {
	if _, ok := finder.Get("select"); ok {
		return tx.countFields(ctx, modelPath, finder)
	}
	m, ok := tx.namespace.ModelByPath(modelPath)
	if !ok {
		return teon.Value{}, dberrors.UnknownDatabaseFindError(keypath.Root(), "unknown model: "+modelPath)
	}
	pipeline, err := tx.aggBuilder.BuildForCount(tx.namespace, m, finder)
	if err != nil {
		return teon.Value{}, err
	}
	cur, err := tx.collectionFor(m).Aggregate(tx.ctx(ctx), pipeline)
	if err != nil {
		return teon.Value{}, dberrors.UnknownDatabaseFindError(keypath.Root(), err.Error())
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		return teon.I64(0), cur.Err()
	}
	raw := bson.Raw(cur.Current)
	v := raw.Lookup("count")
	if n, ok := v.Int64OK(); ok {
		return teon.I64(n), nil
	}
	if n, ok := v.Int32OK(); ok {
		return teon.I64(int64(n)), nil
	}
	return teon.I64(0), nil
}

// countFields implements count_fields (spec.md §4.3.5): rename the finder's
// top-level `select` key to `_count`, delegate to Aggregate, and return the
// resulting `_count` sub-dictionary.
func (tx *Transaction) countFields(ctx context.Context, modelPath string, finder teon.Value) (teon.Value, error) {
	rewritten := renameTopLevelKey(finder, "select", "_count")
	rows, err := tx.Aggregate(ctx, modelPath, rewritten)
	if err != nil {
		return teon.Value{}, err
	}
	if len(rows) == 0 {
		return teon.Null(), nil
	}
	counted, _ := rows[0].Get("_count")
	return counted, nil
}

// renameTopLevelKey copies v's top-level dictionary, renaming the entry
// stored under from to to while preserving every other entry's position.
// teon.Dictionary has no built-in rename, so this walks it once via Range.
func renameTopLevelKey(v teon.Value, from, to string) teon.Value {
	dict, ok := v.AsDictionary()
	if !ok {
		return v
	}
	out := teon.NewDict()
	dict.Range(func(k string, val teon.Value) bool {
		if k == from {
			out.Set(to, val)
		} else {
			out.Set(k, val)
		}
		return true
	})
	return teon.NewDictionary(out)
}

// Aggregate and GroupBy share aggregate_or_group_by's decoding rules: keys
// whose name starts with "_" are aggregate buckets (decoded preferring
// float64, then int64, then int32, else null), every other key is a
// group-by field decoded through the codec (spec.md §4.3.5).
func (tx *Transaction) Aggregate(ctx context.Context, modelPath string, finder teon.Value) ([]teon.Value, error) {
	return tx.aggregateOrGroupBy(ctx, modelPath, finder, true)
}

func (tx *Transaction) GroupBy(ctx context.Context, modelPath string, finder teon.Value) ([]teon.Value, error) {
	return tx.aggregateOrGroupBy(ctx, modelPath, finder, false)
}

func (tx *Transaction) aggregateOrGroupBy(ctx context.Context, modelPath string, finder teon.Value, synthesizeEmptyShape bool) ([]teon.Value, error) {
	m, ok := tx.namespace.ModelByPath(modelPath)
	if !ok {
		return nil, dberrors.UnknownDatabaseFindError(keypath.Root(), "unknown model: "+modelPath)
	}
	pipeline, err := tx.aggBuilder.BuildForAggregate(tx.namespace, m, finder)
	if err != nil {
		return nil, err
	}
	cur, err := tx.collectionFor(m).Aggregate(tx.ctx(ctx), pipeline)
	if err != nil {
		return nil, dberrors.UnknownDatabaseFindError(keypath.Root(), err.Error())
	}
	defer cur.Close(ctx)

	var rows []teon.Value
	for cur.Next(ctx) {
		rows = append(rows, decodeAggregateRow(bson.Raw(cur.Current), tx.namespace, m, tx.codec))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 && synthesizeEmptyShape {
		rows = append(rows, emptyAggregateShape(pipeline))
	}
	return rows, nil
}

func decodeAggregateRow(raw bson.Raw, ns model.Namespace, m *model.Model, codec BsonCodec) teon.Value {
	dict := teon.NewDict()
	elems, _ := raw.Elements()
	for _, e := range elems {
		if e.Key() == "_id" {
			continue
		}
		if len(e.Key()) > 0 && e.Key()[0] == '_' {
			dict.Set(e.Key(), decodeAggregateBucket(e.Value()))
			continue
		}
		field, ok := m.FieldWithColumnName(e.Key())
		if !ok {
			continue
		}
		decoded, err := codec.Decode(ns, m, field.Type, true, e.Value(), keypath.Root().Key(e.Key()))
		if err != nil {
			dict.Set(e.Key(), teon.Null())
			continue
		}
		dict.Set(e.Key(), decoded)
	}
	return teon.NewDictionary(dict)
}

func decodeAggregateBucket(v bson.RawValue) teon.Value {
	if f, ok := v.DoubleOK(); ok {
		return teon.F64(f)
	}
	if n, ok := v.Int64OK(); ok {
		return teon.I64(n)
	}
	if n, ok := v.Int32OK(); ok {
		return teon.I64(int64(n))
	}
	return teon.Null()
}

// emptyAggregateShape synthesizes the zero-row result aggregate() must still
// return: every "_"-prefixed bucket name the pipeline declares becomes 0,
// every other field becomes null (spec.md §4.3.5).
func emptyAggregateShape(pipeline mongo.Pipeline) teon.Value {
	dict := teon.NewDict()
	for _, stage := range pipeline {
		for _, e := range stage {
			if e.Key != "$group" {
				continue
			}
			group, ok := e.Value.(bson.D)
			if !ok {
				continue
			}
			for _, g := range group {
				if g.Key == "_id" {
					continue
				}
				if len(g.Key) > 0 && g.Key[0] == '_' {
					dict.Set(g.Key, teon.I64(0))
				} else {
					dict.Set(g.Key, teon.Null())
				}
			}
		}
	}
	return teon.NewDictionary(dict)
}

// SQL always fails: this connector does not accept raw SQL (spec.md §4.3.6).
func (tx *Transaction) SQL(ctx context.Context, _ string) error {
	return dberrors.RawSQLUnsupported()
}

// QueryRaw always fails, for the same reason as SQL.
func (tx *Transaction) QueryRaw(ctx context.Context, _ string) ([]teon.Value, error) {
	return nil, dberrors.RawSQLUnsupported()
}

// Migrate reconciles every declared model's indexes (spec.md §4.6).
func (tx *Transaction) Migrate(ctx context.Context, models []*model.Model, resetDatabase bool) error {
	return tx.migrator.Migrate(ctx, models, resetDatabase)
}

// Purge drops every model's backing collection.
func (tx *Transaction) Purge(ctx context.Context, models []*model.Model) error {
	return tx.migrator.Purge(ctx, models)
}

// translateWriteError is the C4 ErrorTranslator's write path: a duplicate-key
// write error (code 11000) is parsed for its offending column and reported
// against the runtime field name; anything else becomes a generic write
// failure (spec.md §4.5).
func (tx *Transaction) translateWriteError(m *model.Model, err error) error {
	var writeErr mongo.WriteException
	if ok := asWriteException(err, &writeErr); ok {
		for _, we := range writeErr.WriteErrors {
			if we.Code != 11000 {
				continue
			}
			if match := dupKeyPattern.FindStringSubmatch(we.Message); match != nil {
				column := match[1]
				if field, ok := m.FieldWithColumnName(column); ok {
					return dberrors.UniqueValueDuplicated(keypath.Root().Key(field.Name), we.Message)
				}
				return dberrors.UniqueValueDuplicated(keypath.Root().Key(column), we.Message)
			}
			return dberrors.UniqueValueDuplicated(keypath.Root(), we.Message)
		}
		if writeErr.WriteConcernError != nil {
			return dberrors.UnknownDatabaseWriteError(keypath.Root(), writeErr.WriteConcernError.Message)
		}
	}
	var cmdErr mongo.CommandError
	if ok := asCommandError(err, &cmdErr); ok {
		if sessionsNotSupportedPattern.MatchString(cmdErr.Message) {
			return dberrors.SessionsNotSupported(keypath.Root())
		}
		return dberrors.UnknownDatabaseWriteError(keypath.Root(), cmdErr.Message)
	}
	if sessionsNotSupportedPattern.MatchString(err.Error()) {
		return dberrors.SessionsNotSupported(keypath.Root())
	}
	return dberrors.UnknownDatabaseWriteError(keypath.Root(), err.Error())
}

func asWriteException(err error, out *mongo.WriteException) bool {
	we, ok := err.(mongo.WriteException)
	if !ok {
		return false
	}
	*out = we
	return true
}

func asCommandError(err error, out *mongo.CommandError) bool {
	ce, ok := err.(mongo.CommandError)
	if !ok {
		return false
	}
	*out = ce
	return true
}

func rawValueFromAny(v any) bson.RawValue {
	data, err := bson.Marshal(bson.D{{Key: "v", Value: v}})
	if err != nil {
		return bson.RawValue{}
	}
	return bson.Raw(data).Lookup("v")
}
