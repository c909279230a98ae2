package connector

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/teodevgroup/teo-mongodb-connector/model"
)

// Migrator reconciles a database's live indexes against a set of declared
// models (spec.md §4.6, C7). Index creation/drop failures are logged, not
// propagated — a failed index operation must not abort startup.
type Migrator struct {
	db *mongo.Database
}

func NewMigrator(db *mongo.Database) *Migrator {
	return &Migrator{db: db}
}

// Migrate reconciles every model concurrently, one goroutine per model via
// errgroup. If
// resetDatabase is set the whole database is dropped first (spec.md §4.6).
func (m *Migrator) Migrate(ctx context.Context, models []*model.Model, resetDatabase bool) error {
	if resetDatabase {
		if err := m.db.Drop(ctx); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, mdl := range models {
		mdl := mdl
		g.Go(func() error {
			m.reconcileModel(gctx, mdl)
			return nil
		})
	}
	return g.Wait()
}

// Purge unconditionally drops every model's collection (spec.md §4.6).
func (m *Migrator) Purge(ctx context.Context, models []*model.Model) error {
	for _, mdl := range models {
		if err := m.db.Collection(mdl.TableName()).Drop(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *Migrator) reconcileModel(ctx context.Context, mdl *model.Model) {
	coll := m.db.Collection(mdl.TableName())

	live, err := m.listLiveIndexes(ctx, coll)
	if err != nil {
		log.Error().Err(err).Str("model", mdl.Name()).Msg("failed to list live indexes")
		return
	}

	declared := make(map[string]model.Ix, len(mdl.Indexes()))
	declaredByColumn := make(map[string]model.Ix, len(mdl.Indexes()))
	for _, ix := range mdl.Indexes() {
		byColumn := model.Ix{Name: ix.Name, Kind: ix.Kind, Items: make([]model.IndexItem, len(ix.Items))}
		if byColumn.Kind == model.Primary {
			byColumn.Kind = model.Unique
		}
		for i, item := range ix.Items {
			byColumn.Items[i] = item
			if field, ok := mdl.Field(item.FieldName); ok {
				byColumn.Items[i].FieldName = field.ColumnName
			}
		}
		if isImplicitIDIndex(byColumn) {
			continue
		}
		declared[ix.Name] = ix
		declaredByColumn[ix.Name] = byColumn
	}

	reviewed := make(map[string]bool, len(declared))
	for name, liveIx := range live {
		wanted, isDeclared := declared[name]
		switch {
		case !isDeclared:
			if err := m.dropIndex(ctx, coll, name); err != nil {
				log.Error().Err(err).Str("model", mdl.Name()).Str("index", name).Msg("failed to drop undeclared index")
			}
		case !indexesEqual(declaredByColumn[name], liveIx):
			if err := m.dropIndex(ctx, coll, name); err != nil {
				log.Error().Err(err).Str("model", mdl.Name()).Str("index", name).Msg("failed to drop stale index")
				break
			}
			if err := m.createIndex(ctx, coll, mdl, wanted); err != nil {
				log.Error().Err(err).Str("model", mdl.Name()).Str("index", name).Msg("failed to recreate index")
			}
			reviewed[name] = true
		default:
			reviewed[name] = true
		}
	}

	for name, ix := range declared {
		if reviewed[name] {
			continue
		}
		if err := m.createIndex(ctx, coll, mdl, ix); err != nil {
			log.Error().Err(err).Str("model", mdl.Name()).Str("index", name).Msg("failed to create index")
		}
	}
}

func (m *Migrator) listLiveIndexes(ctx context.Context, coll *mongo.Collection) (map[string]model.Ix, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	live := make(map[string]model.Ix)
	for cur.Next(ctx) {
		ix, ok := indexFromLive(bson.Raw(cur.Current))
		if !ok {
			continue
		}
		live[ix.Name] = ix
	}
	return live, cur.Err()
}

func (m *Migrator) dropIndex(ctx context.Context, coll *mongo.Collection, name string) error {
	_, err := coll.Indexes().DropOne(ctx, name)
	return err
}

// createIndex creates ix with sparse always set to true, per spec.md's Open
// Question resolution in §9: the source connector applies sparse
// unconditionally to every created index, and that behavior is preserved
// rather than narrowed to nullable fields only. Each declared item's
// FieldName is the model's runtime field name, which is resolved through mdl
// to the field's storage-level ColumnName before it is used as a BSON key
// (spec.md §4.6; column_name != name).
func (m *Migrator) createIndex(ctx context.Context, coll *mongo.Collection, mdl *model.Model, ix model.Ix) error {
	keys := bson.D{}
	for _, item := range ix.Items {
		dir := 1
		if item.Sort == model.Desc {
			dir = -1
		}
		columnName := item.FieldName
		if field, ok := mdl.Field(item.FieldName); ok {
			columnName = field.ColumnName
		}
		keys = append(keys, bson.E{Key: columnName, Value: dir})
	}
	opts := options.Index().SetName(ix.Name).SetSparse(true)
	if indexUnique(ix.Kind) {
		opts.SetUnique(true)
	}
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
	return err
}
