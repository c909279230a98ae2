package connector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/teodevgroup/teo-mongodb-connector/model"
)

func TestIndexFromLive(t *testing.T) {
	t.Run("implicit id index is skipped", func(t *testing.T) {
		raw, err := bson.Marshal(bson.D{
			{Key: "name", Value: "_id_"},
			{Key: "key", Value: bson.D{{Key: "_id", Value: int32(1)}}},
		})
		require.NoError(t, err)
		_, ok := indexFromLive(raw)
		assert.False(t, ok)
	})

	t.Run("unique flag maps to Unique kind", func(t *testing.T) {
		raw, err := bson.Marshal(bson.D{
			{Key: "name", Value: "idx_email"},
			{Key: "key", Value: bson.D{{Key: "email", Value: int32(1)}}},
			{Key: "unique", Value: true},
		})
		require.NoError(t, err)
		ix, ok := indexFromLive(raw)
		require.True(t, ok)
		assert.Equal(t, model.Unique, ix.Kind)
		assert.Equal(t, []model.IndexItem{{FieldName: "email", Sort: model.Asc}}, ix.Items)
	})

	t.Run("negative direction maps to Desc", func(t *testing.T) {
		raw, err := bson.Marshal(bson.D{
			{Key: "name", Value: "idx_createdAt"},
			{Key: "key", Value: bson.D{{Key: "createdAt", Value: int32(-1)}}},
		})
		require.NoError(t, err)
		ix, ok := indexFromLive(raw)
		require.True(t, ok)
		assert.Equal(t, model.Desc, ix.Items[0].Sort)
	})
}

func TestIndexesEqual(t *testing.T) {
	a := model.Ix{Kind: model.Unique, Items: []model.IndexItem{{FieldName: "email", Sort: model.Asc}}}
	b := model.Ix{Kind: model.Unique, Items: []model.IndexItem{{FieldName: "email", Sort: model.Asc}}}
	c := model.Ix{Kind: model.Index, Items: []model.IndexItem{{FieldName: "email", Sort: model.Asc}}}
	d := model.Ix{Kind: model.Unique, Items: []model.IndexItem{{FieldName: "email", Sort: model.Desc}}}

	assert.True(t, indexesEqual(a, b))
	assert.False(t, indexesEqual(a, c))
	assert.False(t, indexesEqual(a, d))
}

func TestIsImplicitIDIndex(t *testing.T) {
	assert.True(t, isImplicitIDIndex(model.Ix{Items: []model.IndexItem{{FieldName: "_id"}}}))
	assert.False(t, isImplicitIDIndex(model.Ix{Items: []model.IndexItem{{FieldName: "email"}}}))
	assert.False(t, isImplicitIDIndex(model.Ix{Items: []model.IndexItem{{FieldName: "_id"}, {FieldName: "email"}}}))
}

func TestIndexUnique(t *testing.T) {
	assert.True(t, indexUnique(model.Unique))
	assert.True(t, indexUnique(model.Primary))
	assert.False(t, indexUnique(model.Index))
}
