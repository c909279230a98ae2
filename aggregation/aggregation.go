// Package aggregation declares the AggBuilder contract of spec.md §1 and §4.3:
// the external collaborator that turns a finder Value into a MongoDB
// aggregation pipeline. The connector core never plans pipeline stages
// itself — it calls Builder and executes whatever pipeline comes back.
package aggregation

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/teodevgroup/teo-mongodb-connector/model"
	"github.com/teodevgroup/teo-mongodb-connector/teon"
)

// Builder builds aggregation pipelines from a host finder shape. Build is
// used by find_unique/find_many, BuildForCount by count, and
// BuildForAggregate by both aggregate and group_by (spec.md §4.3.5).
type Builder interface {
	Build(ns model.Namespace, m *model.Model, finder teon.Value) (mongo.Pipeline, error)
	BuildForCount(ns model.Namespace, m *model.Model, finder teon.Value) (mongo.Pipeline, error)
	BuildForAggregate(ns model.Namespace, m *model.Model, finder teon.Value) (mongo.Pipeline, error)
}
