package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/teodevgroup/teo-mongodb-connector/aggregation"
	"github.com/teodevgroup/teo-mongodb-connector/model"
	"github.com/teodevgroup/teo-mongodb-connector/object"
)

// transactionProbeCollection is the scratch collection the source connector
// writes a sentinel document to while probing for transaction support
// (spec.md §4.7).
const transactionProbeCollection = "__teo__transaction_test__"

// Connection is the connector core's C5 component: it owns the driver
// *mongo.Client and the target database, and mints Transactions (spec.md
// §4.1, §4.7).
type Connection struct {
	client               *mongo.Client
	database             *mongo.Database
	namespace            model.Namespace
	aggBuilder           aggregation.Builder
	objectFactory        object.Factory
	supportsTransactions bool
}

// Config names the collaborators a host must supply when opening a
// Connection.
type Config struct {
	URI           string
	Namespace     model.Namespace
	AggBuilder    aggregation.Builder
	ObjectFactory object.Factory
}

// Connect parses cfg.URI, requires a default database in it, dials the
// client, pings it, and probes for transaction support. A failure in any step
// before the probe is a configuration error the host cannot recover from, so
// each one returns an error rather than degrading; a failed probe only
// downgrades the connection to session-less operation (spec.md §4.7; the source
// connector panics on the equivalent conditions, which in Go idiom becomes a
// returned error from a constructor instead).
func Connect(ctx context.Context, cfg Config) (*Connection, error) {
	parsed, err := connstring.ParseAndValidate(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("invalid mongodb connection string: %w", err)
	}
	if parsed.Database == "" {
		return nil, fmt.Errorf("mongodb connection string must specify a default database")
	}

	clientOpts := options.Client().ApplyURI(cfg.URI)
	if err := clientOpts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mongodb connection string: %w", err)
	}
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to construct mongodb client: %w", err)
	}
	database := client.Database(parsed.Database)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to reach mongodb server: %w", err)
	}

	conn := &Connection{
		client:        client,
		database:      database,
		namespace:     cfg.Namespace,
		aggBuilder:    cfg.AggBuilder,
		objectFactory: cfg.ObjectFactory,
	}
	conn.supportsTransactions = conn.probeTransactionSupport(ctx)
	if !conn.supportsTransactions {
		log.Warn().Msg("mongodb deployment does not support transactions; falling back to session-less operation")
	}
	return conn, nil
}

// probeTransactionSupport starts a real session and transaction, inserts a
// sentinel document tagged with a fresh uuid so concurrent probes (e.g. two
// processes connecting at once) never collide on the same document, and
// commits — any failure downgrades silently to session-less operation rather
// than surfacing an error (spec.md §4.7).
func (c *Connection) probeTransactionSupport(ctx context.Context) bool {
	session, err := c.client.StartSession()
	if err != nil {
		return false
	}
	defer session.EndSession(ctx)

	probeID := uuid.New().String()
	err = mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := session.StartTransaction(); err != nil {
			return err
		}
		coll := c.database.Collection(transactionProbeCollection)
		if _, err := coll.InsertOne(sc, bson.D{{Key: "_id", Value: probeID}, {Key: "supports", Value: true}}); err != nil {
			return err
		}
		return session.CommitTransaction(sc)
	})
	if err == nil {
		go c.database.Collection(transactionProbeCollection).DeleteOne(context.Background(), bson.D{{Key: "_id", Value: probeID}})
	}
	return err == nil
}

// Transaction starts a new unit of work. When the deployment does not
// support transactions, the returned Transaction runs session-less instead
// of failing (spec.md §4.7).
func (c *Connection) Transaction(ctx context.Context) (*Transaction, error) {
	if !c.supportsTransactions {
		return c.NoTransaction(), nil
	}
	session, err := c.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start mongodb session: %w", err)
	}
	owned := NewOwnedSession(session)
	if err := owned.StartTransaction(ctx); err != nil {
		owned.End(ctx)
		return nil, err
	}
	return NewTransaction(c.database, owned, c.namespace, c.aggBuilder, c.objectFactory), nil
}

// NoTransaction returns a Transaction with no backing session, for callers
// that explicitly want session-less operation.
func (c *Connection) NoTransaction() *Transaction {
	return NewTransaction(c.database, nil, c.namespace, c.aggBuilder, c.objectFactory)
}

// Database exposes the underlying *mongo.Database, for host code that needs
// to reach collections this connector does not itself model (e.g. running
// the migrator directly from a CLI command).
func (c *Connection) Database() *mongo.Database { return c.database }

// Close disconnects the underlying client.
func (c *Connection) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
