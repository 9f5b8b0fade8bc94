// Package store provides the persistence backends: MongoDB for
// production and an in-memory implementation for development and tests.
// Both satisfy the ledger read side and the insight write side.
package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/benchwise/finsight/core"
	"github.com/benchwise/finsight/insight"
)

const (
	transactionsCollection = "transactions"
	integrationsCollection = "integrations"
	insightsCollection     = "insights"

	connectTimeout = 10 * time.Second
)

// Mongo is the MongoDB-backed store.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects to MongoDB and pings it before returning.
func NewMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &Mongo{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// userIDValue converts a user identifier to its stored form. Records
// written by older services keyed users by ObjectID; hex strings are
// converted back, anything else is matched as-is.
func userIDValue(userID string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(userID); err == nil {
		return oid
	}
	return userID
}

// TransactionsInRange returns the user's transactions with dates inside
// the inclusive ISO date window.
func (m *Mongo) TransactionsInRange(ctx context.Context, userID, start, end string) ([]core.Transaction, error) {
	filter := bson.M{
		"userId": userIDValue(userID),
		"date":   bson.M{"$gte": start, "$lte": end},
	}

	cursor, err := m.db.Collection(transactionsCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []core.Transaction
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return txns, nil
}

// integrationDoc mirrors the shape of stored bank integrations.
type integrationDoc struct {
	UserID interface{} `bson:"userId"`
	Plaid  struct {
		IsIntegrated    bool              `bson:"isIntegrated"`
		BankConnections []core.Connection `bson:"bankConnections"`
	} `bson:"plaid"`
}

// Connections returns the user's bank connections, or none when the
// user has no integration record.
func (m *Mongo) Connections(ctx context.Context, userID string) ([]core.Connection, error) {
	var doc integrationDoc
	err := m.db.Collection(integrationsCollection).
		FindOne(ctx, bson.M{"userId": userIDValue(userID)}).
		Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find integration: %w", err)
	}
	return doc.Plaid.BankConnections, nil
}

// UsersWithConnections lists users that have at least one active bank
// connection.
func (m *Mongo) UsersWithConnections(ctx context.Context) ([]string, error) {
	filter := bson.M{
		"plaid.isIntegrated":    true,
		"plaid.bankConnections": bson.M{"$exists": true, "$not": bson.M{"$size": 0}},
	}

	cursor, err := m.db.Collection(integrationsCollection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find integrations: %w", err)
	}
	defer cursor.Close(ctx)

	var users []string
	for cursor.Next(ctx) {
		var doc integrationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode integration: %w", err)
		}
		switch id := doc.UserID.(type) {
		case primitive.ObjectID:
			users = append(users, id.Hex())
		case string:
			users = append(users, id)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate integrations: %w", err)
	}
	return users, nil
}

// SaveTransactions upserts pulled transactions for a user, keyed by
// transaction id so re-syncing a window never duplicates records.
func (m *Mongo) SaveTransactions(ctx context.Context, userID string, txns []core.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	uid := userIDValue(userID)

	models := make([]mongo.WriteModel, 0, len(txns))
	for _, txn := range txns {
		payload, err := bson.Marshal(txn)
		if err != nil {
			return fmt.Errorf("encode transaction %s: %w", txn.ID, err)
		}
		var fields bson.M
		if err := bson.Unmarshal(payload, &fields); err != nil {
			return fmt.Errorf("encode transaction %s: %w", txn.ID, err)
		}
		fields["userId"] = uid

		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"userId": uid, "transaction_id": txn.ID}).
			SetReplacement(fields).
			SetUpsert(true))
	}

	_, err := m.db.Collection(transactionsCollection).BulkWrite(ctx, models)
	if err != nil {
		return fmt.Errorf("upsert transactions: %w", err)
	}
	return nil
}

// SaveConnections replaces the user's bank connections and marks the
// integration active.
func (m *Mongo) SaveConnections(ctx context.Context, userID string, connections []core.Connection) error {
	uid := userIDValue(userID)

	_, err := m.db.Collection(integrationsCollection).UpdateOne(
		ctx,
		bson.M{"userId": uid},
		bson.M{"$set": bson.M{
			"plaid.isIntegrated":    true,
			"plaid.bankConnections": connections,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert connections: %w", err)
	}
	return nil
}

// Upsert stores the insight document, replacing any previous one for the
// same user.
func (m *Mongo) Upsert(ctx context.Context, doc *insight.Document) error {
	userID := userIDValue(doc.UserID)

	payload, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode insight document: %w", err)
	}
	var fields bson.M
	if err := bson.Unmarshal(payload, &fields); err != nil {
		return fmt.Errorf("encode insight document: %w", err)
	}
	fields["userId"] = userID

	_, err = m.db.Collection(insightsCollection).UpdateOne(
		ctx,
		bson.M{"userId": userID},
		bson.M{"$set": fields},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert insight document: %w", err)
	}
	return nil
}
