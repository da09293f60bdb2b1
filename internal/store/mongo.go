package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openpos/register/internal/domain"
)

// snapshotDoc wraps the JSON snapshot payload. The cart is stored as the
// serialized contract ({items, customer, discount, notes, hold_id}) rather
// than as structured BSON so the on-disk format matches the published
// snapshot schema exactly.
type snapshotDoc struct {
	RegisterID string    `bson:"register_id"`
	Snapshot   string    `bson:"snapshot"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

type holdDoc struct {
	HoldID    string    `bson:"hold_id"`
	Name      string    `bson:"name"`
	Snapshot  string    `bson:"snapshot"`
	CreatedAt time.Time `bson:"created_at"`
}

type MongoStore struct {
	snapshots *mongo.Collection
	holds     *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		snapshots: db.Collection("register_snapshots"),
		holds:     db.Collection("register_holds"),
	}
}

func (m *MongoStore) Load(ctx context.Context, registerID string) (*domain.Cart, error) {
	var doc snapshotDoc

	filter := bson.M{"register_id": registerID}
	err := m.snapshots.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(doc.Snapshot), &cart); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	return &cart, nil
}

func (m *MongoStore) Save(ctx context.Context, registerID string, cart *domain.Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	filter := bson.M{"register_id": registerID}
	update := bson.M{"$set": snapshotDoc{
		RegisterID: registerID,
		Snapshot:   string(payload),
		UpdatedAt:  time.Now(),
	}}
	opts := options.Update().SetUpsert(true)

	if _, err := m.snapshots.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}

func (m *MongoStore) Delete(ctx context.Context, registerID string) error {
	filter := bson.M{"register_id": registerID}

	result, err := m.snapshots.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrSnapshotNotFound
	}

	return nil
}

func (m *MongoStore) SaveHold(ctx context.Context, hold Hold) error {
	payload, err := json.Marshal(hold.Cart)
	if err != nil {
		return fmt.Errorf("failed to encode held cart: %w", err)
	}

	filter := bson.M{"hold_id": hold.ID}
	update := bson.M{"$set": holdDoc{
		HoldID:    hold.ID,
		Name:      hold.Name,
		Snapshot:  string(payload),
		CreatedAt: hold.CreatedAt,
	}}
	opts := options.Update().SetUpsert(true)

	if _, err := m.holds.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save hold: %w", err)
	}

	return nil
}

func (m *MongoStore) GetHold(ctx context.Context, holdID string) (*Hold, error) {
	var doc holdDoc

	filter := bson.M{"hold_id": holdID}
	err := m.holds.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("failed to get hold: %w", err)
	}

	return decodeHold(doc)
}

func (m *MongoStore) ListHolds(ctx context.Context) ([]Hold, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := m.holds.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list holds: %w", err)
	}
	defer cursor.Close(ctx)

	var holds []Hold
	for cursor.Next(ctx) {
		var doc holdDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode hold: %w", err)
		}
		hold, err := decodeHold(doc)
		if err != nil {
			return nil, err
		}
		holds = append(holds, *hold)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holds: %w", err)
	}

	return holds, nil
}

func (m *MongoStore) DeleteHold(ctx context.Context, holdID string) error {
	filter := bson.M{"hold_id": holdID}

	result, err := m.holds.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete hold: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrHoldNotFound
	}

	return nil
}

func decodeHold(doc holdDoc) (*Hold, error) {
	var cart domain.Cart
	if err := json.Unmarshal([]byte(doc.Snapshot), &cart); err != nil {
		return nil, fmt.Errorf("failed to decode held cart: %w", err)
	}
	return &Hold{
		ID:        doc.HoldID,
		Name:      doc.Name,
		Cart:      &cart,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (m *MongoStore) CreateIndexes(ctx context.Context) error {
	snapshotIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "register_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := m.snapshots.Indexes().CreateMany(ctx, snapshotIndexes); err != nil {
		return fmt.Errorf("failed to create snapshot indexes: %w", err)
	}

	holdIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "hold_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}
	if _, err := m.holds.Indexes().CreateMany(ctx, holdIndexes); err != nil {
		return fmt.Errorf("failed to create hold indexes: %w", err)
	}

	return nil
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}
