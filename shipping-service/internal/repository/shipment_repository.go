package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SantiagoAngel007/ecommerce-microservice-backend-app/shipping-service/internal/domain"
)

const shipmentCounter = "shipments"

type mongoShipmentRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

func NewShipmentRepository(db *mongo.Database) ShipmentRepository {
	return &mongoShipmentRepository{
		collection: db.Collection("shipments"),
		counters:   db.Collection("counters"),
	}
}

// nextID hands out monotonically increasing shipment ids from a counter document.
func (m *mongoShipmentRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := m.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": shipmentCounter},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate shipment id: %w", err)
	}
	return counter.Seq, nil
}

func (m *mongoShipmentRepository) List(ctx context.Context, orderID int64) ([]*domain.Shipment, error) {
	filter := bson.M{}
	if orderID > 0 {
		filter["order_id"] = orderID
	}

	cursor, err := m.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	defer cursor.Close(ctx)

	shipments := make([]*domain.Shipment, 0)
	if err := cursor.All(ctx, &shipments); err != nil {
		return nil, fmt.Errorf("failed to decode shipments: %w", err)
	}
	return shipments, nil
}

func (m *mongoShipmentRepository) Get(ctx context.Context, id int64) (*domain.Shipment, error) {
	var s domain.Shipment
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrShipmentNotFound
		}
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	return &s, nil
}

func (m *mongoShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	id, err := m.nextID(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	s.ID = id
	s.CreatedAt = now
	s.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("failed to insert shipment: %w", err)
	}
	return nil
}

func (m *mongoShipmentRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.ShipmentStatus) (*domain.Shipment, error) {
	update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var s domain.Shipment
	err := m.collection.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update, opts).Decode(&s)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update shipment status: %w", err)
	}

	// tell a missing shipment apart from one that moved on concurrently
	if _, getErr := m.Get(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStatusChanged
}

func (m *mongoShipmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete shipment: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrShipmentNotFound
	}
	return nil
}

func (m *mongoShipmentRepository) CancelPendingForOrder(ctx context.Context, orderID int64) (int64, error) {
	result, err := m.collection.UpdateMany(ctx,
		bson.M{"order_id": orderID, "status": domain.ShipmentStatusPending},
		bson.M{"$set": bson.M{"status": domain.ShipmentStatusCancelled, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel shipments of order %d: %w", orderID, err)
	}
	return result.ModifiedCount, nil
}

func (m *mongoShipmentRepository) CreateIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// CreateIndexes prepares both collections.
func CreateIndexes(ctx context.Context, items OrderItemRepository, shipments ShipmentRepository) error {
	type indexer interface {
		CreateIndexes(ctx context.Context) error
	}
	for _, r := range []any{items, shipments} {
		if ix, ok := r.(indexer); ok {
			if err := ix.CreateIndexes(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
