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

type mongoOrderItemRepository struct {
	collection *mongo.Collection
}

func NewOrderItemRepository(db *mongo.Database) OrderItemRepository {
	return &mongoOrderItemRepository{
		collection: db.Collection("order_items"),
	}
}

func keyFilter(key domain.OrderItemKey) bson.D {
	return bson.D{{Key: "_id", Value: key}}
}

func (m *mongoOrderItemRepository) List(ctx context.Context) ([]*domain.OrderItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id.order_id", Value: 1}, {Key: "_id.product_id", Value: 1}})

	cursor, err := m.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]*domain.OrderItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	return items, nil
}

func (m *mongoOrderItemRepository) Get(ctx context.Context, key domain.OrderItemKey) (*domain.OrderItem, error) {
	var item domain.OrderItem
	err := m.collection.FindOne(ctx, keyFilter(key)).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderItemNotFound
		}
		return nil, fmt.Errorf("failed to get order item: %w", err)
	}
	return &item, nil
}

// Insert adds a new line. The compound _id makes a second insert of the same
// key fail with ErrDuplicateOrderItem and leaves the stored row untouched.
func (m *mongoOrderItemRepository) Insert(ctx context.Context, item *domain.OrderItem) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	if _, err := m.collection.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrderItem
		}
		return fmt.Errorf("failed to insert order item: %w", err)
	}
	return nil
}

func (m *mongoOrderItemRepository) Update(ctx context.Context, item *domain.OrderItem) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"ordered_quantity": item.OrderedQuantity,
			"updated_at":       now,
		},
	}

	var updated domain.OrderItem
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := m.collection.FindOneAndUpdate(ctx, keyFilter(item.Key), update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrOrderItemNotFound
		}
		return fmt.Errorf("failed to update order item: %w", err)
	}
	*item = updated
	return nil
}

func (m *mongoOrderItemRepository) Delete(ctx context.Context, key domain.OrderItemKey) error {
	result, err := m.collection.DeleteOne(ctx, keyFilter(key))
	if err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrOrderItemNotFound
	}
	return nil
}

func (m *mongoOrderItemRepository) DeleteByOrder(ctx context.Context, orderID int64) (int64, error) {
	result, err := m.collection.DeleteMany(ctx, bson.M{"_id.order_id": orderID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete order items of order %d: %w", orderID, err)
	}
	return result.DeletedCount, nil
}

func (m *mongoOrderItemRepository) CreateIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "_id.order_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
