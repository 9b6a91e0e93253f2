package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fjod/storefront/internal/domain"
)

const cartRetention = 90 * 24 * time.Hour

// Server codes returned when an update meets a field of the wrong type.
const (
	codeBadValue     = 2
	codeTypeMismatch = 14
)

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *MongoRepository) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	raw, err := m.collection.FindOne(ctx, bson.M{"_id": cartID}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return decodeDocument(raw)
}

func (m *MongoRepository) AddItem(ctx context.Context, cartID string, item domain.CartItem) (*domain.Cart, error) {
	now := time.Now().UTC()
	for attempt := 0; attempt < 2; attempt++ {
		cart, err := m.findAndUpdate(ctx, bson.M{"_id": cartID, "items.id": item.ID}, bson.M{
			"$inc": bson.M{"items.$.quantity": item.Quantity, "version": 1},
			"$set": bson.M{"updated_at": now},
		}, false)
		if !errors.Is(err, ErrCartNotFound) {
			return cart, wrap("failed to update existing item", err)
		}

		cart, err = m.findAndUpdate(ctx, bson.M{"_id": cartID, "items.id": bson.M{"$ne": item.ID}}, bson.M{
			"$push":        bson.M{"items": item},
			"$inc":         bson.M{"version": 1},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		}, true)
		if !mongo.IsDuplicateKeyError(err) {
			return cart, wrap("failed to add new item", err)
		}
		// the entry was added between the two updates; bump it on the next pass
	}
	return nil, fmt.Errorf("failed to add item to cart %s: concurrent writers", cartID)
}

func (m *MongoRepository) UpdateItemQuantity(ctx context.Context, cartID, itemID string, quantity int) (*domain.Cart, error) {
	cart, err := m.findAndUpdate(ctx, bson.M{"_id": cartID, "items.id": itemID}, bson.M{
		"$set": bson.M{"items.$.quantity": quantity, "updated_at": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}, false)
	if errors.Is(err, ErrCartNotFound) {
		return nil, ErrItemNotFound
	}
	return cart, wrap("failed to update item quantity", err)
}

func (m *MongoRepository) RemoveItem(ctx context.Context, cartID, itemID string) (*domain.Cart, error) {
	cart, err := m.findAndUpdate(ctx, bson.M{"_id": cartID}, bson.M{
		"$pull": bson.M{"items": bson.M{"id": itemID}},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
		"$inc":  bson.M{"version": 1},
	}, false)
	return cart, wrap("failed to remove item", err)
}

func (m *MongoRepository) ClearItems(ctx context.Context, cartID string) (*domain.Cart, error) {
	cart, err := m.findAndUpdate(ctx, bson.M{"_id": cartID}, bson.M{
		"$set": bson.M{"items": []domain.CartItem{}, "updated_at": time.Now().UTC()},
		"$inc": bson.M{"version": 1},
	}, false)
	return cart, wrap("failed to clear cart", err)
}

func (m *MongoRepository) CompleteOrder(ctx context.Context, cartID, orderID string, itemIDs []string) (*domain.Cart, error) {
	if itemIDs == nil {
		itemIDs = []string{}
	}
	now := time.Now().UTC()
	cart, err := m.findAndUpdate(ctx, bson.M{"_id": cartID}, bson.M{
		"$pull":        bson.M{"items": bson.M{"id": bson.M{"$in": itemIDs}}},
		"$set":         bson.M{"last_order_id": orderID, "updated_at": now},
		"$inc":         bson.M{"version": 1},
		"$setOnInsert": bson.M{"created_at": now},
	}, true)
	return cart, wrap("failed to complete order", err)
}

func (m *MongoRepository) DeleteCart(ctx context.Context, cartID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": cartID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *MongoRepository) Ping(ctx context.Context) error {
	return m.collection.Database().Client().Ping(ctx, nil)
}

// CreateIndexes expires carts that have not been touched for the retention period.
func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(cartRetention.Seconds())),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// findAndUpdate applies update to the document matching filter and returns it
// as stored afterwards.
func (m *MongoRepository) findAndUpdate(ctx context.Context, filter, update bson.M, upsert bool) (*domain.Cart, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(upsert)
	raw, err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Raw()
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrCartNotFound
	case isTypeMismatch(err):
		return nil, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	case err != nil:
		return nil, err
	}
	return decodeDocument(raw)
}

func isTypeMismatch(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && (se.HasErrorCode(codeBadValue) || se.HasErrorCode(codeTypeMismatch))
}

func decodeDocument(raw bson.Raw) (*domain.Cart, error) {
	var cart domain.Cart
	if err := bson.Unmarshal(raw, &cart); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCart, err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

// wrap annotates unexpected driver errors and passes repository errors through.
func wrap(msg string, err error) error {
	if err == nil || errors.Is(err, ErrCartNotFound) || errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrCorruptCart) {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
