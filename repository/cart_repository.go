package repository

import (
	"context"
	"errors"
	"time"

	"github.com/khoilion/store-be/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CartRepository stores cart headers and their items in two collections.
type CartRepository struct {
	carts *mongo.Collection
	items *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{
		carts: db.Collection("carts"),
		items: db.Collection("cart_items"),
	}
}

// EnsureIndexes enforces one cart per user and one line per product in a cart.
func (r *CartRepository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.carts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	_, err := r.items.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "cart_id", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "product_id", Value: 1}}},
	})
	return err
}

func (r *CartRepository) findCart(ctx context.Context, filter bson.M) (*models.Cart, error) {
	var cart models.Cart
	err := r.carts.FindOne(ctx, filter).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *CartRepository) FindByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	return r.findCart(ctx, bson.M{"user_id": userID})
}

func (r *CartRepository) FindByID(ctx context.Context, id string) (*models.Cart, error) {
	return r.findCart(ctx, bson.M{"_id": id})
}

func (r *CartRepository) Create(ctx context.Context, cart *models.Cart) error {
	_, err := r.carts.InsertOne(ctx, cart)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *CartRepository) UpdateTotals(ctx context.Context, cartID string, totalAmount float64, totalItems int) error {
	res, err := r.carts.UpdateOne(ctx, bson.M{"_id": cartID}, bson.M{"$set": bson.M{
		"total_amount": totalAmount,
		"total_items":  totalItems,
		FieldUpdatedAt: time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CartRepository) findItems(ctx context.Context, filter bson.M) ([]*models.CartItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.items.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []*models.CartItem{}
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CartRepository) FindItems(ctx context.Context, cartID string) ([]*models.CartItem, error) {
	return r.findItems(ctx, bson.M{"cart_id": cartID})
}

func (r *CartRepository) FindItem(ctx context.Context, cartID, productID string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.items.FindOne(ctx, bson.M{"cart_id": cartID, "product_id": productID}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CartRepository) InsertItem(ctx context.Context, item *models.CartItem) error {
	_, err := r.items.InsertOne(ctx, item)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *CartRepository) UpdateItem(ctx context.Context, itemID string, quantity int, totalPrice float64) error {
	res, err := r.items.UpdateOne(ctx, bson.M{"_id": itemID}, bson.M{"$set": bson.M{
		"quantity":     quantity,
		"total_price":  totalPrice,
		FieldUpdatedAt: time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CartRepository) DeleteItem(ctx context.Context, itemID string) error {
	res, err := r.items.DeleteOne(ctx, bson.M{"_id": itemID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CartRepository) DeleteItems(ctx context.Context, cartID string) (int64, error) {
	res, err := r.items.DeleteMany(ctx, bson.M{"cart_id": cartID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *CartRepository) FindItemsByProducts(ctx context.Context, productIDs []string) ([]*models.CartItem, error) {
	if len(productIDs) == 0 {
		return []*models.CartItem{}, nil
	}
	return r.findItems(ctx, bson.M{"product_id": bson.M{"$in": productIDs}})
}
