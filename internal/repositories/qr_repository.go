package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"menuqr/internal/models"
)

type QRRepository interface {
	Create(ctx context.Context, q *models.QRAsset) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.QRAsset, error)
	GetByImageKey(ctx context.Context, key string) (*models.QRAsset, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// List returns codes newest first.
	List(ctx context.Context, limit, offset int) ([]*models.QRAsset, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, q *models.QRAsset) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// IncrementScan bumps scanCount atomically and returns the updated asset.
	IncrementScan(ctx context.Context, slug string, at time.Time) (*models.QRAsset, error)
}

type mongoQRRepository struct {
	col *mongo.Collection
}

func NewQRRepository(db *mongo.Database) QRRepository {
	return &mongoQRRepository{col: db.Collection(qrCodesCollection)}
}

func (r *mongoQRRepository) Create(ctx context.Context, q *models.QRAsset) error {
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, q)
	return mapMongoErr(err)
}

func (r *mongoQRRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.QRAsset, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoQRRepository) GetByImageKey(ctx context.Context, key string) (*models.QRAsset, error) {
	return r.findOne(ctx, bson.M{"imageKey": key})
}

func (r *mongoQRRepository) findOne(ctx context.Context, filter bson.M) (*models.QRAsset, error) {
	var q models.QRAsset
	if err := r.col.FindOne(ctx, filter).Decode(&q); err != nil {
		return nil, mapMongoErr(err)
	}
	return &q, nil
}

func (r *mongoQRRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *mongoQRRepository) List(ctx context.Context, limit, offset int) ([]*models.QRAsset, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	out := make([]*models.QRAsset, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoQRRepository) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *mongoQRRepository) Update(ctx context.Context, q *models.QRAsset) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": q.ID}, q)
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoQRRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoQRRepository) IncrementScan(ctx context.Context, slug string, at time.Time) (*models.QRAsset, error) {
	var q models.QRAsset
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"slug": slug},
		bson.M{
			"$inc": bson.M{"scanCount": 1},
			"$set": bson.M{"lastScanAt": at, "updatedAt": at},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&q)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &q, nil
}
