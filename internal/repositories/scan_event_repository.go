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

// ScanEventRepository is the append-only scan log behind the stats endpoint.
// Backed by Mongo by default or by Postgres when analytics.driver=postgres.
type ScanEventRepository interface {
	Append(ctx context.Context, e *models.ScanEvent) error
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	// Latest returns ErrNotFound when the log is empty.
	Latest(ctx context.Context) (*models.ScanEvent, error)
	DistinctSlugs(ctx context.Context) (int64, error)
}

type mongoScanEventRepository struct {
	col *mongo.Collection
}

func NewScanEventRepository(db *mongo.Database) ScanEventRepository {
	return &mongoScanEventRepository{col: db.Collection(scanEventsCollection)}
}

func (r *mongoScanEventRepository) Append(ctx context.Context, e *models.ScanEvent) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, e)
	return err
}

func (r *mongoScanEventRepository) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *mongoScanEventRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": since}})
}

func (r *mongoScanEventRepository) Latest(ctx context.Context) (*models.ScanEvent, error) {
	var e models.ScanEvent
	err := r.col.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&e)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &e, nil
}

func (r *mongoScanEventRepository) DistinctSlugs(ctx context.Context) (int64, error) {
	vals, err := r.col.Distinct(ctx, "slug", bson.M{})
	if err != nil {
		return 0, err
	}
	return int64(len(vals)), nil
}
