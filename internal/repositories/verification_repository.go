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

type VerificationRepository interface {
	// Create fails with ErrDuplicate when a pending record already exists
	// for the same (admin, type, context).
	Create(ctx context.Context, v *models.VerificationRecord) error
	// ExpirePending flips pending records of one channel to expired.
	ExpirePending(ctx context.Context, adminID primitive.ObjectID, typ models.VerificationType, vctx models.VerificationContext) (int64, error)
	// ExpireAllPending does the same for every channel of a context.
	ExpireAllPending(ctx context.Context, adminID primitive.ObjectID, vctx models.VerificationContext) (int64, error)
	GetByHash(ctx context.Context, hash string, typ models.VerificationType, vctx models.VerificationContext) (*models.VerificationRecord, error)
	GetLatestPending(ctx context.Context, adminID primitive.ObjectID, typ models.VerificationType, vctx models.VerificationContext) (*models.VerificationRecord, error)
	Update(ctx context.Context, v *models.VerificationRecord) error
}

type mongoVerificationRepository struct {
	col *mongo.Collection
}

func NewVerificationRepository(db *mongo.Database) VerificationRepository {
	return &mongoVerificationRepository{col: db.Collection(verificationsCollection)}
}

func (r *mongoVerificationRepository) Create(ctx context.Context, v *models.VerificationRecord) error {
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, v)
	return mapMongoErr(err)
}

func (r *mongoVerificationRepository) ExpirePending(ctx context.Context, adminID primitive.ObjectID, typ models.VerificationType, vctx models.VerificationContext) (int64, error) {
	return r.expire(ctx, bson.M{
		"adminId": adminID,
		"type":    typ,
		"context": vctx,
		"status":  models.VerificationPending,
	})
}

func (r *mongoVerificationRepository) ExpireAllPending(ctx context.Context, adminID primitive.ObjectID, vctx models.VerificationContext) (int64, error) {
	return r.expire(ctx, bson.M{
		"adminId": adminID,
		"context": vctx,
		"status":  models.VerificationPending,
	})
}

func (r *mongoVerificationRepository) expire(ctx context.Context, filter bson.M) (int64, error) {
	res, err := r.col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"status": models.VerificationExpired}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *mongoVerificationRepository) GetByHash(ctx context.Context, hash string, typ models.VerificationType, vctx models.VerificationContext) (*models.VerificationRecord, error) {
	var v models.VerificationRecord
	err := r.col.FindOne(ctx,
		bson.M{"secretHash": hash, "type": typ, "context": vctx},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&v)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &v, nil
}

func (r *mongoVerificationRepository) GetLatestPending(ctx context.Context, adminID primitive.ObjectID, typ models.VerificationType, vctx models.VerificationContext) (*models.VerificationRecord, error) {
	var v models.VerificationRecord
	err := r.col.FindOne(ctx,
		bson.M{"adminId": adminID, "type": typ, "context": vctx, "status": models.VerificationPending},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	).Decode(&v)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return &v, nil
}

func (r *mongoVerificationRepository) Update(ctx context.Context, v *models.VerificationRecord) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": v.ID}, v)
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
