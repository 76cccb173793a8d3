package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"menuqr/internal/models"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, s *models.PasswordResetSession) error
	GetByID(ctx context.Context, id string) (*models.PasswordResetSession, error)
	// Update replaces the whole session document (last writer wins).
	Update(ctx context.Context, s *models.PasswordResetSession) error
	// UpdateIfStatus replaces the document only while its persisted status
	// still equals expected. Returns false when another writer got there first.
	UpdateIfStatus(ctx context.Context, s *models.PasswordResetSession, expected models.ResetStatus) (bool, error)
	// ExpireActive marks every still-active session of the admin as expired.
	ExpireActive(ctx context.Context, adminID primitive.ObjectID) (int64, error)
}

type mongoPasswordResetRepository struct {
	col *mongo.Collection
}

func NewPasswordResetRepository(db *mongo.Database) PasswordResetRepository {
	return &mongoPasswordResetRepository{col: db.Collection(resetSessionsCollection)}
}

func (r *mongoPasswordResetRepository) Create(ctx context.Context, s *models.PasswordResetSession) error {
	_, err := r.col.InsertOne(ctx, s)
	return mapMongoErr(err)
}

func (r *mongoPasswordResetRepository) GetByID(ctx context.Context, id string) (*models.PasswordResetSession, error) {
	var s models.PasswordResetSession
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, mapMongoErr(err)
	}
	return &s, nil
}

func (r *mongoPasswordResetRepository) Update(ctx context.Context, s *models.PasswordResetSession) error {
	s.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoPasswordResetRepository) UpdateIfStatus(ctx context.Context, s *models.PasswordResetSession, expected models.ResetStatus) (bool, error) {
	s.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": s.ID, "status": expected}, s)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *mongoPasswordResetRepository) ExpireActive(ctx context.Context, adminID primitive.ObjectID) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{
			"adminId": adminID,
			"status": bson.M{"$in": []models.ResetStatus{
				models.ResetPending, models.ResetEmailVerified, models.ResetSMSVerified,
			}},
		},
		bson.M{"$set": bson.M{"status": models.ResetExpired, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
