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

type AdminRepository interface {
	Create(ctx context.Context, a *models.Admin) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	// GetPrimary returns the oldest admin account.
	GetPrimary(ctx context.Context) (*models.Admin, error)
	List(ctx context.Context) ([]*models.Admin, error)
	// Update replaces the whole document.
	Update(ctx context.Context, a *models.Admin) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error
	Count(ctx context.Context) (int64, error)
}

type mongoAdminRepository struct {
	col *mongo.Collection
}

func NewAdminRepository(db *mongo.Database) AdminRepository {
	return &mongoAdminRepository{col: db.Collection(adminsCollection)}
}

func (r *mongoAdminRepository) Create(ctx context.Context, a *models.Admin) error {
	now := time.Now().UTC()
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := r.col.InsertOne(ctx, a)
	return mapMongoErr(err)
}

func (r *mongoAdminRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Admin, error) {
	return r.findOne(ctx, bson.M{"_id": id}, nil)
}

func (r *mongoAdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return r.findOne(ctx, bson.M{"email": email}, nil)
}

func (r *mongoAdminRepository) GetPrimary(ctx context.Context) (*models.Admin, error) {
	return r.findOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
}

func (r *mongoAdminRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*models.Admin, error) {
	var a models.Admin
	var res *mongo.SingleResult
	if opts != nil {
		res = r.col.FindOne(ctx, filter, opts)
	} else {
		res = r.col.FindOne(ctx, filter)
	}
	if err := res.Decode(&a); err != nil {
		return nil, mapMongoErr(err)
	}
	return &a, nil
}

func (r *mongoAdminRepository) List(ctx context.Context) ([]*models.Admin, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []*models.Admin
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mongoAdminRepository) Update(ctx context.Context, a *models.Admin) error {
	a.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoAdminRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"passwordHash": hash,
		"updatedAt":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoAdminRepository) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}
