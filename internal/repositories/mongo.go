package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

const (
	adminsCollection        = "admins"
	verificationsCollection = "verifications"
	resetSessionsCollection = "password_reset_sessions"
	qrCodesCollection       = "qr_codes"
	scanEventsCollection    = "qr_scan_events"

	resetSessionRetention = 7 * 24 * time.Hour
)

// ConnectMongo dials and pings the cluster.
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Infof("[mongo] connected db=%s", dbName)
	return client, client.Database(dbName), nil
}

// EnsureIndexes creates the unique, partial-unique and TTL indexes the
// repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		adminsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
		verificationsCollection: {
			// не больше одной pending-записи на (admin, type, context)
			{
				Keys: bson.D{{Key: "adminId", Value: 1}, {Key: "type", Value: 1}, {Key: "context", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("one_pending_per_channel").
					SetPartialFilterExpression(bson.M{"status": "pending"}),
			},
			{Keys: bson.D{{Key: "secretHash", Value: 1}, {Key: "context", Value: 1}}},
		},
		resetSessionsCollection: {
			{Keys: bson.D{{Key: "adminId", Value: 1}, {Key: "status", Value: 1}}},
			{
				Keys:    bson.D{{Key: "expiresAt", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(int32(resetSessionRetention.Seconds())),
			},
		},
		qrCodesCollection: {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "imageKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		scanEventsCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "slug", Value: 1}}},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func mapMongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
