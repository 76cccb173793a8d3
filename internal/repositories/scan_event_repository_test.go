package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"menuqr/internal/models"
)

// testDB connects to MENUQR_TEST_MONGO_URI and drops the throwaway database
// afterwards. Skips when the variable is not set.
func testDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MENUQR_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("MENUQR_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, db, err := ConnectMongo(ctx, uri, fmt.Sprintf("menuqr_test_%d", time.Now().UnixNano()))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := EnsureIndexes(ctx, db); err != nil {
		t.Fatalf("indexes: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestMongoScanEventCounts(t *testing.T) {
	db := testDB(t)
	repo := NewScanEventRepository(db)
	ctx := context.Background()

	if n, err := repo.Count(ctx); err != nil || n != 0 {
		t.Fatalf("empty count = %d, %v", n, err)
	}
	if _, err := repo.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("latest on empty log: %v", err)
	}

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	qrID := primitive.NewObjectID()
	for i, slug := range []string{"aaa", "bbb", "aaa", "ccc"} {
		e := &models.ScanEvent{QRID: qrID, Slug: slug, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := repo.Append(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 4 {
		t.Fatalf("count = %d, %v", n, err)
	}
	// Count must agree with an exact scan of the collection
	exact, err := db.Collection(scanEventsCollection).CountDocuments(ctx, bson.M{})
	if err != nil || exact != n {
		t.Fatalf("exact = %d, count = %d, err %v", exact, n, err)
	}
	if since, _ := repo.CountSince(ctx, base.Add(2*time.Hour)); since != 2 {
		t.Fatalf("count since = %d", since)
	}
	if slugs, _ := repo.DistinctSlugs(ctx); slugs != 3 {
		t.Fatalf("distinct slugs = %d", slugs)
	}
	last, err := repo.Latest(ctx)
	if err != nil || last.Slug != "ccc" {
		t.Fatalf("latest = %+v, %v", last, err)
	}
}

func TestMongoQRRepositoryScans(t *testing.T) {
	db := testDB(t)
	repo := NewQRRepository(db)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	q := &models.QRAsset{URL: "https://x.test", Format: models.FormatPNG, Slug: "abc", ImageKey: "abc-1.png", CreatedAt: now, UpdatedAt: now}
	if err := repo.Create(ctx, q); err != nil {
		t.Fatal(err)
	}
	if exists, err := repo.SlugExists(ctx, "abc"); err != nil || !exists {
		t.Fatalf("slug exists = %v, %v", exists, err)
	}
	dup := *q
	dup.ID = primitive.NilObjectID
	if err := repo.Create(ctx, &dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate slug: %v", err)
	}

	for i := 1; i <= 3; i++ {
		got, err := repo.IncrementScan(ctx, "abc", now.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatal(err)
		}
		if got.ScanCount != int64(i) {
			t.Fatalf("scanCount = %d, want %d", got.ScanCount, i)
		}
	}
	if _, err := repo.IncrementScan(ctx, "nope", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown slug: %v", err)
	}
	byKey, err := repo.GetByImageKey(ctx, "abc-1.png")
	if err != nil || byKey.LastScanAt == nil || !byKey.LastScanAt.Equal(now.Add(3*time.Minute)) {
		t.Fatalf("by key = %+v, %v", byKey, err)
	}
}
