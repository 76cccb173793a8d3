package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"menuqr/internal/models"
)

const scanEventsSchema = `
CREATE TABLE IF NOT EXISTS qr_scan_events (
	id         BIGSERIAL PRIMARY KEY,
	qr_id      TEXT        NOT NULL,
	slug       TEXT        NOT NULL,
	user_agent TEXT        NOT NULL DEFAULT '',
	referer    TEXT        NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS qr_scan_events_created_at_idx ON qr_scan_events (created_at DESC);`

// PGScanEventRepository keeps the scan log in Postgres for reporting.
type PGScanEventRepository struct{ db *sql.DB }

// OpenPostgres opens the pool and makes sure the scan table exists.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, scanEventsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate qr_scan_events: %w", err)
	}
	return db, nil
}

func NewPGScanEventRepository(db *sql.DB) *PGScanEventRepository {
	return &PGScanEventRepository{db: db}
}

func (r *PGScanEventRepository) Append(ctx context.Context, e *models.ScanEvent) error {
	const q = `
		INSERT INTO qr_scan_events (qr_id, slug, user_agent, referer, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, q,
		e.QRID.Hex(),
		e.Slug,
		e.UserAgent,
		e.Referer,
		e.CreatedAt,
	); err != nil {
		return fmt.Errorf("append scan event: %w", err)
	}
	return nil
}

func (r *PGScanEventRepository) Count(ctx context.Context) (int64, error) {
	return r.scalar(ctx, `SELECT COUNT(*) FROM qr_scan_events`)
}

func (r *PGScanEventRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return r.scalar(ctx, `SELECT COUNT(*) FROM qr_scan_events WHERE created_at >= $1`, since)
}

func (r *PGScanEventRepository) DistinctSlugs(ctx context.Context) (int64, error) {
	return r.scalar(ctx, `SELECT COUNT(DISTINCT slug) FROM qr_scan_events`)
}

func (r *PGScanEventRepository) scalar(ctx context.Context, q string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("scan stats: %w", err)
	}
	return n, nil
}

func (r *PGScanEventRepository) Latest(ctx context.Context) (*models.ScanEvent, error) {
	const q = `
		SELECT qr_id, slug, user_agent, referer, created_at
		FROM qr_scan_events
		ORDER BY created_at DESC
		LIMIT 1`
	var (
		e    models.ScanEvent
		qrID string
	)
	err := r.db.QueryRowContext(ctx, q).Scan(&qrID, &e.Slug, &e.UserAgent, &e.Referer, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest scan event: %w", err)
	}
	if oid, err := primitive.ObjectIDFromHex(qrID); err == nil {
		e.QRID = oid
	}
	return &e, nil
}

var _ ScanEventRepository = (*PGScanEventRepository)(nil)
