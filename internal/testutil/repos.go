package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"menuqr/internal/models"
	"menuqr/internal/repositories"
)

// ===== Admins =====

type AdminRepo struct {
	mu             sync.Mutex
	rows           map[primitive.ObjectID]models.Admin
	seq            int
	passwordWrites int
}

func NewAdminRepo() *AdminRepo {
	return &AdminRepo{rows: make(map[primitive.ObjectID]models.Admin)}
}

func (r *AdminRepo) Create(_ context.Context, a *models.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Email == a.Email {
			return repositories.ErrDuplicate
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	// строго возрастающее createdAt, чтобы GetPrimary был детерминирован
	r.seq++
	a.CreatedAt = time.Unix(int64(r.seq), 0).UTC()
	a.UpdatedAt = a.CreatedAt
	r.rows[a.ID] = *a
	return nil
}

func (r *AdminRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &row, nil
}

func (r *AdminRepo) GetByEmail(_ context.Context, email string) (*models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Email == email {
			out := row
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *AdminRepo) GetPrimary(ctx context.Context) (*models.Admin, error) {
	all, _ := r.List(ctx)
	if len(all) == 0 {
		return nil, repositories.ErrNotFound
	}
	return all[0], nil
}

func (r *AdminRepo) List(_ context.Context) ([]*models.Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Admin, 0, len(r.rows))
	for _, row := range r.rows {
		row := row
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *AdminRepo) Update(_ context.Context, a *models.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[a.ID]; !ok {
		return repositories.ErrNotFound
	}
	for id, row := range r.rows {
		if id != a.ID && row.Email == a.Email {
			return repositories.ErrDuplicate
		}
	}
	r.rows[a.ID] = *a
	return nil
}

func (r *AdminRepo) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	row.PasswordHash = hash
	r.rows[id] = row
	r.passwordWrites++
	return nil
}

// PasswordWrites counts UpdatePassword calls that hit a stored admin.
func (r *AdminRepo) PasswordWrites() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.passwordWrites
}

func (r *AdminRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

// ===== Verifications =====

// VerificationRepo enforces the one-pending-per-channel rule like the
// partial unique index does.
type VerificationRepo struct {
	mu   sync.Mutex
	rows []models.VerificationRecord
}

func NewVerificationRepo() *VerificationRepo { return &VerificationRepo{} }

func (r *VerificationRepo) Create(_ context.Context, v *models.VerificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.Status == models.VerificationPending {
		for _, row := range r.rows {
			if row.Status == models.VerificationPending && row.AdminID == v.AdminID && row.Type == v.Type && row.Context == v.Context {
				return repositories.ErrDuplicate
			}
		}
	}
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	r.rows = append(r.rows, *v)
	return nil
}

func (r *VerificationRepo) ExpirePending(_ context.Context, adminID primitive.ObjectID, typ models.VerificationType, vctx models.VerificationContext) (int64, error) {
	return r.expire(func(row models.VerificationRecord) bool {
		return row.AdminID == adminID && row.Type == typ && row.Context == vctx
	}), nil
}

func (r *VerificationRepo) ExpireAllPending(_ context.Context, adminID primitive.ObjectID, vctx models.VerificationContext) (int64, error) {
	return r.expire(func(row models.VerificationRecord) bool {
		return row.AdminID == adminID && row.Context == vctx
	}), nil
}

func (r *VerificationRepo) expire(match func(models.VerificationRecord) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.rows {
		if r.rows[i].Status == models.VerificationPending && match(r.rows[i]) {
			r.rows[i].Status = models.VerificationExpired
			n++
		}
	}
	return n
}

func (r *VerificationRepo) GetByHash(_ context.Context, hash string, typ models.VerificationType, vctx models.VerificationContext) (*models.VerificationRecord, error) {
	return r.latest(func(row models.VerificationRecord) bool {
		return row.SecretHash == hash && row.Type == typ && row.Context == vctx
	})
}

func (r *VerificationRepo) GetLatestPending(_ context.Context, adminID primitive.ObjectID, typ models.VerificationType, vctx models.VerificationContext) (*models.VerificationRecord, error) {
	return r.latest(func(row models.VerificationRecord) bool {
		return row.Status == models.VerificationPending && row.AdminID == adminID && row.Type == typ && row.Context == vctx
	})
}

func (r *VerificationRepo) latest(match func(models.VerificationRecord) bool) (*models.VerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.rows) - 1; i >= 0; i-- {
		if match(r.rows[i]) {
			out := r.rows[i]
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *VerificationRepo) Update(_ context.Context, v *models.VerificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == v.ID {
			r.rows[i] = *v
			return nil
		}
	}
	return repositories.ErrNotFound
}

// Records returns a snapshot of every stored record.
func (r *VerificationRepo) Records() []models.VerificationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.VerificationRecord(nil), r.rows...)
}

func (r *VerificationRepo) CountPending(adminID primitive.ObjectID, typ models.VerificationType, vctx models.VerificationContext) int {
	n := 0
	for _, row := range r.Records() {
		if row.Status == models.VerificationPending && row.AdminID == adminID && row.Type == typ && row.Context == vctx {
			n++
		}
	}
	return n
}

// ===== Reset sessions =====

type ResetRepo struct {
	mu   sync.Mutex
	rows map[string]models.PasswordResetSession
}

func NewResetRepo() *ResetRepo {
	return &ResetRepo{rows: make(map[string]models.PasswordResetSession)}
}

func (r *ResetRepo) Create(_ context.Context, s *models.PasswordResetSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[s.ID]; ok {
		return repositories.ErrDuplicate
	}
	r.rows[s.ID] = *s
	return nil
}

func (r *ResetRepo) GetByID(_ context.Context, id string) (*models.PasswordResetSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &row, nil
}

func (r *ResetRepo) Update(_ context.Context, s *models.PasswordResetSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[s.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.rows[s.ID] = *s
	return nil
}

func (r *ResetRepo) UpdateIfStatus(_ context.Context, s *models.PasswordResetSession, expected models.ResetStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[s.ID]
	if !ok || row.Status != expected {
		return false, nil
	}
	r.rows[s.ID] = *s
	return true, nil
}

func (r *ResetRepo) ExpireActive(_ context.Context, adminID primitive.ObjectID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, row := range r.rows {
		if row.AdminID == adminID && row.Status.Active() {
			row.Status = models.ResetExpired
			r.rows[id] = row
			n++
		}
	}
	return n, nil
}

// ===== QR codes =====

type QRRepo struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]models.QRAsset
}

func NewQRRepo() *QRRepo {
	return &QRRepo{rows: make(map[primitive.ObjectID]models.QRAsset)}
}

func (r *QRRepo) Create(_ context.Context, q *models.QRAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Slug == q.Slug || row.ImageKey == q.ImageKey {
			return repositories.ErrDuplicate
		}
	}
	if q.ID.IsZero() {
		q.ID = primitive.NewObjectID()
	}
	r.rows[q.ID] = *q
	return nil
}

func (r *QRRepo) find(match func(models.QRAsset) bool) (*models.QRAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if match(row) {
			out := row
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *QRRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.QRAsset, error) {
	return r.find(func(q models.QRAsset) bool { return q.ID == id })
}

func (r *QRRepo) GetByImageKey(_ context.Context, key string) (*models.QRAsset, error) {
	return r.find(func(q models.QRAsset) bool { return q.ImageKey == key })
}

func (r *QRRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	_, err := r.find(func(q models.QRAsset) bool { return q.Slug == slug })
	return err == nil, nil
}

func (r *QRRepo) List(_ context.Context, limit, offset int) ([]*models.QRAsset, error) {
	r.mu.Lock()
	all := make([]*models.QRAsset, 0, len(r.rows))
	for _, row := range r.rows {
		row := row
		all = append(all, &row)
	}
	r.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return []*models.QRAsset{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *QRRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *QRRepo) Update(_ context.Context, q *models.QRAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[q.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.rows[q.ID] = *q
	return nil
}

func (r *QRRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *QRRepo) IncrementScan(_ context.Context, slug string, at time.Time) (*models.QRAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.Slug == slug {
			row.ScanCount++
			t := at
			row.LastScanAt = &t
			row.UpdatedAt = at
			r.rows[id] = row
			out := row
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// ===== Scan events =====

type ScanRepo struct {
	mu   sync.Mutex
	rows []models.ScanEvent
}

func NewScanRepo() *ScanRepo { return &ScanRepo{} }

func (r *ScanRepo) Append(_ context.Context, e *models.ScanEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	r.rows = append(r.rows, *e)
	return nil
}

func (r *ScanRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.Events())), nil
}

func (r *ScanRepo) CountSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	for _, e := range r.Events() {
		if !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *ScanRepo) Latest(_ context.Context) (*models.ScanEvent, error) {
	var latest *models.ScanEvent
	for _, e := range r.Events() {
		e := e
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
			latest = &e
		}
	}
	if latest == nil {
		return nil, repositories.ErrNotFound
	}
	return latest, nil
}

func (r *ScanRepo) DistinctSlugs(_ context.Context) (int64, error) {
	seen := map[string]struct{}{}
	for _, e := range r.Events() {
		seen[e.Slug] = struct{}{}
	}
	return int64(len(seen)), nil
}

func (r *ScanRepo) Events() []models.ScanEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ScanEvent(nil), r.rows...)
}

var (
	_ repositories.AdminRepository         = (*AdminRepo)(nil)
	_ repositories.VerificationRepository  = (*VerificationRepo)(nil)
	_ repositories.PasswordResetRepository = (*ResetRepo)(nil)
	_ repositories.QRRepository            = (*QRRepo)(nil)
	_ repositories.ScanEventRepository     = (*ScanRepo)(nil)
)
