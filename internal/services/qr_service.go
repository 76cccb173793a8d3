package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"menuqr/internal/authz"
	"menuqr/internal/metrics"
	"menuqr/internal/models"
	"menuqr/internal/repositories"
	"menuqr/internal/storage"
	"menuqr/internal/utils"
)

const (
	slugLength        = 10
	maxSlugAttempts   = 5
	defaultPageSize   = 20
	maxPageSize       = 100
	statsWeekWindow   = 7 * 24 * time.Hour
	imageKeyNonceSize = 4
)

// Renderer turns (url, format) into artifact bytes.
type Renderer interface {
	Render(url string, format models.QRFormat) ([]byte, error)
}

// QRView is the serialized asset. The storage key is only reachable via
// the signed URL.
type QRView struct {
	models.QRAsset
	SignedURL   string `json:"signedUrl"`
	RedirectURL string `json:"redirectUrl"`
}

type QRPage struct {
	Items []QRView `json:"items"`
	Total int64    `json:"total"`
	Page  int      `json:"page"`
	Size  int      `json:"size"`
}

type QRInput struct {
	URL    string
	Format string
}

// QRUpdate: nil fields are left untouched.
type QRUpdate struct {
	URL    *string
	Format *string
}

type QRFile struct {
	Data        []byte
	ContentType string
	Name        string
}

type QRService struct {
	codes    repositories.QRRepository
	scans    repositories.ScanEventRepository
	store    storage.ArtifactStore
	renderer Renderer
	tokens   *authz.TokenManager

	publicURL string

	Now func() time.Time
}

func NewQRService(
	codes repositories.QRRepository,
	scans repositories.ScanEventRepository,
	store storage.ArtifactStore,
	renderer Renderer,
	tokens *authz.TokenManager,
	publicURL string,
) *QRService {
	return &QRService{
		codes:     codes,
		scans:     scans,
		store:     store,
		renderer:  renderer,
		tokens:    tokens,
		publicURL: strings.TrimRight(publicURL, "/"),
		Now:       time.Now,
	}
}

func (s *QRService) now() time.Time { return s.Now().UTC() }

// ===== CRUD =====

func (s *QRService) CreateQRCode(ctx context.Context, in QRInput) (*QRView, error) {
	target, err := validateTargetURL(in.URL)
	if err != nil {
		return nil, err
	}
	format, ok := models.ParseQRFormat(strings.TrimSpace(in.Format))
	if !ok {
		return nil, newError(ErrValidation, "format must be png, svg or pdf")
	}

	slug, err := s.allocateSlug(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	key, err := imageKey(slug, now, format)
	if err != nil {
		return nil, err
	}
	asset := &models.QRAsset{
		URL:       target,
		Format:    format,
		Slug:      slug,
		ImageKey:  key,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.renderAndStore(ctx, asset); err != nil {
		return nil, err
	}
	if err := s.codes.Create(ctx, asset); err != nil {
		s.deleteArtifact(ctx, asset.ImageKey)
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, newError(ErrConflict, "qr code slug collision, retry")
		}
		return nil, err
	}
	log.Infof("[qr][create] id=%s slug=%s format=%s", asset.ID.Hex(), slug, format)
	return s.view(asset)
}

// UpdateQRCode re-renders under a fresh imageKey whenever url or format
// changes. Old keys are never reused.
func (s *QRService) UpdateQRCode(ctx context.Context, id primitive.ObjectID, upd QRUpdate) (*QRView, error) {
	asset, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	changed := false
	if upd.URL != nil {
		target, err := validateTargetURL(*upd.URL)
		if err != nil {
			return nil, err
		}
		if target != asset.URL {
			asset.URL = target
			changed = true
		}
	}
	if upd.Format != nil {
		format, ok := models.ParseQRFormat(strings.TrimSpace(*upd.Format))
		if !ok {
			return nil, newError(ErrValidation, "format must be png, svg or pdf")
		}
		if format != asset.Format {
			asset.Format = format
			changed = true
		}
	}
	if !changed {
		return s.view(asset)
	}

	now := s.now()
	oldKey := asset.ImageKey
	if asset.ImageKey, err = imageKey(asset.Slug, now, asset.Format); err != nil {
		return nil, err
	}
	asset.UpdatedAt = now
	if err := s.renderAndStore(ctx, asset); err != nil {
		return nil, err
	}
	if err := s.codes.Update(ctx, asset); err != nil {
		s.deleteArtifact(ctx, asset.ImageKey)
		return nil, err
	}
	s.deleteArtifact(ctx, oldKey)
	metrics.QRRegenerations.WithLabelValues("update").Inc()
	log.Infof("[qr][update] id=%s key %s -> %s", asset.ID.Hex(), oldKey, asset.ImageKey)
	return s.view(asset)
}

func (s *QRService) GetQRCode(ctx context.Context, id primitive.ObjectID) (*QRView, error) {
	asset, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(asset)
}

func (s *QRService) ListQRCodes(ctx context.Context, page, size int) (*QRPage, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	items, err := s.codes.List(ctx, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	total, err := s.codes.Count(ctx)
	if err != nil {
		return nil, err
	}
	out := &QRPage{Items: make([]QRView, 0, len(items)), Total: total, Page: page, Size: size}
	for _, a := range items {
		v, err := s.view(a)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, *v)
	}
	return out, nil
}

func (s *QRService) DeleteQRCode(ctx context.Context, id primitive.ObjectID) error {
	asset, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.codes.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return newError(ErrNotFound, "qr code not found")
		}
		return err
	}
	s.deleteArtifact(ctx, asset.ImageKey)
	log.Infof("[qr][delete] id=%s slug=%s", id.Hex(), asset.Slug)
	return nil
}

// ===== Аналитика =====

// GetQRCodeStats runs the aggregate queries in parallel. UniqueVisitors is
// the number of distinct slugs ever scanned, an approximation.
func (s *QRService) GetQRCodeStats(ctx context.Context) (*models.QRStats, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.Add(-statsWeekWindow)

	var st models.QRStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { st.TotalCodes, err = s.codes.Count(gctx); return })
	g.Go(func() (err error) { st.TotalScans, err = s.scans.Count(gctx); return })
	g.Go(func() (err error) { st.ScansToday, err = s.scans.CountSince(gctx, today); return })
	g.Go(func() (err error) { st.ScansThisWeek, err = s.scans.CountSince(gctx, weekAgo); return })
	g.Go(func() (err error) { st.UniqueVisitors, err = s.scans.DistinctSlugs(gctx); return })
	g.Go(func() error {
		last, err := s.scans.Latest(gctx)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		st.LastScan = last
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("qr stats: %w", err)
	}
	return &st, nil
}

// IncrementScanCount returns nil for an unknown slug.
func (s *QRService) IncrementScanCount(ctx context.Context, slug string, meta models.ScanMeta) (*models.QRAsset, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil
	}
	at := s.now()
	asset, err := s.codes.IncrementScan(ctx, slug, at)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ev := &models.ScanEvent{
		QRID:      asset.ID,
		Slug:      asset.Slug,
		UserAgent: meta.UserAgent,
		Referer:   meta.Referer,
		CreatedAt: at,
	}
	if err := s.scans.Append(ctx, ev); err != nil {
		log.Warnf("[qr][scan] slug=%s append event: %v", slug, err)
	}
	metrics.QRScans.Inc()
	return asset, nil
}

// ResolveRedirect counts the scan and returns the target URL.
func (s *QRService) ResolveRedirect(ctx context.Context, slug string, meta models.ScanMeta) (string, error) {
	asset, err := s.IncrementScanCount(ctx, slug, meta)
	if err != nil {
		return "", err
	}
	if asset == nil {
		return "", newError(ErrNotFound, "qr code not found")
	}
	return asset.URL, nil
}

// ===== Работа с файлами (подписанные ссылки) =====

func (s *QRService) SignedURL(key string) (string, error) {
	token, err := s.tokens.IssueFileToken(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/admin/qr/file/%s?token=%s", s.publicURL, url.PathEscape(key), url.QueryEscape(token)), nil
}

// OpenFile serves an artifact behind a signed token. A missing artifact is
// rendered again from its record and put back into storage.
func (s *QRService) OpenFile(ctx context.Context, key, token string) (*QRFile, error) {
	claims := s.tokens.VerifyFileToken(token)
	if claims == nil || claims.Key != key {
		return nil, newError(ErrForbidden, "invalid or expired file token")
	}
	asset, err := s.codes.GetByImageKey(ctx, key)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "file not found")
	}
	if err != nil {
		return nil, err
	}

	data, err := s.store.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		log.Warnf("[qr][file] key=%s missing in storage, regenerating", key)
		data, err = s.renderer.Render(asset.URL, asset.Format)
		if err != nil {
			return nil, fmt.Errorf("regenerate %s: %w", key, err)
		}
		if perr := s.store.Put(ctx, key, data, asset.Format.ContentType()); perr != nil {
			log.Errorf("[qr][file] key=%s store regenerated: %v", key, perr)
		}
		metrics.QRRegenerations.WithLabelValues("missing").Inc()
	} else if err != nil {
		return nil, err
	}
	return &QRFile{Data: data, ContentType: asset.Format.ContentType(), Name: key}, nil
}

// ===== helpers =====

func (s *QRService) view(asset *models.QRAsset) (*QRView, error) {
	signed, err := s.SignedURL(asset.ImageKey)
	if err != nil {
		return nil, err
	}
	return &QRView{
		QRAsset:     *asset,
		SignedURL:   signed,
		RedirectURL: s.publicURL + "/qr/" + url.PathEscape(asset.Slug),
	}, nil
}

func (s *QRService) load(ctx context.Context, id primitive.ObjectID) (*models.QRAsset, error) {
	asset, err := s.codes.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "qr code not found")
	}
	return asset, err
}

func (s *QRService) allocateSlug(ctx context.Context) (string, error) {
	for i := 0; i < maxSlugAttempts; i++ {
		slug, err := utils.GenerateSlug(slugLength)
		if err != nil {
			return "", err
		}
		exists, err := s.codes.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		log.Warnf("[qr][slug] collision on %s (attempt %d)", slug, i+1)
	}
	return "", ErrSlugExhausted
}

func (s *QRService) renderAndStore(ctx context.Context, asset *models.QRAsset) error {
	data, err := s.renderer.Render(asset.URL, asset.Format)
	if err != nil {
		return fmt.Errorf("render qr: %w", err)
	}
	if err := s.store.Put(ctx, asset.ImageKey, data, asset.Format.ContentType()); err != nil {
		return fmt.Errorf("store qr: %w", err)
	}
	return nil
}

func (s *QRService) deleteArtifact(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		log.Warnf("[qr][file] delete %s: %v", key, err)
	}
}

// imageKey = slug-<unixmilli>-<nonce>.<ext>. The random nonce keeps keys
// issued within the same millisecond apart.
func imageKey(slug string, at time.Time, format models.QRFormat) (string, error) {
	nonce, err := utils.GenerateToken(imageKeyNonceSize)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%s.%s", slug, at.UnixMilli(), nonce, format.Extension()), nil
}

func validateTargetURL(raw string) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", newError(ErrValidation, "url is required")
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", newError(ErrValidation, "url must be absolute, e.g. https://example.com/menu")
	}
	return target, nil
}
