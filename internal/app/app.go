package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	_ "menuqr/docs"
	"menuqr/internal/authz"
	"menuqr/internal/config"
	"menuqr/internal/handlers"
	"menuqr/internal/middleware"
	"menuqr/internal/pdf"
	"menuqr/internal/qrcode"
	"menuqr/internal/repositories"
	"menuqr/internal/routes"
	"menuqr/internal/services"
	"menuqr/internal/storage"
)

// Services is everything the HTTP layer needs.
type Services struct {
	Tokens  *authz.TokenManager
	Auth    *services.AuthService
	Profile *services.ProfileService
	Verify  *services.VerificationService
	Reset   *services.PasswordResetService
	QR      *services.QRService
}

// App owns the wired services and the connections behind them.
type App struct {
	Config   *config.Config
	Services Services
	Checks   map[string]handlers.Check

	closers []func(context.Context) error
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(s Services, checks map[string]handlers.Check) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())

	routes.SetupRoutes(
		router,
		s.Tokens,
		handlers.NewAuthHandler(s.Auth),
		handlers.NewProfileHandler(s.Profile, s.Verify),
		handlers.NewPasswordHandler(s.Reset),
		handlers.NewQRHandler(s.QR),
		handlers.NewHealthHandler(checks),
	)
	return router
}

// ConnectStore opens Mongo and makes sure the indexes exist. Used by both
// the server and the admin CLI.
func ConnectStore(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	client, db, err := repositories.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := repositories.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, db, nil
}

func NewTokenManager(cfg *config.Config) *authz.TokenManager {
	return authz.NewTokenManager(
		cfg.JWT.Secret,
		cfg.QR.FileTokenSecret,
		time.Duration(cfg.JWT.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.QR.FileTokenTTLSeconds)*time.Second,
	)
}

// New connects every backing store and wires the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Checks: map[string]handlers.Check{}}
	ok := false
	defer func() {
		if !ok {
			a.Close(context.Background())
		}
	}()

	// === Mongo ===
	client, db, err := ConnectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Disconnect)
	a.Checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }

	admins := repositories.NewAdminRepository(db)
	verifications := repositories.NewVerificationRepository(db)
	resets := repositories.NewPasswordResetRepository(db)
	codes := repositories.NewQRRepository(db)

	// === Аналитика сканирований ===
	var scans repositories.ScanEventRepository
	switch cfg.Analytics.Driver {
	case "postgres":
		pg, err := repositories.OpenPostgres(ctx, cfg.Analytics.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return pg.Close() })
		a.Checks["postgres"] = pg.PingContext
		scans = repositories.NewPGScanEventRepository(pg)
	default:
		scans = repositories.NewScanEventRepository(db)
	}
	log.Infof("[app] scan analytics driver=%s", cfg.Analytics.Driver)

	// === Throttling ===
	var throttle services.Throttler
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		a.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		throttle = services.NewRedisThrottler(rdb, "menuqr:throttle:")
	} else {
		log.Warn("[app] redis not configured, using in-process throttling")
		throttle = services.NewMemoryThrottler()
	}

	// === Файлы ===
	store, err := newArtifactStore(ctx, cfg.Files)
	if err != nil {
		return nil, err
	}

	// === Уведомления ===
	mailer := services.NewSMTPMailer(cfg.Email)
	sms := services.NewSMSSender(cfg.SMS)
	gateway := services.NewNotificationGateway(mailer, sms)
	if !gateway.IsEmailConfigured() {
		log.Warn("[app] SMTP not configured: email verification and email reset are disabled")
	}
	if !gateway.IsSmsConfigured() {
		log.Warn("[app] SMS provider not configured: SMS steps are skipped or logged")
	}

	var alerts services.SecurityAlerter = services.LogAlerter{}
	tg, err := services.NewTelegramAlerter(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		log.Warnf("[app] telegram alerts disabled: %v", err)
	} else if tg != nil {
		alerts = tg
	}

	// === Services ===
	tokens := NewTokenManager(cfg)
	verify := services.NewVerificationService(admins, verifications, gateway, throttle, cfg.App.FrontendBaseURL)
	renderer := qrcode.NewRenderer(pdf.NewSheetGenerator(cfg.QR.BrandName, cfg.QR.PDFFontPath))

	a.Services = Services{
		Tokens:  tokens,
		Auth:    services.NewAuthService(admins, tokens),
		Profile: services.NewProfileService(admins, verify, gateway, alerts),
		Verify:  verify,
		Reset: services.NewPasswordResetService(admins, resets, verify, gateway, throttle, alerts,
			cfg.App.FrontendBaseURL, cfg.App.IsProduction()),
		QR: services.NewQRService(codes, scans, store, renderer, tokens, cfg.App.PublicBaseURL),
	}
	ok = true
	return a, nil
}

func newArtifactStore(ctx context.Context, cfg config.FilesConfig) (storage.ArtifactStore, error) {
	switch cfg.Driver {
	case "s3":
		log.Infof("[app] artifacts in s3 bucket=%s", cfg.S3.Bucket)
		return storage.NewS3Store(ctx, cfg.S3)
	default:
		log.Infof("[app] artifacts in %s", cfg.RootDir)
		return storage.NewLocalStore(cfg.RootDir)
	}
}

// Close releases connections in reverse order of opening.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Warnf("[app] close: %v", err)
		}
	}
	a.closers = nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a.Config.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Config.App.Port),
		Handler:           NewRouter(a.Services, a.Checks),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("[app] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
