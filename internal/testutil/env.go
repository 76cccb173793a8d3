package testutil

import (
	"context"
	"testing"
	"time"

	"menuqr/internal/authz"
	"menuqr/internal/models"
	"menuqr/internal/pdf"
	"menuqr/internal/qrcode"
	"menuqr/internal/services"
)

const (
	PublicURL   = "https://api.menu.test"
	FrontendURL = "https://admin.menu.test"
	FileTTL     = 10 * time.Minute
)

type Options struct {
	EmailOn    bool
	SMSOn      bool
	Production bool
}

// Env wires every service on top of in-memory fakes and one shared clock.
type Env struct {
	Clock         *Clock
	Admins        *AdminRepo
	Verifications *VerificationRepo
	Resets        *ResetRepo
	QRCodes       *QRRepo
	Scans         *ScanRepo
	Store         *MemoryStore
	Gateway       *Gateway
	Tokens        *authz.TokenManager

	Verify  *services.VerificationService
	Reset   *services.PasswordResetService
	QR      *services.QRService
	Auth    *services.AuthService
	Profile *services.ProfileService
}

func NewEnv(t *testing.T, opts Options) *Env {
	t.Helper()
	e := &Env{
		Clock:         NewClock(time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)),
		Admins:        NewAdminRepo(),
		Verifications: NewVerificationRepo(),
		Resets:        NewResetRepo(),
		QRCodes:       NewQRRepo(),
		Scans:         NewScanRepo(),
		Store:         NewMemoryStore(),
		Gateway:       NewGateway(opts.EmailOn, opts.SMSOn),
	}
	e.Tokens = authz.NewTokenManager("test-secret", "", time.Hour, FileTTL)
	e.Tokens.Now = e.Clock.Now

	throttle := services.NewMemoryThrottler()
	throttle.Now = e.Clock.Now

	e.Verify = services.NewVerificationService(e.Admins, e.Verifications, e.Gateway, throttle, FrontendURL)
	e.Verify.Now = e.Clock.Now
	e.Reset = services.NewPasswordResetService(e.Admins, e.Resets, e.Verify, e.Gateway, throttle, nil, FrontendURL, opts.Production)
	e.Reset.Now = e.Clock.Now
	renderer := qrcode.NewRenderer(pdf.NewSheetGenerator("Test Menu", ""))
	e.QR = services.NewQRService(e.QRCodes, e.Scans, e.Store, renderer, e.Tokens, PublicURL)
	e.QR.Now = e.Clock.Now
	e.Auth = services.NewAuthService(e.Admins, e.Tokens)
	e.Profile = services.NewProfileService(e.Admins, e.Verify, e.Gateway, nil)
	return e
}

// SeedAdmin stores an admin with the given contact data and password.
func (e *Env) SeedAdmin(t *testing.T, email, phone, password string, phoneVerified bool) *models.Admin {
	t.Helper()
	ctx := context.Background()
	a, err := e.Auth.CreateAdmin(ctx, services.CreateAdminInput{
		Name:        "Owner",
		Email:       email,
		PhoneNumber: phone,
		Password:    password,
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	a.EmailVerified = true
	a.PhoneVerified = phoneVerified && phone != ""
	if err := e.Admins.Update(ctx, a); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return a
}
