package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"menuqr/internal/models"
	"menuqr/internal/services"
	"menuqr/internal/testutil"
)

func TestRequestEmailVerificationKeepsOnePending(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	admin := env.SeedAdmin(t, "admin@x.test", "", "Str0ng!Pass", false)
	ctx := context.Background()

	first, err := env.Verify.RequestEmailVerification(ctx, admin.ID, "new@x.test", models.ContextProfile)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	second, err := env.Verify.RequestEmailVerification(ctx, admin.ID, "new@x.test", models.ContextProfile)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}

	if n := env.Verifications.CountPending(admin.ID, models.VerificationEmail, models.ContextProfile); n != 1 {
		t.Fatalf("pending records = %d, want 1", n)
	}
	for _, rec := range env.Verifications.Records() {
		switch rec.ID {
		case first.ID:
			if rec.Status != models.VerificationExpired {
				t.Errorf("first record status = %s, want expired", rec.Status)
			}
		case second.ID:
			if rec.Status != models.VerificationPending {
				t.Errorf("second record status = %s, want pending", rec.Status)
			}
		}
	}
	if second.SecretHash == "" || len(env.Gateway.Emails()) != 2 {
		t.Fatalf("expected a hashed secret and two emails")
	}
}

// racingRepo plants a competing pending record right before the first insert.
type racingRepo struct {
	*testutil.VerificationRepo
	raced bool
}

func (r *racingRepo) Create(ctx context.Context, v *models.VerificationRecord) error {
	if !r.raced {
		r.raced = true
		rival := *v
		rival.ID = primitive.NilObjectID
		rival.SecretHash = "rival"
		if err := r.VerificationRepo.Create(ctx, &rival); err != nil {
			return err
		}
	}
	return r.VerificationRepo.Create(ctx, v)
}

func TestRequestEmailVerificationRetriesAfterConcurrentInsert(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	admin := env.SeedAdmin(t, "admin@x.test", "", "Str0ng!Pass", false)
	repo := &racingRepo{VerificationRepo: testutil.NewVerificationRepo()}
	svc := services.NewVerificationService(env.Admins, repo, env.Gateway, nil, testutil.FrontendURL)

	rec, err := svc.RequestEmailVerification(context.Background(), admin.ID, "admin@x.test", models.ContextProfile)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if n := repo.CountPending(admin.ID, models.VerificationEmail, models.ContextProfile); n != 1 {
		t.Fatalf("pending = %d, want 1", n)
	}
	got, err := repo.GetLatestPending(context.Background(), admin.ID, models.VerificationEmail, models.ContextProfile)
	if err != nil || got.ID != rec.ID {
		t.Fatalf("pending record is not ours: %+v %v", got, err)
	}
}

func TestConfirmEmailVerificationAdoptsTarget(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	admin := env.SeedAdmin(t, "admin@x.test", "", "Str0ng!Pass", false)
	ctx := context.Background()

	if _, err := env.Verify.RequestEmailVerification(ctx, admin.ID, "Owner@X.test", models.ContextProfile); err != nil {
		t.Fatal(err)
	}
	token := env.Gateway.LastLinkParam(t, "token")
	if got := env.Gateway.LastLinkParam(t, "context"); got != "profile" {
		t.Fatalf("context param = %q", got)
	}

	updated, err := env.Verify.ConfirmEmailVerification(ctx, token, models.ContextProfile)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if updated.Email != "owner@x.test" || !updated.EmailVerified {
		t.Fatalf("admin after confirm: %+v", updated)
	}

	// повторное использование ссылки
	if _, err := env.Verify.ConfirmEmailVerification(ctx, token, models.ContextProfile); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("reuse: got %v, want ErrNotFound", err)
	}
	// чужой контекст
	if _, err := env.Verify.ConfirmEmailVerification(ctx, token, models.ContextPasswordReset); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("other context: got %v, want ErrNotFound", err)
	}
}

func TestConfirmEmailVerificationExpires(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	admin := env.SeedAdmin(t, "admin@x.test", "", "Str0ng!Pass", false)
	ctx := context.Background()

	rec, err := env.Verify.RequestEmailVerification(ctx, admin.ID, "admin@x.test", models.ContextProfile)
	if err != nil {
		t.Fatal(err)
	}
	token := env.Gateway.LastLinkParam(t, "token")
	env.Clock.Advance(16 * time.Minute)

	if _, err := env.Verify.ConfirmEmailVerification(ctx, token, models.ContextProfile); !errors.Is(err, services.ErrExpired) {
		t.Fatalf("got %v, want ErrExpired", err)
	}
	for _, r := range env.Verifications.Records() {
		if r.ID == rec.ID && r.Status != models.VerificationExpired {
			t.Fatalf("record status = %s, want expired", r.Status)
		}
	}
}

func TestConfirmEmailVerificationConflict(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	admin := env.SeedAdmin(t, "admin@x.test", "", "Str0ng!Pass", false)
	ctx := context.Background()

	if _, err := env.Verify.RequestEmailVerification(ctx, admin.ID, "taken@x.test", models.ContextProfile); err != nil {
		t.Fatal(err)
	}
	token := env.Gateway.LastLinkParam(t, "token")
	env.SeedAdmin(t, "taken@x.test", "", "Str0ng!Pass", false)

	if _, err := env.Verify.ConfirmEmailVerification(ctx, token, models.ContextProfile); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestRequestVerificationNeedsTransport(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{})
	admin := env.SeedAdmin(t, "admin@x.test", "+77010000000", "Str0ng!Pass", false)
	ctx := context.Background()

	if _, err := env.Verify.RequestEmailVerification(ctx, admin.ID, "admin@x.test", models.ContextProfile); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("email: got %v, want ErrConfiguration", err)
	}
	if _, err := env.Verify.RequestPhoneVerification(ctx, admin.ID, "+77010000000", models.ContextProfile); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("phone: got %v, want ErrConfiguration", err)
	}
	if len(env.Verifications.Records()) != 0 {
		t.Fatal("records created without a transport")
	}
}

func TestPhoneVerificationFlow(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{SMSOn: true})
	admin := env.SeedAdmin(t, "admin@x.test", "", "Str0ng!Pass", false)
	ctx := context.Background()

	if _, err := env.Verify.RequestPhoneVerification(ctx, admin.ID, "+7 701 555 12 34", models.ContextProfile); err != nil {
		t.Fatalf("request: %v", err)
	}
	sms := env.Gateway.SMS()
	if len(sms) != 1 || sms[0].To != "+77015551234" {
		t.Fatalf("sms = %+v", sms)
	}
	code := env.Gateway.LastCode(t)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err := env.Verify.ConfirmPhoneVerification(ctx, admin.ID, wrong, models.ContextProfile)
	if !errors.Is(err, services.ErrInvalidCode) || !errors.Is(err, services.ErrInvalidSecret) {
		t.Fatalf("wrong code: got %v", err)
	}

	other := env.SeedAdmin(t, "other@x.test", "", "Str0ng!Pass", false)
	if _, err := env.Verify.ConfirmPhoneVerification(ctx, other.ID, code, models.ContextProfile); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("other admin: got %v, want ErrNotFound", err)
	}

	updated, err := env.Verify.ConfirmPhoneVerification(ctx, admin.ID, code, models.ContextProfile)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if updated.PhoneNumber != "+77015551234" || !updated.PhoneVerified {
		t.Fatalf("admin after confirm: %+v", updated)
	}
	if _, err := env.Verify.ConfirmPhoneVerification(ctx, admin.ID, code, models.ContextProfile); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("second confirm: got %v, want ErrNotFound", err)
	}
}

func TestPhoneVerificationLocksAfterFailedAttempts(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{SMSOn: true})
	admin := env.SeedAdmin(t, "admin@x.test", "", "Str0ng!Pass", false)
	ctx := context.Background()

	if _, err := env.Verify.RequestPhoneVerification(ctx, admin.ID, "+77015551234", models.ContextProfile); err != nil {
		t.Fatal(err)
	}
	code := env.Gateway.LastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	var err error
	for i := 0; i < 5; i++ {
		_, err = env.Verify.ConfirmPhoneVerification(ctx, admin.ID, wrong, models.ContextProfile)
	}
	if !errors.Is(err, services.ErrTooManyAttempts) {
		t.Fatalf("fifth failure: got %v, want ErrTooManyAttempts", err)
	}
	if _, err := env.Verify.ConfirmPhoneVerification(ctx, admin.ID, code, models.ContextProfile); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("correct code after lockout: got %v, want ErrNotFound", err)
	}
}

func TestPhoneVerificationExpires(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{SMSOn: true})
	admin := env.SeedAdmin(t, "admin@x.test", "", "Str0ng!Pass", false)
	ctx := context.Background()

	if _, err := env.Verify.RequestPhoneVerification(ctx, admin.ID, "+77015551234", models.ContextProfile); err != nil {
		t.Fatal(err)
	}
	code := env.Gateway.LastCode(t)
	env.Clock.Advance(11 * time.Minute)
	if _, err := env.Verify.ConfirmPhoneVerification(ctx, admin.ID, code, models.ContextProfile); !errors.Is(err, services.ErrExpired) {
		t.Fatalf("got %v, want ErrExpired", err)
	}
}

func TestRequestVerificationThrottled(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	admin := env.SeedAdmin(t, "admin@x.test", "", "Str0ng!Pass", false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := env.Verify.RequestEmailVerification(ctx, admin.ID, "admin@x.test", models.ContextProfile); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}
	if _, err := env.Verify.RequestEmailVerification(ctx, admin.ID, "admin@x.test", models.ContextProfile); !errors.Is(err, services.ErrThrottled) {
		t.Fatalf("fourth request: got %v, want ErrThrottled", err)
	}
	env.Clock.Advance(11 * time.Minute)
	if _, err := env.Verify.RequestEmailVerification(ctx, admin.ID, "admin@x.test", models.ContextProfile); err != nil {
		t.Fatalf("after window: %v", err)
	}
}
