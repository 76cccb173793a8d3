package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"menuqr/internal/models"
	"menuqr/internal/services"
	"menuqr/internal/testutil"
	"menuqr/internal/utils"
)

const (
	oldPassword = "0ld!Passw0rd"
	newPassword = "Str0ng!Pass"
)

// startEmailReset seeds an admin and opens an email reset session.
func startEmailReset(t *testing.T, env *testutil.Env, phone string) (*models.Admin, string, string) {
	t.Helper()
	admin := env.SeedAdmin(t, "admin@x.test", phone, oldPassword, phone != "")
	res, err := env.Reset.InitiatePasswordReset(context.Background(), models.ResetByEmail, "  Admin@X.test ")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if got := env.Gateway.LastLinkParam(t, "session"); got != res.Session.ID {
		t.Fatalf("link session = %q, want %q", got, res.Session.ID)
	}
	return admin, res.Session.ID, env.Gateway.LastLinkParam(t, "token")
}

func storedSession(t *testing.T, env *testutil.Env, id string) *models.PasswordResetSession {
	t.Helper()
	s, err := env.Resets.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return s
}

func TestInitiatePasswordResetByEmail(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true, SMSOn: true})
	env.SeedAdmin(t, "admin@x.test", "+77015551234", oldPassword, true)

	res, err := env.Reset.InitiatePasswordReset(context.Background(), models.ResetByEmail, "admin@x.test")
	if err != nil {
		t.Fatal(err)
	}
	if res.MaskedEmail != "a***@x.test" || res.DebugCode != "" {
		t.Fatalf("initiation = %+v", res)
	}
	s := storedSession(t, env, res.Session.ID)
	if s.Status != models.ResetPending || !s.HasEmailChannel() || s.HasSMSChannel() {
		t.Fatalf("session = %+v", s)
	}
	if want := env.Clock.Now().Add(time.Hour); !s.ExpiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", s.ExpiresAt, want)
	}
	if want := env.Clock.Now().Add(15 * time.Minute); !s.EmailTokenExpiresAt.Equal(want) {
		t.Fatalf("token expiresAt = %v, want %v", s.EmailTokenExpiresAt, want)
	}
}

func TestInitiatePasswordResetUnknownContact(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	env.SeedAdmin(t, "admin@x.test", "+77015551234", oldPassword, true)
	ctx := context.Background()

	_, err := env.Reset.InitiatePasswordReset(ctx, models.ResetByEmail, "nobody@x.test")
	if !errors.Is(err, services.ErrNotFound) || err.Error() != "email not found" {
		t.Fatalf("email: got %v", err)
	}
	_, err = env.Reset.InitiatePasswordReset(ctx, models.ResetByPhone, "+1 555 000 0000")
	if !errors.Is(err, services.ErrNotFound) || err.Error() != "phone not found" {
		t.Fatalf("phone: got %v", err)
	}
	if _, err := env.Reset.InitiatePasswordReset(ctx, models.ResetMethod("fax"), "x"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("method: got %v", err)
	}
}

func TestInitiatePasswordResetSupersedesActiveSession(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	_, first, token := startEmailReset(t, env, "")

	if _, err := env.Reset.InitiatePasswordReset(context.Background(), models.ResetByEmail, "admin@x.test"); err != nil {
		t.Fatal(err)
	}
	if s := storedSession(t, env, first); s.Status != models.ResetExpired {
		t.Fatalf("first session status = %s, want expired", s.Status)
	}
	if _, err := env.Reset.VerifyEmailForReset(context.Background(), first, token); !errors.Is(err, services.ErrExpired) {
		t.Fatalf("old session: got %v, want ErrExpired", err)
	}
}

func TestResetTransitionsAreForwardOnly(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true, SMSOn: true})
	_, id, token := startEmailReset(t, env, "+77015551234")
	ctx := context.Background()

	if _, err := env.Reset.VerifySmsForReset(ctx, id, "123456"); !errors.Is(err, services.ErrVerificationIncomplete) {
		t.Fatalf("sms before email: got %v", err)
	}
	if err := env.Reset.CompletePasswordReset(ctx, id, newPassword); !errors.Is(err, services.ErrVerificationIncomplete) {
		t.Fatalf("complete before email: got %v", err)
	}

	smsRequired, err := env.Reset.VerifyEmailForReset(ctx, id, token)
	if err != nil || !smsRequired {
		t.Fatalf("verify email: %v, smsRequired=%v", err, smsRequired)
	}
	if s := storedSession(t, env, id); s.Status != models.ResetEmailVerified {
		t.Fatalf("status = %s, want email-verified", s.Status)
	}
	if err := env.Reset.CompletePasswordReset(ctx, id, newPassword); !errors.Is(err, services.ErrVerificationIncomplete) {
		t.Fatalf("complete before sms: got %v", err)
	}

	ok, err := env.Reset.VerifySmsForReset(ctx, id, env.Gateway.LastCode(t))
	if err != nil || !ok {
		t.Fatalf("verify sms: %v", err)
	}
	if err := env.Reset.CompletePasswordReset(ctx, id, newPassword); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := env.Reset.VerifyEmailForReset(ctx, id, token); !errors.Is(err, services.ErrExpired) {
		t.Fatalf("verify email after completion: got %v", err)
	}
	if _, err := env.Reset.VerifySmsForReset(ctx, id, "123456"); !errors.Is(err, services.ErrExpired) {
		t.Fatalf("verify sms after completion: got %v", err)
	}
	if err := env.Reset.CompletePasswordReset(ctx, id, "An0ther!Pass"); !errors.Is(err, services.ErrExpired) {
		t.Fatalf("second completion: got %v", err)
	}
}

func TestVerifyEmailForResetAutoSatisfiesWithoutPhone(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true, SMSOn: true})
	_, id, token := startEmailReset(t, env, "")

	smsRequired, err := env.Reset.VerifyEmailForReset(context.Background(), id, token)
	if err != nil {
		t.Fatal(err)
	}
	if smsRequired {
		t.Fatal("smsRequired = true for an admin without phone")
	}
	s := storedSession(t, env, id)
	if s.Status != models.ResetSMSVerified || !s.SMSVerified || s.SMSCodeHash != "" {
		t.Fatalf("session = %+v", s)
	}
	if len(env.Gateway.SMS()) != 0 {
		t.Fatal("sms sent to an admin without phone")
	}
}

func TestVerifyEmailForResetAutoSatisfiesWithoutSMSProvider(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	_, id, token := startEmailReset(t, env, "+77015551234")

	smsRequired, err := env.Reset.VerifyEmailForReset(context.Background(), id, token)
	if err != nil || smsRequired {
		t.Fatalf("got smsRequired=%v err=%v", smsRequired, err)
	}
	if err := env.Reset.CompletePasswordReset(context.Background(), id, newPassword); err != nil {
		t.Fatalf("complete: %v", err)
	}
}

func TestVerifyEmailForResetIsIdempotent(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true, SMSOn: true})
	_, id, token := startEmailReset(t, env, "+77015551234")
	ctx := context.Background()

	first, err := env.Reset.VerifyEmailForReset(ctx, id, token)
	if err != nil {
		t.Fatal(err)
	}
	sent := len(env.Gateway.SMS())
	code := env.Gateway.LastCode(t)

	second, err := env.Reset.VerifyEmailForReset(ctx, id, token)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("smsRequired changed: %v -> %v", first, second)
	}
	if len(env.Gateway.SMS()) != sent {
		t.Fatal("second verification re-sent the sms")
	}
	if s := storedSession(t, env, id); !utils.SecretMatches(s.SMSCodeHash, code) {
		t.Fatal("second verification replaced the sms code")
	}
}

func TestVerifyEmailForResetRejectsWrongAndExpiredToken(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	_, id, token := startEmailReset(t, env, "")
	ctx := context.Background()

	_, err := env.Reset.VerifyEmailForReset(ctx, id, "deadbeef")
	if !errors.Is(err, services.ErrInvalidToken) || !errors.Is(err, services.ErrInvalidSecret) {
		t.Fatalf("wrong token: got %v", err)
	}
	if _, err := env.Reset.VerifyEmailForReset(ctx, "missing", token); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("unknown session: got %v", err)
	}

	env.Clock.Advance(16 * time.Minute)
	if _, err := env.Reset.VerifyEmailForReset(ctx, id, token); !errors.Is(err, services.ErrExpired) {
		t.Fatalf("expired token: got %v", err)
	}
	if s := storedSession(t, env, id); s.Status != models.ResetExpired {
		t.Fatalf("status = %s, want expired", s.Status)
	}
}

func TestResetSessionExpiresLazily(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	_, id, token := startEmailReset(t, env, "")
	ctx := context.Background()

	if _, err := env.Reset.VerifyEmailForReset(ctx, id, token); err != nil {
		t.Fatal(err)
	}
	env.Clock.Advance(61 * time.Minute)
	if s := storedSession(t, env, id); s.Status != models.ResetSMSVerified {
		t.Fatalf("status changed without a read: %s", s.Status)
	}
	if err := env.Reset.CompletePasswordReset(ctx, id, newPassword); !errors.Is(err, services.ErrExpired) {
		t.Fatalf("got %v, want ErrExpired", err)
	}
	if s := storedSession(t, env, id); s.Status != models.ResetExpired {
		t.Fatalf("status = %s, want expired", s.Status)
	}
}

func TestPhoneOnlyResetWithDebugCode(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	env.SeedAdmin(t, "admin@x.test", "+7 701 555 12 34", oldPassword, true)
	ctx := context.Background()

	res, err := env.Reset.InitiatePasswordReset(ctx, models.ResetByPhone, "8-701-555-12-34 ")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("different digits must not match: %v", err)
	}
	res, err = env.Reset.InitiatePasswordReset(ctx, models.ResetByPhone, "+7 (701) 555-1234")
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if res.MaskedPhone != "***1234" || len(res.DebugCode) != 6 {
		t.Fatalf("initiation = %+v", res)
	}
	id := res.Session.ID

	if _, err := env.Reset.VerifyEmailForReset(ctx, id, "x"); !errors.Is(err, services.ErrVerificationIncomplete) {
		t.Fatalf("email step on phone session: got %v", err)
	}
	ok, err := env.Reset.VerifySmsForReset(ctx, id, res.DebugCode)
	if err != nil || !ok {
		t.Fatalf("verify sms: %v", err)
	}
	again, err := env.Reset.VerifySmsForReset(ctx, id, "whatever")
	if err != nil || !again {
		t.Fatalf("idempotent sms verify: %v %v", again, err)
	}
	if err := env.Reset.CompletePasswordReset(ctx, id, newPassword); err != nil {
		t.Fatalf("complete: %v", err)
	}
}

func TestPhoneOnlyResetHidesCodeInProduction(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{Production: true})
	env.SeedAdmin(t, "admin@x.test", "+77015551234", oldPassword, true)

	res, err := env.Reset.InitiatePasswordReset(context.Background(), models.ResetByPhone, "+77015551234")
	if err != nil {
		t.Fatal(err)
	}
	if res.DebugCode != "" {
		t.Fatal("debug code leaked in production")
	}
}

func TestVerifySmsForResetLocksAfterFailedAttempts(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{SMSOn: true})
	env.SeedAdmin(t, "admin@x.test", "+77015551234", oldPassword, true)
	ctx := context.Background()

	res, err := env.Reset.InitiatePasswordReset(ctx, models.ResetByPhone, "+77015551234")
	if err != nil {
		t.Fatal(err)
	}
	code := env.Gateway.LastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < 4; i++ {
		if _, err := env.Reset.VerifySmsForReset(ctx, res.Session.ID, wrong); !errors.Is(err, services.ErrInvalidCode) {
			t.Fatalf("attempt %d: got %v", i+1, err)
		}
	}
	if _, err := env.Reset.VerifySmsForReset(ctx, res.Session.ID, wrong); !errors.Is(err, services.ErrTooManyAttempts) {
		t.Fatalf("fifth attempt: got %v", err)
	}
	if _, err := env.Reset.VerifySmsForReset(ctx, res.Session.ID, code); !errors.Is(err, services.ErrExpired) {
		t.Fatalf("after lockout: got %v, want ErrExpired", err)
	}
}

func TestResendResetSMS(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true, SMSOn: true})
	_, id, token := startEmailReset(t, env, "+77015551234")
	ctx := context.Background()

	if _, err := env.Reset.ResendResetSMS(ctx, id); !errors.Is(err, services.ErrVerificationIncomplete) {
		t.Fatalf("resend before email: got %v", err)
	}
	if _, err := env.Reset.VerifyEmailForReset(ctx, id, token); err != nil {
		t.Fatal(err)
	}
	oldCode := env.Gateway.LastCode(t)
	env.Clock.Advance(11 * time.Minute)
	if _, err := env.Reset.VerifySmsForReset(ctx, id, oldCode); !errors.Is(err, services.ErrExpired) {
		t.Fatalf("stale code: got %v, want ErrExpired", err)
	}

	res, err := env.Reset.ResendResetSMS(ctx, id)
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if res.MaskedPhone != "***1234" {
		t.Fatalf("masked phone = %q", res.MaskedPhone)
	}
	if ok, err := env.Reset.VerifySmsForReset(ctx, id, env.Gateway.LastCode(t)); err != nil || !ok {
		t.Fatalf("verify fresh code: %v", err)
	}
}

func TestCompletePasswordResetFinalizes(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	admin, id, token := startEmailReset(t, env, "")
	ctx := context.Background()

	if _, err := env.Verify.RequestEmailVerification(ctx, admin.ID, "admin@x.test", models.ContextPasswordReset); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Reset.VerifyEmailForReset(ctx, id, token); err != nil {
		t.Fatal(err)
	}
	if err := env.Reset.CompletePasswordReset(ctx, id, "weak"); !errors.Is(err, services.ErrWeakPassword) {
		t.Fatalf("weak password: got %v", err)
	}
	if err := env.Reset.CompletePasswordReset(ctx, id, newPassword); err != nil {
		t.Fatalf("complete: %v", err)
	}

	s := storedSession(t, env, id)
	if s.Status != models.ResetCompleted || s.CompletedAt == nil {
		t.Fatalf("session = %+v", s)
	}
	if s.SMSCodeHash != "" || utils.SecretMatches(s.EmailTokenHash, token) {
		t.Fatal("session secrets still usable")
	}
	if n := env.Verifications.CountPending(admin.ID, models.VerificationEmail, models.ContextPasswordReset); n != 0 {
		t.Fatalf("password-reset verifications still pending: %d", n)
	}

	if _, err := env.Auth.Login(ctx, "admin@x.test", oldPassword); !errors.Is(err, services.ErrInvalidCredentials) {
		t.Fatalf("old password: got %v", err)
	}
	if _, err := env.Auth.Login(ctx, "admin@x.test", newPassword); err != nil {
		t.Fatalf("new password: %v", err)
	}
	last := env.Gateway.Emails()[len(env.Gateway.Emails())-1]
	if last.Subject != "Your password was changed" {
		t.Fatalf("last email = %q", last.Subject)
	}
}

func TestCompletePasswordResetIsExactlyOnceUnderConcurrency(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{EmailOn: true})
	_, id, token := startEmailReset(t, env, "")
	ctx := context.Background()
	if _, err := env.Reset.VerifyEmailForReset(ctx, id, token); err != nil {
		t.Fatal(err)
	}
	writesBefore := env.Admins.PasswordWrites()

	const workers = 20
	errs := make([]error, workers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = env.Reset.CompletePasswordReset(ctx, id, newPassword)
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, services.ErrExpired):
			t.Errorf("worker %d: got %v, want ErrExpired", i, err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("successful completions = %d, want 1", succeeded)
	}
	if got := env.Admins.PasswordWrites() - writesBefore; got != 1 {
		t.Fatalf("password written %d times", got)
	}
	if s := storedSession(t, env, id); s.Status != models.ResetCompleted {
		t.Fatalf("status = %s", s.Status)
	}
	if _, err := env.Auth.Login(ctx, "admin@x.test", newPassword); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestRegisteredAdminContact(t *testing.T) {
	env := testutil.NewEnv(t, testutil.Options{})
	ctx := context.Background()

	if _, err := env.Reset.RegisteredAdminContact(ctx); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("no admin: got %v", err)
	}
	env.SeedAdmin(t, "owner@menu.test", "+77015551234", oldPassword, true)
	env.SeedAdmin(t, "second@menu.test", "", oldPassword, false)

	c, err := env.Reset.RegisteredAdminContact(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := models.AdminContact{MaskedEmail: "o***@menu.test", PhoneEnding: "1234", PhoneVerified: true, HasPhone: true}
	if *c != want {
		t.Fatalf("contact = %+v, want %+v", *c, want)
	}
}

func TestResetTransitionTable(t *testing.T) {
	allowed := map[[2]models.ResetStatus]bool{}
	for _, pair := range [][2]models.ResetStatus{
		{models.ResetPending, models.ResetEmailVerified},
		{models.ResetPending, models.ResetSMSVerified},
		{models.ResetEmailVerified, models.ResetSMSVerified},
		{models.ResetSMSVerified, models.ResetCompleted},
	} {
		allowed[pair] = true
	}
	all := []models.ResetStatus{models.ResetPending, models.ResetEmailVerified, models.ResetSMSVerified, models.ResetCompleted, models.ResetExpired}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]models.ResetStatus{from, to}] || (to == models.ResetExpired && from.Active())
			if got := services.ResetTransitions[from][to]; got != want {
				t.Errorf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}
}
