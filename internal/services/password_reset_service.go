package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"menuqr/internal/metrics"
	"menuqr/internal/models"
	"menuqr/internal/repositories"
	"menuqr/internal/utils"
)

const (
	resetEmailTokenTTL = 15 * time.Minute
	resetSMSCodeTTL    = 10 * time.Minute
	resetSessionTTL    = 60 * time.Minute
)

// ResetInitiation is what the public forgot-password step may reveal.
// DebugCode is only ever set outside production when SMS is not configured.
type ResetInitiation struct {
	Session     *models.PasswordResetSession
	MaskedEmail string
	MaskedPhone string
	DebugCode   string
}

// PasswordResetService drives the forgotten-password flow. Every step reads
// the current session, checks expiry lazily and persists the whole document.
type PasswordResetService struct {
	admins        repositories.AdminRepository
	sessions      repositories.PasswordResetRepository
	verifications *VerificationService
	notify        NotificationGateway
	throttle      Throttler
	alerts        SecurityAlerter

	frontendURL string
	production  bool

	Now func() time.Time
}

func NewPasswordResetService(
	admins repositories.AdminRepository,
	sessions repositories.PasswordResetRepository,
	verifications *VerificationService,
	notify NotificationGateway,
	throttle Throttler,
	alerts SecurityAlerter,
	frontendURL string,
	production bool,
) *PasswordResetService {
	if alerts == nil {
		alerts = LogAlerter{}
	}
	return &PasswordResetService{
		admins:        admins,
		sessions:      sessions,
		verifications: verifications,
		notify:        notify,
		throttle:      throttle,
		alerts:        alerts,
		frontendURL:   strings.TrimRight(frontendURL, "/"),
		production:    production,
		Now:           time.Now,
	}
}

func (s *PasswordResetService) now() time.Time { return s.Now().UTC() }

// RegisteredAdminContact exposes masked contact data of the primary admin.
func (s *PasswordResetService) RegisteredAdminContact(ctx context.Context) (*models.AdminContact, error) {
	admin, err := s.admins.GetPrimary(ctx)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "no admin account registered")
	}
	if err != nil {
		return nil, err
	}
	return &models.AdminContact{
		MaskedEmail:   utils.MaskEmail(admin.Email),
		PhoneEnding:   utils.PhoneEnding(admin.PhoneNumber),
		PhoneVerified: admin.PhoneVerified,
		HasPhone:      admin.PhoneNumber != "",
	}, nil
}

func (s *PasswordResetService) InitiatePasswordReset(ctx context.Context, method models.ResetMethod, value string) (res *ResetInitiation, err error) {
	defer func() { metrics.PasswordResets.WithLabelValues("initiate", metrics.Outcome(err)).Inc() }()

	var (
		admin      *models.Admin
		normalized string
	)
	switch method {
	case models.ResetByEmail:
		normalized = utils.NormalizeEmail(value)
		if normalized == "" {
			return nil, newError(ErrValidation, "email is required")
		}
		if !s.notify.IsEmailConfigured() {
			return nil, fmt.Errorf("%w: email transport", ErrConfiguration)
		}
		admin, err = s.admins.GetByEmail(ctx, normalized)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "email not found")
		}
	case models.ResetByPhone:
		normalized = utils.NormalizePhone(value)
		if normalized == "" {
			return nil, newError(ErrValidation, "phone is required")
		}
		admin, err = s.findByPhone(ctx, normalized)
	default:
		return nil, newError(ErrValidation, "method must be email or phone")
	}
	if err != nil {
		return nil, err
	}
	if err := allow(ctx, s.throttle, "forgot:"+admin.ID.Hex(), maxForgotPerWindow, resendWindow); err != nil {
		return nil, err
	}

	// новая сессия вытесняет все активные
	if n, err := s.sessions.ExpireActive(ctx, admin.ID); err != nil {
		return nil, err
	} else if n > 0 {
		log.Infof("[reset][initiate] admin=%s superseded=%d", admin.ID.Hex(), n)
	}

	now := s.now()
	sess := &models.PasswordResetSession{
		ID:        uuid.NewString(),
		AdminID:   admin.ID,
		Method:    method,
		Status:    models.ResetPending,
		ExpiresAt: now.Add(resetSessionTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	res = &ResetInitiation{Session: sess}

	switch method {
	case models.ResetByEmail:
		token, err := utils.GenerateToken(tokenBytes)
		if err != nil {
			return nil, err
		}
		exp := now.Add(resetEmailTokenTTL)
		sess.EmailTokenHash = utils.HashSecret(token)
		sess.EmailTokenExpiresAt = &exp
		if err := s.sessions.Create(ctx, sess); err != nil {
			return nil, err
		}
		link := fmt.Sprintf("%s/reset-password?session=%s&token=%s",
			s.frontendURL, url.QueryEscape(sess.ID), url.QueryEscape(token))
		if err := s.notify.SendEmail(ctx, resetEmail(admin.Email, link)); err != nil {
			s.expire(ctx, sess)
			return nil, err
		}
		res.MaskedEmail = utils.MaskEmail(admin.Email)

	case models.ResetByPhone:
		code, err := s.setSMSCode(sess, now)
		if err != nil {
			return nil, err
		}
		if err := s.sessions.Create(ctx, sess); err != nil {
			return nil, err
		}
		res.DebugCode, err = s.deliverCode(ctx, sess, admin.PhoneNumber, code)
		if err != nil {
			return nil, err
		}
		res.MaskedPhone = utils.MaskPhone(admin.PhoneNumber)
	}

	log.Infof("[reset][initiate] admin=%s session=%s method=%s", admin.ID.Hex(), sess.ID, method)
	return res, nil
}

// VerifyEmailForReset reports whether an SMS step still follows.
func (s *PasswordResetService) VerifyEmailForReset(ctx context.Context, sessionID, token string) (smsRequired bool, err error) {
	defer func() { metrics.PasswordResets.WithLabelValues("verify-email", metrics.Outcome(err)).Inc() }()

	sess, err := s.ensureSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if !sess.HasEmailChannel() {
		return false, newError(ErrVerificationIncomplete, "this reset session has no email step")
	}
	if sess.EmailVerified {
		return !sess.SMSVerified, nil
	}
	if !utils.SecretMatches(sess.EmailTokenHash, strings.TrimSpace(token)) {
		return false, ErrInvalidToken
	}
	now := s.now()
	if sess.EmailTokenExpiresAt == nil || now.After(*sess.EmailTokenExpiresAt) {
		s.expire(ctx, sess)
		return false, newError(ErrExpired, "reset link has expired")
	}

	admin, err := s.loadAdmin(ctx, sess)
	if err != nil {
		return false, err
	}
	sess.EmailVerified = true

	if admin.PhoneNumber == "" || !s.notify.IsSmsConfigured() {
		// второй фактор недоступен: считаем SMS-шаг пройденным
		if err := s.transition(sess, models.ResetSMSVerified); err != nil {
			return false, err
		}
		sess.SMSVerified = true
		sess.SMSCodeHash = ""
		sess.SMSCodeExpiresAt = nil
		if err := s.sessions.Update(ctx, sess); err != nil {
			return false, err
		}
		log.Infof("[reset][verify-email] session=%s sms auto-satisfied", sess.ID)
		return false, nil
	}

	if err := s.transition(sess, models.ResetEmailVerified); err != nil {
		return false, err
	}
	code, err := s.setSMSCode(sess, now)
	if err != nil {
		return false, err
	}
	if err := s.sessions.Update(ctx, sess); err != nil {
		return false, err
	}
	if _, err := s.deliverCode(ctx, sess, admin.PhoneNumber, code); err != nil {
		return false, err
	}
	log.Infof("[reset][verify-email] session=%s sms code sent", sess.ID)
	return true, nil
}

// ResendResetSMS issues a fresh code for a session that waits on SMS.
func (s *PasswordResetService) ResendResetSMS(ctx context.Context, sessionID string) (res *ResetInitiation, err error) {
	defer func() { metrics.PasswordResets.WithLabelValues("resend-sms", metrics.Outcome(err)).Inc() }()

	sess, err := s.ensureSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.SMSVerified {
		return nil, newError(ErrValidation, "sms step already completed")
	}
	if sess.HasEmailChannel() && !sess.EmailVerified {
		return nil, newError(ErrVerificationIncomplete, "confirm the email link first")
	}
	if err := allow(ctx, s.throttle, "reset-sms:"+sess.ID, maxResendsPerWindow, resendWindow); err != nil {
		return nil, err
	}
	admin, err := s.loadAdmin(ctx, sess)
	if err != nil {
		return nil, err
	}
	if admin.PhoneNumber == "" {
		return nil, newError(ErrValidation, "no phone number on file")
	}

	code, err := s.setSMSCode(sess, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, sess); err != nil {
		return nil, err
	}
	res = &ResetInitiation{Session: sess, MaskedPhone: utils.MaskPhone(admin.PhoneNumber)}
	if res.DebugCode, err = s.deliverCode(ctx, sess, admin.PhoneNumber, code); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *PasswordResetService) VerifySmsForReset(ctx context.Context, sessionID, code string) (verified bool, err error) {
	defer func() { metrics.PasswordResets.WithLabelValues("verify-sms", metrics.Outcome(err)).Inc() }()

	sess, err := s.ensureSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if sess.HasEmailChannel() && !sess.EmailVerified {
		return false, newError(ErrVerificationIncomplete, "confirm the email link first")
	}
	if sess.SMSVerified {
		return true, nil
	}
	if !sess.HasSMSChannel() {
		return false, newError(ErrVerificationIncomplete, "no sms code has been issued")
	}
	if sess.SMSAttempts >= maxConfirmAttempts {
		return false, newError(ErrTooManyAttempts, "too many attempts")
	}
	if sess.SMSCodeExpiresAt == nil || s.now().After(*sess.SMSCodeExpiresAt) {
		return false, newError(ErrExpired, "sms code has expired, request a new one")
	}

	if !utils.SecretMatches(sess.SMSCodeHash, strings.TrimSpace(code)) {
		sess.SMSAttempts++
		if sess.SMSAttempts >= maxConfirmAttempts {
			s.expire(ctx, sess)
			log.Warnf("[reset][verify-sms] session=%s too many attempts", sess.ID)
			return false, newError(ErrTooManyAttempts, "too many attempts, start over")
		}
		if err := s.sessions.Update(ctx, sess); err != nil {
			return false, err
		}
		return false, ErrInvalidCode
	}

	if err := s.transition(sess, models.ResetSMSVerified); err != nil {
		return false, err
	}
	sess.SMSVerified = true
	if err := s.sessions.Update(ctx, sess); err != nil {
		return false, err
	}
	log.Infof("[reset][verify-sms] session=%s verified", sess.ID)
	return true, nil
}

// CompletePasswordReset sets the new password. The session is claimed with
// a conditional write first, so a second concurrent call cannot reuse it.
func (s *PasswordResetService) CompletePasswordReset(ctx context.Context, sessionID, newPassword string) (err error) {
	defer func() { metrics.PasswordResets.WithLabelValues("complete", metrics.Outcome(err)).Inc() }()

	sess, err := s.ensureSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !sess.HasEmailChannel() && !sess.HasSMSChannel() && !sess.SMSVerified {
		return newError(ErrVerificationIncomplete, "reset session has no verified channel")
	}
	if (sess.HasEmailChannel() && !sess.EmailVerified) || (sess.HasSMSChannel() && !sess.SMSVerified) {
		return newError(ErrVerificationIncomplete, "verification is not complete")
	}
	if !canTransition(sess.Status, models.ResetCompleted) {
		return newError(ErrVerificationIncomplete, "verification is not complete")
	}
	if !utils.ValidatePasswordStrength(newPassword) {
		return ErrWeakPassword
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	// финализация: секреты больше не должны работать
	now := s.now()
	prev := *sess
	sess.Status = models.ResetCompleted
	sess.CompletedAt = &now
	sess.SMSCodeHash = ""
	sess.SMSCodeExpiresAt = nil
	if sess.HasEmailChannel() {
		junk, err := utils.GenerateToken(tokenBytes)
		if err != nil {
			return err
		}
		sess.EmailTokenHash = utils.HashSecret(junk)
	}
	claimed, err := s.sessions.UpdateIfStatus(ctx, sess, models.ResetSMSVerified)
	if err != nil {
		return err
	}
	if !claimed {
		return newError(ErrExpired, "reset session already completed")
	}

	if err := s.admins.UpdatePassword(ctx, sess.AdminID, hash); err != nil {
		// вернуть сессию, чтобы можно было повторить
		if _, rerr := s.sessions.UpdateIfStatus(ctx, &prev, models.ResetCompleted); rerr != nil {
			log.Errorf("[reset][complete] session=%s rollback failed: %v", sess.ID, rerr)
		}
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.verifications.ExpirePending(ctx, sess.AdminID, models.ContextPasswordReset); err != nil {
		log.Warnf("[reset][complete] admin=%s expire verifications: %v", sess.AdminID.Hex(), err)
	}

	admin, err := s.admins.GetByID(ctx, sess.AdminID)
	if err == nil {
		if s.notify.IsEmailConfigured() {
			if err := s.notify.SendEmail(ctx, passwordChangedEmail(admin.Email)); err != nil {
				log.Warnf("[reset][complete] notify %s: %v", utils.MaskEmail(admin.Email), err)
			}
		}
		s.alerts.Alert(ctx, "Admin password reset", fmt.Sprintf("account %s, method %s", utils.MaskEmail(admin.Email), sess.Method))
	}
	log.Infof("[reset][complete] admin=%s session=%s", sess.AdminID.Hex(), sess.ID)
	return nil
}

// ===== helpers =====

// ensureSession loads a session and applies lazy expiry.
func (s *PasswordResetService) ensureSession(ctx context.Context, id string) (*models.PasswordResetSession, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, newError(ErrNotFound, "reset session not found")
	}
	sess, err := s.sessions.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "reset session not found")
	}
	if err != nil {
		return nil, err
	}
	switch sess.Status {
	case models.ResetCompleted:
		return nil, newError(ErrExpired, "reset session already completed")
	case models.ResetExpired:
		return nil, newError(ErrExpired, "reset session has expired")
	case models.ResetPending, models.ResetEmailVerified, models.ResetSMSVerified:
	default:
		return nil, newError(ErrNotFound, "reset session not found")
	}
	if s.now().After(sess.ExpiresAt) {
		s.expire(ctx, sess)
		return nil, newError(ErrExpired, "reset session has expired")
	}
	return sess, nil
}

func (s *PasswordResetService) transition(sess *models.PasswordResetSession, to models.ResetStatus) error {
	if !canTransition(sess.Status, to) {
		return newError(ErrVerificationIncomplete, fmt.Sprintf("reset session cannot move from %s to %s", sess.Status, to))
	}
	sess.Status = to
	return nil
}

// expire persists the expired status; failures are logged only since the
// caller is already returning an error.
func (s *PasswordResetService) expire(ctx context.Context, sess *models.PasswordResetSession) {
	if !canTransition(sess.Status, models.ResetExpired) {
		return
	}
	sess.Status = models.ResetExpired
	if err := s.sessions.Update(ctx, sess); err != nil {
		log.Errorf("[reset][expire] session=%s: %v", sess.ID, err)
	}
}

func (s *PasswordResetService) setSMSCode(sess *models.PasswordResetSession, now time.Time) (string, error) {
	code, err := utils.GenerateNumericCode(smsCodeDigits)
	if err != nil {
		return "", err
	}
	exp := now.Add(resetSMSCodeTTL)
	sess.SMSCodeHash = utils.HashSecret(code)
	sess.SMSCodeExpiresAt = &exp
	sess.SMSAttempts = 0
	return code, nil
}

// deliverCode sends the SMS, or without a provider logs the code and hands
// it back for local testing outside production.
func (s *PasswordResetService) deliverCode(ctx context.Context, sess *models.PasswordResetSession, phone, code string) (string, error) {
	if s.notify.IsSmsConfigured() {
		return "", s.notify.SendSMS(ctx, phone, fmt.Sprintf("Password reset code: %s", code))
	}
	log.Warnf("[reset][sms] provider not configured: session=%s phone=%s code=%s", sess.ID, utils.MaskPhone(phone), code)
	if s.production {
		return "", nil
	}
	return code, nil
}

func (s *PasswordResetService) findByPhone(ctx context.Context, normalized string) (*models.Admin, error) {
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range admins {
		if a.PhoneNumber != "" && utils.NormalizePhone(a.PhoneNumber) == normalized {
			return a, nil
		}
	}
	return nil, newError(ErrNotFound, "phone not found")
}

func (s *PasswordResetService) loadAdmin(ctx context.Context, sess *models.PasswordResetSession) (*models.Admin, error) {
	admin, err := s.admins.GetByID(ctx, sess.AdminID)
	if errors.Is(err, repositories.ErrNotFound) {
		s.expire(ctx, sess)
		return nil, newError(ErrNotFound, "admin not found")
	}
	return admin, err
}

func resetEmail(to, link string) EmailMessage {
	return EmailMessage{
		To:      to,
		Subject: "Password reset request",
		HTML: fmt.Sprintf(`
			<h3>Password reset requested</h3>
			<p>We received a request to reset the password for your admin account.</p>
			<p><a href="%s">Reset password</a></p>
			<p>The link is valid for 15 minutes. If you did not request this change, you can ignore this email.</p>
		`, link),
		Text: "Reset your password: " + link,
	}
}

func passwordChangedEmail(to string) EmailMessage {
	return EmailMessage{
		To:      to,
		Subject: "Your password was changed",
		HTML: `
			<h3>Password changed</h3>
			<p>The password for your admin account was just reset.</p>
			<p>If this was not you, contact support immediately.</p>
		`,
		Text: "The password for your admin account was just reset.",
	}
}
