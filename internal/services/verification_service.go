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

	"menuqr/internal/metrics"
	"menuqr/internal/models"
	"menuqr/internal/repositories"
	"menuqr/internal/utils"
)

const (
	emailVerificationTTL = 15 * time.Minute
	phoneVerificationTTL = 10 * time.Minute
	tokenBytes           = 32
	smsCodeDigits        = 6
	maxConfirmAttempts   = 5
)

// VerificationService issues and confirms email tokens and phone codes.
// Per (admin, type, context) at most one record is pending.
type VerificationService struct {
	admins   repositories.AdminRepository
	records  repositories.VerificationRepository
	notify   NotificationGateway
	throttle Throttler

	frontendURL string

	Now func() time.Time
}

func NewVerificationService(
	admins repositories.AdminRepository,
	records repositories.VerificationRepository,
	notify NotificationGateway,
	throttle Throttler,
	frontendURL string,
) *VerificationService {
	return &VerificationService{
		admins:      admins,
		records:     records,
		notify:      notify,
		throttle:    throttle,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		Now:         time.Now,
	}
}

func (s *VerificationService) now() time.Time { return s.Now().UTC() }

// RequestEmailVerification supersedes any pending email record for the
// admin/context and mails a link carrying the raw token.
func (s *VerificationService) RequestEmailVerification(ctx context.Context, adminID primitive.ObjectID, targetEmail string, vctx models.VerificationContext) (*models.VerificationRecord, error) {
	if !vctx.Valid() {
		return nil, newError(ErrValidation, "unknown verification context")
	}
	target := utils.NormalizeEmail(targetEmail)
	if target == "" {
		return nil, newError(ErrValidation, "no email address to verify")
	}
	if !s.notify.IsEmailConfigured() {
		return nil, fmt.Errorf("%w: email transport", ErrConfiguration)
	}
	if err := allow(ctx, s.throttle, "verify:email:"+adminID.Hex(), maxResendsPerWindow, resendWindow); err != nil {
		return nil, err
	}

	token, err := utils.GenerateToken(tokenBytes)
	if err != nil {
		return nil, err
	}
	now := s.now()
	rec := &models.VerificationRecord{
		AdminID:     adminID,
		Type:        models.VerificationEmail,
		Context:     vctx,
		TargetValue: target,
		SecretHash:  utils.HashSecret(token),
		ExpiresAt:   now.Add(emailVerificationTTL),
		Status:      models.VerificationPending,
		CreatedAt:   now,
	}
	if err := s.issue(ctx, rec); err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/verify-email?token=%s&context=%s",
		s.frontendURL, url.QueryEscape(token), url.QueryEscape(string(vctx)))
	if err := s.notify.SendEmail(ctx, verificationEmail(target, link)); err != nil {
		return nil, err
	}
	log.Infof("[verify][email][request] admin=%s to=%s ctx=%s", adminID.Hex(), utils.MaskEmail(target), vctx)
	return rec, nil
}

// ConfirmEmailVerification: the token is the credential, no session needed.
func (s *VerificationService) ConfirmEmailVerification(ctx context.Context, token string, vctx models.VerificationContext) (admin *models.Admin, err error) {
	defer func() { metrics.Verifications.WithLabelValues("email", metrics.Outcome(err)).Inc() }()

	token = strings.TrimSpace(token)
	if token == "" || !vctx.Valid() {
		return nil, ErrInvalidToken
	}
	rec, err := s.records.GetByHash(ctx, utils.HashSecret(token), models.VerificationEmail, vctx)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "verification link is invalid or already used")
	}
	if err != nil {
		return nil, err
	}
	if err := s.checkPending(ctx, rec, "verification link"); err != nil {
		return nil, err
	}

	admin, err = s.loadAdmin(ctx, rec.AdminID)
	if err != nil {
		return nil, err
	}
	if rec.TargetValue != admin.Email {
		other, err := s.admins.GetByEmail(ctx, rec.TargetValue)
		switch {
		case err == nil && other.ID != admin.ID:
			return nil, newError(ErrConflict, "email already in use")
		case err != nil && !errors.Is(err, repositories.ErrNotFound):
			return nil, err
		}
		admin.Email = rec.TargetValue
	}
	admin.EmailVerified = true
	if err := s.saveAdmin(ctx, admin); err != nil {
		return nil, err
	}
	if err := s.markVerified(ctx, rec); err != nil {
		return nil, err
	}
	log.Infof("[verify][email][confirm] admin=%s ctx=%s", admin.ID.Hex(), vctx)
	return admin, nil
}

func (s *VerificationService) RequestPhoneVerification(ctx context.Context, adminID primitive.ObjectID, targetPhone string, vctx models.VerificationContext) (*models.VerificationRecord, error) {
	if !vctx.Valid() {
		return nil, newError(ErrValidation, "unknown verification context")
	}
	target := utils.NormalizePhone(targetPhone)
	if target == "" {
		return nil, newError(ErrValidation, "no phone number to verify")
	}
	if !s.notify.IsSmsConfigured() {
		return nil, fmt.Errorf("%w: sms transport", ErrConfiguration)
	}
	if err := allow(ctx, s.throttle, "verify:phone:"+adminID.Hex(), maxResendsPerWindow, resendWindow); err != nil {
		return nil, err
	}

	code, err := utils.GenerateNumericCode(smsCodeDigits)
	if err != nil {
		return nil, err
	}
	now := s.now()
	rec := &models.VerificationRecord{
		AdminID:     adminID,
		Type:        models.VerificationPhone,
		Context:     vctx,
		TargetValue: target,
		SecretHash:  utils.HashSecret(code),
		ExpiresAt:   now.Add(phoneVerificationTTL),
		Status:      models.VerificationPending,
		CreatedAt:   now,
	}
	if err := s.issue(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.notify.SendSMS(ctx, target, fmt.Sprintf("Verification code: %s", code)); err != nil {
		return nil, err
	}
	log.Infof("[verify][phone][request] admin=%s to=%s ctx=%s", adminID.Hex(), utils.MaskPhone(target), vctx)
	return rec, nil
}

// ConfirmPhoneVerification is scoped to the admin: codes are short enough
// to guess, so only the owner's pending record is considered.
func (s *VerificationService) ConfirmPhoneVerification(ctx context.Context, adminID primitive.ObjectID, code string, vctx models.VerificationContext) (admin *models.Admin, err error) {
	defer func() { metrics.Verifications.WithLabelValues("phone", metrics.Outcome(err)).Inc() }()

	if !vctx.Valid() {
		return nil, newError(ErrValidation, "unknown verification context")
	}
	rec, err := s.records.GetLatestPending(ctx, adminID, models.VerificationPhone, vctx)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "no pending phone verification")
	}
	if err != nil {
		return nil, err
	}
	if err := s.checkPending(ctx, rec, "verification code"); err != nil {
		return nil, err
	}

	if !utils.SecretMatches(rec.SecretHash, strings.TrimSpace(code)) {
		rec.Attempts++
		if rec.Attempts >= maxConfirmAttempts {
			rec.Status = models.VerificationExpired
			if err := s.records.Update(ctx, rec); err != nil {
				return nil, err
			}
			log.Warnf("[verify][phone][confirm] admin=%s too many attempts", adminID.Hex())
			return nil, newError(ErrTooManyAttempts, "too many attempts, request a new code")
		}
		if err := s.records.Update(ctx, rec); err != nil {
			return nil, err
		}
		return nil, ErrInvalidCode
	}

	admin, err = s.loadAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	admin.PhoneNumber = rec.TargetValue
	admin.PhoneVerified = true
	if err := s.saveAdmin(ctx, admin); err != nil {
		return nil, err
	}
	if err := s.markVerified(ctx, rec); err != nil {
		return nil, err
	}
	log.Infof("[verify][phone][confirm] admin=%s ctx=%s", adminID.Hex(), vctx)
	return admin, nil
}

// ExpirePending expires every pending record of the admin in a context.
func (s *VerificationService) ExpirePending(ctx context.Context, adminID primitive.ObjectID, vctx models.VerificationContext) error {
	n, err := s.records.ExpireAllPending(ctx, adminID, vctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Infof("[verify][expire] admin=%s ctx=%s expired=%d", adminID.Hex(), vctx, n)
	}
	return nil
}

// ===== helpers =====

// issue supersedes older pending records and inserts rec. A concurrent
// request may win the partial unique index; the purge is retried once.
func (s *VerificationService) issue(ctx context.Context, rec *models.VerificationRecord) error {
	for attempt := 0; ; attempt++ {
		if _, err := s.records.ExpirePending(ctx, rec.AdminID, rec.Type, rec.Context); err != nil {
			return err
		}
		err := s.records.Create(ctx, rec)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrDuplicate) || attempt > 0 {
			return err
		}
		log.Warnf("[verify][issue] concurrent pending record admin=%s type=%s, retrying", rec.AdminID.Hex(), rec.Type)
	}
}

// checkPending lazily expires a record whose TTL has passed.
func (s *VerificationService) checkPending(ctx context.Context, rec *models.VerificationRecord, what string) error {
	switch rec.Status {
	case models.VerificationPending:
	case models.VerificationVerified:
		return newError(ErrNotFound, what+" is invalid or already used")
	case models.VerificationExpired:
		return newError(ErrExpired, what+" has expired")
	default:
		return newError(ErrNotFound, what+" is invalid")
	}
	if s.now().After(rec.ExpiresAt) {
		rec.Status = models.VerificationExpired
		if err := s.records.Update(ctx, rec); err != nil {
			return err
		}
		return newError(ErrExpired, what+" has expired")
	}
	return nil
}

func (s *VerificationService) markVerified(ctx context.Context, rec *models.VerificationRecord) error {
	now := s.now()
	rec.Status = models.VerificationVerified
	rec.VerifiedAt = &now
	return s.records.Update(ctx, rec)
}

func (s *VerificationService) loadAdmin(ctx context.Context, id primitive.ObjectID) (*models.Admin, error) {
	admin, err := s.admins.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "admin not found")
	}
	return admin, err
}

func (s *VerificationService) saveAdmin(ctx context.Context, admin *models.Admin) error {
	err := s.admins.Update(ctx, admin)
	if errors.Is(err, repositories.ErrDuplicate) {
		return newError(ErrConflict, "email already in use")
	}
	return err
}

func verificationEmail(to, link string) EmailMessage {
	return EmailMessage{
		To:      to,
		Subject: "Confirm your email address",
		HTML: fmt.Sprintf(`
			<h3>Confirm your email</h3>
			<p>Open the link below to confirm this address for your admin account.</p>
			<p><a href="%s">Confirm email</a></p>
			<p>The link is valid for 15 minutes. If you did not request it, ignore this email.</p>
		`, link),
		Text: "Confirm your email: " + link,
	}
}

// PendingTarget returns the value of the live pending record, if any.
func (s *VerificationService) PendingTarget(ctx context.Context, adminID primitive.ObjectID, typ models.VerificationType, vctx models.VerificationContext) (string, bool) {
	rec, err := s.records.GetLatestPending(ctx, adminID, typ, vctx)
	if err != nil || s.now().After(rec.ExpiresAt) {
		return "", false
	}
	return rec.TargetValue, true
}
