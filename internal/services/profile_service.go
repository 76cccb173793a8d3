package services

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"menuqr/internal/models"
	"menuqr/internal/repositories"
	"menuqr/internal/utils"
)

// ProfileUpdate: nil fields are left untouched.
type ProfileUpdate struct {
	Name        *string
	Email       *string
	PhoneNumber *string
}

type ProfileUpdateResult struct {
	Admin                 *models.Admin `json:"admin"`
	EmailVerificationSent bool          `json:"emailVerificationSent"`
	PhoneVerificationSent bool          `json:"phoneVerificationSent"`
}

type ProfileService struct {
	admins        repositories.AdminRepository
	verifications *VerificationService
	notify        NotificationGateway
	alerts        SecurityAlerter
}

func NewProfileService(admins repositories.AdminRepository, verifications *VerificationService, notify NotificationGateway, alerts SecurityAlerter) *ProfileService {
	if alerts == nil {
		alerts = LogAlerter{}
	}
	return &ProfileService{admins: admins, verifications: verifications, notify: notify, alerts: alerts}
}

func (s *ProfileService) GetProfile(ctx context.Context, adminID primitive.ObjectID) (*models.Admin, error) {
	admin, err := s.admins.GetByID(ctx, adminID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, "admin not found")
	}
	return admin, err
}

// UpdateProfile applies the name directly. A new email or phone goes through
// change-and-verify: the record is only switched on confirmation. Without a
// transport for that channel the value is stored unverified.
func (s *ProfileService) UpdateProfile(ctx context.Context, adminID primitive.ObjectID, upd ProfileUpdate) (*ProfileUpdateResult, error) {
	admin, err := s.GetProfile(ctx, adminID)
	if err != nil {
		return nil, err
	}
	res := &ProfileUpdateResult{Admin: admin}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, newError(ErrValidation, "name must not be empty")
		}
		admin.Name = name
	}

	var newEmail, newPhone string
	emailChanged, phoneChanged := false, false

	if upd.Email != nil {
		newEmail = utils.NormalizeEmail(*upd.Email)
		if newEmail == "" {
			return nil, newError(ErrValidation, "email must not be empty")
		}
		if newEmail != admin.Email {
			other, err := s.admins.GetByEmail(ctx, newEmail)
			switch {
			case err == nil && other.ID != admin.ID:
				return nil, newError(ErrConflict, "email already in use")
			case err != nil && !errors.Is(err, repositories.ErrNotFound):
				return nil, err
			}
			emailChanged = true
		}
	}
	if upd.PhoneNumber != nil {
		newPhone = utils.NormalizePhone(*upd.PhoneNumber)
		if newPhone != utils.NormalizePhone(admin.PhoneNumber) {
			phoneChanged = true
		}
	}

	if emailChanged && !s.notify.IsEmailConfigured() {
		log.Warnf("[profile][update] admin=%s email transport off, storing email unverified", admin.ID.Hex())
		admin.Email = newEmail
		admin.EmailVerified = false
		emailChanged = false
	}
	if phoneChanged && (newPhone == "" || !s.notify.IsSmsConfigured()) {
		admin.PhoneNumber = newPhone
		admin.PhoneVerified = false
		phoneChanged = false
	}

	if err := s.admins.Update(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, newError(ErrConflict, "email already in use")
		}
		return nil, err
	}

	if emailChanged {
		if _, err := s.verifications.RequestEmailVerification(ctx, admin.ID, newEmail, models.ContextProfile); err != nil {
			return nil, err
		}
		res.EmailVerificationSent = true
	}
	if phoneChanged {
		if _, err := s.verifications.RequestPhoneVerification(ctx, admin.ID, newPhone, models.ContextProfile); err != nil {
			return nil, err
		}
		res.PhoneVerificationSent = true
	}
	log.Infof("[profile][update] admin=%s email_pending=%v phone_pending=%v", admin.ID.Hex(), res.EmailVerificationSent, res.PhoneVerificationSent)
	return res, nil
}

func (s *ProfileService) ChangePassword(ctx context.Context, adminID primitive.ObjectID, current, next string) error {
	admin, err := s.GetProfile(ctx, adminID)
	if err != nil {
		return err
	}
	if !checkPassword(admin.PasswordHash, current) {
		return newError(ErrValidation, "current password is incorrect")
	}
	if !utils.ValidatePasswordStrength(next) {
		return ErrWeakPassword
	}
	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	if err := s.admins.UpdatePassword(ctx, admin.ID, hash); err != nil {
		return err
	}
	s.alerts.Alert(ctx, "Admin password changed", "account "+utils.MaskEmail(admin.Email))
	return nil
}

// ResendEmailVerification re-sends the link for a pending email change, or
// for the current address. Returns false when there is nothing to verify.
func (s *ProfileService) ResendEmailVerification(ctx context.Context, adminID primitive.ObjectID) (bool, error) {
	admin, err := s.GetProfile(ctx, adminID)
	if err != nil {
		return false, err
	}
	target := admin.Email
	if pending, ok := s.verifications.PendingTarget(ctx, admin.ID, models.VerificationEmail, models.ContextProfile); ok {
		target = pending
	} else if admin.EmailVerified {
		return false, nil
	}
	if target == "" {
		return false, newError(ErrValidation, "no email on file")
	}
	if _, err := s.verifications.RequestEmailVerification(ctx, admin.ID, target, models.ContextProfile); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ProfileService) ResendPhoneVerification(ctx context.Context, adminID primitive.ObjectID) (bool, error) {
	admin, err := s.GetProfile(ctx, adminID)
	if err != nil {
		return false, err
	}
	target := admin.PhoneNumber
	if pending, ok := s.verifications.PendingTarget(ctx, admin.ID, models.VerificationPhone, models.ContextProfile); ok {
		target = pending
	} else if admin.PhoneVerified {
		return false, nil
	}
	if target == "" {
		return false, newError(ErrValidation, "no phone number on file")
	}
	if _, err := s.verifications.RequestPhoneVerification(ctx, admin.ID, target, models.ContextProfile); err != nil {
		return false, err
	}
	return true, nil
}
