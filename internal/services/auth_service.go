package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"menuqr/internal/authz"
	"menuqr/internal/models"
	"menuqr/internal/repositories"
	"menuqr/internal/utils"
)

type LoginResult struct {
	AccessToken string        `json:"accessToken"`
	ExpiresAt   time.Time     `json:"expiresAt"`
	Admin       *models.Admin `json:"admin"`
}

type CreateAdminInput struct {
	Name        string
	Email       string
	PhoneNumber string
	Password    string
}

type AuthService struct {
	admins repositories.AdminRepository
	tokens *authz.TokenManager
}

func NewAuthService(admins repositories.AdminRepository, tokens *authz.TokenManager) *AuthService {
	return &AuthService{admins: admins, tokens: tokens}
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt generate: %w", err)
	}
	return string(b), nil
}

func checkPassword(hash, pw string) bool {
	if strings.TrimSpace(hash) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = utils.NormalizeEmail(email)
	admin, err := s.admins.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		log.Infof("[auth][login] unknown email=%q", utils.MaskEmail(email))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(admin.PasswordHash, password) {
		log.Infof("[auth][login] bcrypt mismatch admin=%s", admin.ID.Hex())
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.IssueAccessToken(admin.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	log.Infof("[auth][login] success admin=%s exp_at=%s", admin.ID.Hex(), exp.Format(time.RFC3339))
	return &LoginResult{AccessToken: token, ExpiresAt: exp, Admin: admin}, nil
}

// CreateAdmin is used by the CLI bootstrap; the password must be strong.
func (s *AuthService) CreateAdmin(ctx context.Context, in CreateAdminInput) (*models.Admin, error) {
	name := strings.TrimSpace(in.Name)
	email := utils.NormalizeEmail(in.Email)
	if name == "" || email == "" {
		return nil, newError(ErrValidation, "name and email are required")
	}
	if !utils.ValidatePasswordStrength(in.Password) {
		return nil, ErrWeakPassword
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	admin := &models.Admin{
		Name:         name,
		Email:        email,
		PhoneNumber:  utils.NormalizePhone(in.PhoneNumber),
		PasswordHash: hash,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, newError(ErrConflict, "email already in use")
		}
		return nil, err
	}
	log.Infof("[auth][create-admin] admin=%s email=%s", admin.ID.Hex(), utils.MaskEmail(email))
	return admin, nil
}
