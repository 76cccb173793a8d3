package authz

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const fileTokenPurpose = "qr-file"

// Claims of an admin access token.
type Claims struct {
	AdminID string `json:"admin_id"`
	jwt.RegisteredClaims
}

// FileClaims bind a signed file URL to exactly one storage key.
type FileClaims struct {
	Key     string `json:"key"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager signs and parses HS256 tokens. Access and file tokens use
// separate secrets: a file token never parses as an access token.
type TokenManager struct {
	accessSecret []byte
	fileSecret   []byte
	accessTTL    time.Duration
	fileTTL      time.Duration

	// Now is overridable in tests.
	Now func() time.Time
}

func NewTokenManager(accessSecret, fileSecret string, accessTTL, fileTTL time.Duration) *TokenManager {
	if fileSecret == "" {
		fileSecret = accessSecret
	}
	return &TokenManager{
		accessSecret: []byte(accessSecret),
		fileSecret:   []byte("file:" + fileSecret),
		accessTTL:    accessTTL,
		fileTTL:      fileTTL,
		Now:          time.Now,
	}
}

func (m *TokenManager) FileTTL() time.Duration { return m.fileTTL }

func (m *TokenManager) IssueAccessToken(adminID string) (string, time.Time, error) {
	now := m.Now().UTC()
	exp := now.Add(m.accessTTL)
	claims := Claims{
		AdminID: adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *TokenManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := m.parse(tokenStr, claims, m.accessSecret); err != nil {
		return nil, err
	}
	if claims.AdminID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *TokenManager) IssueFileToken(key string) (string, error) {
	now := m.Now().UTC()
	claims := FileClaims{
		Key:     key,
		Purpose: fileTokenPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.fileTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.fileSecret)
}

// VerifyFileToken returns nil for any invalid, expired or foreign token.
func (m *TokenManager) VerifyFileToken(tokenStr string) *FileClaims {
	if tokenStr == "" {
		return nil
	}
	claims := &FileClaims{}
	if err := m.parse(tokenStr, claims, m.fileSecret); err != nil {
		return nil
	}
	if claims.Purpose != fileTokenPurpose || claims.Key == "" {
		return nil
	}
	return claims
}

func (m *TokenManager) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// только HMAC
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	},
		jwt.WithTimeFunc(m.Now),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
