package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VerificationType string

const (
	VerificationEmail VerificationType = "email"
	VerificationPhone VerificationType = "phone"
)

func (t VerificationType) Valid() bool {
	switch t {
	case VerificationEmail, VerificationPhone:
		return true
	}
	return false
}

type VerificationContext string

const (
	ContextProfile       VerificationContext = "profile"
	ContextPasswordReset VerificationContext = "password-reset"
)

func (c VerificationContext) Valid() bool {
	switch c {
	case ContextProfile, ContextPasswordReset:
		return true
	}
	return false
}

// ParseVerificationContext defaults an empty value to the profile context.
func ParseVerificationContext(s string) (VerificationContext, bool) {
	if s == "" {
		return ContextProfile, true
	}
	c := VerificationContext(s)
	return c, c.Valid()
}

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationExpired  VerificationStatus = "expired"
)

// VerificationRecord is one row per issued secret. Only the hash of the
// token/code is stored; rows are kept for audit and never deleted.
type VerificationRecord struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	AdminID     primitive.ObjectID  `bson:"adminId" json:"adminId"`
	Type        VerificationType    `bson:"type" json:"type"`
	Context     VerificationContext `bson:"context" json:"context"`
	TargetValue string              `bson:"targetValue" json:"targetValue"`
	SecretHash  string              `bson:"secretHash" json:"-"`
	ExpiresAt   time.Time           `bson:"expiresAt" json:"expiresAt"`
	Status      VerificationStatus  `bson:"status" json:"status"`
	Attempts    int                 `bson:"attempts" json:"attempts"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	VerifiedAt  *time.Time          `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
}
