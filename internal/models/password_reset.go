package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ResetMethod string

const (
	ResetByEmail ResetMethod = "email"
	ResetByPhone ResetMethod = "phone"
)

func (m ResetMethod) Valid() bool {
	switch m {
	case ResetByEmail, ResetByPhone:
		return true
	}
	return false
}

type ResetStatus string

const (
	ResetPending       ResetStatus = "pending"
	ResetEmailVerified ResetStatus = "email-verified"
	ResetSMSVerified   ResetStatus = "sms-verified"
	ResetCompleted     ResetStatus = "completed"
	ResetExpired       ResetStatus = "expired"
)

// Active reports whether the session can still make progress.
func (s ResetStatus) Active() bool {
	switch s {
	case ResetPending, ResetEmailVerified, ResetSMSVerified:
		return true
	case ResetCompleted, ResetExpired:
		return false
	}
	return false
}

// PasswordResetSession tracks one forgotten-password flow. Email and SMS
// secrets are optional: a phone-only session has no email token.
type PasswordResetSession struct {
	ID                  string             `bson:"_id" json:"id"`
	AdminID             primitive.ObjectID `bson:"adminId" json:"adminId"`
	Method              ResetMethod        `bson:"method" json:"method"`
	EmailTokenHash      string             `bson:"emailTokenHash,omitempty" json:"-"`
	EmailTokenExpiresAt *time.Time         `bson:"emailTokenExpiresAt,omitempty" json:"emailTokenExpiresAt,omitempty"`
	EmailVerified       bool               `bson:"emailVerified" json:"emailVerified"`
	SMSCodeHash         string             `bson:"smsCodeHash,omitempty" json:"-"`
	SMSCodeExpiresAt    *time.Time         `bson:"smsCodeExpiresAt,omitempty" json:"smsCodeExpiresAt,omitempty"`
	SMSVerified         bool               `bson:"smsVerified" json:"smsVerified"`
	SMSAttempts         int                `bson:"smsAttempts" json:"smsAttempts"`
	Status              ResetStatus        `bson:"status" json:"status"`
	ExpiresAt           time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
	CompletedAt         *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

func (s *PasswordResetSession) HasEmailChannel() bool { return s.EmailTokenHash != "" }
func (s *PasswordResetSession) HasSMSChannel() bool   { return s.SMSCodeHash != "" }
