package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Admin struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	PhoneNumber   string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	PasswordHash  string             `bson:"passwordHash" json:"-"` // never leaves the server
	EmailVerified bool               `bson:"emailVerified" json:"emailVerified"`
	PhoneVerified bool               `bson:"phoneVerified" json:"phoneVerified"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AdminContact is the masked view of the primary admin shown on the
// forgotten-password screen.
type AdminContact struct {
	MaskedEmail   string `json:"maskedEmail"`
	PhoneEnding   string `json:"phoneEnding"`
	PhoneVerified bool   `json:"phoneVerified"`
	HasPhone      bool   `json:"hasPhone"`
}
