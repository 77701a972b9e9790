package models

import (
	"time"
)

// User is the local copy of an identity provider principal.
// The provider owns the record; local writes only merge profile data.
type User struct {
	// ID is the provider subject identifier. It never changes once created.
	ID string `gorm:"primaryKey;size:100"`
	// Login is the unique, lower-cased login.
	Login string `gorm:"uniqueIndex;size:100;not null"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:50"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:50"`
	// Email is the lower-cased email address.
	Email string `gorm:"size:191"`
	// ImageURL points to the user's picture.
	ImageURL string `gorm:"size:256"`
	// LangKey is the preferred language, e.g. "en".
	LangKey string `gorm:"size:10"`
	// Activated is true for principals that authenticated at least once.
	Activated bool `gorm:"not null;default:false"`
	// EmailVerified mirrors the provider's email_verified claim.
	EmailVerified bool `gorm:"not null;default:false"`
	// Authorities are the roles granted to the user.
	Authorities []Authority `gorm:"many2many:user_authorities;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time
	// LastModifiedAt is set by the reconciler on every local write. It drives
	// the merge timestamp rule and is not touched by GORM.
	LastModifiedAt time.Time
}

// TableName overrides the table name.
func (User) TableName() string {
	return "users"
}
