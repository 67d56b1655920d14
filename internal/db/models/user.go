package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             string         `json:"id" gorm:"primaryKey;size:36"`
	Email          string         `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash   string         `json:"-" gorm:"not null"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	ActiveStatus   bool           `json:"active" gorm:"not null;default:true"`
	TokenVersion   int            `json:"-" gorm:"not null;default:0"`
	LastLogin      *time.Time     `json:"lastLogin,omitempty"`
	FailedAttempts int            `json:"-" gorm:"not null;default:0"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// AuthToken is a DocuSign OAuth grant. Both token fields hold ciphertext.
type AuthToken struct {
	ID           uint      `json:"-" gorm:"primaryKey"`
	UserID       string    `json:"userId" gorm:"index;not null"`
	AccessToken  string    `json:"-" gorm:"type:text;not null"`
	RefreshToken string    `json:"-" gorm:"type:text"`
	TokenType    string    `json:"tokenType"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (t *AuthToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
