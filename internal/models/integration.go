package models

import (
	"time"
)

// MeliIntegration stores the MercadoLibre credential pair for one application
// user. Exactly one row per user: completing the OAuth flow again overwrites
// the previous token pair (upsert on user_id).
//
// AccessToken and RefreshToken are stored encrypted (see crypto.TokenCipher)
// and never serialized in API responses.
type MeliIntegration struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	MeliUserID   int64     `gorm:"not null" json:"meli_user_id"`
	Nickname     string    `json:"nickname"`
	AccessToken  string    `gorm:"type:text;not null" json:"-"`
	RefreshToken string    `gorm:"type:text" json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (MeliIntegration) TableName() string {
	return "meli_integrations"
}
