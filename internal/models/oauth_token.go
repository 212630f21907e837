package models

import (
	"time"
)

// OAuthToken is an access/refresh token pair issued by this service's own
// token endpoint.
type OAuthToken struct {
	ID           uint    `gorm:"primaryKey"`
	ClientID     string  `gorm:"not null"`
	UserID       *string // nullable for client_credentials grants
	AccessToken  string  `gorm:"uniqueIndex;not null"`
	RefreshToken *string
	Scopes       string
	ExpiresAt    time.Time `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (OAuthToken) TableName() string {
	return "oauth_tokens"
}
