package entity

import "time"

// Account holds the credentials of a user. The profile lives in User.
type Account struct {
	BaseEntity
	Email    string `json:"email" gorm:"unique;type:varchar(100)"`
	Password string `json:"-" gorm:"type:varchar(255)"`
	User     User   `json:"user" gorm:"foreignKey:AuthId;references:ID"`

	RefreshTokens []RefreshToken `json:"-" gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE;"`
}

// RefreshToken stores the sha256 digest of an issued refresh token.
type RefreshToken struct {
	BaseEntity
	AccountID string    `json:"accountId" gorm:"type:varchar(255);not null;index"`
	TokenHash string    `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expiresAt"`
}
