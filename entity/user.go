package entity

import (
	"time"

	"festival-chat-api/enum"
)

type User struct {
	BaseEntity
	Name        string        `json:"name" gorm:"type:varchar(255)"`
	Email       string        `json:"email" gorm:"unique;type:varchar(100)"`
	Role        enum.UserRole `json:"role" gorm:"type:varchar(10);default:'member'"`
	IsActive    bool          `json:"isActive" gorm:"not null"`
	LastActive  time.Time     `json:"lastActive"`
	LastLoginAt *time.Time    `json:"lastLoginAt,omitempty"`
	AuthId      string        `json:"-" gorm:"type:varchar(255);unique"`
}
