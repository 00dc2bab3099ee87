package res

import (
	"time"

	"festival-chat-api/entity"
	"festival-chat-api/enum"
)

type UserResponse struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	Role        enum.UserRole `json:"role"`
	IsAdmin     bool          `json:"isAdmin"`
	IsActive    bool          `json:"isActive"`
	LastActive  time.Time     `json:"lastActive"`
	LastLoginAt *time.Time    `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// ToUserResponse maps user; isAdmin is the effective admin capability, not only the stored role.
func ToUserResponse(user *entity.User, isAdmin bool) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		IsAdmin:     isAdmin,
		IsActive:    user.IsActive,
		LastActive:  user.LastActive,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
