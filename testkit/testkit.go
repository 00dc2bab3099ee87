// Package testkit builds throwaway stores and fixtures for package tests.
package testkit

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"festival-chat-api/config/logger"
	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"festival-chat-api/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory sqlite database with the full schema migrated.
// A single connection keeps the memory database alive and serialises writers.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), repository.GormConfig())
	require.NoError(t, err)

	conn, err := db.DB()
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() { _ = conn.Close() })
	return db
}

func NewGuard() *repository.Guard {
	return repository.NewGuard(5*time.Second, logger.NewNopLogger())
}

// CreateUser inserts an active account and profile and returns the profile.
func CreateUser(t testing.TB, db *gorm.DB, name, email string, role enum.UserRole) *entity.User {
	t.Helper()

	account := entity.Account{
		Email:    email,
		Password: "not-a-real-hash",
		User: entity.User{
			Name:       name,
			Email:      email,
			Role:       role,
			IsActive:   true,
			LastActive: time.Now(),
		},
	}
	require.NoError(t, db.WithContext(context.Background()).Create(&account).Error)
	user := account.User
	return &user
}

// CreateChat inserts an active group chat owned by creator with the given extra members.
func CreateChat(t testing.TB, db *gorm.DB, name string, creator *entity.User, members ...*entity.User) *entity.Chat {
	t.Helper()

	now := time.Now()
	key := strings.ToLower(strings.TrimSpace(name))
	chat := &entity.Chat{
		Name:         name,
		ChatType:     enum.GROUP,
		Category:     enum.CategoryGeneral,
		CreatedBy:    creator.ID,
		IsActive:     true,
		LastActivity: now,
		NameKey:      &key,
		Settings: entity.ChatSettings{
			AllowFileSharing:  true,
			AllowMediaSharing: true,
			MaxParticipants:   500,
			IsPublic:          true,
		},
	}
	participants := []entity.ChatParticipant{participant(creator, enum.ParticipantAdmin, now)}
	for _, m := range members {
		participants = append(participants, participant(m, enum.ParticipantMember, now))
	}
	require.NoError(t, repository.NewChatRepository().CreateChatWithParticipants(context.Background(), db, chat, participants))
	return chat
}

func participant(user *entity.User, role enum.ParticipantRole, at time.Time) entity.ChatParticipant {
	return entity.ChatParticipant{
		UserID:   user.ID,
		Name:     user.Name,
		Role:     role,
		JoinedAt: at,
		LastRead: at,
		IsActive: true,
	}
}
