package repository

import (
	"context"
	"strings"
	"time"

	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepository struct {
	Repository[entity.Chat]
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{}
}

func withParticipants(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC")
		}).
		Preload("Participants.User")
}

func (repository ChatRepository) FindChatByID(ctx context.Context, db *gorm.DB, id string) (*entity.Chat, error) {
	var chat entity.Chat
	err := withParticipants(db.WithContext(ctx)).Where("id = ?", id).Take(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// LockChat takes a row lock on the chat for the rest of tx, then loads it.
// sqlite has no row locks; its single writer already serialises transactions.
func (repository ChatRepository) LockChat(ctx context.Context, tx *gorm.DB, id string) (*entity.Chat, error) {
	var locked entity.Chat
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		Take(&locked).Error
	if err != nil {
		return nil, err
	}
	return repository.FindChatByID(ctx, tx, id)
}

func (repository ChatRepository) FindByAdminDMKey(ctx context.Context, db *gorm.DB, key string) (*entity.Chat, error) {
	var chat entity.Chat
	err := withParticipants(db.WithContext(ctx)).Where("admin_dm_key = ?", key).Take(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (repository ChatRepository) FindByNameKey(ctx context.Context, db *gorm.DB, key string) (*entity.Chat, error) {
	var chat entity.Chat
	err := withParticipants(db.WithContext(ctx)).
		Where("name_key = ? AND is_active = ?", key, true).
		Take(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// SearchByName matches active named chats whose name contains query, case-insensitively.
func (repository ChatRepository) SearchByName(ctx context.Context, db *gorm.DB, query string, limit int) ([]entity.Chat, error) {
	var chats []entity.Chat
	err := withParticipants(db.WithContext(ctx)).
		Where("is_active = ? AND name_key IS NOT NULL", true).
		Where("LOWER(name) LIKE ? ESCAPE '\\'", ContainsPattern(query)).
		Order("name ASC").
		Limit(limit).
		Find(&chats).Error
	return chats, err
}

func (repository ChatRepository) FindAllActive(ctx context.Context, db *gorm.DB) ([]entity.Chat, error) {
	var chats []entity.Chat
	err := withParticipants(db.WithContext(ctx)).
		Where("is_active = ?", true).
		Order("last_activity DESC").
		Find(&chats).Error
	return chats, err
}

func (repository ChatRepository) CreateChatWithParticipants(ctx context.Context, db *gorm.DB, chat *entity.Chat, participants []entity.ChatParticipant) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(chat).Error; err != nil {
			return err
		}
		for i := range participants {
			participants[i].ChatID = chat.ID
		}
		if err := tx.Omit(clause.Associations).Create(&participants).Error; err != nil {
			return err
		}
		chat.Participants = participants
		return nil
	})
}

func (repository ChatRepository) CountActiveParticipants(ctx context.Context, db *gorm.DB, chatID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&entity.ChatParticipant{}).
		Where("chat_id = ? AND is_active = ?", chatID, true).
		Count(&count).Error
	return count, err
}

// UpsertParticipant inserts the record or, when the user already has one in the chat,
// reactivates it in place. The unique (chat_id, user_id) index makes this atomic.
func (repository ChatRepository) UpsertParticipant(ctx context.Context, db *gorm.DB, participant *entity.ChatParticipant) error {
	return db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "role", "joined_at", "last_read", "is_active"}),
		}).
		Create(participant).Error
}

func (repository ChatRepository) UpdateParticipantRole(ctx context.Context, db *gorm.DB, chatID, userID string, role enum.ParticipantRole) error {
	return db.WithContext(ctx).Model(&entity.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Update("role", role).Error
}

func (repository ChatRepository) DeactivateParticipant(ctx context.Context, db *gorm.DB, chatID, userID string) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ? AND is_active = ?", chatID, userID, true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

func (repository ChatRepository) TouchLastRead(ctx context.Context, db *gorm.DB, chatID, userID string, at time.Time) error {
	return db.WithContext(ctx).Model(&entity.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Update("last_read", at).Error
}

func (repository ChatRepository) UpdateLastMessage(ctx context.Context, db *gorm.DB, chatID string, summary entity.LastMessage, activity time.Time) error {
	return db.WithContext(ctx).Model(&entity.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"last_message_message_id":  summary.MessageID,
			"last_message_content":     summary.Content,
			"last_message_sender_id":   summary.SenderID,
			"last_message_sender_name": summary.SenderName,
			"last_message_sender_role": summary.SenderRole,
			"last_message_type":        summary.Type,
			"last_message_timestamp":   summary.Timestamp,
			"last_activity":            activity,
		}).Error
}

// SoftDelete flips is_active and releases the unique name and admin DM keys.
func (repository ChatRepository) SoftDelete(ctx context.Context, db *gorm.DB, chatID string) error {
	return db.WithContext(ctx).Model(&entity.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]interface{}{
			"is_active":    false,
			"name_key":     nil,
			"admin_dm_key": nil,
		}).Error
}

// ContainsPattern builds a LIKE pattern matching s anywhere, with wildcards in s escaped.
func ContainsPattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.ToLower(s)) + "%"
}
