package repository

import (
	"context"
	"time"

	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository struct {
	Repository[entity.Message]
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func withMessageDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sender").
		Preload("EditHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("edited_at ASC")
		}).
		Preload("Reactions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("ReadBy", func(db *gorm.DB) *gorm.DB {
			return db.Order("read_at ASC")
		})
}

func (repository MessageRepository) FindMessageByID(ctx context.Context, db *gorm.DB, id string) (*entity.Message, error) {
	var message entity.Message
	if err := withMessageDetails(db.WithContext(ctx)).Where("id = ?", id).Take(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// FindPageNewestFirst returns one page of a chat's messages, newest first.
func (repository MessageRepository) FindPageNewestFirst(ctx context.Context, db *gorm.DB, chatID string, offset, limit int) ([]entity.Message, error) {
	var messages []entity.Message
	err := withMessageDetails(db.WithContext(ctx)).
		Where("chat_id = ?", chatID).
		Order("timestamp DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

// SearchNewestFirst matches content case-insensitively, newest first.
func (repository MessageRepository) SearchNewestFirst(ctx context.Context, db *gorm.DB, chatID, query string, limit int) ([]entity.Message, error) {
	var messages []entity.Message
	err := withMessageDetails(db.WithContext(ctx)).
		Where("chat_id = ?", chatID).
		Where("LOWER(content) LIKE ? ESCAPE '\\'", ContainsPattern(query)).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (repository MessageRepository) FindNewest(ctx context.Context, db *gorm.DB, chatID string) (*entity.Message, error) {
	var message entity.Message
	err := db.WithContext(ctx).
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("timestamp DESC").
		Order("id DESC").
		Take(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (repository MessageRepository) CreateMessage(ctx context.Context, db *gorm.DB, message *entity.Message) error {
	return db.WithContext(ctx).Omit(clause.Associations).Create(message).Error
}

// AppendEdit records the previous content and replaces it with newContent.
func (repository MessageRepository) AppendEdit(ctx context.Context, db *gorm.DB, message *entity.Message, newContent string, at time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edit := entity.MessageEdit{MessageID: message.ID, Content: message.Content, EditedAt: at}
		if err := tx.Create(&edit).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Message{}).
			Where("id = ?", message.ID).
			Updates(map[string]interface{}{
				"content":   newContent,
				"is_edited": true,
				"edited_at": at,
			}).Error
	})
}

// HardDelete removes the message and every row hanging off it.
func (repository MessageRepository) HardDelete(ctx context.Context, db *gorm.DB, messageID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).Delete(&entity.MessageEdit{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", messageID).Delete(&entity.MessageReaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id = ?", messageID).Delete(&entity.MessageRead{}).Error; err != nil {
			return err
		}
		// replies keep pointing nowhere rather than at a dangling id
		if err := tx.Model(&entity.Message{}).Where("reply_to_id = ?", messageID).
			Update("reply_to_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", messageID).Delete(&entity.Message{}).Error
	})
}

// FindReadableIDs lists messages of chatID not sent by userID, optionally restricted to ids.
func (repository MessageRepository) FindReadableIDs(ctx context.Context, db *gorm.DB, chatID, userID string, ids []string) ([]string, error) {
	query := db.WithContext(ctx).Model(&entity.Message{}).
		Where("chat_id = ? AND sender_id <> ?", chatID, userID)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	var found []string
	err := query.Pluck("id", &found).Error
	return found, err
}

// InsertReads adds a read receipt per message, ignoring messages already read by userID,
// and moves those messages to the read status.
func (repository MessageRepository) InsertReads(ctx context.Context, db *gorm.DB, messageIDs []string, userID string, at time.Time) error {
	if len(messageIDs) == 0 {
		return nil
	}
	reads := make([]entity.MessageRead, 0, len(messageIDs))
	for _, id := range messageIDs {
		reads = append(reads, entity.MessageRead{MessageID: id, UserID: userID, ReadAt: at})
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&reads).Error; err != nil {
			return err
		}
		return tx.Model(&entity.Message{}).
			Where("id IN ? AND status IN ?", messageIDs, enum.UnreadStatuses()).
			Update("status", enum.MessageStatusRead).Error
	})
}

func (repository MessageRepository) FindReaction(ctx context.Context, db *gorm.DB, messageID, userID string) (*entity.MessageReaction, error) {
	var reaction entity.MessageReaction
	err := db.WithContext(ctx).Where("message_id = ? AND user_id = ?", messageID, userID).Take(&reaction).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

// SetReaction stores emoji as the single reaction of userID on the message.
func (repository MessageRepository) SetReaction(ctx context.Context, db *gorm.DB, messageID, userID, emoji string, at time.Time) error {
	reaction := entity.MessageReaction{MessageID: messageID, UserID: userID, Emoji: emoji, CreatedAt: at}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"emoji", "created_at"}),
		}).
		Create(&reaction).Error
}

func (repository MessageRepository) RemoveReaction(ctx context.Context, db *gorm.DB, messageID, userID string) error {
	return db.WithContext(ctx).
		Where("message_id = ? AND user_id = ?", messageID, userID).
		Delete(&entity.MessageReaction{}).Error
}
