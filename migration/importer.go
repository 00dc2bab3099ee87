package migration

import (
	"context"
	"errors"
	"fmt"

	"festival-chat-api/access"
	"festival-chat-api/config/logger"
	"festival-chat-api/entity"
	"festival-chat-api/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	usersCollection    = "users"
	chatsCollection    = "chats"
	messagesCollection = "messages"
)

// Source yields the raw documents of a legacy collection, oldest first.
type Source interface {
	Each(ctx context.Context, collection string, fn func(doc bson.M) error) error
}

type MongoSource struct {
	*mongo.Database
}

func NewMongoSource(ctx context.Context, uri, database string) (*MongoSource, func(context.Context) error, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return &MongoSource{Database: client.Database(database)}, client.Disconnect, nil
}

func (s *MongoSource) Each(ctx context.Context, collection string, fn func(doc bson.M) error) error {
	cursor, err := s.Collection(collection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return cursor.Err()
}

type Report struct {
	Users    int
	Chats    int
	Messages int
	Skipped  int
}

// Importer copies a legacy deployment into the relational store. Rows are keyed by
// deterministic ids and inserted with ON CONFLICT DO NOTHING, so reruns only add what
// is missing.
type Importer struct {
	Source Source
	DB     *gorm.DB
	Policy *access.Policy
	Log    *logger.AppLogger

	ChatRepository    *repository.ChatRepository
	MessageRepository *repository.MessageRepository

	users     map[string]bool
	chats     map[string]bool
	nameKeys  map[string]bool
	firstUser string
}

func NewImporter(source Source, db *gorm.DB, policy *access.Policy, log *logger.AppLogger) *Importer {
	return &Importer{
		Source:            source,
		DB:                db,
		Policy:            policy,
		Log:               log,
		ChatRepository:    repository.NewChatRepository(),
		MessageRepository: repository.NewMessageRepository(),
	}
}

func (i *Importer) Run(ctx context.Context) (Report, error) {
	i.users = map[string]bool{}
	i.chats = map[string]bool{}
	i.nameKeys = map[string]bool{}
	i.firstUser = ""

	var report Report
	if err := i.importUsers(ctx, &report); err != nil {
		return report, err
	}
	if err := i.importChats(ctx, &report); err != nil {
		return report, err
	}
	if err := i.importMessages(ctx, &report); err != nil {
		return report, err
	}
	if err := i.refreshSummaries(ctx); err != nil {
		return report, err
	}
	i.Log.Http.Info.Info().Int("users", report.Users).Int("chats", report.Chats).Int("messages", report.Messages).Int("skipped", report.Skipped).Msg("Legacy import finished")
	return report, nil
}

func (i *Importer) skip(report *Report, collection string, err error) error {
	if !errors.Is(err, ErrSkip) {
		return err
	}
	report.Skipped++
	i.Log.Http.Warning.Warn().Str("collection", collection).Msg(err.Error())
	return nil
}

// stored fails with ErrSkip when an insert that ignored conflicts left no row under id,
// which happens when another unique column (email, chat name) already belongs to a
// different row.
func stored(tx *gorm.DB, model interface{}, id, kind string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%s %s conflicts with an existing row: %w", kind, id, ErrSkip)
	}
	return nil
}

func (i *Importer) importUsers(ctx context.Context, report *Report) error {
	return i.Source.Each(ctx, usersCollection, func(doc bson.M) error {
		account, err := NormalizeUser(doc)
		if err != nil {
			return i.skip(report, usersCollection, err)
		}
		user := account.User
		err = i.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(account).Error; err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
				return err
			}
			return stored(tx, &entity.User{}, user.ID, "user")
		})
		if err != nil {
			return i.skip(report, usersCollection, err)
		}
		i.users[user.ID] = true
		if i.firstUser == "" {
			i.firstUser = user.ID
		}
		report.Users++
		return nil
	})
}

func (i *Importer) importChats(ctx context.Context, report *Report) error {
	return i.Source.Each(ctx, chatsCollection, func(doc bson.M) error {
		chat, err := NormalizeChat(doc, i.firstUser)
		if err != nil {
			return i.skip(report, chatsCollection, err)
		}

		participants := make([]entity.ChatParticipant, 0, len(chat.Participants))
		for _, p := range chat.Participants {
			if i.users[p.UserID] {
				participants = append(participants, p)
			}
		}
		if chat.NameKey != nil {
			if i.nameKeys[*chat.NameKey] {
				// a duplicate name stays importable but cannot be joined by name
				chat.NameKey = nil
			} else {
				i.nameKeys[*chat.NameKey] = true
			}
		}

		err = i.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(chat).Error; err != nil {
				return err
			}
			if err := stored(tx, &entity.Chat{}, chat.ID, "chat"); err != nil {
				return err
			}
			if len(participants) == 0 {
				return nil
			}
			return tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&participants).Error
		})
		if err != nil {
			return i.skip(report, chatsCollection, err)
		}
		i.chats[chat.ID] = true
		report.Chats++
		return nil
	})
}

func (i *Importer) importMessages(ctx context.Context, report *Report) error {
	return i.Source.Each(ctx, messagesCollection, func(doc bson.M) error {
		msg, err := NormalizeMessage(doc)
		if err != nil {
			return i.skip(report, messagesCollection, err)
		}
		if !i.chats[msg.ChatID] || !i.users[msg.SenderID] {
			return i.skip(report, messagesCollection, fmt.Errorf("message %s references an unknown chat or sender: %w", msg.ID, ErrSkip))
		}

		edits, reactions, reads := msg.EditHistory, msg.Reactions, msg.ReadBy
		err = i.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(msg).Error; err != nil {
				return err
			}
			if len(edits) > 0 {
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edits).Error; err != nil {
					return err
				}
			}
			if len(reactions) > 0 {
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&reactions).Error; err != nil {
					return err
				}
			}
			if len(reads) > 0 {
				return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&reads).Error
			}
			return nil
		})
		if err != nil {
			return err
		}
		report.Messages++
		return nil
	})
}

// refreshSummaries rebuilds lastMessage of every imported chat from its newest message.
func (i *Importer) refreshSummaries(ctx context.Context) error {
	for chatID := range i.chats {
		newest, err := i.MessageRepository.FindNewest(ctx, i.DB, chatID)
		if repository.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		id, at := newest.ID, newest.Timestamp
		summary := entity.LastMessage{
			MessageID:  &id,
			Content:    newest.Content,
			SenderID:   newest.SenderID,
			SenderName: newest.SenderName,
			SenderRole: i.Policy.SenderRole(newest.Sender),
			Type:       newest.Type,
			Timestamp:  &at,
		}
		if err := i.ChatRepository.UpdateLastMessage(ctx, i.DB, chatID, summary, at); err != nil {
			return err
		}
	}
	return nil
}
