package repository

import (
	"festival-chat-api/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// GormConfig is shared by every driver so table names and error translation match.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   "t_",
			SingularTable: true,
		},
		TranslateError: true,
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Account{},
		&entity.User{},
		&entity.RefreshToken{},
		&entity.Chat{},
		&entity.ChatParticipant{},
		&entity.Message{},
		&entity.MessageEdit{},
		&entity.MessageReaction{},
		&entity.MessageRead{},
	)
}
