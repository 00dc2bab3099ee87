package migration

import (
	"context"
	"testing"
	"time"

	"festival-chat-api/access"
	"festival-chat-api/config/logger"
	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"festival-chat-api/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"gorm.io/gorm"
)

type memorySource map[string][]bson.M

func (s memorySource) Each(_ context.Context, collection string, fn func(doc bson.M) error) error {
	for _, doc := range s[collection] {
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func rows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Count(&count).Error)
	return count
}

func legacyDeployment() (memorySource, bson.ObjectID) {
	alice, bob, ghost := bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID()
	mainStage, copyCat := bson.NewObjectID(), bson.NewObjectID()
	start := time.Date(2024, 7, 20, 20, 0, 0, 0, time.UTC)

	return memorySource{
		usersCollection: {
			{"_id": alice, "name": "Alice", "email": "alice@festival.test", "password": "$2a$10$a"},
			{"_id": bob, "name": "Bob", "email": "bob@festival.test", "password": "$2a$10$b", "isAdmin": true},
			{"_id": bson.NewObjectID(), "name": "Alice again", "email": "ALICE@festival.test"},
			{"_id": bson.NewObjectID(), "name": "No Mail"},
		},
		chatsCollection: {
			{"_id": mainStage, "name": "Main Stage", "createdBy": alice, "participants": bson.A{alice, bob, ghost}},
			{"_id": copyCat, "name": "main stage", "participants": bson.A{bob}},
			{"name": "Orphan"},
		},
		messagesCollection: {
			{"_id": bson.NewObjectID(), "chat": mainStage, "sender": alice, "content": "doors open", "timestamp": bson.NewDateTimeFromTime(start)},
			{
				"_id": bson.NewObjectID(), "chat": mainStage, "sender": bob, "content": "headliner at nine",
				"timestamp": bson.NewDateTimeFromTime(start.Add(time.Minute)),
				"reactions": bson.A{bson.M{"user": alice, "emoji": "🔥"}},
				"readBy":    bson.A{bson.M{"user": alice}},
			},
			{"_id": bson.NewObjectID(), "chat": mainStage, "sender": ghost, "content": "who am I"},
			{"_id": bson.NewObjectID(), "chat": mainStage, "sender": alice, "content": "oops", "isDeleted": true},
			{"_id": bson.NewObjectID(), "chat": bson.NewObjectID(), "sender": alice, "content": "lost"},
		},
	}, mainStage
}

func TestImporterRun(t *testing.T) {
	db := testkit.NewDB(t)
	source, mainStage := legacyDeployment()
	importer := NewImporter(source, db, access.NewPolicy("", access.ListingOpen), logger.NewNopLogger())

	report, err := importer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Users: 2, Chats: 2, Messages: 2, Skipped: 6}, report)

	var chat entity.Chat
	require.NoError(t, db.Where("id = ?", LegacyID(mainStage)).Take(&chat).Error)
	require.NotNil(t, chat.NameKey)
	assert.Equal(t, "headliner at nine", chat.LastMessage.Content)
	assert.Equal(t, enum.RoleAdmin, chat.LastMessage.SenderRole)
	require.NotNil(t, chat.LastMessage.Timestamp)
	assert.True(t, chat.LastActivity.Equal(*chat.LastMessage.Timestamp))

	var participants int64
	require.NoError(t, db.Model(&entity.ChatParticipant{}).Where("chat_id = ?", chat.ID).Count(&participants).Error)
	assert.Equal(t, int64(2), participants, "references to unknown users are dropped")

	var named int64
	require.NoError(t, db.Model(&entity.Chat{}).Where("name_key IS NOT NULL").Count(&named).Error)
	assert.Equal(t, int64(1), named, "the second chat with the same name is not joinable by name")

	assert.Equal(t, int64(1), rows(t, db, &entity.MessageReaction{}))
	assert.Equal(t, int64(1), rows(t, db, &entity.MessageRead{}))
}

func TestImporterRerunIsIdempotent(t *testing.T) {
	db := testkit.NewDB(t)
	source, _ := legacyDeployment()
	importer := NewImporter(source, db, access.NewPolicy("", access.ListingOpen), logger.NewNopLogger())

	first, err := importer.Run(context.Background())
	require.NoError(t, err)

	models := []interface{}{
		&entity.Account{}, &entity.User{}, &entity.Chat{}, &entity.ChatParticipant{},
		&entity.Message{}, &entity.MessageReaction{}, &entity.MessageRead{},
	}
	before := make([]int64, len(models))
	for n, model := range models {
		before[n] = rows(t, db, model)
	}

	second, err := importer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	for n, model := range models {
		assert.Equal(t, before[n], rows(t, db, model), "%T", model)
	}
}

func TestImporterKeepsExistingAccounts(t *testing.T) {
	db := testkit.NewDB(t)
	existing := testkit.CreateUser(t, db, "Alice", "alice@festival.test", enum.RoleMember)
	source, _ := legacyDeployment()

	report, err := NewImporter(source, db, access.NewPolicy("", access.ListingOpen), logger.NewNopLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Users, "the legacy alice collides with the live account")

	var users []entity.User
	require.NoError(t, db.Where("email = ?", "alice@festival.test").Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, existing.ID, users[0].ID)
}
