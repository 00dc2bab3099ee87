package repository_test

import (
	"context"
	"testing"
	"time"

	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"festival-chat-api/repository"
	"festival-chat-api/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertParticipantReactivates(t *testing.T) {
	db := testkit.NewDB(t)
	ctx := context.Background()
	repo := repository.NewChatRepository()
	owner := testkit.CreateUser(t, db, "owner", "owner@festival.test", enum.RoleMember)
	alice := testkit.CreateUser(t, db, "alice", "alice@festival.test", enum.RoleMember)
	chat := testkit.CreateChat(t, db, "Camping", owner, alice)

	left, err := repo.DeactivateParticipant(ctx, db, chat.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)
	count, err := repo.CountActiveParticipants(ctx, db, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	now := time.Now()
	require.NoError(t, repo.UpsertParticipant(ctx, db, &entity.ChatParticipant{
		ChatID: chat.ID, UserID: alice.ID, Name: alice.Name, Role: enum.ParticipantModerator,
		JoinedAt: now, LastRead: now, IsActive: true,
	}))

	var rows []entity.ChatParticipant
	require.NoError(t, db.Where("chat_id = ? AND user_id = ?", chat.ID, alice.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsActive)
	assert.Equal(t, enum.ParticipantModerator, rows[0].Role)
}

func TestSearchByNameMatchesLiterally(t *testing.T) {
	db := testkit.NewDB(t)
	ctx := context.Background()
	repo := repository.NewChatRepository()
	owner := testkit.CreateUser(t, db, "owner", "owner@festival.test", enum.RoleMember)
	testkit.CreateChat(t, db, "100% Techno", owner)
	testkit.CreateChat(t, db, "1000 Lanterns", owner)
	gone := testkit.CreateChat(t, db, "100% Gone", owner)
	require.NoError(t, repo.SoftDelete(ctx, db, gone.ID))

	chats, err := repo.SearchByName(ctx, db, "100%", 10)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, "100% Techno", chats[0].Name)

	_, err = repo.FindByNameKey(ctx, db, "100% gone")
	assert.True(t, repository.IsNotFound(err), "soft deleted chats release their name")
}

func TestRefreshTokensAreCappedPerAccount(t *testing.T) {
	db := testkit.NewDB(t)
	ctx := context.Background()
	repo := repository.NewAuthRepository()
	user := testkit.CreateUser(t, db, "alice", "alice@festival.test", enum.RoleMember)

	expires := time.Now().Add(time.Hour)
	for i := 0; i < repository.MaxRefreshTokens+2; i++ {
		require.NoError(t, repo.AddRefreshToken(ctx, db, user.AuthId, string(rune('a'+i)), expires))
	}
	count, err := repo.CountRefreshTokens(ctx, db, user.AuthId)
	require.NoError(t, err)
	assert.Equal(t, int64(repository.MaxRefreshTokens), count)

	_, err = repo.FindRefreshToken(ctx, db, "a")
	assert.True(t, repository.IsNotFound(err), "the oldest token is evicted first")
	_, err = repo.FindRefreshToken(ctx, db, string(rune('a'+repository.MaxRefreshTokens+1)))
	assert.NoError(t, err)

	removed, err := repo.DeleteRefreshToken(ctx, db, user.AuthId, "c")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
