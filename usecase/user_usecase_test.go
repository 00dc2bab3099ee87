package usecase

import (
	"context"
	"testing"
	"time"

	"festival-chat-api/apperror"
	"festival-chat-api/dto/req"
	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPresence int

func (p fixedPresence) OnlineCount() int { return int(p) }

func TestUpdateRoleAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, alice := f.admin(t, "organiser"), f.user(t, "alice")

	_, err := f.Users.UpdateRole(ctx, alice, admin.ID, &req.UpdateRoleRequest{Role: "member"})
	assert.True(t, apperror.Is(err, apperror.KindAuthorization))

	promoted, err := f.Users.UpdateRole(ctx, admin, alice.ID, &req.UpdateRoleRequest{Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, enum.RoleAdmin, promoted.Role)
	assert.True(t, promoted.IsAdmin)

	_, err = f.Users.UpdateRole(ctx, admin, alice.ID, &req.UpdateRoleRequest{Role: "owner"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	inactive := false
	_, err = f.Users.UpdateStatus(ctx, admin, admin.ID, &req.UpdateStatusRequest{IsActive: &inactive})
	assert.True(t, apperror.Is(err, apperror.KindValidation), "admins cannot deactivate themselves")

	disabled, err := f.Users.UpdateStatus(ctx, admin, alice.ID, &req.UpdateStatusRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, disabled.IsActive)

	stored, err := f.Users.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	_, err = f.Users.UpdateStatus(ctx, admin, "missing", &req.UpdateStatusRequest{IsActive: &inactive})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCountActiveUsesWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.user(t, "recent")
	stale := f.user(t, "stale")
	require.NoError(t, f.DB.Model(&entity.User{}).Where("id = ?", stale.ID).
		Update("last_active", time.Now().Add(-2*ActiveWindow)).Error)

	count, err := f.Users.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, f.Users.MarkOffline(ctx, stale.ID))
	count, err = f.Users.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCountOnlineUsesPresence(t *testing.T) {
	f := newFixture(t)
	assert.Zero(t, f.Users.CountOnline())

	impl := f.Users.(*UserUsecaseImpl)
	impl.Presence = fixedPresence(3)
	assert.Equal(t, int64(3), f.Users.CountOnline())
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	updated, err := f.Users.UpdateProfile(context.Background(), alice, &req.EditProfileRequest{Name: "  Alice B "})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", updated.Name)

	_, err = f.Users.UpdateProfile(context.Background(), alice, &req.EditProfileRequest{Name: " "})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}
