package repository

import (
	"context"
	"time"

	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"gorm.io/gorm"
)

type UserRepository struct {
	Repository[entity.User]
}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (repository UserRepository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*entity.User, error) {
	var user entity.User
	if err := db.WithContext(ctx).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (repository UserRepository) FindByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]entity.User, error) {
	var users []entity.User
	if len(ids) == 0 {
		return users, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// FindOldestAdmin returns the earliest registered active user with the admin role.
func (repository UserRepository) FindOldestAdmin(ctx context.Context, db *gorm.DB) (*entity.User, error) {
	var user entity.User
	err := db.WithContext(ctx).
		Where("role = ? AND is_active = ?", enum.RoleAdmin, true).
		Order("created_at ASC").
		Take(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (repository UserRepository) FindAllOrdered(ctx context.Context, db *gorm.DB) ([]entity.User, error) {
	var users []entity.User
	err := db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	return users, err
}

func (repository UserRepository) CountActiveSince(ctx context.Context, db *gorm.DB, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&entity.User{}).
		Where("is_active = ? AND last_active >= ?", true, since).
		Count(&count).Error
	return count, err
}

// TouchLastActive bumps last_active only when the stored value is older than threshold.
func (repository UserRepository) TouchLastActive(ctx context.Context, db *gorm.DB, userID string, now time.Time, threshold time.Duration) error {
	return db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ? AND last_active < ?", userID, now.Add(-threshold)).
		Update("last_active", now).Error
}
