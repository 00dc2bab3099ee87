package repository

import (
	"context"
	"time"

	"festival-chat-api/entity"
	"gorm.io/gorm"
)

// MaxRefreshTokens caps the refresh tokens stored per account; the oldest is evicted first.
const MaxRefreshTokens = 5

type AuthRepository struct {
	Repository[entity.Account]
}

func NewAuthRepository() *AuthRepository {
	return &AuthRepository{}
}

func (repository AuthRepository) FindByEmail(ctx context.Context, db *gorm.DB, email string) (entity.Account, error) {
	account := entity.Account{}
	err := db.WithContext(ctx).Preload("User").Where("email = ?", email).Take(&account).Error
	return account, err
}

func (repository AuthRepository) FindByID(ctx context.Context, db *gorm.DB, id string) (entity.Account, error) {
	account := entity.Account{}
	err := db.WithContext(ctx).Preload("User").Where("id = ?", id).Take(&account).Error
	return account, err
}

// AddRefreshToken stores tokenHash and trims the account down to MaxRefreshTokens.
func (repository AuthRepository) AddRefreshToken(ctx context.Context, db *gorm.DB, accountID, tokenHash string, expiresAt time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// expired tokens never count towards the cap
		if err := tx.Where("account_id = ? AND expires_at <= ?", accountID, time.Now()).
			Delete(&entity.RefreshToken{}).Error; err != nil {
			return err
		}

		var existing []entity.RefreshToken
		if err := tx.Where("account_id = ?", accountID).
			Order("created_at ASC").Find(&existing).Error; err != nil {
			return err
		}
		if overflow := len(existing) - (MaxRefreshTokens - 1); overflow > 0 {
			ids := make([]string, 0, overflow)
			for _, token := range existing[:overflow] {
				ids = append(ids, token.ID)
			}
			if err := tx.Where("id IN ?", ids).Delete(&entity.RefreshToken{}).Error; err != nil {
				return err
			}
		}

		return tx.Create(&entity.RefreshToken{
			AccountID: accountID,
			TokenHash: tokenHash,
			ExpiresAt: expiresAt,
		}).Error
	})
}

func (repository AuthRepository) FindRefreshToken(ctx context.Context, db *gorm.DB, tokenHash string) (entity.RefreshToken, error) {
	token := entity.RefreshToken{}
	err := db.WithContext(ctx).
		Where("token_hash = ? AND expires_at > ?", tokenHash, time.Now()).
		Take(&token).Error
	return token, err
}

func (repository AuthRepository) DeleteRefreshToken(ctx context.Context, db *gorm.DB, accountID, tokenHash string) (int64, error) {
	result := db.WithContext(ctx).
		Where("account_id = ? AND token_hash = ?", accountID, tokenHash).
		Delete(&entity.RefreshToken{})
	return result.RowsAffected, result.Error
}

func (repository AuthRepository) DeleteAllRefreshTokens(ctx context.Context, db *gorm.DB, accountID string) error {
	return db.WithContext(ctx).Where("account_id = ?", accountID).Delete(&entity.RefreshToken{}).Error
}

func (repository AuthRepository) CountRefreshTokens(ctx context.Context, db *gorm.DB, accountID string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&entity.RefreshToken{}).Where("account_id = ?", accountID).Count(&count).Error
	return count, err
}
