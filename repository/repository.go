package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository holds the CRUD shared by every entity. Callers pass the *gorm.DB so the
// same method runs inside or outside a transaction.
type Repository[T any] struct{}

func (repo Repository[T]) Save(ctx context.Context, db *gorm.DB, entity *T) error {
	return db.WithContext(ctx).Create(entity).Error
}

func (repo Repository[T]) FindById(ctx context.Context, db *gorm.DB, entity *T, id string) error {
	return db.WithContext(ctx).Where("id = ?", id).Take(entity).Error
}

func (repo Repository[T]) UpdateColumns(ctx context.Context, db *gorm.DB, id string, columns map[string]interface{}) error {
	var model T
	return db.WithContext(ctx).Model(&model).Where("id = ?", id).Updates(columns).Error
}
