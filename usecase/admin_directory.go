package usecase

import (
	"context"
	"strings"

	"festival-chat-api/access"
	"festival-chat-api/entity"
	"festival-chat-api/repository"
	"gorm.io/gorm"
)

// AdminDirectory resolves the designated admin that admin DMs are opened with.
type AdminDirectory struct {
	*repository.UserRepository
	*gorm.DB
	Policy *access.Policy
	Guard  *repository.Guard
}

func NewAdminDirectory(userRepository *repository.UserRepository, db *gorm.DB, policy *access.Policy, guard *repository.Guard) *AdminDirectory {
	return &AdminDirectory{UserRepository: userRepository, DB: db, Policy: policy, Guard: guard}
}

// ResolveAdmin returns the bootstrap admin when that account exists and is active, else the
// oldest active user with the admin role. A nil user with a nil error means no admin exists.
func (d *AdminDirectory) ResolveAdmin(ctx context.Context) (*entity.User, error) {
	var admin *entity.User
	err := d.Guard.Run(ctx, "resolve_admin", func(ctx context.Context) error {
		if email := d.Policy.BootstrapEmail(); email != "" {
			user, err := d.UserRepository.FindByEmail(ctx, d.DB, strings.ToLower(email))
			if err == nil && user.IsActive {
				admin = user
				return nil
			}
			if err != nil && !repository.IsNotFound(err) {
				return err
			}
		}
		user, err := d.UserRepository.FindOldestAdmin(ctx, d.DB)
		if repository.IsNotFound(err) {
			return nil
		}
		admin = user
		return err
	})
	return admin, err
}
