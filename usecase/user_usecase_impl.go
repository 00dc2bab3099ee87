package usecase

import (
	"context"
	"strings"
	"time"

	"festival-chat-api/access"
	"festival-chat-api/apperror"
	"festival-chat-api/config/logger"
	"festival-chat-api/dto/req"
	"festival-chat-api/dto/res"
	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"festival-chat-api/repository"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	// ActiveWindow is how recently a user must have been seen to count as active.
	ActiveWindow = 15 * time.Minute
	// touchThreshold throttles last_active writes from request traffic.
	touchThreshold = time.Minute
)

type UserUsecaseImpl struct {
	*repository.UserRepository
	*validator.Validate
	*gorm.DB
	Log      *logger.AppLogger
	Policy   *access.Policy
	Guard    *repository.Guard
	Presence PresenceCounter
}

func NewUserUsecase(userRepository *repository.UserRepository, validate *validator.Validate, DB *gorm.DB, logger *logger.AppLogger,
	policy *access.Policy, guard *repository.Guard, presence PresenceCounter) UserUsecase {
	return &UserUsecaseImpl{
		UserRepository: userRepository,
		Validate:       validate,
		DB:             DB,
		Log:            logger,
		Policy:         policy,
		Guard:          guard,
		Presence:       presence,
	}
}

func (uc *UserUsecaseImpl) GetUserByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := uc.Guard.Run(ctx, "find_user", func(ctx context.Context) error {
		return uc.UserRepository.FindById(ctx, uc.DB, &user, id)
	})
	if err != nil {
		if repository.IsNotFound(err) {
			uc.Log.Http.Warning.Warn().Str("userId", id).Msg("User not found")
		}
		return nil, notFoundAs(err, "User not found")
	}
	return &user, nil
}

func (uc *UserUsecaseImpl) GetProfile(user *entity.User) res.UserResponse {
	return res.ToUserResponse(user, uc.Policy.IsAdmin(user))
}

func (uc *UserUsecaseImpl) UpdateProfile(ctx context.Context, user *entity.User, request *req.EditProfileRequest) (res.UserResponse, error) {
	request.Name = strings.TrimSpace(request.Name)
	if err := validate(uc.Validate, request); err != nil {
		return res.UserResponse{}, err
	}

	err := uc.Guard.Run(ctx, "update_profile", func(ctx context.Context) error {
		return uc.UserRepository.UpdateColumns(ctx, uc.DB, user.ID, map[string]interface{}{"name": request.Name})
	})
	if err != nil {
		return res.UserResponse{}, err
	}
	updated := *user
	updated.Name = request.Name
	return uc.GetProfile(&updated), nil
}

func (uc *UserUsecaseImpl) GetAllUser(ctx context.Context) ([]res.UserResponse, error) {
	uc.Log.Http.Trace.Trace().Msg("Fetching all users from database")

	var users []entity.User
	err := uc.Guard.Run(ctx, "list_users", func(ctx context.Context) error {
		var err error
		users, err = uc.UserRepository.FindAllOrdered(ctx, uc.DB)
		return err
	})
	if err != nil {
		uc.Log.Http.Error.Error().Err(err).Msg("Failed to get all users")
		return nil, err
	}

	responses := make([]res.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, uc.GetProfile(&users[i]))
	}
	return responses, nil
}

func (uc *UserUsecaseImpl) CountOnline() int64 {
	if uc.Presence == nil {
		return 0
	}
	return int64(uc.Presence.OnlineCount())
}

func (uc *UserUsecaseImpl) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := uc.Guard.Run(ctx, "count_active_users", func(ctx context.Context) error {
		var err error
		count, err = uc.UserRepository.CountActiveSince(ctx, uc.DB, time.Now().Add(-ActiveWindow))
		return err
	})
	return count, err
}

func (uc *UserUsecaseImpl) UpdateRole(ctx context.Context, actor *entity.User, userID string, request *req.UpdateRoleRequest) (res.UserResponse, error) {
	if !uc.Policy.IsAdmin(actor) {
		return res.UserResponse{}, apperror.Forbidden("Admin access required")
	}
	if err := validate(uc.Validate, request); err != nil {
		return res.UserResponse{}, err
	}

	target, err := uc.GetUserByID(ctx, userID)
	if err != nil {
		return res.UserResponse{}, err
	}
	role := enum.UserRole(request.Role)
	err = uc.Guard.Run(ctx, "update_role", func(ctx context.Context) error {
		return uc.UserRepository.UpdateColumns(ctx, uc.DB, target.ID, map[string]interface{}{"role": role})
	})
	if err != nil {
		return res.UserResponse{}, err
	}
	target.Role = role

	uc.Log.Http.Info.Info().Str("actorId", actor.ID).Str("userId", target.ID).Str("role", string(role)).Msg("User role changed")
	return uc.GetProfile(target), nil
}

// UpdateStatus activates or deactivates an account. Users are never hard-deleted.
func (uc *UserUsecaseImpl) UpdateStatus(ctx context.Context, actor *entity.User, userID string, request *req.UpdateStatusRequest) (res.UserResponse, error) {
	if !uc.Policy.IsAdmin(actor) {
		return res.UserResponse{}, apperror.Forbidden("Admin access required")
	}
	if err := validate(uc.Validate, request); err != nil {
		return res.UserResponse{}, err
	}
	if actor.ID == userID && !*request.IsActive {
		return res.UserResponse{}, apperror.Validation("You cannot deactivate your own account")
	}

	target, err := uc.GetUserByID(ctx, userID)
	if err != nil {
		return res.UserResponse{}, err
	}
	err = uc.Guard.Run(ctx, "update_status", func(ctx context.Context) error {
		return uc.UserRepository.UpdateColumns(ctx, uc.DB, target.ID, map[string]interface{}{"is_active": *request.IsActive})
	})
	if err != nil {
		return res.UserResponse{}, err
	}
	target.IsActive = *request.IsActive

	uc.Log.Http.Info.Info().Str("actorId", actor.ID).Str("userId", target.ID).Bool("isActive", target.IsActive).Msg("User status changed")
	return uc.GetProfile(target), nil
}

func (uc *UserUsecaseImpl) TouchLastActive(ctx context.Context, userID string) error {
	return uc.Guard.Run(ctx, "touch_last_active", func(ctx context.Context) error {
		return uc.UserRepository.TouchLastActive(ctx, uc.DB, userID, time.Now(), touchThreshold)
	})
}

func (uc *UserUsecaseImpl) MarkOffline(ctx context.Context, userID string) error {
	return uc.Guard.Run(ctx, "mark_offline", func(ctx context.Context) error {
		return uc.UserRepository.UpdateColumns(ctx, uc.DB, userID, map[string]interface{}{"last_active": time.Now()})
	})
}
