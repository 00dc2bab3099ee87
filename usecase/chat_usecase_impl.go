package usecase

import (
	"context"
	"fmt"
	"sort"
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
	DefaultMaxParticipants = 500
	dmMaxParticipants      = 2

	defaultSearchLimit = 10
	maxSearchLimit     = 50
	suggestionLimit    = 5
)

type ChatUsecaseImpl struct {
	*repository.ChatRepository
	UserRepository *repository.UserRepository
	*validator.Validate
	*gorm.DB
	Log      *logger.AppLogger
	Policy   *access.Policy
	Guard    *repository.Guard
	Admins   *AdminDirectory
	Notifier Notifier
}

func NewChatUsecase(chatRepository *repository.ChatRepository, userRepository *repository.UserRepository, validate *validator.Validate,
	DB *gorm.DB, logger *logger.AppLogger, policy *access.Policy, guard *repository.Guard, admins *AdminDirectory, notifier Notifier) *ChatUsecaseImpl {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ChatUsecaseImpl{
		ChatRepository: chatRepository,
		UserRepository: userRepository,
		Validate:       validate,
		DB:             DB,
		Log:            logger,
		Policy:         policy,
		Guard:          guard,
		Admins:         admins,
		Notifier:       notifier,
	}
}

// AdminDMKey identifies the admin DM between two users regardless of argument order.
func AdminDMKey(userID, adminID string) string {
	ids := []string{userID, adminID}
	sort.Strings(ids)
	return "admindm:" + strings.Join(ids, ":")
}

// NameKey is the case-insensitive identity of a chat name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (uc *ChatUsecaseImpl) toResponse(viewer *entity.User, chat *entity.Chat) res.ChatResponse {
	return res.ToChatResponse(chat, viewer.ID, uc.Policy.CanViewLastMessage(viewer, chat))
}

func defaultSettings(chatType enum.ChatType) entity.ChatSettings {
	settings := entity.ChatSettings{
		AllowFileSharing:  true,
		AllowMediaSharing: true,
		MaxParticipants:   DefaultMaxParticipants,
		IsPublic:          true,
		RequireApproval:   false,
	}
	if chatType == enum.DM {
		settings.MaxParticipants = dmMaxParticipants
	}
	return settings
}

func applySettings(settings *entity.ChatSettings, request *req.ChatSettingsRequest, chatType enum.ChatType) {
	if request == nil {
		return
	}
	if request.AllowFileSharing != nil {
		settings.AllowFileSharing = *request.AllowFileSharing
	}
	if request.AllowMediaSharing != nil {
		settings.AllowMediaSharing = *request.AllowMediaSharing
	}
	if request.MaxParticipants != nil && chatType != enum.DM {
		settings.MaxParticipants = *request.MaxParticipants
	}
	if request.IsPublic != nil {
		settings.IsPublic = *request.IsPublic
	}
	if request.RequireApproval != nil {
		settings.RequireApproval = *request.RequireApproval
	}
}

func newParticipant(user *entity.User, role enum.ParticipantRole, at time.Time) entity.ChatParticipant {
	return entity.ChatParticipant{
		UserID:   user.ID,
		Name:     user.Name,
		Role:     role,
		JoinedAt: at,
		LastRead: at,
		IsActive: true,
	}
}

func (uc *ChatUsecaseImpl) CreateChat(ctx context.Context, creator *entity.User, request *req.CreateChatRequest) (res.ChatResponse, bool, error) {
	request.Name = strings.TrimSpace(request.Name)
	if err := validate(uc.Validate, request); err != nil {
		return res.ChatResponse{}, false, err
	}
	if request.IsAdminDM {
		return uc.createAdminDM(ctx, creator)
	}

	chatType := enum.ChatType(request.Type)
	if chatType == "" {
		chatType = enum.GROUP
	}
	category := enum.ChatCategory(request.Category)
	if category == "" {
		category = enum.CategoryGeneral
	}

	members, err := uc.loadMembers(ctx, creator, request.ParticipantIDs)
	if err != nil {
		return res.ChatResponse{}, false, err
	}
	if chatType == enum.DM && len(members) != 1 {
		return res.ChatResponse{}, false, apperror.Validation("A direct message needs exactly one other participant",
			apperror.FieldError{Field: "participants", Message: "participants must contain exactly one user"})
	}

	settings := defaultSettings(chatType)
	applySettings(&settings, request.Settings, chatType)
	if len(members)+1 > settings.MaxParticipants {
		return res.ChatResponse{}, false, apperror.Validation("Too many participants",
			apperror.FieldError{Field: "participants", Message: fmt.Sprintf("participants exceed maxParticipants (%d)", settings.MaxParticipants)})
	}

	chat, err := uc.insertChat(ctx, creator, chatDraft{
		Name:        request.Name,
		Description: strings.TrimSpace(request.Description),
		Type:        chatType,
		Category:    category,
		Settings:    settings,
	}, members)
	if err != nil {
		uc.Log.Http.Error.Error().Err(err).Str("name", request.Name).Msg("Failed to create chat")
		return res.ChatResponse{}, false, err
	}

	uc.Log.Http.Info.Info().Str("chatId", chat.ID).Str("creatorId", creator.ID).Str("type", string(chat.ChatType)).Msg("Chat created")
	return uc.toResponse(creator, chat), true, nil
}

// loadMembers resolves participant ids other than the creator, requiring active users.
func (uc *ChatUsecaseImpl) loadMembers(ctx context.Context, creator *entity.User, ids []string) ([]entity.User, error) {
	unique := make([]string, 0, len(ids))
	seen := map[string]bool{creator.ID: true}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, nil
	}

	var users []entity.User
	err := uc.Guard.Run(ctx, "load_participants", func(ctx context.Context) error {
		var err error
		users, err = uc.UserRepository.FindByIDs(ctx, uc.DB, unique)
		return err
	})
	if err != nil {
		return nil, err
	}

	found := make(map[string]entity.User, len(users))
	for _, u := range users {
		if u.IsActive {
			found[u.ID] = u
		}
	}
	members := make([]entity.User, 0, len(unique))
	var missing []apperror.FieldError
	for _, id := range unique {
		u, ok := found[id]
		if !ok {
			missing = append(missing, apperror.FieldError{Field: "participants", Message: fmt.Sprintf("user %s does not exist or is inactive", id)})
			continue
		}
		members = append(members, u)
	}
	if len(missing) > 0 {
		return nil, apperror.Validation("Some participants could not be added", missing...)
	}
	return members, nil
}

type chatDraft struct {
	Name        string
	Description string
	Type        enum.ChatType
	Category    enum.ChatCategory
	Settings    entity.ChatSettings
}

// insertChat stores a group, channel or plain DM with the creator as chat admin.
// Names of groups and channels are unique among active chats.
func (uc *ChatUsecaseImpl) insertChat(ctx context.Context, creator *entity.User, draft chatDraft, members []entity.User) (*entity.Chat, error) {
	now := time.Now()
	chat := &entity.Chat{
		Name:         draft.Name,
		Description:  draft.Description,
		ChatType:     draft.Type,
		Category:     draft.Category,
		CreatedBy:    creator.ID,
		IsAdminDM:    false,
		IsActive:     true,
		Settings:     draft.Settings,
		LastActivity: now,
	}
	if draft.Type != enum.DM {
		key := NameKey(draft.Name)
		chat.NameKey = &key
	}

	participants := make([]entity.ChatParticipant, 0, len(members)+1)
	participants = append(participants, newParticipant(creator, enum.ParticipantAdmin, now))
	for i := range members {
		participants = append(participants, newParticipant(&members[i], enum.ParticipantMember, now))
	}

	err := uc.Guard.Run(ctx, "create_chat", func(ctx context.Context) error {
		if chat.NameKey != nil {
			if _, err := uc.ChatRepository.FindByNameKey(ctx, uc.DB, *chat.NameKey); err == nil {
				return apperror.Conflict(fmt.Sprintf("A chat named %q already exists", draft.Name))
			} else if !repository.IsNotFound(err) {
				return err
			}
		}
		chat.ID = ""
		return uc.ChatRepository.CreateChatWithParticipants(ctx, uc.DB, chat, participants)
	})
	if repository.IsDuplicate(err) {
		return nil, apperror.Conflict(fmt.Sprintf("A chat named %q already exists", draft.Name))
	}
	if err != nil {
		return nil, err
	}
	return uc.FindChatByID(ctx, chat.ID)
}

// createAdminDM finds or creates the admin DM of creator. Concurrent callers converge on
// one chat through the unique admin DM key.
func (uc *ChatUsecaseImpl) createAdminDM(ctx context.Context, creator *entity.User) (res.ChatResponse, bool, error) {
	admin, err := uc.Admins.ResolveAdmin(ctx)
	if err != nil {
		return res.ChatResponse{}, false, err
	}
	if admin == nil {
		return res.ChatResponse{}, false, apperror.NotFound("No admin is available for a direct message")
	}
	if admin.ID == creator.ID {
		return res.ChatResponse{}, false, apperror.Validation("Admins cannot open an admin DM with themselves")
	}

	key := AdminDMKey(creator.ID, admin.ID)
	if existing, err := uc.findAdminDM(ctx, key); err != nil {
		return res.ChatResponse{}, false, err
	} else if existing != nil {
		uc.Log.Http.Trace.Trace().Str("chatId", existing.ID).Str("userId", creator.ID).Msg("Admin DM already exists")
		return uc.toResponse(creator, existing), false, nil
	}

	now := time.Now()
	chat := &entity.Chat{
		Name:         "Admin DM - " + creator.Name,
		Description:  "Direct line to the festival organisers",
		ChatType:     enum.DM,
		Category:     enum.CategorySupport,
		CreatedBy:    creator.ID,
		IsAdminDM:    true,
		IsActive:     true,
		Settings:     defaultSettings(enum.DM),
		LastActivity: now,
		AdminDMKey:   &key,
	}
	participants := []entity.ChatParticipant{
		newParticipant(creator, enum.ParticipantAdmin, now),
		newParticipant(admin, enum.ParticipantAdmin, now),
	}

	err = uc.Guard.Run(ctx, "create_admin_dm", func(ctx context.Context) error {
		chat.ID = ""
		return uc.ChatRepository.CreateChatWithParticipants(ctx, uc.DB, chat, participants)
	})
	if repository.IsDuplicate(err) {
		// lost the race against a concurrent request; its chat is the admin DM
		existing, findErr := uc.findAdminDM(ctx, key)
		if findErr != nil {
			return res.ChatResponse{}, false, findErr
		}
		if existing != nil {
			return uc.toResponse(creator, existing), false, nil
		}
	}
	if err != nil {
		return res.ChatResponse{}, false, err
	}

	created, err := uc.FindChatByID(ctx, chat.ID)
	if err != nil {
		return res.ChatResponse{}, false, err
	}
	uc.Log.Http.Info.Info().Str("chatId", created.ID).Str("userId", creator.ID).Str("adminId", admin.ID).Msg("Admin DM created")
	return uc.toResponse(creator, created), true, nil
}

func (uc *ChatUsecaseImpl) findAdminDM(ctx context.Context, key string) (*entity.Chat, error) {
	var chat *entity.Chat
	err := uc.Guard.Run(ctx, "find_admin_dm", func(ctx context.Context) error {
		var err error
		chat, err = uc.ChatRepository.FindByAdminDMKey(ctx, uc.DB, key)
		return err
	})
	if repository.IsNotFound(err) {
		return nil, nil
	}
	return chat, err
}

func (uc *ChatUsecaseImpl) FindChatByID(ctx context.Context, chatID string) (*entity.Chat, error) {
	var chat *entity.Chat
	err := uc.Guard.Run(ctx, "find_chat", func(ctx context.Context) error {
		var err error
		chat, err = uc.ChatRepository.FindChatByID(ctx, uc.DB, chatID)
		return err
	})
	if err != nil {
		return nil, notFoundAs(err, "Chat not found")
	}
	return chat, nil
}

func (uc *ChatUsecaseImpl) FindViewableChat(ctx context.Context, viewer *entity.User, chatID string) (*entity.Chat, error) {
	chat, err := uc.FindChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !uc.Policy.CanViewChat(viewer, chat) {
		return nil, apperror.Forbidden("Access denied to this chat")
	}
	return chat, nil
}

func (uc *ChatUsecaseImpl) GetChats(ctx context.Context, viewer *entity.User) ([]res.ChatResponse, error) {
	var chats []entity.Chat
	err := uc.Guard.Run(ctx, "list_chats", func(ctx context.Context) error {
		var err error
		chats, err = uc.ChatRepository.FindAllActive(ctx, uc.DB)
		return err
	})
	if err != nil {
		uc.Log.Http.Error.Error().Err(err).Msg("Failed to list chats")
		return nil, err
	}

	responses := make([]res.ChatResponse, 0, len(chats))
	for i := range chats {
		if uc.Policy.CanListChat(viewer, &chats[i]) {
			responses = append(responses, uc.toResponse(viewer, &chats[i]))
		}
	}
	return responses, nil
}

// GetChat returns the chat to anyone who can view it; soft-deleted chats stay readable.
func (uc *ChatUsecaseImpl) GetChat(ctx context.Context, viewer *entity.User, chatID string) (res.ChatResponse, error) {
	chat, err := uc.FindViewableChat(ctx, viewer, chatID)
	if err != nil {
		return res.ChatResponse{}, err
	}
	return uc.toResponse(viewer, chat), nil
}

func (uc *ChatUsecaseImpl) UpdateChat(ctx context.Context, actor *entity.User, chatID string, request *req.UpdateChatRequest) (res.ChatResponse, error) {
	if request.Name != nil {
		trimmed := strings.TrimSpace(*request.Name)
		request.Name = &trimmed
	}
	if err := validate(uc.Validate, request); err != nil {
		return res.ChatResponse{}, err
	}

	err := uc.Guard.Run(ctx, "update_chat", func(ctx context.Context) error {
		return uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			chat, err := uc.ChatRepository.LockChat(ctx, tx, chatID)
			if err != nil {
				return notFoundAs(err, "Chat not found")
			}
			if !uc.Policy.CanModifyChat(actor, chat) {
				return apperror.Forbidden("You are not allowed to modify this chat")
			}
			if !chat.IsActive {
				return apperror.Conflict("Chat has been deleted")
			}

			columns := map[string]interface{}{}
			if request.Name != nil && *request.Name != chat.Name {
				columns["name"] = *request.Name
				if chat.NameKey != nil {
					key := NameKey(*request.Name)
					if key != *chat.NameKey {
						if other, err := uc.ChatRepository.FindByNameKey(ctx, tx, key); err == nil && other.ID != chat.ID {
							return apperror.Conflict(fmt.Sprintf("A chat named %q already exists", *request.Name))
						} else if err != nil && !repository.IsNotFound(err) {
							return err
						}
					}
					columns["name_key"] = key
				}
			}
			if request.Description != nil {
				columns["description"] = strings.TrimSpace(*request.Description)
			}
			if request.Category != nil {
				columns["category"] = enum.ChatCategory(*request.Category)
			}
			if request.Settings != nil {
				settings := chat.Settings
				applySettings(&settings, request.Settings, chat.ChatType)
				if active := len(chat.ActiveParticipants()); settings.MaxParticipants < active {
					return apperror.Validation("maxParticipants is below the current participant count",
						apperror.FieldError{Field: "settings.maxParticipants", Message: fmt.Sprintf("maxParticipants must be at least %d", active)})
				}
				columns["setting_allow_file_sharing"] = settings.AllowFileSharing
				columns["setting_allow_media_sharing"] = settings.AllowMediaSharing
				columns["setting_max_participants"] = settings.MaxParticipants
				columns["setting_is_public"] = settings.IsPublic
				columns["setting_require_approval"] = settings.RequireApproval
			}
			if len(columns) == 0 {
				return nil
			}
			return uc.ChatRepository.UpdateColumns(ctx, tx, chat.ID, columns)
		})
	})
	if repository.IsDuplicate(err) {
		err = apperror.Conflict("A chat with this name already exists")
	}
	if err != nil {
		return res.ChatResponse{}, err
	}

	chat, err := uc.FindChatByID(ctx, chatID)
	if err != nil {
		return res.ChatResponse{}, err
	}
	uc.Log.Http.Info.Info().Str("chatId", chatID).Str("actorId", actor.ID).Msg("Chat updated")
	return uc.toResponse(actor, chat), nil
}

// DeleteChat soft-deletes the chat; messages are kept and the chat stays readable.
func (uc *ChatUsecaseImpl) DeleteChat(ctx context.Context, actor *entity.User, chatID string) error {
	chat, err := uc.FindChatByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !uc.Policy.CanModifyChat(actor, chat) {
		return apperror.Forbidden("You are not allowed to delete this chat")
	}
	if !chat.IsActive {
		return nil
	}

	err = uc.Guard.Run(ctx, "delete_chat", func(ctx context.Context) error {
		return uc.ChatRepository.SoftDelete(ctx, uc.DB, chatID)
	})
	if err == nil {
		uc.Log.Http.Info.Info().Str("chatId", chatID).Str("actorId", actor.ID).Msg("Chat soft-deleted")
	}
	return err
}

// membershipGate decides, under the chat lock, whether the membership change may proceed.
type membershipGate func(chat *entity.Chat) error

// addMember adds target to the chat, or only updates the role when already active.
// An empty role joins as a member and leaves an active membership as it is.
// It reports whether a new active membership was created.
func (uc *ChatUsecaseImpl) addMember(ctx context.Context, chatID string, target *entity.User, role enum.ParticipantRole, gate membershipGate) (bool, error) {
	joined := false
	err := uc.Guard.Run(ctx, "add_participant", func(ctx context.Context) error {
		joined = false
		return uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			chat, err := uc.ChatRepository.LockChat(ctx, tx, chatID)
			if err != nil {
				return notFoundAs(err, "Chat not found")
			}
			if err := gate(chat); err != nil {
				return err
			}
			if !chat.IsActive {
				return apperror.Conflict("Chat has been deleted")
			}

			if existing := chat.Participant(target.ID); existing != nil && existing.IsActive {
				if role == "" || existing.Role == role {
					return nil
				}
				return uc.ChatRepository.UpdateParticipantRole(ctx, tx, chat.ID, target.ID, role)
			}
			if len(chat.ActiveParticipants()) >= chat.Settings.MaxParticipants {
				return apperror.Conflict("Chat is full")
			}

			if role == "" {
				role = enum.ParticipantMember
			}
			participant := newParticipant(target, role, time.Now())
			participant.ChatID = chat.ID
			if err := uc.ChatRepository.UpsertParticipant(ctx, tx, &participant); err != nil {
				return err
			}
			joined = true
			return nil
		})
	})
	return joined, err
}

// removeMember deactivates the participant record of userID.
func (uc *ChatUsecaseImpl) removeMember(ctx context.Context, chatID, userID string, gate membershipGate) error {
	return uc.Guard.Run(ctx, "remove_participant", func(ctx context.Context) error {
		return uc.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			chat, err := uc.ChatRepository.LockChat(ctx, tx, chatID)
			if err != nil {
				return notFoundAs(err, "Chat not found")
			}
			if err := gate(chat); err != nil {
				return err
			}
			if !chat.IsParticipant(userID) {
				return apperror.Conflict("User is not a participant of this chat")
			}
			_, err = uc.ChatRepository.DeactivateParticipant(ctx, tx, chat.ID, userID)
			return err
		})
	})
}

func (uc *ChatUsecaseImpl) AddParticipant(ctx context.Context, actor *entity.User, chatID string, request *req.AddParticipantRequest) (res.ChatResponse, error) {
	if err := validate(uc.Validate, request); err != nil {
		return res.ChatResponse{}, err
	}
	role := enum.ParticipantRole(request.Role)
	if role == "" {
		role = enum.ParticipantMember
	}

	var target entity.User
	err := uc.Guard.Run(ctx, "find_user", func(ctx context.Context) error {
		return uc.UserRepository.FindById(ctx, uc.DB, &target, request.UserID)
	})
	if err != nil {
		return res.ChatResponse{}, notFoundAs(err, "User not found")
	}
	if !target.IsActive {
		return res.ChatResponse{}, apperror.Validation("User is deactivated",
			apperror.FieldError{Field: "userId", Message: "userId refers to a deactivated user"})
	}

	joined, err := uc.addMember(ctx, chatID, &target, role, func(chat *entity.Chat) error {
		if !uc.Policy.CanModifyChat(actor, chat) {
			return apperror.Forbidden("You are not allowed to add participants to this chat")
		}
		return nil
	})
	if err != nil {
		return res.ChatResponse{}, err
	}
	return uc.afterJoin(ctx, actor, chatID, &target, joined)
}

func (uc *ChatUsecaseImpl) afterJoin(ctx context.Context, viewer *entity.User, chatID string, user *entity.User, joined bool) (res.ChatResponse, error) {
	chat, err := uc.FindChatByID(ctx, chatID)
	if err != nil {
		return res.ChatResponse{}, err
	}
	if joined {
		uc.Log.Http.Info.Info().Str("chatId", chatID).Str("userId", user.ID).Msg("Participant joined chat")
		uc.Notifier.ParticipantJoined(ctx, chat, user)
	}
	return uc.toResponse(viewer, chat), nil
}

// RemoveParticipant lets a user remove themselves, and chat managers remove anyone.
func (uc *ChatUsecaseImpl) RemoveParticipant(ctx context.Context, actor *entity.User, chatID, userID string) (res.ChatResponse, error) {
	err := uc.removeMember(ctx, chatID, userID, func(chat *entity.Chat) error {
		if actor.ID != userID && !uc.Policy.CanModifyChat(actor, chat) {
			return apperror.Forbidden("You are not allowed to remove participants from this chat")
		}
		return nil
	})
	if err != nil {
		return res.ChatResponse{}, err
	}

	chat, err := uc.FindChatByID(ctx, chatID)
	if err != nil {
		return res.ChatResponse{}, err
	}
	uc.Log.Http.Info.Info().Str("chatId", chatID).Str("userId", userID).Str("actorId", actor.ID).Msg("Participant removed")
	if removed := chat.Participant(userID); removed != nil {
		uc.Notifier.ParticipantLeft(ctx, chat, &entity.User{BaseEntity: entity.BaseEntity{ID: userID}, Name: removed.Name})
	}
	return uc.toResponse(actor, chat), nil
}

func (uc *ChatUsecaseImpl) JoinChat(ctx context.Context, user *entity.User, chatID string) (res.ChatResponse, error) {
	joined, err := uc.addMember(ctx, chatID, user, enum.ParticipantMember, func(chat *entity.Chat) error {
		if !uc.Policy.CanJoinChat(user, chat) {
			if chat.IsParticipant(user.ID) {
				return apperror.Conflict("You are already a participant of this chat")
			}
			return apperror.Conflict("Chat is not open for joining")
		}
		return nil
	})
	if err != nil {
		return res.ChatResponse{}, err
	}
	return uc.afterJoin(ctx, user, chatID, user, joined)
}

func (uc *ChatUsecaseImpl) LeaveChat(ctx context.Context, user *entity.User, chatID string) error {
	err := uc.removeMember(ctx, chatID, user.ID, func(chat *entity.Chat) error {
		if !uc.Policy.CanLeaveChat(user, chat) {
			return apperror.Conflict("You are not a participant of this chat")
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.Log.Http.Info.Info().Str("chatId", chatID).Str("userId", user.ID).Msg("Participant left chat")
	if chat, err := uc.FindChatByID(ctx, chatID); err == nil {
		uc.Notifier.ParticipantLeft(ctx, chat, user)
	}
	return nil
}

// JoinByName joins the active chat whose name matches case-insensitively. Joining a chat
// the user already belongs to succeeds without change. A miss carries name suggestions.
func (uc *ChatUsecaseImpl) JoinByName(ctx context.Context, user *entity.User, request *req.JoinByNameRequest) (res.ChatResponse, error) {
	request.Name = strings.TrimSpace(request.Name)
	if err := validate(uc.Validate, request); err != nil {
		return res.ChatResponse{}, err
	}

	var chat *entity.Chat
	err := uc.Guard.Run(ctx, "find_chat_by_name", func(ctx context.Context) error {
		var err error
		chat, err = uc.ChatRepository.FindByNameKey(ctx, uc.DB, NameKey(request.Name))
		return err
	})
	if repository.IsNotFound(err) {
		suggestions, searchErr := uc.SearchByName(ctx, user, request.Name, suggestionLimit)
		if searchErr != nil {
			return res.ChatResponse{}, searchErr
		}
		names := make([]string, 0, len(suggestions))
		for _, s := range suggestions {
			names = append(names, s.Name)
		}
		return res.ChatResponse{}, apperror.NotFound(fmt.Sprintf("No chat found with the name %q", request.Name)).
			WithDetail("suggestions", names)
	}
	if err != nil {
		return res.ChatResponse{}, err
	}

	joined, err := uc.addMember(ctx, chat.ID, user, "", func(*entity.Chat) error { return nil })
	if err != nil {
		return res.ChatResponse{}, err
	}
	return uc.afterJoin(ctx, user, chat.ID, user, joined)
}

func (uc *ChatUsecaseImpl) SearchByName(ctx context.Context, viewer *entity.User, query string, limit int) ([]res.ChatResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.Validation("Search query is required", apperror.FieldError{Field: "q", Message: "q is required"})
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	var chats []entity.Chat
	err := uc.Guard.Run(ctx, "search_chats", func(ctx context.Context) error {
		var err error
		chats, err = uc.ChatRepository.SearchByName(ctx, uc.DB, query, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	responses := make([]res.ChatResponse, 0, len(chats))
	for i := range chats {
		if uc.Policy.CanListChat(viewer, &chats[i]) {
			responses = append(responses, uc.toResponse(viewer, &chats[i]))
		}
	}
	return responses, nil
}

// BulkCreate creates count chats named "{prefix} {i}". Every chat is committed on its own,
// so one failure never rolls back the others.
func (uc *ChatUsecaseImpl) BulkCreate(ctx context.Context, admin *entity.User, request *req.BulkCreateRequest) (res.BulkCreateResponse, error) {
	if !uc.Policy.IsAdmin(admin) {
		return res.BulkCreateResponse{}, apperror.Forbidden("Admin access required")
	}
	request.NamePrefix = strings.TrimSpace(request.NamePrefix)
	if err := validate(uc.Validate, request); err != nil {
		return res.BulkCreateResponse{}, err
	}

	chatType := enum.ChatType(request.Type)
	if chatType == "" {
		chatType = enum.GROUP
	}
	category := enum.ChatCategory(request.Category)
	if category == "" {
		category = enum.CategoryGeneral
	}

	drafts := make([]chatDraft, 0, request.Count)
	for i := 1; i <= request.Count; i++ {
		drafts = append(drafts, chatDraft{
			Name:        fmt.Sprintf("%s %d", request.NamePrefix, i),
			Description: strings.TrimSpace(request.Description),
			Type:        chatType,
			Category:    category,
			Settings:    defaultSettings(chatType),
		})
	}
	return uc.createMany(ctx, admin, drafts), nil
}

func (uc *ChatUsecaseImpl) QuickGroups(ctx context.Context, admin *entity.User, request *req.QuickGroupsRequest) (res.BulkCreateResponse, error) {
	if !uc.Policy.IsAdmin(admin) {
		return res.BulkCreateResponse{}, apperror.Forbidden("Admin access required")
	}
	if err := validate(uc.Validate, request); err != nil {
		return res.BulkCreateResponse{}, err
	}

	presets := quickGroupPresets[request.Preset]
	drafts := make([]chatDraft, 0, len(presets))
	for _, preset := range presets {
		drafts = append(drafts, chatDraft{
			Name:        preset.Name,
			Description: preset.Description,
			Type:        enum.GROUP,
			Category:    preset.Category,
			Settings:    defaultSettings(enum.GROUP),
		})
	}
	return uc.createMany(ctx, admin, drafts), nil
}

func (uc *ChatUsecaseImpl) createMany(ctx context.Context, admin *entity.User, drafts []chatDraft) res.BulkCreateResponse {
	response := res.BulkCreateResponse{
		Chats:  make([]res.ChatResponse, 0, len(drafts)),
		Errors: make([]res.BulkCreateError, 0),
	}
	for i, draft := range drafts {
		chat, err := uc.insertChat(ctx, admin, draft, nil)
		if err != nil {
			message := err.Error()
			if appErr, ok := apperror.As(err); ok {
				message = appErr.Message
			}
			uc.Log.Http.Warning.Warn().Err(err).Str("name", draft.Name).Msg("Bulk chat creation item failed")
			response.Errors = append(response.Errors, res.BulkCreateError{Index: i + 1, Name: draft.Name, Error: message})
			continue
		}
		response.Chats = append(response.Chats, uc.toResponse(admin, chat))
	}
	response.Summary = res.BulkCreateSummary{
		Requested: len(drafts),
		Created:   len(response.Chats),
		Failed:    len(response.Errors),
	}
	uc.Log.Http.Info.Info().Str("adminId", admin.ID).Int("created", response.Summary.Created).
		Int("failed", response.Summary.Failed).Msg("Bulk chat creation finished")
	return response
}
