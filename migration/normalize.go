// Package migration normalises documents of the legacy MongoDB deployment into the
// relational model and imports them.
package migration

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"festival-chat-api/entity"
	"festival-chat-api/enum"
	"festival-chat-api/usecase"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrSkip marks a legacy document that is intentionally not imported.
var ErrSkip = errors.New("legacy document skipped")

const (
	maxNameLength    = 50
	maxContentLength = 2000
	untitledChat     = "Untitled chat"
)

func accountID(userID string) string {
	return uuid.NewSHA1(legacyNamespace, []byte("account:"+userID)).String()
}

// NormalizeUser converts a legacy user. Role "user" becomes member and the isAdmin flag
// promotes to admin. The bcrypt hash is carried over unchanged.
func NormalizeUser(doc bson.M) (*entity.Account, error) {
	id := LegacyID(doc["_id"])
	if id == "" {
		return nil, fmt.Errorf("user without _id: %w", ErrSkip)
	}
	email := strings.ToLower(asString(doc["email"]))
	if email == "" {
		return nil, fmt.Errorf("user %s without email: %w", id, ErrSkip)
	}
	name := truncate(asString(doc["name"]), maxNameLength)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}

	role := enum.RoleMember
	if asString(doc["role"]) == string(enum.RoleAdmin) || asBool(doc["isAdmin"], false) {
		role = enum.RoleAdmin
	}

	now := time.Now().UTC()
	createdAt := firstTime(now, doc["createdAt"])
	updatedAt := firstTime(createdAt, doc["updatedAt"])
	account := &entity.Account{
		BaseEntity: entity.BaseEntity{ID: accountID(id), CreatedAt: createdAt, UpdatedAt: updatedAt},
		Email:      email,
		Password:   asString(doc["password"]),
		User: entity.User{
			BaseEntity: entity.BaseEntity{ID: id, CreatedAt: createdAt, UpdatedAt: updatedAt},
			Name:       name,
			Email:      email,
			Role:       role,
			IsActive:   asBool(doc["isActive"], true),
			LastActive: firstTime(updatedAt, doc["lastActive"]),
			AuthId:     accountID(id),
		},
	}
	return account, nil
}

// NormalizeChat converts any of the legacy chat shapes. Participants may be plain user
// references or sub-documents, and may live in participants or legacyParticipants; they
// are merged and deduplicated by user. A chat without createdBy is attributed to its first
// participant, then to fallbackCreator.
func NormalizeChat(doc bson.M, fallbackCreator string) (*entity.Chat, error) {
	id := LegacyID(doc["_id"])
	if id == "" {
		return nil, fmt.Errorf("chat without _id: %w", ErrSkip)
	}

	now := time.Now().UTC()
	createdAt := firstTime(now, doc["createdAt"])
	updatedAt := firstTime(createdAt, doc["updatedAt"])

	chatType := enum.ChatType(strings.ToLower(asString(doc["type"])))
	if !chatType.Valid() {
		chatType = enum.GROUP
	}
	isAdminDM := asBool(doc["isAdminDM"], false)
	if isAdminDM {
		chatType = enum.DM
	}

	category := enum.ChatCategory(strings.ToLower(asString(doc["category"])))
	if !category.Valid() {
		category = enum.CategoryGeneral
		if isAdminDM {
			category = enum.CategorySupport
		}
	}

	name := truncate(asString(doc["name"]), maxNameLength)
	if name == "" {
		name = untitledChat
	}

	admins := map[string]bool{}
	for _, ref := range asArray(doc["admins"]) {
		if adminID := LegacyID(ref); adminID != "" {
			admins[adminID] = true
		}
	}

	participants := normalizeParticipants(id, createdAt, admins, doc["participants"], doc["legacyParticipants"])

	createdBy := LegacyID(doc["createdBy"])
	if createdBy == "" && len(participants) > 0 {
		createdBy = participants[0].UserID
	}
	if createdBy == "" {
		createdBy = fallbackCreator
	}
	if createdBy == "" {
		return nil, fmt.Errorf("chat %s has no creator: %w", id, ErrSkip)
	}

	chat := &entity.Chat{
		BaseEntity:   entity.BaseEntity{ID: id, CreatedAt: createdAt, UpdatedAt: updatedAt},
		Name:         name,
		Description:  truncate(asString(doc["description"]), 500),
		ChatType:     chatType,
		Category:     category,
		CreatedBy:    createdBy,
		IsAdminDM:    isAdminDM,
		IsActive:     asBool(doc["isActive"], true),
		Settings:     normalizeSettings(doc["settings"], chatType),
		LastMessage:  normalizeLastMessage(doc["lastMessage"], doc["legacyLastMessage"]),
		LastActivity: updatedAt,
		Participants: participants,
	}
	if chat.LastMessage.Timestamp != nil && chat.LastMessage.Timestamp.After(chat.LastActivity) {
		chat.LastActivity = *chat.LastMessage.Timestamp
	}

	if chat.IsActive {
		switch {
		case chat.IsAdminDM:
			if active := chat.ActiveParticipants(); len(active) == 2 {
				key := usecase.AdminDMKey(active[0].UserID, active[1].UserID)
				chat.AdminDMKey = &key
			}
		case chat.ChatType != enum.DM:
			key := usecase.NameKey(chat.Name)
			chat.NameKey = &key
		}
	}
	return chat, nil
}

func normalizeParticipants(chatID string, joined time.Time, admins map[string]bool, lists ...interface{}) []entity.ChatParticipant {
	seen := map[string]bool{}
	var participants []entity.ChatParticipant
	for _, list := range lists {
		for _, raw := range asArray(list) {
			userID := LegacyID(raw)
			if userID == "" || seen[userID] {
				continue
			}
			seen[userID] = true

			participant := entity.ChatParticipant{
				ChatID:   chatID,
				UserID:   userID,
				Role:     enum.ParticipantMember,
				JoinedAt: joined,
				LastRead: joined,
				IsActive: true,
			}
			if sub, ok := asDoc(raw); ok {
				participant.Name = asString(sub["name"])
				if role := enum.ParticipantRole(strings.ToLower(asString(sub["role"]))); role.Valid() {
					participant.Role = role
				}
				participant.JoinedAt = firstTime(joined, sub["joinedAt"])
				participant.LastRead = firstTime(participant.JoinedAt, sub["lastRead"])
				participant.IsActive = asBool(sub["isActive"], true)
			}
			if admins[userID] {
				participant.Role = enum.ParticipantAdmin
			}
			participants = append(participants, participant)
		}
	}
	return participants
}

func normalizeSettings(raw interface{}, chatType enum.ChatType) entity.ChatSettings {
	settings := entity.ChatSettings{
		AllowFileSharing:  true,
		AllowMediaSharing: true,
		MaxParticipants:   usecase.DefaultMaxParticipants,
		IsPublic:          true,
		RequireApproval:   false,
	}
	if chatType == enum.DM {
		settings.MaxParticipants = 2
	}

	doc, ok := asDoc(raw)
	if !ok {
		return settings
	}
	settings.AllowFileSharing = asBool(doc["allowFileSharing"], settings.AllowFileSharing)
	settings.AllowMediaSharing = asBool(doc["allowMediaSharing"], settings.AllowMediaSharing)
	settings.IsPublic = asBool(doc["isPublic"], settings.IsPublic)
	settings.RequireApproval = asBool(doc["requireApproval"], settings.RequireApproval)
	if max, ok := asInt(doc["maxParticipants"]); ok && chatType != enum.DM && max >= 2 && max <= 10000 {
		settings.MaxParticipants = max
	}
	return settings
}

// normalizeLastMessage reads the first embedded summary found. A bare reference carries
// no content; the importer recomputes summaries from imported messages afterwards.
func normalizeLastMessage(candidates ...interface{}) entity.LastMessage {
	for _, raw := range candidates {
		doc, ok := asDoc(raw)
		if !ok {
			continue
		}
		content := asString(doc["content"])
		at, hasTime := asTime(doc["timestamp"])
		if content == "" && !hasTime {
			continue
		}
		summary := entity.LastMessage{
			Content:  truncate(content, maxContentLength),
			SenderID: LegacyID(doc["sender"]),
			Type:     enum.MessageText,
		}
		if summary.SenderID == "" {
			summary.SenderName = asString(doc["sender"])
		}
		if hasTime {
			summary.Timestamp = &at
		}
		return summary
	}
	return entity.LastMessage{}
}

// NormalizeMessage converts a legacy message. Soft-deleted messages are skipped, the
// mixed sender field accepts an ObjectId, a string, or a populated document, and reactions
// and read receipts keep one entry per user.
func NormalizeMessage(doc bson.M) (*entity.Message, error) {
	id := LegacyID(doc["_id"])
	if id == "" {
		return nil, fmt.Errorf("message without _id: %w", ErrSkip)
	}
	if asBool(doc["isDeleted"], false) {
		return nil, fmt.Errorf("message %s is deleted: %w", id, ErrSkip)
	}
	chatID := LegacyID(doc["chat"])
	if chatID == "" {
		chatID = LegacyID(doc["chatId"])
	}
	senderID := LegacyID(doc["sender"])
	if chatID == "" || senderID == "" {
		return nil, fmt.Errorf("message %s without chat or sender: %w", id, ErrSkip)
	}

	msgType := enum.MessageType(strings.ToLower(asString(doc["type"])))
	if !msgType.Valid() {
		msgType = enum.MessageText
	}
	status := enum.MessageStatus(strings.ToLower(asString(doc["status"])))
	switch status {
	case enum.MessageStatusSending, enum.MessageStatusSent, enum.MessageStatusDelivered, enum.MessageStatusRead, enum.MessageStatusFailed:
	default:
		status = enum.MessageStatusSent
	}

	now := time.Now().UTC()
	createdAt := firstTime(now, doc["createdAt"], doc["timestamp"])
	msg := &entity.Message{
		BaseEntity:  entity.BaseEntity{ID: id, CreatedAt: createdAt, UpdatedAt: firstTime(createdAt, doc["updatedAt"])},
		ChatID:      chatID,
		SenderID:    senderID,
		SenderName:  asString(doc["senderName"]),
		SenderEmail: strings.ToLower(asString(doc["senderEmail"])),
		Content:     truncate(asString(doc["content"]), maxContentLength),
		Type:        msgType,
		Timestamp:   firstTime(createdAt, doc["timestamp"]),
		Status:      status,
		IsEdited:    asBool(doc["isEdited"], false),
	}
	if sender, ok := asDoc(doc["sender"]); ok {
		if msg.SenderName == "" {
			msg.SenderName = asString(sender["name"])
		}
		if msg.SenderEmail == "" {
			msg.SenderEmail = strings.ToLower(asString(sender["email"]))
		}
	}
	if replyTo := LegacyID(doc["replyTo"]); replyTo != "" {
		msg.ReplyToID = &replyTo
	}
	if editedAt, ok := asTime(doc["editedAt"]); ok {
		msg.EditedAt = &editedAt
	}

	for n, raw := range asArray(doc["editHistory"]) {
		edit, ok := asDoc(raw)
		if !ok {
			continue
		}
		msg.EditHistory = append(msg.EditHistory, entity.MessageEdit{
			ID:        uuid.NewSHA1(legacyNamespace, []byte(fmt.Sprintf("%s:edit:%d", id, n))).String(),
			MessageID: id,
			Content:   truncate(asString(edit["content"]), maxContentLength),
			EditedAt:  firstTime(msg.Timestamp, edit["editedAt"]),
		})
	}
	if len(msg.EditHistory) > 0 {
		msg.IsEdited = true
	}

	reacted := map[string]bool{}
	for _, raw := range asArray(doc["reactions"]) {
		reaction, ok := asDoc(raw)
		if !ok {
			continue
		}
		userID := LegacyID(reaction["user"])
		emoji := asString(reaction["emoji"])
		if userID == "" || emoji == "" || reacted[userID] {
			continue
		}
		reacted[userID] = true
		msg.Reactions = append(msg.Reactions, entity.MessageReaction{
			MessageID: id,
			UserID:    userID,
			Emoji:     truncate(emoji, 32),
			CreatedAt: firstTime(msg.Timestamp, reaction["createdAt"]),
		})
	}

	read := map[string]bool{}
	for _, raw := range asArray(doc["readBy"]) {
		receipt, ok := asDoc(raw)
		if !ok {
			continue
		}
		userID := LegacyID(receipt["user"])
		if userID == "" || read[userID] {
			continue
		}
		read[userID] = true
		msg.ReadBy = append(msg.ReadBy, entity.MessageRead{
			MessageID: id,
			UserID:    userID,
			ReadAt:    firstTime(msg.Timestamp, receipt["readAt"]),
		})
	}
	return msg, nil
}
