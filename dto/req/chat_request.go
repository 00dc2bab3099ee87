package req

type ChatSettingsRequest struct {
	AllowFileSharing  *bool `json:"allowFileSharing"`
	AllowMediaSharing *bool `json:"allowMediaSharing"`
	MaxParticipants   *int  `json:"maxParticipants" validate:"omitempty,gte=2,lte=10000"`
	IsPublic          *bool `json:"isPublic"`
	RequireApproval   *bool `json:"requireApproval"`
}

type CreateChatRequest struct {
	Name           string               `json:"name" validate:"required_unless=IsAdminDM true,max=50"`
	Description    string               `json:"description" validate:"max=500"`
	Type           string               `json:"type" validate:"omitempty,oneof=group dm channel"`
	Category       string               `json:"category" validate:"omitempty,oneof=general announcements events workshops competitions support social other"`
	ParticipantIDs []string             `json:"participants" validate:"max=500,dive,required"`
	IsAdminDM      bool                 `json:"isAdminDM"`
	Settings       *ChatSettingsRequest `json:"settings"`
}

// UpdateChatRequest changes only the fields present in the body.
type UpdateChatRequest struct {
	Name        *string              `json:"name" validate:"omitempty,min=1,max=50"`
	Description *string              `json:"description" validate:"omitempty,max=500"`
	Category    *string              `json:"category" validate:"omitempty,oneof=general announcements events workshops competitions support social other"`
	Settings    *ChatSettingsRequest `json:"settings"`
}

type AddParticipantRequest struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=admin member moderator"`
}

type JoinByNameRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

type BulkCreateRequest struct {
	Count       int    `json:"count" validate:"required,gte=1,lte=50"`
	NamePrefix  string `json:"namePrefix" validate:"required,min=1,max=45"`
	Description string `json:"description" validate:"max=500"`
	Category    string `json:"category" validate:"omitempty,oneof=general announcements events workshops competitions support social other"`
	Type        string `json:"type" validate:"omitempty,oneof=group channel"`
}

type QuickGroupsRequest struct {
	Preset string `json:"preset" validate:"required,oneof=event workshop competition general"`
}
