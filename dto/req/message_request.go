package req

type SendMessageRequest struct {
	Content string `json:"content" validate:"max=2000"`
	Type    string `json:"type" validate:"omitempty,oneof=text image file voice video location system"`
	ReplyTo string `json:"replyTo"`
}

type EditMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
}

// MarkReadRequest marks the listed messages; an empty list marks the whole chat.
type MarkReadRequest struct {
	MessageIDs []string `json:"messageIds"`
}

type ReactionRequest struct {
	Emoji string `json:"emoji" validate:"required,min=1,max=32"`
}
