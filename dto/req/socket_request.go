package req

// ChatEventRequest is the data of join_chat, leave_chat, typing_start and typing_stop.
type ChatEventRequest struct {
	ChatID string `json:"chatId"`
}

type SocketMessageRequest struct {
	ChatID string `json:"chatId"`
	SendMessageRequest
}

type SocketReadRequest struct {
	ChatID string `json:"chatId"`
	MarkReadRequest
}

type SocketReactionRequest struct {
	MessageID string `json:"messageId"`
	ReactionRequest
}
