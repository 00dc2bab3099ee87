package enum

type MessageStatus string

const (
	MessageStatusSending   MessageStatus = "sending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
	MessageStatusFailed    MessageStatus = "failed"
)

// UnreadStatuses lists the statuses a message may move out of once a recipient reads it.
func UnreadStatuses() []MessageStatus {
	return []MessageStatus{MessageStatusSending, MessageStatusSent, MessageStatusDelivered}
}
