package enum

type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageFile     MessageType = "file"
	MessageVoice    MessageType = "voice"
	MessageVideo    MessageType = "video"
	MessageLocation MessageType = "location"
	MessageSystem   MessageType = "system"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageVoice, MessageVideo, MessageLocation, MessageSystem:
		return true
	}
	return false
}

// RequiresContent reports whether a message of this type must carry text.
func (t MessageType) RequiresContent() bool {
	return t == MessageText || t == MessageSystem
}
