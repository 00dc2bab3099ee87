package enum

type ChatType string

const (
	GROUP   ChatType = "group"
	DM      ChatType = "dm"
	CHANNEL ChatType = "channel"
)

func (t ChatType) Valid() bool {
	switch t {
	case GROUP, DM, CHANNEL:
		return true
	}
	return false
}
