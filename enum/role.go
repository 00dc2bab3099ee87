package enum

// UserRole is the global role of an account.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// ParticipantRole is the role a user holds inside a single chat.
type ParticipantRole string

const (
	ParticipantAdmin     ParticipantRole = "admin"
	ParticipantMember    ParticipantRole = "member"
	ParticipantModerator ParticipantRole = "moderator"
)

func (r ParticipantRole) Valid() bool {
	switch r {
	case ParticipantAdmin, ParticipantMember, ParticipantModerator:
		return true
	}
	return false
}
