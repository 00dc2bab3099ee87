package enum

type ChatCategory string

const (
	CategoryGeneral       ChatCategory = "general"
	CategoryAnnouncements ChatCategory = "announcements"
	CategoryEvents        ChatCategory = "events"
	CategoryWorkshops     ChatCategory = "workshops"
	CategoryCompetitions  ChatCategory = "competitions"
	CategorySupport       ChatCategory = "support"
	CategorySocial        ChatCategory = "social"
	CategoryOther         ChatCategory = "other"
)

var chatCategories = []ChatCategory{
	CategoryGeneral,
	CategoryAnnouncements,
	CategoryEvents,
	CategoryWorkshops,
	CategoryCompetitions,
	CategorySupport,
	CategorySocial,
	CategoryOther,
}

func (c ChatCategory) Valid() bool {
	for _, known := range chatCategories {
		if c == known {
			return true
		}
	}
	return false
}
