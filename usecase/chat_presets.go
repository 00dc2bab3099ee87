package usecase

import "festival-chat-api/enum"

type chatPreset struct {
	Name        string
	Description string
	Category    enum.ChatCategory
}

var quickGroupPresets = map[string][]chatPreset{
	"event": {
		{Name: "Main Stage", Description: "Live updates from the main stage", Category: enum.CategoryEvents},
		{Name: "Backstage Crew", Description: "Coordination for the backstage crew", Category: enum.CategoryEvents},
		{Name: "Volunteers", Description: "Shifts and tasks for festival volunteers", Category: enum.CategoryEvents},
		{Name: "Lost and Found", Description: "Report and claim lost items", Category: enum.CategorySupport},
	},
	"workshop": {
		{Name: "Workshop Lobby", Description: "Meet the other workshop attendees", Category: enum.CategoryWorkshops},
		{Name: "Workshop Q&A", Description: "Questions for the workshop hosts", Category: enum.CategoryWorkshops},
		{Name: "Workshop Materials", Description: "Slides, links and handouts", Category: enum.CategoryWorkshops},
	},
	"competition": {
		{Name: "Competition Participants", Description: "Rules and schedules for contestants", Category: enum.CategoryCompetitions},
		{Name: "Judges Panel", Description: "Coordination between judges", Category: enum.CategoryCompetitions},
		{Name: "Results and Announcements", Description: "Official competition results", Category: enum.CategoryAnnouncements},
	},
	"general": {
		{Name: "General Chat", Description: "Talk about anything festival related", Category: enum.CategoryGeneral},
		{Name: "Announcements", Description: "Official festival announcements", Category: enum.CategoryAnnouncements},
		{Name: "Help Desk", Description: "Ask the organisers for help", Category: enum.CategorySupport},
		{Name: "Social Lounge", Description: "Meet people and make plans", Category: enum.CategorySocial},
	},
}
