package storage

import "subtrack/internal/core"

var defaultCategories = []core.Category{
	{Name: "Streaming", Description: "Video and music streaming services", Color: "#EF4444", Icon: "play"},
	{Name: "Software", Description: "Software subscriptions and licenses", Color: "#3B82F6", Icon: "code"},
	{Name: "Cloud Storage", Description: "Cloud storage and backup services", Color: "#06B6D4", Icon: "cloud"},
	{Name: "Productivity", Description: "Productivity and business tools", Color: "#10B981", Icon: "chart"},
	{Name: "Gaming", Description: "Gaming subscriptions and services", Color: "#F59E0B", Icon: "gamepad"},
	{Name: "News & Media", Description: "News, magazines, and media subscriptions", Color: "#8B5CF6", Icon: "newspaper"},
	{Name: "Fitness", Description: "Fitness and health apps", Color: "#EC4899", Icon: "heart"},
	{Name: "Education", Description: "Educational platforms and courses", Color: "#84CC16", Icon: "book"},
	{Name: "Communication", Description: "Communication and messaging apps", Color: "#6366F1", Icon: "message"},
	{Name: "Other", Description: "Other miscellaneous subscriptions", Color: "#6B7280", Icon: "more"},
}

// DefaultCategories returns the categories created on first initialisation.
func DefaultCategories() []core.Category {
	return append([]core.Category(nil), defaultCategories...)
}
