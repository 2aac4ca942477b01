package models

import "time"

// AnalyticsEvent is one row in the append-only usage log. The request path
// only ever writes these; the dashboard queries read them back.
type AnalyticsEvent struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;index"`
	EventType string    `gorm:"size:64;not null;index"` // ai_chat, model_routing, ai_image_generation, ...
	EventData string    `gorm:"type:json"`
	SessionID string    `gorm:"size:64"`
	CreatedAt time.Time `gorm:"index"`
}

// Profile holds per-user preferences supplied by the identity layer.
type Profile struct {
	UserID             string `gorm:"primaryKey;size:36"`
	LanguagePreference string `gorm:"size:16;default:en"`
	Preferences        string `gorm:"type:json"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
