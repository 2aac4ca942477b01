package models

import "time"

// Conversation is one user-owned chat thread. The title is derived from the
// first user message and never rewritten afterwards; updated_at is bumped on
// every appended turn.
type Conversation struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;not null;index"`
	Title     string `gorm:"size:256"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn in a conversation's ordered history. Turns are
// immutable once persisted; created_at is the sole ordering key within a
// conversation. The model/token/timing columns are set on assistant turns
// only.
type Message struct {
	ID               string `gorm:"primaryKey;size:36"`
	ConversationID   string `gorm:"size:36;not null;index:idx_conv_created,priority:1"`
	UserID           string `gorm:"size:36;not null;index"`
	Role             string `gorm:"size:16;not null"` // user or assistant
	Content          string `gorm:"type:text"`
	ModelUsed        string `gorm:"size:128"`
	TokensUsed       int
	ProcessingTimeMS int
	CreatedAt        time.Time `gorm:"index:idx_conv_created,priority:2"`
}

// Roles for Message.Role. The tag set is closed: a turn is either the
// user's or the assistant's.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
