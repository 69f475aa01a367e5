package specification

import (
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/scope"

	"gorm.io/gorm"
)

// OwnedBy matches the discriminated owner exactly: a user id never matches
// a session row and vice versa.
type OwnedBy struct {
	Owner entity.Owner
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	if userId, ok := s.Owner.UserId(); ok {
		return db.Where("user_id = ? AND session_key IS NULL", userId)
	}
	if key, ok := s.Owner.SessionKey(); ok && key != "" {
		return db.Where("session_key = ? AND user_id IS NULL", key)
	}
	// No owner matches nothing.
	return db.Where("1 = 0")
}

type ByAssistantID struct {
	AssistantID uint
}

func (s ByAssistantID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("assistant_id = ?", s.AssistantID)
}

type ByChatID struct {
	ChatID uint
}

func (s ByChatID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_id = ?", s.ChatID)
}

type ByRole struct {
	Role entity.ChatMessageRole
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", string(s.Role))
}

// Newest orders by creation time with the primary key as tie breaker.
type Newest struct{}

func (s Newest) Apply(db *gorm.DB) *gorm.DB {
	return scope.OrderByCreatedDesc(db)
}

// Chronological is the canonical turn order of a chat.
type Chronological struct{}

func (s Chronological) Apply(db *gorm.DB) *gorm.DB {
	return scope.OrderByCreatedAsc(db)
}

type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return scope.ActiveChats(db)
}

// IdleSince matches chats whose last activity is older than Cutoff.
type IdleSince struct {
	Cutoff time.Time
}

func (s IdleSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("last_activity < ?", s.Cutoff)
}

// WithAssistant eager-loads the persona behind a chat.
type WithAssistant struct{}

func (s WithAssistant) Apply(db *gorm.DB) *gorm.DB {
	return scope.WithAssistant(db)
}
