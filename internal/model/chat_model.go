package model

import (
	"time"

	"ai-chatbot-be/internal/entity"

	"gorm.io/gorm"
)

type Chat struct {
	Id          uint       `gorm:"primaryKey"`
	AssistantId uint       `gorm:"not null;index:idx_chats_user_assistant,priority:2;index:idx_chats_session_assistant,priority:2"`
	Assistant   *Assistant `gorm:"foreignKey:AssistantId;references:Id;constraint:OnDelete:CASCADE"`

	// Exactly one of UserId / SessionKey is set.
	UserId     *uint64 `gorm:"index:idx_chats_user_assistant,priority:1;check:chk_chats_single_owner,(user_id IS NULL) <> (session_key IS NULL)"`
	SessionKey *string `gorm:"type:varchar(40);index:idx_chats_session_assistant,priority:1"`

	ThreadId     string    `gorm:"type:varchar(255);not null"`
	Title        string    `gorm:"type:varchar(255);not null"`
	IsActive     bool      `gorm:"not null;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_chats_user_assistant,priority:3;index:idx_chats_session_assistant,priority:3"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
	LastActivity time.Time `gorm:"not null;index"`
}

func (Chat) TableName() string {
	return "chats"
}

// BeforeSave runs on create and save: owner exclusivity, then activity stamp.
func (c *Chat) BeforeSave(tx *gorm.DB) error {
	hasUser := c.UserId != nil
	hasSession := c.SessionKey != nil && *c.SessionKey != ""
	if hasUser == hasSession {
		return entity.ErrInvalidOwner
	}
	c.LastActivity = time.Now()
	return nil
}
