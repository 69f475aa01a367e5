package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type ChatMessage struct {
	Id        uint      `gorm:"primaryKey"`
	ChatId    uint      `gorm:"not null;index:idx_chat_messages_chat_created,priority:1"`
	Chat      *Chat     `gorm:"foreignKey:ChatId;constraint:OnDelete:CASCADE"`
	Role      string    `gorm:"type:varchar(20);not null;check:chk_chat_messages_role,role IN ('user','assistant')"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_chat_messages_chat_created,priority:2"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.Role != "user" && m.Role != "assistant" {
		return fmt.Errorf("invalid chat message role %q", m.Role)
	}
	return nil
}
