package model

import (
	"time"

	"gorm.io/datatypes"
)

type ChatTurn struct {
	Id                 uint   `gorm:"primaryKey"`
	ChatId             uint   `gorm:"not null;index"`
	Chat               *Chat  `gorm:"foreignKey:ChatId;constraint:OnDelete:CASCADE"`
	UserMessageId      uint   `gorm:"not null;index"`
	AssistantMessageId *uint  `gorm:"index"`
	RunId              string `gorm:"type:varchar(255);index"`
	Status             string `gorm:"type:varchar(50);not null;index"`
	Details            datatypes.JSONMap
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
	CompletedAt        *time.Time
}

func (ChatTurn) TableName() string {
	return "chat_turns"
}
