package model

import "time"

type Assistant struct {
	Id           uint      `gorm:"primaryKey"`
	ModeId       string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Handle       *string   `gorm:"column:backend_handle;type:varchar(255);uniqueIndex"` // NULL until provisioned
	Name         string    `gorm:"type:varchar(255);not null"`
	Description  string    `gorm:"type:text"`
	SystemPrompt string    `gorm:"type:text;not null"`
	Mode         string    `gorm:"type:varchar(50);not null;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Assistant) TableName() string {
	return "assistants"
}
