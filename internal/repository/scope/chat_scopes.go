package scope

import "gorm.io/gorm"

func ActiveChats(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

func WithAssistant(db *gorm.DB) *gorm.DB {
	return db.Preload("Assistant")
}
