package model

import "gorm.io/gorm"

// All lists every table in dependency order.
func All() []interface{} {
	return []interface{}{
		&Assistant{},
		&Chat{},
		&ChatMessage{},
		&ChatTurn{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
