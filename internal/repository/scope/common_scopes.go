package scope

import "gorm.io/gorm"

// Ordering scopes break created_at ties by primary key so rows written in
// the same clock tick keep insertion order.

func OrderByCreatedDesc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
