package specification

import "gorm.io/gorm"

type ByModeID struct {
	ModeID string
}

func (s ByModeID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("mode_id = ?", s.ModeID)
}

type Provisioned struct{}

func (s Provisioned) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("backend_handle IS NOT NULL AND backend_handle <> ''")
}
