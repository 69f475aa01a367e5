package entity

import "time"

// Assistant is a persona registered with the hosted assistant service.
// ModeId is the stable catalog identifier; Handle is the backend assistant id.
type Assistant struct {
	Id           uint
	ModeId       string
	Handle       string
	Name         string
	Description  string
	SystemPrompt string
	Mode         string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// IsProvisioned reports whether the backend handle has been assigned.
func (a *Assistant) IsProvisioned() bool {
	return a.Handle != ""
}
