package entity

import "time"

type Chat struct {
	Id           uint
	AssistantId  uint
	Owner        Owner
	ThreadId     string
	Title        string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	LastActivity time.Time

	// Assistant is populated when the repository preloads it.
	Assistant *Assistant
}

// OwnedBy reports whether the chat belongs to exactly this owner.
func (c *Chat) OwnedBy(owner Owner) bool {
	return c.Owner.Equal(owner)
}
