package memory

import (
	"time"

	"ai-chatbot-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

const allPersonasKey = "personas:all"

// PersonaCache keeps persona rows hot between requests. Entries are copied
// on the way in and out so callers can't mutate the cached values.
type PersonaCache struct {
	cache *cache.Cache
}

func NewPersonaCache(ttl time.Duration) *PersonaCache {
	return &PersonaCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func modeKey(modeId string) string {
	return "persona:" + modeId
}

func (c *PersonaCache) Save(persona *entity.Assistant) {
	if persona == nil {
		return
	}
	cp := *persona
	c.cache.Set(modeKey(persona.ModeId), &cp, cache.DefaultExpiration)
}

func (c *PersonaCache) Get(modeId string) (*entity.Assistant, bool) {
	if x, found := c.cache.Get(modeKey(modeId)); found {
		cp := *x.(*entity.Assistant)
		return &cp, true
	}
	return nil, false
}

func (c *PersonaCache) SaveAll(personas []*entity.Assistant) {
	list := make([]entity.Assistant, 0, len(personas))
	for _, p := range personas {
		if p == nil {
			continue
		}
		list = append(list, *p)
		c.Save(p)
	}
	c.cache.Set(allPersonasKey, list, cache.DefaultExpiration)
}

func (c *PersonaCache) GetAll() ([]*entity.Assistant, bool) {
	x, found := c.cache.Get(allPersonasKey)
	if !found {
		return nil, false
	}
	list := x.([]entity.Assistant)
	out := make([]*entity.Assistant, len(list))
	for i := range list {
		cp := list[i]
		out[i] = &cp
	}
	return out, true
}

// Invalidate drops everything, used after provisioning changes a handle.
func (c *PersonaCache) Invalidate() {
	c.cache.Flush()
}
