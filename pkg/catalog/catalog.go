package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var personasYAML []byte

type Persona struct {
	ID           string `yaml:"id" json:"id"`
	Name         string `yaml:"name" json:"name"`
	Description  string `yaml:"description" json:"description"`
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`
	Mode         string `yaml:"-" json:"-"`
}

type Mode struct {
	Key        string    `yaml:"key" json:"-"`
	Name       string    `yaml:"name" json:"name"`
	Assistants []Persona `yaml:"assistants" json:"assistants"`
}

// Catalog is the static list of personas grouped by mode, in file order.
type Catalog struct {
	Modes []Mode
	byID  map[string]Persona
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(personasYAML)
}

func Parse(data []byte) (*Catalog, error) {
	var doc struct {
		Modes []Mode `yaml:"modes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse persona catalog: %w", err)
	}

	c := &Catalog{Modes: doc.Modes, byID: make(map[string]Persona)}
	for mi := range c.Modes {
		mode := &c.Modes[mi]
		if mode.Key == "" {
			return nil, fmt.Errorf("persona catalog: mode %d has no key", mi)
		}
		for pi := range mode.Assistants {
			p := &mode.Assistants[pi]
			p.Mode = mode.Key
			if p.ID == "" || p.SystemPrompt == "" {
				return nil, fmt.Errorf("persona catalog: mode %q entry %d needs id and system_prompt", mode.Key, pi)
			}
			if _, dup := c.byID[p.ID]; dup {
				return nil, fmt.Errorf("persona catalog: duplicate id %q", p.ID)
			}
			c.byID[p.ID] = *p
		}
	}
	return c, nil
}

func (c *Catalog) Find(id string) (Persona, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// List returns every persona in catalog order.
func (c *Catalog) List() []Persona {
	var out []Persona
	for _, m := range c.Modes {
		out = append(out, m.Assistants...)
	}
	return out
}

// ByMode is the shape served by GET /api/modes.
func (c *Catalog) ByMode() map[string]Mode {
	out := make(map[string]Mode, len(c.Modes))
	for _, m := range c.Modes {
		out[m.Key] = m
	}
	return out
}
