// Package curriculum holds the course catalog: modules, their concepts and
// the question bank per difficulty tier.
package curriculum

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/excellere/excellere/internal/difficulty"
)

//go:embed curriculum.yaml
var embedded []byte

// Concept is one teachable idea within a module.
type Concept struct {
	ID           string                     `yaml:"id"`
	ModuleID     string                     `yaml:"-"`
	Title        string                     `yaml:"title"`
	Description  string                     `yaml:"description"`
	KeyMechanism string                     `yaml:"key_mechanism"`
	Checks       []string                   `yaml:"checks"`
	Questions    map[difficulty.Tier]string `yaml:"questions"`
	Deeper       string                     `yaml:"deeper"`
}

// Module groups concepts and the artefact brief for module completion.
type Module struct {
	ID            string    `yaml:"id"`
	Title         string    `yaml:"title"`
	Summary       string    `yaml:"summary"`
	ArtefactBrief string    `yaml:"artefact_brief"`
	Concepts      []Concept `yaml:"concepts"`
}

// Catalog is an immutable, indexed curriculum.
type Catalog struct {
	modules   []Module
	byModule  map[string]int
	byConcept map[string]*Concept
}

type document struct {
	Modules []Module `yaml:"modules"`
}

// Default loads the embedded curriculum.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// MustDefault is Default for callers that treat a broken embedded catalog
// as a programming error.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML and validates it.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse curriculum: %w", err)
	}
	if len(doc.Modules) == 0 {
		return nil, errors.New("curriculum has no modules")
	}

	c := &Catalog{
		modules:   doc.Modules,
		byModule:  make(map[string]int),
		byConcept: make(map[string]*Concept),
	}
	for mi := range c.modules {
		m := &c.modules[mi]
		if m.ID == "" {
			return nil, fmt.Errorf("module %d has no id", mi)
		}
		if _, dup := c.byModule[m.ID]; dup {
			return nil, fmt.Errorf("duplicate module %q", m.ID)
		}
		c.byModule[m.ID] = mi
		for ci := range m.Concepts {
			cp := &m.Concepts[ci]
			cp.ModuleID = m.ID
			if err := cp.validate(); err != nil {
				return nil, fmt.Errorf("module %q: %w", m.ID, err)
			}
			if _, dup := c.byConcept[cp.ID]; dup {
				return nil, fmt.Errorf("duplicate concept %q", cp.ID)
			}
			c.byConcept[cp.ID] = cp
		}
	}
	return c, nil
}

func (c *Concept) validate() error {
	if c.ID == "" {
		return errors.New("concept has no id")
	}
	if c.Description == "" {
		return fmt.Errorf("concept %q has no description", c.ID)
	}
	for t := range c.Questions {
		if !t.Valid() {
			return fmt.Errorf("concept %q: unknown difficulty %q", c.ID, t)
		}
	}
	if len(c.Questions) == 0 {
		return fmt.Errorf("concept %q has no questions", c.ID)
	}
	return nil
}

// Modules returns all modules in course order.
func (c *Catalog) Modules() []Module {
	return c.modules
}

// Module looks up a module by id.
func (c *Catalog) Module(id string) (*Module, bool) {
	i, ok := c.byModule[id]
	if !ok {
		return nil, false
	}
	return &c.modules[i], true
}

// Concept looks up a concept by id.
func (c *Catalog) Concept(id string) (*Concept, bool) {
	cp, ok := c.byConcept[id]
	return cp, ok
}

// Question returns the question for tier, falling back to the closest
// easier tier, then the closest harder one.
func (c *Concept) Question(t difficulty.Tier) string {
	t = t.OrDefault()
	if q, ok := c.Questions[t]; ok {
		return q
	}
	for down := t; down != difficulty.Easy; {
		down = down.Down()
		if q, ok := c.Questions[down]; ok {
			return q
		}
	}
	for up := t; up != difficulty.VeryHard; {
		up = up.Up()
		if q, ok := c.Questions[up]; ok {
			return q
		}
	}
	return ""
}
