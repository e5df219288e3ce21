// Package catalog loads the fixed challenge and lesson catalog. The catalog
// is configuration data: an embedded default ships with the binary and an
// external YAML file can override it.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/avaldez/sqlquest/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog holds the immutable challenge and lesson sets.
type Catalog struct {
	Challenges []domain.Challenge `yaml:"challenges"`
	Lessons    []domain.Lesson    `yaml:"lessons"`

	byID map[int]*domain.Challenge
}

// Load reads the catalog from path, or the embedded default when path is
// empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog file: %w", err)
		}
		data = b
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	c.byID = make(map[int]*domain.Challenge, len(c.Challenges))
	for i := range c.Challenges {
		c.byID[c.Challenges[i].ID] = &c.Challenges[i]
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Challenges) == 0 {
		return fmt.Errorf("catalog has no challenges")
	}
	seen := make(map[int]bool, len(c.Challenges))
	for _, ch := range c.Challenges {
		if ch.ID <= 0 {
			return fmt.Errorf("challenge %q: id must be a positive integer", ch.Title)
		}
		if seen[ch.ID] {
			return fmt.Errorf("duplicate challenge id %d", ch.ID)
		}
		seen[ch.ID] = true
		if strings.TrimSpace(ch.ReferenceSQL) == "" {
			return fmt.Errorf("challenge %d: reference query is empty", ch.ID)
		}
	}
	return nil
}

// Challenge returns the challenge with the given id, or nil.
func (c *Catalog) Challenge(id int) *domain.Challenge {
	return c.byID[id]
}

// Total returns the number of challenges in the catalog.
func (c *Catalog) Total() int {
	return len(c.Challenges)
}
