package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrProviderExists  = errors.New("capability already registered")
	ErrProviderNil     = errors.New("provider is nil")
	ErrInvalidMetadata = errors.New("invalid capability metadata")
)

// Catalog stores capability providers by stable identifier.
type Catalog struct {
	items map[string]Provider
}

// NewCatalog creates an empty capability catalog.
func NewCatalog() *Catalog {
	return &Catalog{items: make(map[string]Provider)}
}

// ValidateMetadata checks required metadata fields and id format.
func ValidateMetadata(meta Metadata) error {
	id := strings.TrimSpace(meta.ID)
	name := strings.TrimSpace(meta.Name)
	desc := strings.TrimSpace(meta.Description)
	if id == "" || name == "" || desc == "" {
		return fmt.Errorf("%w: id, name, and description are required", ErrInvalidMetadata)
	}
	if !isValidID(id) {
		return fmt.Errorf("%w: invalid id format %q", ErrInvalidMetadata, id)
	}
	return nil
}

// Register adds a capability provider to the catalog.
func (c *Catalog) Register(p Provider) error {
	if p == nil {
		return ErrProviderNil
	}

	meta := p.Metadata()
	if err := ValidateMetadata(meta); err != nil {
		return err
	}

	if _, ok := c.items[meta.ID]; ok {
		return fmt.Errorf("%w: id=%q", ErrProviderExists, meta.ID)
	}
	c.items[meta.ID] = p
	return nil
}

// Resolve returns a provider by capability id.
func (c *Catalog) Resolve(id string) (Provider, bool) {
	p, ok := c.items[strings.TrimSpace(id)]
	return p, ok
}

// ListMetadata returns deterministic metadata ordering by id.
func (c *Catalog) ListMetadata() []Metadata {
	list := make([]Metadata, 0, len(c.items))
	for _, p := range c.items {
		list = append(list, p.Metadata())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

// isValidID accepts lowercase alphanumeric segments separated by single
// dots or hyphens, e.g. "avr-gcc" or "python3-pyserial".
func isValidID(id string) bool {
	if id == "" {
		return false
	}
	segStart := true
	for i := 0; i < len(id); i++ {
		ch := id[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			segStart = false
		case ch == '.' || ch == '-':
			if segStart {
				return false
			}
			segStart = true
		default:
			return false
		}
	}
	return !segStart
}
