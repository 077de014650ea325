// Package config holds the category table and the on-disk settings file.
package config

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"qr-extrude/pkg/colorutil"
)

// ErrUnknownCategory is returned when updating a name the table does not hold.
var ErrUnknownCategory = errors.New("unknown category")

// Category is a named color class with its detection tolerance and the height
// its regions are extruded to.
type Category struct {
	Name      string        `yaml:"name"`
	Color     colorutil.RGB `yaml:"color"`
	Tolerance int           `yaml:"tolerance"`
	Height    float64       `yaml:"height"`
}

// Validate checks the category values.
func (c Category) Validate() error {
	if c.Name == "" {
		return errors.New("category name is empty")
	}
	if c.Tolerance < 0 || c.Tolerance > 255 {
		return fmt.Errorf("category %s: tolerance %d outside 0..255", c.Name, c.Tolerance)
	}
	if c.Height <= 0 || math.IsInf(c.Height, 0) || math.IsNaN(c.Height) {
		return fmt.Errorf("category %s: height must be positive, got %v", c.Name, c.Height)
	}
	return nil
}

// DefaultCategories returns the three stock categories in processing order.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Red", Color: colorutil.RGB{R: 255, G: 0, B: 0}, Tolerance: 50, Height: 15},
		{Name: "Blue", Color: colorutil.RGB{R: 0, G: 90, B: 255}, Tolerance: 50, Height: 33},
		{Name: "Green", Color: colorutil.RGB{R: 30, G: 255, B: 0}, Tolerance: 50, Height: 6},
	}
}

// Table is the live category lookup. Readers take a Snapshot once per run so
// a concurrent Update is never observed halfway through.
type Table struct {
	mu   sync.RWMutex
	cats []Category
}

// NewTable creates a table holding cats in the given order.
func NewTable(cats []Category) (*Table, error) {
	t := &Table{}
	if err := t.Replace(cats); err != nil {
		return nil, err
	}
	return t, nil
}

// Snapshot returns a copy of the categories in processing order.
func (t *Table) Snapshot() []Category {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Category, len(t.cats))
	copy(out, t.cats)
	return out
}

// Lookup returns the category with the given name.
func (t *Table) Lookup(name string) (Category, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, c := range t.cats {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Update applies fn to a copy of the named category and stores the result if
// it validates. The name cannot be changed through Update.
func (t *Table) Update(name string, fn func(*Category)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, c := range t.cats {
		if c.Name != name {
			continue
		}
		next := c
		fn(&next)
		if next.Name != name {
			return fmt.Errorf("update %s: renaming is not supported", name)
		}
		if err := next.Validate(); err != nil {
			return fmt.Errorf("update %s: %w", name, err)
		}
		t.cats[i] = next
		return nil
	}
	return fmt.Errorf("update %s: %w", name, ErrUnknownCategory)
}

// Replace swaps in a whole new category list.
func (t *Table) Replace(cats []Category) error {
	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		if err := c.Validate(); err != nil {
			return err
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate category %s", c.Name)
		}
		seen[c.Name] = true
	}

	next := make([]Category, len(cats))
	copy(next, cats)

	t.mu.Lock()
	t.cats = next
	t.mu.Unlock()
	return nil
}
