package catalog

import (
	"fmt"
	"strings"
)

// MaxID is the largest id the catalog hands out or accepts. Ids stay within
// the range a JSON number holds exactly.
const MaxID int64 = 1<<53 - 1

type Product struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	CategoryID string  `json:"categoryId"`
	Price      float64 `json:"price"`
	ImageURL   string  `json:"imageUrl"`
	Available  bool    `json:"available"`
}

// Draft is a product as submitted for creation. A zero ID asks the store to
// assign one; a nil Available means true.
type Draft struct {
	ID         int64   `json:"id,omitempty"`
	Name       string  `json:"name"`
	CategoryID string  `json:"categoryId"`
	Price      float64 `json:"price"`
	ImageURL   string  `json:"imageUrl"`
	Available  *bool   `json:"available,omitempty"`
}

// Patch overwrites only the fields that are set.
type Patch struct {
	Name       *string  `json:"name,omitempty"`
	CategoryID *string  `json:"categoryId,omitempty"`
	Price      *float64 `json:"price,omitempty"`
	ImageURL   *string  `json:"imageUrl,omitempty"`
	Available  *bool    `json:"available,omitempty"`
}

func (d Draft) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRecord)
	}
	if d.ID < 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidRecord)
	}
	if d.ID > MaxID {
		return fmt.Errorf("%w: id must not exceed %d", ErrInvalidRecord, MaxID)
	}
	return nil
}

func (p Patch) validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: name cannot be blank", ErrInvalidRecord)
	}
	return nil
}

func (d Draft) product(id int64) Product {
	available := true
	if d.Available != nil {
		available = *d.Available
	}
	return Product{
		ID:         id,
		Name:       strings.TrimSpace(d.Name),
		CategoryID: d.CategoryID,
		Price:      d.Price,
		ImageURL:   d.ImageURL,
		Available:  available,
	}
}

func (p Patch) apply(dst Product) Product {
	if p.Name != nil {
		dst.Name = strings.TrimSpace(*p.Name)
	}
	if p.CategoryID != nil {
		dst.CategoryID = *p.CategoryID
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.ImageURL != nil {
		dst.ImageURL = *p.ImageURL
	}
	if p.Available != nil {
		dst.Available = *p.Available
	}
	return dst
}

// nextID is max(existing ids)+1, or 1 for an empty catalog.
func nextID(products []Product) (int64, error) {
	var top int64
	for _, p := range products {
		if p.ID > top {
			top = p.ID
		}
	}
	return checkNext(top)
}

func checkNext(top int64) (int64, error) {
	if top >= MaxID {
		return 0, fmt.Errorf("%w: no ids left after %d", ErrInvalidRecord, top)
	}
	return top + 1, nil
}

func indexOf(products []Product, id int64) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Available filters out products that are switched off.
func Available(products []Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Available {
			out = append(out, p)
		}
	}
	return out
}
