package catalog

import (
	"context"
	"errors"
)

var (
	ErrInvalidRecord      = errors.New("invalid product record")
	ErrDuplicateID        = errors.New("product id already exists")
	ErrCorruptStore       = errors.New("catalog document is corrupt")
	ErrStorageUnavailable = errors.New("catalog storage unavailable")
)

// Store is the sole authority over the product catalog. Lookups by id report
// a missing record with found == false rather than an error.
type Store interface {
	List(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, d Draft) (Product, error)
	Update(ctx context.Context, id int64, p Patch) (Product, bool, error)
	ToggleAvailability(ctx context.Context, id int64) (Product, bool, error)
	Ping(ctx context.Context) error
}
