package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"Totem/internal/jsonfile"
)

// FileStore keeps the catalog as one JSON array on disk. Mutations are
// serialised per file path; List reads without locking and relies on the
// atomic replace done by every write.
type FileStore struct {
	doc *jsonfile.Document[[]Product]
}

func NewFileStore(path string) (*FileStore, error) {
	doc, err := jsonfile.Open[[]Product](path)
	if err != nil {
		return nil, translate(err)
	}
	return &FileStore{doc: doc}, nil
}

func (s *FileStore) Path() string { return s.doc.Path() }

func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.doc.Path())
	st, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		// First write creates it.
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrStorageUnavailable, dir)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Product, error) {
	products, err := s.doc.Read(ctx)
	if err != nil {
		return nil, translate(err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

func (s *FileStore) Create(ctx context.Context, d Draft) (Product, error) {
	if err := d.validate(); err != nil {
		return Product{}, err
	}

	var created Product
	_, err := s.doc.Update(ctx, func(products *[]Product) (bool, error) {
		id := d.ID
		if id == 0 {
			next, err := nextID(*products)
			if err != nil {
				return false, err
			}
			id = next
		} else if indexOf(*products, id) >= 0 {
			return false, fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}

		created = d.product(id)
		*products = append(*products, created)
		return true, nil
	})
	if err != nil {
		return Product{}, translate(err)
	}
	return created, nil
}

func (s *FileStore) Update(ctx context.Context, id int64, p Patch) (Product, bool, error) {
	if err := p.validate(); err != nil {
		return Product{}, false, err
	}
	return s.mutate(ctx, id, p.apply)
}

func (s *FileStore) ToggleAvailability(ctx context.Context, id int64) (Product, bool, error) {
	return s.mutate(ctx, id, func(dst Product) Product {
		dst.Available = !dst.Available
		return dst
	})
}

func (s *FileStore) mutate(ctx context.Context, id int64, fn func(Product) Product) (Product, bool, error) {
	var (
		out   Product
		found bool
	)
	_, err := s.doc.Update(ctx, func(products *[]Product) (bool, error) {
		i := indexOf(*products, id)
		if i < 0 {
			return false, nil
		}
		(*products)[i] = fn((*products)[i])
		out, found = (*products)[i], true
		return true, nil
	})
	if err != nil {
		return Product{}, false, translate(err)
	}
	return out, found, nil
}

// translate maps persistence errors onto the catalog's own sentinels and
// lets the rest through unchanged.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jsonfile.ErrCorrupt):
		return fmt.Errorf("%w: %v", ErrCorruptStore, err)
	case errors.Is(err, jsonfile.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	default:
		return err
	}
}
