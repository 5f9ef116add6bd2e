package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"Totem/internal/jsonfile"
)

var (
	ErrInvalidCustomer = errors.New("customer must have a name or cpf")
	ErrUnavailable     = errors.New("customer storage unavailable")
)

type Customer struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	CPF          string    `json:"cpf,omitempty"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// Registry appends registered customers to a JSON file.
type Registry struct {
	doc *jsonfile.Document[[]Customer]
	now func() time.Time
}

func NewRegistry(path string) (*Registry, error) {
	doc, err := jsonfile.Open[[]Customer](path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Registry{doc: doc, now: time.Now}, nil
}

func (r *Registry) Register(ctx context.Context, name, cpf string) (Customer, int, error) {
	name, cpf = strings.TrimSpace(name), strings.TrimSpace(cpf)
	if name == "" && cpf == "" {
		return Customer{}, 0, ErrInvalidCustomer
	}

	c := Customer{
		ID:           "c_" + uuid.NewString(),
		Name:         name,
		CPF:          cpf,
		RegisteredAt: r.now().UTC(),
	}

	all, err := r.doc.Update(ctx, func(v *[]Customer) (bool, error) {
		*v = append(*v, c)
		return true, nil
	})
	if err != nil {
		return Customer{}, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return c, len(all), nil
}

func (r *Registry) List(ctx context.Context) ([]Customer, error) {
	all, err := r.doc.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if all == nil {
		all = []Customer{}
	}
	return all, nil
}
