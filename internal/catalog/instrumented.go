package catalog

import (
	"context"
	"errors"
	"time"

	"Totem/pkg/kit"
)

// Instrumented records per-operation counts and latency for any Store.
type Instrumented struct {
	next    Store
	metrics *kit.OpMetrics
}

func NewInstrumented(next Store, m *kit.OpMetrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (s *Instrumented) List(ctx context.Context) ([]Product, error) {
	start := time.Now()
	out, err := s.next.List(ctx)
	s.metrics.Observe("list", result(err, true), start)
	return out, err
}

func (s *Instrumented) Create(ctx context.Context, d Draft) (Product, error) {
	start := time.Now()
	out, err := s.next.Create(ctx, d)
	s.metrics.Observe("create", result(err, true), start)
	return out, err
}

func (s *Instrumented) Update(ctx context.Context, id int64, p Patch) (Product, bool, error) {
	start := time.Now()
	out, found, err := s.next.Update(ctx, id, p)
	s.metrics.Observe("update", result(err, found), start)
	return out, found, err
}

func (s *Instrumented) ToggleAvailability(ctx context.Context, id int64) (Product, bool, error) {
	start := time.Now()
	out, found, err := s.next.ToggleAvailability(ctx, id)
	s.metrics.Observe("toggle", result(err, found), start)
	return out, found, err
}

func (s *Instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func result(err error, found bool) string {
	switch {
	case err == nil && !found:
		return "not_found"
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidRecord), errors.Is(err, ErrDuplicateID):
		return "invalid"
	case errors.Is(err, ErrCorruptStore):
		return "corrupt"
	default:
		return "error"
	}
}
