package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"Totem/internal/activity"
	"Totem/internal/catalog"
	"Totem/internal/customer"
	"Totem/pkg/kit"
)

// Catalog is the part of the catalog store checkout prices against.
type Catalog interface {
	List(ctx context.Context) ([]catalog.Product, error)
}

type Server struct {
	Store    Store
	Catalog  Catalog
	Session  *customer.Session
	Log      *zap.Logger
	Activity *activity.Log

	now func() time.Time
}

type createReq struct {
	Items         []Item `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=credit debit pix cash"`
	CustomerName  string `json:"customerName" validate:"max=120"`
}

func (s *Server) CreateHandler() http.HandlerFunc { return s.create }
func (s *Server) GetHandler() http.HandlerFunc    { return s.get }
func (s *Server) ListHandler() http.HandlerFunc   { return s.list }

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if err := kit.Validate(req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "pedido inválido", map[string]any{"cause": err.Error()})
		return
	}

	lines, total, err := s.price(r.Context(), req.Items)
	if err != nil {
		s.writeCreateError(w, r, err)
		return
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}
	o := Order{
		ID:            "o_" + uuid.NewString(),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Items:         lines,
		Total:         total,
		PaymentMethod: req.PaymentMethod,
		Status:        "NEW",
		CreatedAt:     now().UTC(),
	}

	if err := s.Store.Create(r.Context(), o); err != nil {
		if isTimeoutErr(err) {
			kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
			return
		}
		if s.Log != nil {
			s.Log.Error("store create order failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	if s.Session != nil {
		s.Session.SetOrder(o.ID, o.Total)
	}
	s.Activity.Add(activity.Info, "Pedido %s registrado: R$ %.2f (%s)", o.ID, o.Total, o.PaymentMethod)
	kit.WriteOK(w, http.StatusCreated, "pedido registrado", o)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	o, found, err := s.Store.Get(r.Context(), id)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("store get order failed", zap.Error(err), zap.String("order_id", id))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "pedido não encontrado", map[string]any{"id": id})
		return
	}
	kit.WriteOK(w, http.StatusOK, "pedido encontrado", o)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	orders, err := s.Store.List(r.Context())
	if err != nil {
		if s.Log != nil {
			s.Log.Error("store list orders failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteOK(w, http.StatusOK, fmt.Sprintf("%d pedidos encontrados", len(orders)), orders)
}

var (
	errDuplicateItem   = errors.New("duplicate productId")
	errUnknownProduct  = errors.New("unknown productId")
	errUnavailable     = errors.New("product unavailable")
	errCatalogDown     = errors.New("catalog unavailable")
	errCatalogUpstream = errors.New("catalog error")
	errTotalOverflow   = errors.New("total overflow")
)

// itemError ties a pricing failure to the product that caused it.
type itemError struct {
	productID int64
	err       error
}

func (e *itemError) Error() string { return fmt.Sprintf("product %d: %v", e.productID, e.err) }
func (e *itemError) Unwrap() error { return e.err }

// price resolves every item against one catalog snapshot and totals the
// order in cents.
func (s *Server) price(ctx context.Context, items []Item) ([]Line, float64, error) {
	products, err := s.Catalog.List(ctx)
	if err != nil {
		if errors.Is(err, catalog.ErrStorageUnavailable) || errors.Is(err, catalog.ErrCorruptStore) || isTimeoutErr(err) {
			if s.Log != nil {
				s.Log.Warn("catalog unavailable", zap.Error(err))
			}
			return nil, 0, errCatalogDown
		}
		if s.Log != nil {
			s.Log.Warn("catalog error", zap.Error(err))
		}
		return nil, 0, errCatalogUpstream
	}

	byID := make(map[int64]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	seen := make(map[int64]struct{}, len(items))
	lines := make([]Line, 0, len(items))
	var total int64

	for _, it := range items {
		if _, dup := seen[it.ProductID]; dup {
			return nil, 0, &itemError{it.ProductID, errDuplicateItem}
		}
		seen[it.ProductID] = struct{}{}

		p, ok := byID[it.ProductID]
		if !ok {
			return nil, 0, &itemError{it.ProductID, errUnknownProduct}
		}
		if !p.Available {
			return nil, 0, &itemError{it.ProductID, errUnavailable}
		}

		unit := toCents(p.Price)
		line := unit * int64(it.Qty)
		if unit < 0 || line < 0 || (unit != 0 && line/unit != int64(it.Qty)) || total > math.MaxInt64-line {
			return nil, 0, errTotalOverflow
		}
		total += line

		lines = append(lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Qty:       it.Qty,
			UnitPrice: fromCents(unit),
			Subtotal:  fromCents(line),
		})
	}

	return lines, fromCents(total), nil
}

func toCents(v float64) int64   { return int64(math.Round(v * 100)) }
func fromCents(c int64) float64 { return float64(c) / 100 }

func (s *Server) writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	var details map[string]any
	var ie *itemError
	if errors.As(err, &ie) {
		details = map[string]any{"productId": ie.productID}
	}

	switch {
	case errors.Is(err, errDuplicateItem):
		kit.WriteError(w, r, http.StatusBadRequest, "produto repetido no pedido", details)
	case errors.Is(err, errUnknownProduct):
		kit.WriteError(w, r, http.StatusBadRequest, "produto inexistente", details)
	case errors.Is(err, errUnavailable):
		kit.WriteError(w, r, http.StatusConflict, "produto indisponível", details)
	case errors.Is(err, errCatalogDown):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
	case errors.Is(err, errCatalogUpstream):
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
	case errors.Is(err, errTotalOverflow):
		kit.WriteError(w, r, http.StatusBadRequest, "total overflow", nil)
	default:
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func isTimeoutErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
