package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Totem/internal/activity"
	"Totem/pkg/kit"
)

type Server struct {
	Store    Store
	Log      *zap.Logger
	Activity *activity.Log
}

// PublicRoutes is what the kiosk reads; mount it at /api/products.
func (s *Server) PublicRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.listPublic)
	r.Get("/template", s.template)
	r.Get("/{id}", s.get)
	return r
}

// AdminRoutes edits the catalog; mount it behind admin auth at
// /api/admin/products.
func (s *Server) AdminRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.listAll)
	r.Post("/", s.create)
	r.Put("/{id}", s.update)
	r.Patch("/{id}", s.update)
	r.Patch("/{id}/toggle", s.toggle)
	return r
}

func (s *Server) listPublic(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "list products", err)
		return
	}
	if r.URL.Query().Get("all") != "true" {
		products = Available(products)
	}
	kit.WriteOK(w, http.StatusOK, fmt.Sprintf("%d produtos encontrados", len(products)), products)
}

func (s *Server) listAll(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "list products", err)
		return
	}
	kit.WriteOK(w, http.StatusOK, fmt.Sprintf("%d produtos encontrados", len(products)), products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	products, err := s.Store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, "get product", err)
		return
	}
	i := indexOf(products, id)
	if i < 0 {
		kit.WriteError(w, r, http.StatusNotFound, "produto não encontrado", map[string]any{"id": id})
		return
	}
	kit.WriteOK(w, http.StatusOK, "produto encontrado", products[i])
}

type templateResp struct {
	Product Product           `json:"product"`
	Fields  map[string]string `json:"fields"`
}

func (s *Server) template(w http.ResponseWriter, _ *http.Request) {
	kit.WriteOK(w, http.StatusOK, "estrutura do produto", templateResp{
		Product: Product{Available: true},
		Fields: map[string]string{
			"id":         "product id (number, assigned when omitted)",
			"name":       "product name (string, required)",
			"categoryId": "category tag (string)",
			"price":      "price (number)",
			"imageUrl":   "image URL (string)",
			"available":  "availability (boolean, default true)",
		},
	})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var d Draft
	if err := kit.DecodeJSON(w, r, &d); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p, err := s.Store.Create(r.Context(), d)
	if err != nil {
		if errors.Is(err, ErrInvalidRecord) {
			s.Activity.Add(activity.Warn, "Tentativa de criar produto inválido: %v", err)
		}
		s.writeStoreError(w, r, "create product", err)
		return
	}

	s.Activity.Add(activity.Info, "Novo produto criado: ID %d - %s", p.ID, p.Name)
	kit.WriteOK(w, http.StatusCreated, "produto registrado com sucesso", p)
}

type updateReq struct {
	ID *int64 `json:"id,omitempty"`
	Patch
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req updateReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if req.ID != nil && *req.ID != id {
		kit.WriteError(w, r, http.StatusBadRequest, "id in body does not match path", map[string]any{"id": id})
		return
	}

	p, found, err := s.Store.Update(r.Context(), id, req.Patch)
	if err != nil {
		s.writeStoreError(w, r, "update product", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "produto não encontrado", map[string]any{"id": id})
		return
	}

	s.Activity.Add(activity.Info, "Produto atualizado: %s", p.Name)
	kit.WriteOK(w, http.StatusOK, "produto atualizado", p)
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, found, err := s.Store.ToggleAvailability(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "toggle product", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "produto não encontrado", map[string]any{"id": id})
		return
	}

	status := "desativado"
	if p.Available {
		status = "ativado"
	}
	s.Activity.Add(activity.Info, "Produto %s foi %s", p.Name, status)
	kit.WriteOK(w, http.StatusOK, "produto "+status, p)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidRecord):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrDuplicateID):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	default:
		if s.Log != nil {
			s.Log.Error(op+" failed", zap.Error(err))
		}
		if errors.Is(err, ErrCorruptStore) {
			s.Activity.Add(activity.Error, "Arquivo de produtos corrompido: %v", err)
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
