package customer

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"Totem/internal/activity"
	"Totem/pkg/kit"
)

type Server struct {
	Session  *Session
	Registry *Registry
	Log      *zap.Logger
	Activity *activity.Log
}

func (s *Server) HandleGetUser(w http.ResponseWriter, _ *http.Request) {
	kit.WriteOK(w, http.StatusOK, "dados do usuário", s.Session.Get())
}

type nameReq struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) HandleSetName(w http.ResponseWriter, r *http.Request) {
	var req nameReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := kit.Validate(req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "nome inválido", map[string]any{"cause": err.Error()})
		return
	}

	cur := s.Session.SetName(req.Name)
	s.Activity.Add(activity.Info, "Nome do usuário atualizado para: %s", req.Name)
	kit.WriteOK(w, http.StatusOK, "nome atualizado com sucesso", cur)
}

type registerReq struct {
	Name string `json:"name" validate:"required_without=CPF"`
	CPF  string `json:"cpf" validate:"omitempty,max=14"`
}

type registerResp struct {
	Customer Customer `json:"customer"`
	Total    int      `json:"total"`
}

func (s *Server) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	req.Name, req.CPF = strings.TrimSpace(req.Name), strings.TrimSpace(req.CPF)
	if err := kit.Validate(req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "cliente deve ter pelo menos nome ou CPF", map[string]any{"cause": err.Error()})
		return
	}

	c, total, err := s.Registry.Register(r.Context(), req.Name, req.CPF)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("register customer failed", zap.Error(err))
		}
		s.Activity.Add(activity.Error, "Erro ao salvar cliente: %v", err)
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	s.Activity.Add(activity.Info, "Novo cliente registrado: ID %s", c.ID)
	kit.WriteOK(w, http.StatusCreated, "cliente registrado com sucesso", registerResp{Customer: c, Total: total})
}

func (s *Server) HandleList(w http.ResponseWriter, r *http.Request) {
	all, err := s.Registry.List(r.Context())
	if err != nil {
		if s.Log != nil {
			s.Log.Error("list customers failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteOK(w, http.StatusOK, fmt.Sprintf("%d clientes encontrados", len(all)), all)
}

func (s *Server) HandleReset(w http.ResponseWriter, _ *http.Request) {
	s.Session.Reset()
	kit.WriteOK(w, http.StatusOK, "sessão encerrada", s.Session.Get())
}
