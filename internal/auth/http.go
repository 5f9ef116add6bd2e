package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"Totem/internal/activity"
	"Totem/pkg/kit"
)

const (
	TokenTTL = 8 * time.Hour

	loginLimitPerMin = 5
	limitWindow      = time.Minute
)

type Server struct {
	Log      *zap.Logger
	Store    Store
	JWT      *TokenMaker
	Activity *activity.Log
	Limiter  *kit.IPRateLimiter
}

func NewLoginLimiter() *kit.IPRateLimiter {
	return kit.NewIPRateLimiter(loginLimitPerMin, limitWindow)
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	User        Admin  `json:"user"`
}

// LoginHandler is rate limited per client IP when a Limiter is set.
func (s *Server) LoginHandler() http.Handler {
	h := http.Handler(http.HandlerFunc(s.handleLogin))
	if s.Limiter != nil {
		h = s.Limiter.Middleware(h)
	}
	return h
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Password = strings.TrimSpace(req.Password)
	if err := kit.Validate(req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "preencha todos os campos", map[string]any{"cause": err.Error()})
		return
	}

	a, err := s.Store.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) && s.Log != nil {
			s.Log.Error("verify credentials", zap.Error(err))
		}
		s.Activity.Add(activity.Warn, "Tentativa de login administrativo falhada para usuário: %s", req.Username)
		kit.WriteError(w, r, http.StatusUnauthorized, "usuário ou senha incorretos", nil)
		return
	}

	tok, err := s.JWT.New(a.Username, a.Role, TokenTTL)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("token issue", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	s.Activity.Add(activity.Info, "Login administrativo realizado por %s (%s)", a.Username, a.Role)
	kit.WriteOK(w, http.StatusOK, "login bem-sucedido", loginResp{
		AccessToken: tok,
		ExpiresIn:   int(TokenTTL.Seconds()),
		User:        a,
	})
}

// HandleLogout only records the event; tokens expire on their own.
func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	who := "usuário desconhecido"
	if c, ok := ClaimsFromContext(r.Context()); ok {
		who = c.Username
	}
	s.Activity.Add(activity.Info, "Logout administrativo realizado por %s", who)
	kit.WriteOK(w, http.StatusOK, "logout realizado com sucesso", nil)
}

func (s *Server) HandleWhoAmI(w http.ResponseWriter, r *http.Request) {
	c, ok := ClaimsFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
		return
	}
	kit.WriteOK(w, http.StatusOK, "", map[string]any{
		"username":   c.Username,
		"role":       c.Role,
		"expires_at": c.ExpiresAt.Time,
	})
}
