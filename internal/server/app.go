// Package server assembles every kiosk component behind one chi router.
package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"Totem/internal/activity"
	"Totem/internal/auth"
	"Totem/internal/catalog"
	"Totem/internal/checkout"
	"Totem/internal/customer"
	"Totem/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string
	CORSOrigins    []string
	StaticDir      string
}

// Deps are the components built once at startup and shared by every handler.
type Deps struct {
	Catalog   catalog.Store
	Admins    auth.Store
	JWT       *auth.TokenMaker
	Customers *customer.Registry
	Session   *customer.Session
	Orders    checkout.Store
	Activity  *activity.Log
	Limiter   *kit.IPRateLimiter
}

const readyTimeout = 2 * time.Second

func NewHandler(deps Deps, httpDeps HTTPDeps) http.Handler {
	if httpDeps.Log == nil {
		httpDeps.Log = zap.NewNop()
	}
	log := httpDeps.Log

	catalogSrv := &catalog.Server{Store: deps.Catalog, Log: log, Activity: deps.Activity}
	authSrv := &auth.Server{Log: log, Store: deps.Admins, JWT: deps.JWT, Activity: deps.Activity, Limiter: deps.Limiter}
	customerSrv := &customer.Server{Session: deps.Session, Registry: deps.Customers, Log: log, Activity: deps.Activity}
	checkoutSrv := &checkout.Server{Store: deps.Orders, Catalog: deps.Catalog, Session: deps.Session, Log: log, Activity: deps.Activity}

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.Catalog, log))

	r.Route("/api", func(api chi.Router) {
		api.Mount("/products", catalogSrv.PublicRoutes())

		api.Get("/user", customerSrv.HandleGetUser)
		api.Put("/user", customerSrv.HandleSetName)
		api.Delete("/user", customerSrv.HandleReset)
		api.Post("/update-user", customerSrv.HandleSetName)
		api.Post("/customers", customerSrv.HandleRegister)

		api.Post("/checkout", checkoutSrv.CreateHandler())
		api.Get("/orders/{id}", checkoutSrv.GetHandler())

		api.Method(http.MethodPost, "/admin/login", authSrv.LoginHandler())

		api.Group(func(admin chi.Router) {
			admin.Use(auth.RequireAdmin(deps.JWT))
			admin.Post("/admin/logout", authSrv.HandleLogout)
			admin.Get("/admin/whoami", authSrv.HandleWhoAmI)
			admin.Mount("/admin/products", catalogSrv.AdminRoutes())
			admin.Get("/admin/customers", customerSrv.HandleList)
			admin.Get("/admin/orders", checkoutSrv.ListHandler())
			admin.Get("/admin/logs", deps.Activity.Handler())
		})
	})

	setupStatic(r, httpDeps.StaticDir)

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
	r.Use(kit.CORS(deps.CORSOrigins))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.RoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

// setupStatic serves the kiosk pages when the directory exists.
func setupStatic(r *chi.Mux, dir string) {
	if dir == "" {
		return
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return
	}
	r.Handle("/*", http.FileServer(http.Dir(dir)))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(store catalog.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			log.Warn("readyz failed: catalog", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog not ready", nil)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}
