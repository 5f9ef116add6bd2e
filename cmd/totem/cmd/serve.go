package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"Totem/internal/activity"
	"Totem/internal/auth"
	"Totem/internal/catalog"
	"Totem/internal/checkout"
	"Totem/internal/config"
	"Totem/internal/customer"
	"Totem/internal/server"
	"Totem/pkg/kit"
)

const adminRole = "Super Administrador"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to run the server on")
	serveCmd.Flags().String("host", "", "Host to bind the server to")
	serveCmd.Flags().String("static-dir", "public", "Directory with the kiosk pages")
	_ = viper.BindPFlag("PORT", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("HOST", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("STATIC_DIR", serveCmd.Flags().Lookup("static-dir"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := kit.NewLogger(service, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, closeStore, err := openCatalog(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer closeStore()

	admins, err := auth.NewStore(ctx, cfg.AdminUsername, cfg.AdminPassword, adminRole)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	customers, err := customer.NewRegistry(cfg.CustomerPath())
	if err != nil {
		return fmt.Errorf("open customers: %w", err)
	}

	events := activity.NewLog(cfg.ActivityLogSize)
	events.Add(activity.Info, "Servidor iniciado na porta %d", cfg.Port)

	h := server.NewHandler(server.Deps{
		Catalog:   catalog.NewInstrumented(store, kit.NewOpMetrics(reg, service, "catalog")),
		Admins:    admins,
		JWT:       auth.NewTokenMaker(cfg.JWTSecret),
		Customers: customers,
		Session:   customer.NewSession(),
		Orders:    checkout.NewMemStore(),
		Activity:  events,
		Limiter:   auth.NewLoginLimiter(),
	}, server.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		StaticDir:      cfg.StaticDir,
	})

	log.Info("starting", zap.String("addr", cfg.Addr()), zap.String("data_dir", cfg.DataDir))
	if err := kit.RunHTTPServer(ctx, cfg.Addr(), h, log, cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("http server stopped: %w", err)
	}
	return nil
}
