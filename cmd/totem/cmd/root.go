package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"Totem/internal/catalog"
	"Totem/internal/config"
)

const service = "totem"

var rootCmd = &cobra.Command{
	Use:           "totem",
	Short:         "Self-service kiosk ordering back end",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "data", "Directory holding the JSON documents")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag("DATA_DIR", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openCatalog builds the configured catalog backend. The returned close
// function releases the database pool when there is one.
func openCatalog(ctx context.Context, cfg config.Config, log *zap.Logger) (catalog.Store, func(), error) {
	switch cfg.CatalogBackend {
	case config.BackendPostgres:
		db, err := catalog.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		st := catalog.NewPostgresStore(db)
		if err := st.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info("catalog backend ready", zap.String("backend", cfg.CatalogBackend))
		return st, func() { _ = db.Close() }, nil
	default:
		st, err := catalog.NewFileStore(cfg.CatalogPath())
		if err != nil {
			return nil, nil, err
		}
		log.Info("catalog backend ready", zap.String("backend", cfg.CatalogBackend), zap.String("path", st.Path()))
		return st, func() {}, nil
	}
}
