package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"Totem/internal/catalog"
	"Totem/internal/config"
	"Totem/pkg/kit"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the starter menu into an empty catalog",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

var starterMenu = []catalog.Draft{
	{Name: "X-Burger Café Quente", CategoryID: "lanche", Price: 15, ImageURL: "img/xburger.png"},
	{Name: "Refrigerante Cola", CategoryID: "bebida", Price: 7, ImageURL: "img/refrigerante.png"},
	{Name: "Batata Frita", CategoryID: "acompanhamento", Price: 8.5, ImageURL: "img/batata.png"},
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	if err := cfg.ValidateStorage(); err != nil {
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

	store, closeStore, err := openCatalog(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer closeStore()

	n, err := seedCatalog(ctx, store, starterMenu)
	if err != nil {
		return err
	}
	log.Info("seed finished", zap.Int("created", n))
	return nil
}

// seedCatalog creates drafts only when the catalog has no products.
func seedCatalog(ctx context.Context, store catalog.Store, drafts []catalog.Draft) (int, error) {
	existing, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list catalog: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i, d := range drafts {
		if _, err := store.Create(ctx, d); err != nil {
			return i, fmt.Errorf("create %q: %w", d.Name, err)
		}
	}
	return len(drafts), nil
}
