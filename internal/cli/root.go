package cli

import (
	"fmt"
	"os"

	"movieReco/business/semantic"
	"movieReco/internal/repository/boltdb"
	"movieReco/internal/repository/catalog"
	"movieReco/internal/repository/embedding"
	"movieReco/pkg/config"
	"movieReco/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	catalogPath string
	indexPath   string
	cfg         *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Build and inspect the movie semantic index",
	Long: `indexer manages the persisted semantic index used by the recommendation
server. It reads the same environment configuration as the server.

Example usage:
  indexer build                     # Embed the whole catalog from scratch
  indexer refresh                   # Embed only movies not indexed yet
  indexer search -q "space opera"   # Query the index
  indexer stats                     # Show what is stored`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Read(); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger.Init(cfg.App.Environment)

		if catalogPath != "" {
			cfg.Index.CatalogPath = catalogPath
		}
		if indexPath != "" {
			cfg.Index.BoltPath = indexPath
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog JSON file (default from CATALOG_PATH)")
	rootCmd.PersistentFlags().StringVar(&indexPath, "index", "", "index bolt file (default from INDEX_PATH)")
}

// openIndex wires the semantic service over the configured artifacts.
// The caller closes the returned store.
func openIndex() (*semantic.Service, *boltdb.IndexStore, *catalog.FileCatalog, error) {
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to init embedder: %w", err)
	}

	store, err := boltdb.NewIndexStore(cfg.Index.BoltPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open index store: %w", err)
	}

	svc := semantic.NewService(embedder, store, nil, semantic.Options{
		BatchSize: cfg.Embedding.BatchSize,
		Workers:   cfg.Embedding.Workers,
	})
	return svc, store, catalog.NewFileCatalog(cfg.Index.CatalogPath), nil
}
