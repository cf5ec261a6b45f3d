package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/appraisal-cli/internal/compstore"
	"github.com/sells-group/appraisal-cli/internal/config"
	"github.com/sells-group/appraisal-cli/internal/pipeline"
	"github.com/sells-group/appraisal-cli/internal/profile"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "appraisal-cli",
	Short: "Comparable-sales property valuation engine",
	Long:  "Ranks comparable sales against a subject property with weighted multi-criteria scoring, estimates price per square foot by bracket interpolation and regression, and reconciles the two into an indicated value.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// initStore opens the configured comparable-sales store.
func initStore(ctx context.Context) (compstore.Store, error) {
	return compstore.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, &cfg.Store.Pool)
}

// initCatalog builds the profile catalog: built-ins plus the configured
// catalog directory.
func initCatalog() (*profile.Catalog, error) {
	catalog := profile.NewCatalog()
	if cfg.Profiles.Dir != "" {
		if err := catalog.LoadDir(cfg.Profiles.Dir); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func newEngine() *pipeline.Engine {
	return pipeline.NewEngine(cfg.Valuation.Reconciliation, cfg.Valuation.Robust)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
