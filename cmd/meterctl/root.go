package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yang-smith/worker/internal/catalog"
)

const (
	keyCatalogPath   = "catalog_path"
	keyDatabaseURL   = "database_url"
	keySessionSecret = "session_secret"
	keySessionIssuer = "session_issuer"
)

// newRootCmd builds the command tree. Settings resolve from flags first,
// then the environment (CATALOG_PATH, DATABASE_URL, SESSION_SECRET,
// SESSION_ISSUER).
func newRootCmd() *cobra.Command {
	cfg := viper.New()
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cfg.AutomaticEnv()
	cfg.SetDefault(keySessionIssuer, "llm-meter")

	root := &cobra.Command{
		Use:           "meterctl",
		Short:         "Inspect the model catalog, quote requests and manage metered accounts",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("catalog", "", "Catalog TOML file (default: embedded catalog)")
	_ = cfg.BindPFlag(keyCatalogPath, root.PersistentFlags().Lookup("catalog"))

	root.AddCommand(
		newModelsCmd(cfg),
		newEstimateCmd(cfg),
		newStatsCmd(cfg),
		newPlanCmd(cfg),
		newTokenCmd(cfg),
	)
	return root
}

func loadCatalog(cfg *viper.Viper) (*catalog.Catalog, error) {
	return catalog.Load(cfg.GetString(keyCatalogPath))
}
