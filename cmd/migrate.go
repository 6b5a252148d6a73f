package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sgaunet/s3ingest/pkg/config"
	"github.com/sgaunet/s3ingest/pkg/dbinit"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.Storage != config.StoragePostgres {
			return fmt.Errorf("%w: migrate needs postgres storage", config.ErrInvalidConfig)
		}
		return dbinit.MigrateDatabase(cfg.Database.URL, initTrace(cfg.LogLevel))
	},
}
