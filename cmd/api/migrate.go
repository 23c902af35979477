package main

import (
	"errors"

	"github.com/spf13/cobra"

	pg "softpet/internal/adapters/storage/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica el schema en DB_DSN",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DBDSN == "" {
				return errors.New("DB_DSN is required")
			}

			db, err := pg.Open(cmd.Context(), cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := pg.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			log.Info("schema applied", nil)
			return nil
		},
	}
}
