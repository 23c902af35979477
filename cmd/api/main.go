// @title       SoftPet API
// @version     1.0
// @description Registro multiusuario de mascotas con sesión por cookie.
// @BasePath    /
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"softpet/internal/platform/config"
	"softpet/internal/platform/logger"
)

func main() {
	// .env es opcional (solo dev); las variables ya exportadas tienen prioridad.
	_ = godotenv.Load(".env")

	rootCmd := &cobra.Command{
		Use:           "softpet",
		Short:         "SoftPet API: registro de mascotas con sesión por cookie",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		tokenCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	return cfg, log, nil
}
