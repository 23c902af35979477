package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"softpet/internal/adapters/auth/jwtauth"
	"softpet/internal/ports/auth"
)

// tokenCmd firma un token de sesión con JWT_SECRET. Solo para dev:
//
//	softpet token --user-id <id> --email a@x.com
//	curl -b "auth_token=<token>" localhost:8080/api/auth/me
func tokenCmd() *cobra.Command {
	var userID, email string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un token de sesión (dev)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("token command is disabled in production")
			}
			if strings.TrimSpace(userID) == "" {
				return errors.New("--user-id is required")
			}

			svc, err := jwtauth.New(cfg.JWTSecret, cfg.JWTTTL)
			if err != nil {
				return err
			}
			token, err := svc.Issue(auth.Claims{UserID: userID, Email: email})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "id del usuario (claim userId)")
	cmd.Flags().StringVar(&email, "email", "", "email (claim email)")
	return cmd
}
