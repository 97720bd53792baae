package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"protaskinate/internal/config"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()
			fmt.Fprintf(cmd.OutOrStdout(), "Database %s is up to date.\n", cfg.DatabaseURL)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token [user-id]",
		Short: "Mint a bearer token for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.close()

			user, err := a.users.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("user %s: %w", args[0], err)
			}
			token, err := a.tokens.Issue(user.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
