package main

import (
	"errors"

	"github.com/spf13/cobra"
)

// migrateCommand constructs the 'migrate' subcommand that brings the user
// store schema up to date: goose migrations on PostgreSQL, indexes on MongoDB.
func migrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Migrates the user store to the latest version",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("DATABASE_URL is not set")
			}
			defer closeStore()

			if err := store.Migrate(ctx); err != nil {
				return err
			}
			a.log.Info().Str("backend", string(store.Backend)).Msg("user store is up to date")
			return nil
		},
	}
}
