// Package main provides the CLI entrypoint of the accounts service.
// It wires subcommands (serve, migrate), loads configuration, and initializes logging.
//
// @title                       Accounts API
// @version                     1.0
// @description                 Registration, login and session endpoints for seeker and provider accounts.
// @BasePath                    /
// @securityDefinitions.apikey  CookieAuth
// @in                          cookie
// @name                        auth-token
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/handyhub/accounts/internal/infrastructure/config"
	"github.com/handyhub/accounts/internal/infrastructure/db"
	"github.com/handyhub/accounts/pkg/logger"
)

const serviceName = "accounts"

// app carries what every subcommand needs once the root command has run.
type app struct {
	cfg *config.Config
	log zerolog.Logger
}

// openStore connects to the user store and returns it along with a cleanup
// function. A nil store means DATABASE_URL is unset.
func (a *app) openStore(ctx context.Context) (*db.Store, func(), error) {
	if !a.cfg.DatabaseConfigured() {
		return nil, func() {}, nil
	}

	store, err := db.Open(ctx, a.cfg.Database, logger.Component("db"))
	if err != nil {
		return nil, nil, err
	}

	return store, func() {
		a.log.Info().Str("backend", string(store.Backend)).Msg("closing database connection...")
		closeCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			a.log.Warn().Err(err).Msg("could not close database connection")
		}
	}, nil
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Seeker and provider accounts service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.Init(logger.Options{
				Level:   cfg.LogLevel,
				Pretty:  !cfg.IsProduction(),
				Service: serviceName,
			})
			return nil
		},
	}

	rootCmd.AddCommand(
		serveCommand(a),
		migrateCommand(a),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		// no-op when PersistentPreRunE already initialised the logger
		log := logger.Init(logger.Options{Service: serviceName})
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
