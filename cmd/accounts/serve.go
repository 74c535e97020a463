package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/handyhub/accounts/internal/api"
	"github.com/handyhub/accounts/internal/api/handler"
	"github.com/handyhub/accounts/internal/infrastructure/db/redis"
	"github.com/handyhub/accounts/pkg/logger"
)

func serveCommand(a *app) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps := api.Deps{
				Config: a.cfg,
				Log:    logger.Component("api"),
				Checks: map[string]handler.Pinger{},
			}

			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			if store == nil {
				a.log.Warn().Msg("DATABASE_URL is not set; account endpoints will answer 503")
				deps.Checks["database"] = nil
			} else {
				if !skipMigrate {
					if err := store.Migrate(ctx); err != nil {
						return err
					}
				}
				deps.Users = store.Users
				deps.Checks["database"] = store
			}

			if a.cfg.Redis.Addr != "" {
				client, err := redis.Connect(ctx, redis.Config{
					Addr:        a.cfg.Redis.Addr,
					Password:    a.cfg.Redis.Password,
					DB:          a.cfg.Redis.DB,
					DialTimeout: a.cfg.Redis.DialTimeout,
				})
				if err != nil {
					return err
				}
				defer closeRedis(a, client)

				sessions := redis.NewSessionStore(client)
				deps.Sessions = sessions
				deps.Checks["redis"] = sessions
			}

			return runServer(ctx, a, api.NewRouter(deps))
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not bring the schema up to date on startup")
	return cmd
}

func runServer(ctx context.Context, a *app, h http.Handler) error {
	server := &http.Server{
		Addr:    net.JoinHostPort("", a.cfg.Port),
		Handler: h,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", server.Addr).Str("env", a.cfg.Env).Msg("starting webserver...")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// wait for interrupt
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	a.log.Info().Msg("stopping webserver...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func closeRedis(a *app, client *goredis.Client) {
	a.log.Info().Msg("closing redis client...")
	if err := client.Close(); err != nil {
		a.log.Warn().Err(err).Msg("could not close redis client")
	}
}
