package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"wcl-rankings/internal/config"
	"wcl-rankings/internal/constants"
	fxmodules "wcl-rankings/internal/fx"
	"wcl-rankings/internal/middleware"
	"wcl-rankings/internal/server"
	"wcl-rankings/internal/service"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	sessionServer *server.SessionServer,
	session *service.SessionService,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"https://worldofwarcraft.com", "https://worldofwarcraft.blizzard.com"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: c.Handler(middleware.RequestID(logger)(sessionServer.Routes())),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info().
				Str("db_path", cfg.DBPath).
				Str("wcl_base_url", cfg.WCLBaseURL).
				Dur("wcl_timeout", cfg.WCLTimeout).
				Interface("tiers", cfg.Tiers).
				Msg("config loaded")

			if err := session.Load(ctx); err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}
			bootstrap(session, logger)

			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}

// bootstrap obtains a token in the background when keys were saved but no token was.
func bootstrap(session *service.SessionService, logger zerolog.Logger) {
	snap := session.Snapshot()
	if !snap.HasClientID || !snap.HasClientSecret || snap.HasAccessToken {
		return
	}

	go func() {
		if err := session.Authenticate(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("startup authentication failed")
			return
		}
		logger.Info().Msg("startup authentication succeeded")
	}()
}
