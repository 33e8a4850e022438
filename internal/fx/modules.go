package fx

import (
	"wcl-rankings/internal/api"
	"wcl-rankings/internal/config"
	"wcl-rankings/internal/database"
	"wcl-rankings/internal/identity"
	"wcl-rankings/internal/logger"
	"wcl-rankings/internal/repository"
	"wcl-rankings/internal/server"
	"wcl-rankings/internal/service"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(config.Load),
	fx.Provide(logger.New),
	fx.Provide(database.New),
	fx.Provide(identity.FromConfig),
	// repos
	fx.Provide(
		fx.Annotate(repository.NewSettingsRepository, fx.As(new(service.SettingsStore))),
	),
	// api client
	fx.Provide(
		fx.Annotate(api.NewWCLClient, fx.As(new(service.RankingsClient))),
	),
	// svc
	fx.Provide(service.NewSessionService),
	// server
	fx.Provide(server.NewSessionServer),
)
