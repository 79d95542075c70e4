package config_fx

import (
	"context"

	"go.uber.org/fx"

	"socrat/internal/config"
	"socrat/pkg/logger"
	"socrat/pkg/observability"
)

var Module = fx.Options(
	fx.Provide(config.FromEnv, provideLogger),
	fx.Invoke(registerTracing),
)

func provideLogger(lc fx.Lifecycle, cfg config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.LogMode, cfg.LogRedaction)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Sync()
			return nil
		},
	})
	return log, nil
}

func registerTracing(lc fx.Lifecycle, cfg config.Config, log *logger.Logger) {
	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			shutdown = observability.InitOTel(ctx, log, cfg.Otel)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}
