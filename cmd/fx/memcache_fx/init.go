package memcache_fx

import (
	"context"
	"time"

	"go.uber.org/fx"

	"socrat/internal/config"
	"socrat/internal/flow"
	"socrat/pkg/logger"
	mem "socrat/pkg/memcache"
)

var Module = fx.Options(
	fx.Provide(provideWorkspaces),
	fx.Invoke(startJanitor),
)

func provideWorkspaces(cfg config.Config) (*mem.Workspaces[*flow.ViewController], mem.WorkspaceStore[*flow.ViewController]) {
	store := mem.NewWorkspaces[*flow.ViewController](cfg.WorkspaceTTL)
	return store, store
}

func startJanitor(lc fx.Lifecycle, cfg config.Config, store *mem.Workspaces[*flow.ViewController], log *logger.Logger) {
	if cfg.WorkspaceTTL <= 0 {
		return
	}
	interval := cfg.WorkspaceTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go store.Janitor(ctx, interval, func(removed int) {
				log.Info("expired idle workspaces", "removed", removed, "remaining", store.Len())
			})
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
