package account_fx

import (
	"go.uber.org/fx"

	"socrat/internal/flow"
	"socrat/internal/services"
	"socrat/pkg/logger"
	mem "socrat/pkg/memcache"
)

var Module = fx.Provide(provideAccountService)

func provideAccountService(auth services.Authenticator, workspaces mem.WorkspaceStore[*flow.ViewController], log *logger.Logger) services.AccountServiceInterface {
	return services.NewAccountService(auth, workspaces, log)
}
