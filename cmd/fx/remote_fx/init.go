package remote_fx

import (
	"go.uber.org/fx"

	"socrat/internal/config"
	"socrat/internal/remote"
	"socrat/internal/services"
	"socrat/pkg/logger"
)

var Module = fx.Provide(
	provideClient,
	func(c *remote.Client) services.Remote { return c },
	func(c *remote.Client) services.Authenticator { return c },
)

func provideClient(cfg config.Config, log *logger.Logger) *remote.Client {
	return remote.New(remote.Config{BaseURL: cfg.RemoteBaseURL, Timeout: cfg.RemoteTimeout}, log)
}
