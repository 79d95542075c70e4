package workspace_fx

import (
	"go.uber.org/fx"

	"socrat/internal/services"
)

var Module = fx.Provide(services.NewWorkspaceService)
