package controllers_fx

import (
	"go.uber.org/fx"

	"socrat/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAccountController),
	fx.Provide(controllers.NewWorkspaceController),
	fx.Provide(controllers.NewHealthController))
