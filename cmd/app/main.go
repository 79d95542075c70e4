package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/fx"

	"socrat/cmd/fx/account_fx"
	"socrat/cmd/fx/config_fx"
	"socrat/cmd/fx/controllers_fx"
	"socrat/cmd/fx/memcache_fx"
	"socrat/cmd/fx/remote_fx"
	"socrat/cmd/fx/workspace_fx"
	"socrat/internal/api/controllers"
	"socrat/internal/config"
	"socrat/pkg/logger"
	"socrat/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	app := fx.New(
		config_fx.Module,
		remote_fx.Module,
		memcache_fx.Module,
		workspace_fx.Module,
		account_fx.Module,
		controllers_fx.Module,

		fx.Invoke(StartServer),
		fx.Provide(ProvideRouter),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine, cfg config.Config, log *logger.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("starting HTTP server", "addr", srv.Addr, "remote", cfg.RemoteBaseURL)
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

func ProvideRouter(
	cfg config.Config,
	accountController *controllers.AccountController,
	workspaceController *controllers.WorkspaceController,
	healthController *controllers.HealthController) *gin.Engine {

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.Otel.ServiceName))
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.MaxMultipartMemory = cfg.UploadMaxBytes

	controllers.RegisterRoutes(r,
		middleware.JWTAuthMiddleware(cfg),
		accountController,
		workspaceController,
		healthController)

	return r
}
