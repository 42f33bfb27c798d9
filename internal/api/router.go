package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/selah-im/intake_server/config"
	"github.com/selah-im/intake_server/internal/api/handler"
	"github.com/selah-im/intake_server/internal/api/middleware"
)

type Router struct {
	intakeHandler    *handler.IntakeHandler
	adminHandler     *handler.AdminHandler
	websocketHandler *handler.WebSocketHandler
	cfg              *config.Config
	log              *zap.Logger
}

func NewRouter(
	intakeHandler *handler.IntakeHandler,
	adminHandler *handler.AdminHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
	log *zap.Logger,
) *Router {
	return &Router{
		intakeHandler:    intakeHandler,
		adminHandler:     adminHandler,
		websocketHandler: websocketHandler,
		cfg:              cfg,
		log:              log,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.log))
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// public intake
	applications := engine.Group("/applications")
	{
		applications.POST("/submit", r.intakeHandler.Submit)
		applications.GET("/submit", r.intakeHandler.Health)
	}

	admin := engine.Group("/admin")
	{
		admin.POST("/login", r.adminHandler.Login)
		// token travels as a query param on the upgrade request
		admin.GET("/ws", r.websocketHandler.Handle)

		authenticated := admin.Group("")
		authenticated.Use(middleware.AdminAuth(r.cfg.Admin.JWTSecret))
		{
			authenticated.GET("/applications", r.adminHandler.List)
			authenticated.GET("/applications/:id", r.adminHandler.Get)
			authenticated.PATCH("/applications/:id/status", r.adminHandler.UpdateStatus)
			authenticated.GET("/stats", r.adminHandler.Stats)
		}
	}

	return engine
}
