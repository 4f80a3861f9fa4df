// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"device-service/internal/config"
	"device-service/internal/handler"
	"device-service/internal/middleware"
	"device-service/internal/serialio"
	"device-service/internal/server"
	"device-service/internal/storage"
)

// Router holds the admin HTTP surface's dependencies.
type Router struct {
	config *config.Config
	logger *zap.Logger
	store  *storage.Store
	serial *serialio.Manager
	srv    *server.Server
}

// NewRouter creates a router instance.
func NewRouter(cfg *config.Config, logger *zap.Logger, store *storage.Store, serial *serialio.Manager, srv *server.Server) *Router {
	return &Router{config: cfg, logger: logger, store: store, serial: serial, srv: srv}
}

// SetupRouter builds and configures the Gin engine for the admin surface:
// health/readiness/liveness, job counters and recent-jobs history, and a
// job-events websocket feed.
func (r *Router) SetupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	r.addMiddleware(router)

	healthHandler := handler.NewHealthHandler(r.store, r.serial)
	jobsHandler := handler.NewJobsHandler(r.srv)
	wsHandler := handler.NewWebSocketHandler(r.logger)
	r.srv.OnJobComplete(wsHandler.PublishJobEvent)

	healthHandler.RegisterRoutes(router.Group(""))

	api := router.Group("/api/v1")
	jobsHandler.RegisterRoutes(api)

	ws := router.Group("/ws")
	wsHandler.RegisterRoutes(ws)

	r.addDocumentationRoutes(router)

	r.logger.Info("admin routes configured")
	return router
}

// addDocumentationRoutes serves the generated Swagger UI for the admin
// surface, matching the teacher's documentation route.
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}

func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(r.logger))
	router.Use(middleware.CORSMiddleware(r.config.Admin.AllowedOrigins))
}
