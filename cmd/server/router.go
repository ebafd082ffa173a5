package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/livepoll/backend/internal/auth"
	"github.com/livepoll/backend/internal/middleware"
	"github.com/livepoll/backend/internal/polls"
	"github.com/livepoll/backend/internal/realtime"
	"github.com/livepoll/backend/pkg/queue"
	"github.com/livepoll/backend/pkg/response"
	"github.com/livepoll/backend/pkg/storage"
)

// newRouter wires middleware and every HTTP and WebSocket route.
func newRouter(corsOrigins string, hub *realtime.Hub, authHandler *auth.Handler, pollHandler *polls.Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(corsOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "live poll API") })
	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok", "subscribers": hub.SubscriberCount()})
	})

	api := router.Group("/api")
	authHandler.RegisterRoutes(api)
	pollHandler.RegisterRoutes(api)

	router.GET("/ws", realtime.ServeWs(hub, realtime.NewUpgrader(corsOrigins), logger))
	return router
}

// configureExports enables the export endpoints that can be served and reports
// whether the export worker should run. Jobs are only accepted when S3 is there
// to consume them; links to existing exports only need S3.
func configureExports(h *polls.Handler, jobQueue *queue.Queue, s3Client *storage.S3) bool {
	if s3Client == nil {
		return false
	}
	h.SetExportStorage(s3Client)
	if jobQueue == nil {
		return false
	}
	h.SetExportQueue(jobQueue)
	return true
}
