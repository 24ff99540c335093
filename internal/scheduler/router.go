package scheduler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter exposes liveness, the last run and Prometheus metrics.
func NewRouter(s *Scheduler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		body := gin.H{
			"status":  "healthy",
			"running": s.Running(),
		}
		if last := s.Last(); last != nil {
			body["last_run"] = last
		}
		c.JSON(http.StatusOK, body)
	})
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "job scraper scheduler is running"})
	})

	logger.Debug("routes registered", zap.Int("count", len(router.Routes())))
	return router
}
