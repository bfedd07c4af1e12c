package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"storydive/internal/auth"
	"storydive/internal/config"
)

// NewRouter assembles the gin engine with logging, CORS, metrics and the
// authenticated /api group.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	verify auth.TokenVerifier,
	story *StoryHandler,
	worlds *WorldHandler,
	adventures *AdventureHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(RequestLogger(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	api := router.Group("/api", AuthRequired(verify, logger))
	{
		story.RegisterRoutes(api)
		worlds.RegisterRoutes(api)
		adventures.RegisterRoutes(api)
	}

	// metrics middleware goes on last so it sees the final route set
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	return router
}
