package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	govalidator "github.com/go-playground/validator/v10"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/handler"
	"github.com/stemsi/exstem-quiz/internal/middleware"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stemsi/exstem-quiz/internal/validator"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session *handler.SessionHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// startLimiter may be nil.
func SetupRouter(handlers *Handlers, startLimiter *middleware.RateLimiter, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
		validator.Register(v)
	}

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", handlers.System.Health)

	// ─── 1. Session Group ──────────────────────────────────────────────
	sessions := router.Group("/api/v1/sessions")
	sessions.Use(middleware.NoStore())
	{
		if startLimiter != nil {
			sessions.POST("", startLimiter.Middleware(), handlers.Session.StartSession)
		} else {
			sessions.POST("", handlers.Session.StartSession)
		}
		sessions.GET("/:session_id", handlers.Session.GetSession)
		sessions.POST("/:session_id/actions", handlers.Session.ApplyAction)
		sessions.GET("/:session_id/result", handlers.Session.GetResult)
	}

	// ─── 2. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/sessions/:session_id/stream", handlers.WS.SessionStream)
	}

	return router
}
