package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/intervia/intervia-backend/internal/config"
	"github.com/intervia/intervia-backend/internal/handler"
	"github.com/intervia/intervia-backend/internal/middleware"
	"github.com/intervia/intervia-backend/internal/response"
	"github.com/intervia/intervia-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Candidate *handler.CandidateHandler
	Interview *handler.InterviewHandler
	History   *handler.HistoryHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	tokenService *service.TokenService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID metadata on every response.
	router.Use(response.RequestIDMiddleware())

	// Compress JSON responses.
	router.Use(middleware.Brotli())

	// Serve stored résumés statically with aggressive caching (1 year).
	// resume_path values returned by the upload endpoint resolve here.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for unauthenticated candidate creation (30 per minute per IP).
	registerLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Candidate Registration (Public, Rate Limited) ──────────────
	public := router.Group("/api/v1")
	public.Use(registerLimiter.Middleware())
	{
		public.POST("/candidates", handlers.Candidate.Register)
	}

	// ─── 2. Candidate API (Token Required) ─────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireCandidateToken(tokenService))
	{
		api.GET("/candidates/me", handlers.Candidate.GetProfile)
		api.POST("/candidates/resume", handlers.Candidate.UploadResume)

		api.POST("/interview/start", handlers.Interview.Start)
		api.GET("/interview/state", handlers.Interview.State)
		api.POST("/interview/answer", handlers.Interview.Answer)
		api.POST("/interview/abandon", handlers.Interview.Abandon)
		api.POST("/interview/resume", handlers.Interview.Resume)

		api.GET("/history", handlers.History.List)
		api.GET("/history/:id", handlers.History.Get)
		api.DELETE("/history/:id", handlers.History.Delete)
	}

	// ─── 3. WebSocket Group (Query Token Auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireCandidateWSAuth(tokenService))
	{
		ws.GET("/interview/stream", handlers.WS.InterviewStream)
	}

	return router
}
