package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/crisphq/crisp-backend/internal/config"
	"github.com/crisphq/crisp-backend/internal/handler"
	"github.com/crisphq/crisp-backend/internal/middleware"
	"github.com/crisphq/crisp-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Candidate *handler.CandidateHandler
	Interview *handler.InterviewHandler
	Resume    *handler.ResumeHandler
	WS        *handler.WSHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
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

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve uploaded resumes statically with aggressive caching (1 year);
	// filenames are UUIDs so content never changes under a URL.
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for resume uploads (10 per minute per IP): uploads hit
	// disk and the field extractor, keep them from being hammered.
	uploadLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Resume Intake ──────────────────────────────────────────────
	api := router.Group("/api/v1")
	{
		api.POST("/resumes", uploadLimiter.Middleware(), handlers.Resume.UploadResume)

		// ─── 2. Candidates ─────────────────────────────────────────────
		api.POST("/candidates", handlers.Candidate.CreateCandidate)
		api.GET("/candidates", handlers.Candidate.ListCandidates)
		api.GET("/candidates/:candidate_id", handlers.Candidate.GetCandidate)

		// ─── 3. Interview Session ──────────────────────────────────────
		interview := api.Group("/candidates/:candidate_id/interview")
		{
			interview.POST("/start", handlers.Interview.StartInterview)
			interview.POST("/resume", handlers.Interview.ResumeInterview)
			interview.POST("/answer", handlers.Interview.SubmitAnswer)
			interview.POST("/next", handlers.Interview.NextQuestion)
			interview.GET("/state", handlers.Interview.GetState)
			interview.POST("/score/retry", handlers.Interview.RetryScoring)
		}
	}

	// ─── 4. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/candidates/:candidate_id/interview/stream", handlers.WS.InterviewStream)
	}

	// ─── 5. Operations ─────────────────────────────────────────────────
	router.GET("/api/v1/system/metrics", handlers.System.SystemMetricsSSE)

	return router
}
