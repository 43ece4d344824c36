package app

import (
	"bitwise74/file-share-api/app/file"
	"bitwise74/file-share-api/app/root"
	"bitwise74/file-share-api/app/user"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/pkg/middleware"
	"time"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Multipart overhead allowed on top of the maximum file size
const formOverhead = 1 << 20

// NewRouter builds the HTTP surface on top of d. Metrics from g are served
// on /metrics.
func NewRouter(d *internal.Deps, g prometheus.Gatherer) *gin.Engine {
	cfg := d.Config
	router := gin.New()

	store := persist.NewMemoryStore(time.Minute)

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     cfg.Host.CorsOrigins,
			AllowMethods:     []string{"GET", "POST", "HEAD", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: time.RFC3339,
			UTC:        true,
			SkipPaths:  []string{"/api/heartbeat", "/metrics"},
			Context: func(c *gin.Context) []zapcore.Field {
				return []zapcore.Field{
					zap.String("requestID", c.GetString("requestID")),
					zap.String("userID", c.GetString("userID")),
				}
			},
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	jwt := middleware.NewJWTMiddleware([]byte(cfg.JWT.Secret))
	turnstile := middleware.NewTurnstileMiddleware(&cfg.Security.Turnstile)
	rateLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Security.RateLimit,
		Burst:             cfg.Security.RateLimit * 2,
	})
	bodyLimit := middleware.BodySizeLimiter(cfg.Upload.MaxSize + formOverhead)

	// GET /metrics				-> Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/validate		-> Validates a JWT token
		m.GET("/validate", jwt, root.Validate)

		// POST /api/register-initiate	-> Starts a signup and mails a verification code
		m.POST("/register-initiate", turnstile, func(c *gin.Context) { user.RegisterInitiate(c, d) })

		// POST /api/register-verify	-> Completes a signup with the mailed code
		m.POST("/register-verify", func(c *gin.Context) { user.RegisterVerify(c, d) })

		// POST /api/register-resend	-> Mails a fresh verification code
		m.POST("/register-resend", turnstile, func(c *gin.Context) { user.RegisterResend(c, d) })

		// POST /api/register		-> Registers a user without verification
		m.POST("/register", turnstile, func(c *gin.Context) { user.Register(c, d) })

		// POST /api/login		-> Returns an access token
		m.POST("/login", func(c *gin.Context) { user.Login(c, d) })

		// GET /api/user		-> Returns the basic info of a user
		m.GET("/user", jwt, cacheByUser(store, 30*time.Second), func(c *gin.Context) { user.Fetch(c, d) })
	}

	f := m.Group("", jwt)
	{
		// POST /api/upload		-> Uploads a new file
		f.POST("/upload", bodyLimit, func(c *gin.Context) { file.Upload(c, d) })

		// GET /api/files		-> Returns owned files and files shared with the user
		f.GET("/files", func(c *gin.Context) { file.List(c, d) })

		// GET /api/download/:id	-> Returns a presigned download link
		f.GET("/download/:id", func(c *gin.Context) { file.Download(c, d) })

		// GET /api/files/:id/access	-> Reports whether the user can read a file
		f.GET("/files/:id/access", func(c *gin.Context) { file.Access(c, d) })

		// POST /api/share		-> Shares a file with another user
		f.POST("/share", func(c *gin.Context) { file.Share(c, d) })

		// POST /api/unshare		-> Revokes a share
		f.POST("/unshare", func(c *gin.Context) { file.Unshare(c, d) })

		// DELETE /api/files/:id	-> Deletes a file owned by the user
		f.DELETE("/files/:id", func(c *gin.Context) { file.Delete(c, d) })

		// POST /api/files/:id/leave	-> Removes the user's own access to a shared file
		f.POST("/files/:id/leave", func(c *gin.Context) { file.Leave(c, d) })
	}

	return router
}

// cacheByUser caches successful responses per authenticated user
func cacheByUser(store persist.CacheStore, ttl time.Duration) gin.HandlerFunc {
	return cache.Cache(store, ttl, cache.WithCacheStrategyByRequest(func(c *gin.Context) (bool, cache.Strategy) {
		userID := c.GetString("userID")
		if userID == "" {
			return false, cache.Strategy{}
		}

		return true, cache.Strategy{CacheKey: c.Request.URL.Path + ":" + userID}
	}))
}
