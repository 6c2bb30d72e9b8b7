package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"walletfy-api/internal/config"
	"walletfy-api/internal/controllers"
	"walletfy-api/internal/entities"
	"walletfy-api/internal/middleware"
	"walletfy-api/internal/oauth"
	"walletfy-api/internal/service"
	"walletfy-api/internal/storage"
)

const (
	apiVersion  = "1.0.0"
	sessionName = "walletfy_session"
)

// Dependencies are the services the HTTP layer is built on
type Dependencies struct {
	Config       *config.Config
	Log          *zap.Logger
	AuthService  service.AuthService
	EventService service.EventService
	StatsService service.StatsService
	Providers    []oauth.Provider        // enabled identity providers
	Store        storage.AttachmentStore // nil disables the attachment routes
	Metrics      bool                    // expose /metrics
}

// NewRouter builds the gin engine. The returned func stops the rate limiters' cleanup goroutines.
func NewRouter(deps Dependencies) (*gin.Engine, func()) {
	cfg := deps.Config
	log := deps.Log

	// Initialize rate limiters
	generalRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	authRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitAuthRPS), cfg.RateLimitAuthBurst)
	stop := func() {
		generalRateLimiter.Stop()
		authRateLimiter.Stop()
	}

	// Initialize controllers
	userController := controllers.NewUserController(deps.AuthService, log)
	eventController := controllers.NewEventController(deps.EventService, log)
	statsController := controllers.NewStatsController(deps.StatsService, log)
	oauthController := controllers.NewOAuthController(deps.AuthService, cfg.FrontendURL, log)

	router := gin.New()
	router.Use(
		middleware.Recovery(log),
		middleware.RequestLogger(log),
		cors.New(corsConfig(cfg)),
	)

	if deps.Metrics {
		p := ginprometheus.NewPrometheus("gin")
		p.Use(router)
	}

	// Health check endpoint (no rate limiting)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Bienvenido a la API de Walletfy",
			"version": apiVersion,
			"endpoints": gin.H{
				"events": "/api/events",
				"users":  "/api/users",
				"stats":  "/api/stats",
			},
		})
	})

	// Downloads for the in-process attachment store used by local runs
	if local, ok := deps.Store.(*storage.MemoryStore); ok {
		router.GET(storage.LocalFilesPath+"/*key", controllers.ServeLocalFile(local))
	}

	requireAuth := middleware.AuthMiddleware(deps.AuthService, log)

	api := router.Group("/api")
	api.Use(middleware.JSONCharset(), generalRateLimiter.LimitMiddleware())
	{
		users := api.Group("/users")
		{
			// Register and login with stricter rate limiting
			users.POST("/register", authRateLimiter.LimitMiddleware(), userController.Register)
			users.POST("/login", authRateLimiter.LimitMiddleware(), userController.Login)

			users.GET("/profile", requireAuth, userController.GetProfile)
			users.PUT("/profile", requireAuth, userController.UpdateProfile)
			users.DELETE("/profile", requireAuth, userController.DeleteProfile)
			users.PUT("/password", requireAuth, userController.ChangePassword)
			users.GET("", requireAuth, middleware.RequireRole(entities.RoleAdmin), userController.ListUsers)

			// External sign-in keeps the OAuth state in a signed cookie session
			store := cookie.NewStore([]byte(cfg.SessionSecret))
			store.Options(sessions.Options{
				Path:     "/api/users/auth",
				MaxAge:   int((10 * time.Minute).Seconds()),
				HttpOnly: true,
				Secure:   cfg.IsProduction(),
				SameSite: http.SameSiteLaxMode,
			})
			auth := users.Group("/auth")
			auth.Use(sessions.Sessions(sessionName, store))
			{
				for _, provider := range deps.Providers {
					name := string(provider.Name())
					auth.GET("/"+name, oauthController.Begin(provider))
					auth.GET("/"+name+"/callback", oauthController.Callback(provider))
				}
				auth.GET("/error", oauthController.AuthError)
			}
		}

		events := api.Group("/events")
		events.Use(requireAuth)
		{
			events.GET("", eventController.ListEvents)
			events.POST("", eventController.CreateEvent)
			events.GET("/summary/monthly", eventController.MonthlySummary)
			events.GET("/:id", eventController.GetEvent)
			events.PUT("/:id", eventController.UpdateEvent)
			events.DELETE("/:id", eventController.DeleteEvent)

			if deps.Store != nil {
				attachmentController := controllers.NewAttachmentController(deps.EventService, deps.Store, log)
				owner := middleware.RequireOwnership(deps.EventService.Owner, log)
				events.POST("/:id/attachment", owner, attachmentController.Upload)
				events.GET("/:id/attachment", owner, attachmentController.Download)
			}
		}

		stats := api.Group("/stats")
		stats.Use(requireAuth)
		{
			stats.GET("/periods", statsController.GetPeriods)
			stats.GET("/daily", statsController.GetDaily)
			stats.GET("/weekly", statsController.GetWeekly)
			stats.GET("/category", statsController.GetCategory)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Ruta no encontrada",
		})
	})

	return router, stop
}

// corsConfig allows any origin outside production and the configured list in production
func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "ngrok-skip-browser-warning"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if !cfg.IsProduction() {
		c.AllowOriginFunc = func(string) bool { return true }
		return c
	}

	allowed := make(map[string]bool, len(cfg.CORSAllowedOrigins))
	for _, origin := range cfg.CORSAllowedOrigins {
		allowed[origin] = true
	}
	c.AllowOriginFunc = func(origin string) bool {
		return allowed[origin]
	}
	return c
}
