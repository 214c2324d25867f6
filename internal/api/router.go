package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/bidgate/rfp-platform/docs"
	"github.com/bidgate/rfp-platform/internal/api/handler"
	"github.com/bidgate/rfp-platform/internal/api/middleware"
	"github.com/bidgate/rfp-platform/internal/core/domain"
	"github.com/bidgate/rfp-platform/internal/core/ports"
	"github.com/bidgate/rfp-platform/internal/core/service"
	"github.com/bidgate/rfp-platform/internal/infrastructure/config"
	mongodb "github.com/bidgate/rfp-platform/internal/infrastructure/db/mongo"
	redisdb "github.com/bidgate/rfp-platform/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, audit ports.AuditSink, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("rfp"))

	devMode := cfg.Env == "development"

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	productRepo := mongodb.NewProductRepository(db)
	rfpRepo := mongodb.NewRFPRepository(db)
	auditRepo := mongodb.NewAuditRepository(db)

	sessionStore := redisdb.NewSessionStore(rdb)
	resetStore := redisdb.NewResetStore(rdb)
	limiter := redisdb.NewLoginLimiter(rdb)

	authService := service.NewAuthService(userRepo, sessionStore, resetStore, limiter, audit,
		cfg.JWTSecret, cfg.TokenTTL, cfg.AppBaseURL, log)
	productService := service.NewProductService(productRepo, audit, log)
	rfpService := service.NewRFPService(rfpRepo, audit, log)

	authHandler := handler.NewAuthHandler(authService, devMode)
	productHandler := handler.NewProductHandler(productService)
	rfpHandler := handler.NewRFPHandler(rfpService)
	userHandler := handler.NewUserHandler(userRepo, auditRepo)

	authed := middleware.Auth(authService)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/guest", authHandler.Guest)
	auth.POST("/guest/exit", authHandler.GuestExit)
	auth.POST("/reset-password", authHandler.RequestReset)
	auth.POST("/update-password", authHandler.UpdatePassword)
	auth.GET("/session", authHandler.Session, authed)

	// --- Catalog routes (guests may read; services gate mutations) ---
	products := e.Group("/api/products", authed)
	products.GET("", productHandler.List)
	products.GET("/:id", productHandler.Get)
	products.POST("", productHandler.Create)
	products.PUT("/:id", productHandler.Update)
	products.DELETE("/:id", productHandler.Delete)

	rfps := e.Group("/api/rfps", authed)
	rfps.GET("", rfpHandler.List)
	rfps.GET("/:id", rfpHandler.Get)
	rfps.POST("", rfpHandler.Create)
	rfps.PUT("/:id", rfpHandler.Update)
	rfps.PATCH("/:id/status", rfpHandler.UpdateStatus)
	rfps.DELETE("/:id", rfpHandler.Delete)

	// --- Admin routes ---
	admin := e.Group("/api/users", authed, middleware.RBAC(domain.RoleAdmin))
	admin.GET("", userHandler.List)
	admin.GET("/:id/audit", userHandler.Audit)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)          // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	return e
}
