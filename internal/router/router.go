package router

import (
	"context"
	"time"

	"cantina/internal/access"
	"cantina/internal/config"
	"cantina/internal/handler"
	"cantina/internal/infra"
	"cantina/internal/middleware"
	"cantina/internal/repository"
	"cantina/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Deps are the long-lived collaborators built in cmd/server.
// Redis, Jobs and MailBreaker are nil when Redis is not configured.
type Deps struct {
	Store       *repository.EntityStore
	Redis       *redis.Client
	Jobs        service.JobDispatcher
	MailBreaker *infra.Breaker
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← EntityStore ← DB/Redis
// Rate limiter buckets are purged until ctx is cancelled.
func New(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	globalLimiter := middleware.RateLimiter(1000, time.Minute) // 1000 req/min per IP
	loginLimiter := middleware.LoginRateLimiter()
	globalLimiter.StartPurge(ctx)
	loginLimiter.StartPurge(ctx)

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(globalLimiter.Handler())

	store := deps.Store

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(store.Users, cfg)
	studentSvc := service.NewStudentService(store)
	productSvc := service.NewProductService(store)
	ledgerSvc := service.NewLedgerService(store, deps.Jobs)
	settingsSvc := service.NewSettingsService(store)
	reportSvc := service.NewReportService(store)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	studentsH := handler.NewStudentsHandler(studentSvc, ledgerSvc)
	productsH := handler.NewProductsHandler(productSvc, ledgerSvc)
	transactionsH := handler.NewTransactionsHandler(ledgerSvc)
	restocksH := handler.NewRestocksHandler(ledgerSvc)
	settingsH := handler.NewSettingsHandler(settingsSvc)
	reportsH := handler.NewReportsHandler(reportSvc)
	eventsH := handler.NewEventsHandler(store)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(store.DB(), deps.Redis, deps.MailBreaker))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", loginLimiter.Handler(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes. Every role may call every ledger operation; the
	// school scope set by JWTAuth narrows what each one sees.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		students := v1.Group("/students")
		{
			students.POST("", studentsH.Create)
			students.GET("", studentsH.List)
			students.GET("/:id", studentsH.Get)
			students.PUT("/:id", studentsH.Update)
			students.PATCH("/:id/active", studentsH.SetActive)
			students.DELETE("/:id", studentsH.Delete)
			students.POST("/:id/deposits", studentsH.Deposit)
			students.POST("/:id/purchases", studentsH.Purchase)
		}

		txs := v1.Group("/transactions")
		{
			txs.GET("", transactionsH.List)
			txs.GET("/:id", transactionsH.Get)
			txs.PATCH("/:id", transactionsH.UpdateDescription)
			txs.DELETE("/:id", transactionsH.Reverse)
		}

		products := v1.Group("/products")
		{
			products.POST("", productsH.Create)
			products.GET("", productsH.List)
			products.GET("/:id", productsH.Get)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Delete)
			products.POST("/:id/restock", productsH.Restock)
			products.GET("/:id/movements", productsH.Movements)
		}

		v1.POST("/restocks", restocksH.Bulk)
		v1.GET("/invoices", restocksH.Invoices)

		v1.GET("/settings", settingsH.Get)
		v1.PATCH("/settings", middleware.RequireRole(access.RoleAdmin), settingsH.Update)

		reports := v1.Group("/reports")
		{
			reports.GET("/financial", reportsH.Financial)
			reports.GET("/stock", reportsH.Stock)
			reports.GET("/dashboard", reportsH.Dashboard)
			reports.GET("/low-stock", reportsH.LowStock)
		}

		v1.GET("/events", eventsH.Stream)

		if deps.Redis != nil {
			v1.GET("/admin/dead-letters", middleware.RequireRole(access.RoleAdmin), handler.DeadLetters(deps.Redis))
		}
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
