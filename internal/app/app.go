package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	marketHTTP "codemarket/internal/controller/http"
	"codemarket/internal/repo/persistent"
	"codemarket/internal/usecase"
	"codemarket/pkg/cache"
	"codemarket/pkg/config"
	"codemarket/pkg/database"
	"codemarket/pkg/jwt"
	"codemarket/pkg/logger"
	"codemarket/pkg/middleware"
	"codemarket/pkg/queue"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type App struct {
	cfg         *config.Config
	log         *logger.Logger
	db          *gorm.DB
	redisClient *redis.Client
	queueClient *queue.Client
	jwtService  *jwt.Service
	httpServer  *http.Server
	stopSweeper chan struct{}
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logger.New()

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		return nil, err
	}

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v (continuing without queue)", err)
		queueClient = nil
	}

	jwtService := jwt.NewService(cfg.JWTSecret)

	return &App{
		cfg:         cfg,
		log:         log,
		db:          db,
		redisClient: redisClient,
		queueClient: queueClient,
		jwtService:  jwtService,
		stopSweeper: make(chan struct{}),
	}, nil
}

func (a *App) Run() error {
	// Initialize repositories
	pointRepo := persistent.NewPointRepository(a.db)
	orderRepo := persistent.NewOrderRepository(a.db)

	// Initialize use cases
	ledgerUseCase := usecase.NewLedgerUseCase(a.db, pointRepo, a.log)
	catalog := usecase.NewRedisProjectCatalog(a.redisClient)

	var publisher usecase.EventPublisher
	if a.queueClient != nil {
		publisher = a.queueClient
	}

	orderUseCase := usecase.NewOrderUseCase(
		a.db,
		orderRepo,
		ledgerUseCase,
		catalog,
		publisher,
		a.log,
		time.Duration(a.cfg.OrderTimeoutMinutes)*time.Minute,
		time.Duration(a.cfg.OrderAutoCompleteDays)*24*time.Hour,
	)

	// Initialize HTTP handlers
	pointHandler := marketHTTP.NewPointHandler(ledgerUseCase, a.log)
	orderHandler := marketHTTP.NewOrderHandler(orderUseCase, a.log)

	// Setup router
	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(a.jwtService))
	if a.redisClient != nil {
		api.Use(middleware.RateLimitMiddleware(a.redisClient, 100, time.Minute))
	}
	{
		points := api.Group("/points")
		{
			points.GET("/account", pointHandler.GetAccount)
			points.POST("/recharge", pointHandler.Recharge)
			points.POST("/transfer", pointHandler.Transfer)
			points.GET("/transactions", pointHandler.GetTransactions)
			points.GET("/statistics", pointHandler.GetStatistics)
			points.POST("/adjust", pointHandler.AdjustPoints)
			points.POST("/batch-reward", pointHandler.BatchReward)
			points.GET("/audit", pointHandler.AuditAccounts)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("/purchases", orderHandler.ListPurchases)
			orders.GET("/sales", orderHandler.ListSales)
			orders.GET("/stats", orderHandler.GetOrderStats)
			orders.GET("/projects/:project_id/stats", orderHandler.GetProjectSalesStats)
			orders.GET("/:order_no", orderHandler.GetOrder)
			orders.POST("/:order_no/pay", orderHandler.PayOrder)
			orders.POST("/:order_no/complete", orderHandler.CompleteOrder)
			orders.POST("/:order_no/cancel", orderHandler.CancelOrder)
			orders.POST("/:order_no/refund", orderHandler.RefundOrder)
		}
	}

	// Background sweeps for payment timeouts and unconfirmed deliveries
	go a.runSweeper(orderUseCase)

	// Create HTTP server
	a.httpServer = &http.Server{
		Addr:    ":" + a.cfg.ServerPort,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		a.log.Info("Codemarket service starting on port %s", a.cfg.ServerPort)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	return nil
}

// runSweeper periodically cancels timed out orders and settles paid orders
// the buyer never confirmed.
func (a *App) runSweeper(orderUseCase usecase.OrderUseCase) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := orderUseCase.HandleTimeoutOrders(); err != nil {
				a.log.Error("Timeout sweep failed: %v", err)
			}
			if _, err := orderUseCase.AutoCompleteOrders(); err != nil {
				a.log.Error("Auto complete sweep failed: %v", err)
			}
		case <-a.stopSweeper:
			return
		}
	}
}

func (a *App) Wait() {
	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	a.log.Info("Shutting down codemarket service...")
}

func (a *App) Shutdown() error {
	// The context is used to inform the server it has 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	close(a.stopSweeper)

	// Close database connection
	sqlDB, err := a.db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			a.log.Error("Error closing database: %v", err)
		}
	}

	// Close Redis connection
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("Error closing Redis: %v", err)
		}
	}

	// Close RabbitMQ connection
	if a.queueClient != nil {
		if err := a.queueClient.Close(); err != nil {
			a.log.Error("Error closing RabbitMQ: %v", err)
		}
	}

	// Shutdown server
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.log.Error("Server forced to shutdown: %v", err)
		return err
	}

	a.log.Info("Codemarket service exited")
	return nil
}
