package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hiryo-backoffice/cache"
	"hiryo-backoffice/config"
	"hiryo-backoffice/consumers"
	"hiryo-backoffice/controllers"
	"hiryo-backoffice/database"
	"hiryo-backoffice/middlewares"
	"hiryo-backoffice/rabbitmq"
	"hiryo-backoffice/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.LoadConfig()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = randomSecret()
		slog.Warn("JWT_SECRET not set, admin tokens will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		slog.Error("Database initialization failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		applied, err := database.Migrate(ctx, db, database.Migrations())
		if err != nil {
			slog.Error("Migration failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Migrations applied", "versions", applied)
	}

	st := store.New(db, cfg)

	var dashboardCache *cache.DashboardCache
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("Redis unavailable, dashboard statistics will not be cached", "error", err)
		} else {
			defer client.Close()
			dashboardCache = cache.NewDashboardCache(client, cfg.DashboardCacheTTL)
		}
	}

	var publisher controllers.EventPublisher
	if cfg.RabbitMQURL != "" {
		rmq, err := setupRabbitMQ(ctx, cfg, dashboardCache)
		if err != nil {
			slog.Warn("RabbitMQ unavailable, order events will not be published", "error", err)
		} else {
			defer rmq.Close()
			publisher = rmq
		}
	}

	var (
		statsCache       controllers.DashboardCache
		statsInvalidator controllers.StatsInvalidator
	)
	if dashboardCache != nil {
		statsCache = dashboardCache
		statsInvalidator = dashboardCache
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middlewares.RequestID(),
		middlewares.RequestLogger(logger),
		middlewares.PrometheusMiddleware(),
		middlewares.CORS(cfg.CORSAllowOrigins),
	)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := st.Ping(pingCtx); err != nil {
			slog.Error("Health check failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
	})

	orders := controllers.NewOrderController(st, publisher, statsInvalidator)
	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware(cfg.JWTSecret))
	controllers.RegisterRoutes(api, controllers.Controllers{
		Orders:        orders,
		Transactions:  controllers.NewTransactionController(st, orders, statsInvalidator),
		Products:      controllers.NewProductController(st, statsInvalidator),
		Notifications: controllers.NewNotificationController(st, st, publisher),
		Users:         controllers.NewUserController(st, statsInvalidator),
		Admin:         controllers.NewAdminController(st, cfg.JWTSecret, cfg.JWTTTL),
		Dashboard:     controllers.NewDashboardController(st, statsCache),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Hiryo back-office starting", "port", cfg.Port, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	if dashboardCache != nil {
		slog.Info("Dashboard cache usage", "stats", dashboardCache.Stats())
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// setupRabbitMQ declares the order queues and starts the event consumer.
func setupRabbitMQ(ctx context.Context, cfg *config.Config, dashboardCache *cache.DashboardCache) (*rabbitmq.RabbitMQ, error) {
	rmq, err := rabbitmq.NewRabbitMQ(cfg)
	if err != nil {
		return nil, err
	}
	if err := rmq.SetupQueues(); err != nil {
		return nil, errors.Join(err, rmq.Close())
	}

	consumer := consumers.NewOrderConsumer(nil, slog.Default())
	if dashboardCache != nil {
		consumer = consumers.NewOrderConsumer(dashboardCache, slog.Default())
	}
	if err := consumer.Start(ctx, rmq.Channel, cfg); err != nil {
		return nil, errors.Join(err, rmq.Close())
	}
	return rmq, nil
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
