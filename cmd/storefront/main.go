package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"duck-storefront/config"
	"duck-storefront/internal/api"
	"duck-storefront/internal/broker"
	"duck-storefront/internal/gateway"
	"duck-storefront/internal/notify"
	"duck-storefront/internal/redisclient"
	"duck-storefront/internal/service"
	"duck-storefront/internal/session"
	"duck-storefront/internal/store"
	"duck-storefront/internal/util"
	"duck-storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Observ.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting duck storefront")

	tp, err := util.InitTracer(util.TracerConfig{
		Endpoint:    cfg.Observ.JaegerEndpoint,
		Environment: cfg.Server.Env,
		SampleRatio: cfg.Observ.TraceSampleRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to prepare database: %v", err)
	}
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicEvents))

	eventPublisher := broker.NewEventPublisher(producer)

	backend := gateway.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	accounts := gateway.NewAccountGateway(backend)
	inventory := gateway.NewInventoryGateway(backend)
	carts := gateway.NewCartGateway(backend)
	customDucks := gateway.NewCustomDuckGateway(backend)

	sessions := session.NewRedisStore(redisClient, cfg.Session.TTL)
	inbox := notify.NewRedisInbox(redisClient, cfg.Session.InboxSize, cfg.Session.TTL)

	pages := service.NewPageLoader(accounts, inventory, carts, customDucks)
	storefront := service.NewStorefrontService(accounts, inventory, carts, sessions, inbox, pages)
	receipts := service.NewReceiptService(db)
	engine := service.NewCheckoutEngine(
		carts,
		customDucks,
		service.NewPaymentService(),
		eventPublisher,
		service.NewGuard(redisClient, cfg.Checkout.LockTTL),
		cfg.Checkout.CleanupParallelism,
	)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	receiptConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
	receiptWorker := worker.NewReceiptWorker(receiptConsumer, receipts)
	go func() {
		if err := receiptWorker.Start(workerCtx); err != nil {
			logger.Error("Receipt worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if cfg.Server.Env != "production" {
		router.Use(gin.Logger())
	}
	handler := api.NewHandler(api.Dependencies{
		Storefront:    storefront,
		Pages:         pages,
		Checkout:      engine,
		Receipts:      receipts,
		Sessions:      sessions,
		Tokens:        session.NewTokens(cfg.Session.Secret, cfg.Session.TTL),
		Inbox:         inbox,
		SecureCookies: cfg.Server.Env == "production",
		Ready: map[string]api.Pinger{
			"postgres": db,
			"redis":    redisClient,
		},
	})
	handler.SetupRoutes(router)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: corsHandler,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	var metricsSrv *http.Server
	if cfg.Observ.PrometheusPort != "" && cfg.Observ.PrometheusPort != cfg.Server.Port {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: fmt.Sprintf(":%s", cfg.Observ.PrometheusPort), Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server error", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	workerCancel()
	if err := receiptWorker.Stop(); err != nil {
		logger.Warn("Receipt worker did not stop cleanly", zap.Error(err))
	}

	logger.Info("Server exited")
}
