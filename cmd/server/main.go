package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"terminbot/internal/api/router"
	appconfig "terminbot/internal/config"
	"terminbot/internal/conversation"
	"terminbot/internal/gcal"
	"terminbot/internal/notify"
	"terminbot/internal/observability/metrics"
	"terminbot/internal/tenant"
	"terminbot/internal/whatsapp"
	"terminbot/pkg/logging"
)

func main() {
	// Load .env if present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting terminbot server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	tenants, err := tenant.LoadRegistry(cfg.TenantsFile)
	if err != nil {
		logger.Error("failed to load tenant registry", "error", err, "path", cfg.TenantsFile)
		os.Exit(1)
	}
	logger.Info("tenant registry loaded", "tenants", tenants.Len())

	ctx := context.Background()

	// Session state and rate limiting fall back to in-memory stores when
	// Redis is not configured or unreachable.
	redisClient := buildRedisClient(ctx, cfg, logger)
	var sessions conversation.SessionStore
	var limiter conversation.Limiter
	if redisClient != nil {
		sessions = conversation.NewRedisSessionStore(redisClient)
		limiter = conversation.NewRedisLimiter(redisClient, cfg.RateLimitCooldown)
		logger.Info("using redis-backed conversation state", "addr", cfg.RedisAddr)
	} else {
		sessions = conversation.NewMemorySessionStore()
		limiter = conversation.NewMemoryLimiter(cfg.RateLimitCooldown)
		logger.Info("using in-memory conversation state")
	}

	// Without credentials the service still starts, with every calendar
	// operation failing: useful in development, loud in the logs.
	var calendarService conversation.CalendarService
	if cfg.GoogleCredentialsFile != "" {
		client, err := gcal.NewClient(ctx, logger, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
		if err != nil {
			logger.Error("failed to create calendar client", "error", err)
			os.Exit(1)
		}
		calendarService = client
	} else {
		logger.Warn("GOOGLE_CREDENTIALS_FILE not set, calendar integration disabled; no bookings can be made")
		calendarService = gcal.Disabled{}
	}

	waClient := whatsapp.NewClient(cfg.WAAccessToken)
	if cfg.WAGraphAPIBase != "" {
		waClient.SetGraphAPIBase(cfg.WAGraphAPIBase)
	}

	// Keep the concrete pointer until the nil check: a nil *SendGridSender
	// inside the EmailSender interface would not compare equal to nil.
	sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	var notifier conversation.BookingNotifier
	if sender != nil {
		notifier = notify.NewBookingNotifier(sender, logger)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	botMetrics := metrics.NewBotMetrics(registry)

	machine := conversation.NewMachine(sessions, calendarService, waClient, notifier, botMetrics, logger)
	orchestrator := conversation.NewOrchestrator(tenants, machine, limiter, botMetrics, logger)

	queue := conversation.NewQueue(cfg.QueueBuffer)
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go queue.Run(workerCtx, orchestrator, logger)

	webhook := whatsapp.NewWebhookHandler(cfg.VerifyToken, logger, func(msg whatsapp.InboundMessage) {
		if !queue.TryEnqueue(msg) {
			logger.Warn("message queue full, dropping message", "from", msg.From)
			botMetrics.ObserveDrop("queue_full")
		}
	})

	r := router.New(&router.Config{
		Webhook:        webhook,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	stopWorker()

	logger.Info("server stopped")
}

// buildRedisClient returns a ping-verified Redis client or nil when Redis is
// not configured or unreachable.
func buildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, falling back to in-memory state", "error", err)
		return nil
	}
	return client
}
