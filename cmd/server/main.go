package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Kushalrock/reposignal-app/common/id"
	"github.com/Kushalrock/reposignal-app/common/logger"
	"github.com/Kushalrock/reposignal-app/common/otel"
	"github.com/Kushalrock/reposignal-app/core/config"
	"github.com/Kushalrock/reposignal-app/internal/backend"
	"github.com/Kushalrock/reposignal-app/internal/dispatch"
	"github.com/Kushalrock/reposignal-app/internal/events"
	"github.com/Kushalrock/reposignal-app/internal/http/middleware"
	httprouter "github.com/Kushalrock/reposignal-app/internal/http/router"
	"github.com/Kushalrock/reposignal-app/internal/platform"
	"github.com/Kushalrock/reposignal-app/internal/queue"
	"github.com/Kushalrock/reposignal-app/internal/validate"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "reposignal server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	platformClient, err := platform.NewClient(cfg.GitHub)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create platform client", "error", err)
		os.Exit(1)
	}

	backendClient := backend.NewClient(cfg.Backend)

	redisOpts, err := redis.ParseURL(cfg.Cleanup.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "redis connected", "channel", cfg.Cleanup.Channel)

	scheduler := queue.NewRedisScheduler(redisClient, cfg.Cleanup.Channel, slog.Default())
	defer scheduler.Close()

	validator := validate.New(platformClient)
	dispatcher := dispatch.New(backendClient, platformClient, scheduler, validator)

	table := events.NewTable()
	events.NewHandlers(dispatcher, backendClient).RegisterAll(table)
	slog.InfoContext(ctx, "event handlers registered", "kinds", table.Kinds())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, table)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, table *events.Table) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span, Recovery catches panics, Logger
	// logs with trace context already attached.
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, table, httprouter.RouterConfig{
		WebhookSecret: cfg.GitHub.WebhookSecret,
	})

	return router
}

const banner = `
██████╗ ███████╗██████╗  ██████╗ ███████╗██╗ ██████╗ ███╗   ██╗ █████╗ ██╗
██╔══██╗██╔════╝██╔══██╗██╔═══██╗██╔════╝██║██╔════╝ ████╗  ██║██╔══██╗██║
██████╔╝█████╗  ██████╔╝██║   ██║███████╗██║██║  ███╗██╔██╗ ██║███████║██║
██╔══██╗██╔══╝  ██╔═══╝ ██║   ██║╚════██║██║██║   ██║██║╚██╗██║██╔══██║██║
██║  ██║███████╗██║     ╚██████╔╝███████║██║╚██████╔╝██║ ╚████║██║  ██║███████╗
╚═╝  ╚═╝╚══════╝╚═╝      ╚═════╝ ╚══════╝╚═╝ ╚═════╝ ╚═╝  ╚═══╝╚═╝  ╚═╝╚══════╝
`
