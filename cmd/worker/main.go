package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kushalrock/reposignal-app/common/id"
	"github.com/Kushalrock/reposignal-app/common/logger"
	"github.com/Kushalrock/reposignal-app/common/otel"
	"github.com/Kushalrock/reposignal-app/core/config"
	"github.com/Kushalrock/reposignal-app/internal/backend"
	"github.com/Kushalrock/reposignal-app/internal/platform"
	"github.com/Kushalrock/reposignal-app/internal/queue"
	"github.com/Kushalrock/reposignal-app/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
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

	slog.InfoContext(ctx, "reposignal cleanup worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Cleanup.Group,
		"consumer_name", cfg.Cleanup.Consumer,
		"concurrency", cfg.Cleanup.Concurrency)

	// Different node ID than the server so snowflake IDs never collide
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
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
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "channel", cfg.Cleanup.Channel)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Channel:   cfg.Cleanup.Channel,
		Group:     cfg.Cleanup.Group,
		Consumer:  cfg.Cleanup.Consumer,
		BatchSize: 1, // One job per read; parallelism comes from the pool
		Block:     5 * time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	executor := worker.NewCleanupExecutor(platformClient, backendClient)

	pool := worker.NewPool(consumer, executor, worker.Config{
		Concurrency: cfg.Cleanup.Concurrency,
	})

	promoter := queue.NewPromoter(redisClient, queue.PromoterConfig{
		Channel:   cfg.Cleanup.Channel,
		Interval:  cfg.Cleanup.PromoteEvery,
		BatchSize: 100,
	})

	reclaimer := worker.NewReclaimer(redisClient, worker.ReclaimerConfig{
		Channel:   cfg.Cleanup.Channel,
		Group:     cfg.Cleanup.Group,
		Consumer:  cfg.Cleanup.Consumer + "-reclaimer",
		MinIdle:   cfg.Cleanup.ReclaimMinIdle,
		Interval:  time.Minute,
		BatchSize: 10,
	}, consumer, pool.HandleMessage)

	errCh := make(chan error, 3)
	go func() {
		errCh <- pool.Run(ctx)
	}()
	go func() {
		promoter.Run(ctx)
		errCh <- nil
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "cleanup worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop the feeders first, then drain the pool
	promoter.Stop()
	reclaimer.Stop()
	pool.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
██████╗ ███████╗██████╗  ██████╗ ███████╗██╗ ██████╗ ███╗   ██╗ █████╗ ██╗
██╔══██╗██╔════╝██╔══██╗██╔═══██╗██╔════╝██║██╔════╝ ████╗  ██║██╔══██╗██║
██████╔╝█████╗  ██████╔╝██║   ██║███████╗██║██║  ███╗██╔██╗ ██║███████║██║
██╔══██╗██╔══╝  ██╔═══╝ ██║   ██║╚════██║██║██║   ██║██║╚██╗██║██╔══██║██║
██║  ██║███████╗██║     ╚██████╔╝███████║██║╚██████╔╝██║ ╚████║██║  ██║███████╗
╚═╝  ╚═╝╚══════╝╚═╝      ╚═════╝ ╚══════╝╚═╝ ╚═════╝ ╚═╝  ╚═══╝╚═╝  ╚═╝╚══════╝
`
