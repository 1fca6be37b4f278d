package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kushalrock/reposignal-app/internal/domain"
)

// Scheduler accepts a cleanup obligation and durably records that it
// becomes eligible no earlier than now + delay. Scheduling never blocks
// the caller on execution; jobs are uncorrelated with one another.
type Scheduler interface {
	Schedule(ctx context.Context, job domain.CleanupJob, delay time.Duration) error
	Close() error
}

type redisScheduler struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisScheduler(client *redis.Client, channel string, logger *slog.Logger) Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisScheduler{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (s *redisScheduler) Schedule(ctx context.Context, job domain.CleanupJob, delay time.Duration) error {
	traceID := traceIDFromContext(ctx)

	member, err := NewEnvelope(job, delay, traceID).Marshal()
	if err != nil {
		return err
	}

	readyAt := time.Now().Add(delay)
	if err := s.client.ZAdd(ctx, ScheduledSet(s.channel), redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: member,
	}).Err(); err != nil {
		return fmt.Errorf("scheduling cleanup job: %w", err)
	}

	s.logger.InfoContext(ctx, "cleanup job scheduled",
		"job_id", job.ID,
		"comment_id", job.CommentID,
		"repo", job.Owner+"/"+job.Repo,
		"delay_ms", delay.Milliseconds())
	return nil
}

func (s *redisScheduler) Close() error {
	return s.client.Close()
}
