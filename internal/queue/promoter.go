package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kushalrock/reposignal-app/common/logger"
)

type PromoterConfig struct {
	Channel   string        // queue channel whose scheduled set is promoted
	Interval  time.Duration // how often to look for due jobs
	BatchSize int64         // max jobs promoted per cycle
}

// Promoter moves due jobs from the scheduled sorted set into the stream,
// where the consumer group picks them up. Promotion is XADD-then-ZREM: a
// crash between the two redelivers the job, which the executor's
// retry/give-up policy absorbs (comment deletion tolerates double delivery).
type Promoter struct {
	client *redis.Client
	cfg    PromoterConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewPromoter(client *redis.Client, cfg PromoterConfig) *Promoter {
	return &Promoter{
		client:    client,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run starts the promotion loop. Blocks until Stop() is called.
func (p *Promoter) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "reposignal.queue.promoter",
	})

	defer close(p.stoppedCh)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "promoter started",
		"channel", p.cfg.Channel,
		"interval", p.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			slog.InfoContext(ctx, "promoter stopping")
			return
		case <-ticker.C:
			if err := p.promoteOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "promotion cycle error", "error", err)
			}
		}
	}
}

// Stop signals the promoter to stop gracefully.
func (p *Promoter) Stop() {
	close(p.stopCh)
	<-p.stoppedCh
}

func (p *Promoter) promoteOnce(ctx context.Context) error {
	now := time.Now().UnixMilli()

	due, err := p.client.ZRangeByScore(ctx, ScheduledSet(p.cfg.Channel), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now, 10),
		Count: p.cfg.BatchSize,
	}).Result()
	if err != nil {
		return fmt.Errorf("listing due jobs: %w", err)
	}

	for _, member := range due {
		if err := p.promoteMember(ctx, member); err != nil {
			slog.ErrorContext(ctx, "failed to promote job", "error", err)
			// Continue with other members; this one stays scheduled.
		}
	}

	return nil
}

func (p *Promoter) promoteMember(ctx context.Context, member string) error {
	env, err := ParseEnvelope(member)
	if err != nil {
		// Unparseable members would loop forever; drop them.
		slog.ErrorContext(ctx, "dropping malformed scheduled job", "error", err)
		return p.client.ZRem(ctx, ScheduledSet(p.cfg.Channel), member).Err()
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.cfg.Channel,
		Values: map[string]any{"job": member},
	}).Err(); err != nil {
		return fmt.Errorf("xadd promoted job: %w", err)
	}

	if err := p.client.ZRem(ctx, ScheduledSet(p.cfg.Channel), member).Err(); err != nil {
		return fmt.Errorf("zrem promoted job: %w", err)
	}

	slog.DebugContext(ctx, "job promoted",
		"job_id", env.Data.ID,
		"attempt", env.Attempt,
		"channel", p.cfg.Channel)
	return nil
}
