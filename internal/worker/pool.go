package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Kushalrock/reposignal-app/common/logger"
	"github.com/Kushalrock/reposignal-app/internal/queue"
)

type Config struct {
	Concurrency int // degree of parallelism across executors
}

// Pool runs a bounded set of concurrent executors over the cleanup queue.
// Executors share only the queue itself; each delivered job is claimed by
// exactly one executor, and there is no ordering guarantee across jobs,
// even for jobs targeting the same thread.
type Pool struct {
	consumer *queue.RedisConsumer
	executor Executor
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewPool(consumer *queue.RedisConsumer, executor Executor, cfg Config) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	return &Pool{
		consumer:  consumer,
		executor:  executor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run starts the executor goroutines and blocks until Stop() is called or
// the context is canceled.
func (p *Pool) Run(ctx context.Context) error {
	defer close(p.stoppedCh)

	slog.InfoContext(ctx, "cleanup worker pool started", "concurrency", p.cfg.Concurrency)

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.executorLoop(ctx)
		}()
	}

	wg.Wait()
	return ctx.Err()
}

// Stop signals all executors to stop and waits for them to drain.
func (p *Pool) Stop() {
	close(p.stopCh)
	<-p.stoppedCh
}

func (p *Pool) executorLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		default:
			if err := p.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on read errors
				time.Sleep(time.Second)
			}
		}
	}
}

func (p *Pool) processOneBatch(ctx context.Context) error {
	messages, err := p.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from channel: %w", err)
	}

	for _, msg := range messages {
		p.HandleMessage(ctx, msg)
	}

	return nil
}

// HandleMessage runs one delivered job through the executor and applies
// the resolved outcome. Exported so the reclaimer can reuse it.
func (p *Pool) HandleMessage(ctx context.Context, msg queue.Message) {
	env := msg.Envelope

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "reposignal.cleanup.worker",
		JobID:     logger.Ptr(env.Data.ID),
	})

	sc := logger.StartSpanFromTraceID(ctx, env.TraceID, "cleanup.execute")
	defer sc.End()
	ctx = sc.Context()

	slog.InfoContext(ctx, "running cleanup job",
		"message_id", msg.ID,
		"comment_id", env.Data.CommentID,
		"attempt", env.Attempt)

	err := p.executeSafe(ctx, env)
	res := Resolve(env, err)

	switch res.Outcome {
	case OutcomeCompleted:
		if ackErr := p.consumer.Ack(ctx, msg); ackErr != nil {
			// Job is done; a lost ack only means the reclaimer re-runs an
			// idempotent delete later.
			slog.WarnContext(ctx, "failed to ack completed job", "error", ackErr)
		}

	case OutcomeRetrying:
		sc.RecordError(res.Err)
		slog.WarnContext(ctx, "cleanup attempt failed, retrying",
			"error", res.Err,
			"attempt", env.Attempt,
			"next_delay", res.NextDelay)
		if reqErr := p.consumer.Reschedule(ctx, msg, env.Attempt+1, res.NextDelay); reqErr != nil {
			slog.ErrorContext(ctx, "failed to reschedule job", "error", reqErr)
		}

	case OutcomeFailed:
		sc.RecordError(res.Err)
		// Terminal: no further retries, no audit entry, job discarded.
		slog.ErrorContext(ctx, "cleanup job failed terminally",
			"error", res.Err,
			"attempts", env.Attempt)
		if discErr := p.consumer.Discard(ctx, msg); discErr != nil {
			slog.ErrorContext(ctx, "failed to discard job", "error", discErr)
		}
	}
}

func (p *Pool) executeSafe(ctx context.Context, env queue.Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in job execution",
				"panic", r,
				"job_id", env.Data.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.executor.Execute(ctx, env)
}
