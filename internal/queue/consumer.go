package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kushalrock/reposignal-app/common/logger"
)

type ConsumerConfig struct {
	Channel   string        // Redis stream name (the queue channel)
	Group     string        // Redis consumer group name
	Consumer  string        // Redis consumer name
	BatchSize int64         // Number of jobs to claim per read
	Block     time.Duration // How long to block/poll for new jobs
}

// Message is one delivered job. Each message is claimed by exactly one
// consumer in the group at a time; that claim is the queue's only point
// of mutual exclusion.
type Message struct {
	ID       string
	Envelope Envelope
	Raw      redis.XMessage
}

// MessageProcessor processes one delivered job.
type MessageProcessor func(ctx context.Context, msg Message) error

type RedisConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

func NewRedisConsumer(client *redis.Client, cfg ConsumerConfig) (*RedisConsumer, error) {
	consumer := &RedisConsumer{
		client: client,
		cfg:    cfg,
	}

	if err := consumer.ensureGroup(context.Background()); err != nil { //nolint:contextcheck
		return nil, err
	}

	return consumer, nil
}

func (c *RedisConsumer) ensureGroup(ctx context.Context) error {
	// Consumer groups are just readers, jobs live in the stream itself.
	// Starting from "0" instead of "$" means we don't lose jobs that were
	// promoted while no worker was running.
	if err := c.client.XGroupCreateMkStream(ctx, c.cfg.Channel, c.cfg.Group, "0").Err(); err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "reposignal.queue.consumer",
	})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		// > = new jobs not yet delivered to anyone. Unacked jobs from dead
		// consumers are handled by the reclaimer on a separate goroutine.
		Streams: []string{c.cfg.Channel, ">"},
		Count:   c.cfg.BatchSize,
		Block:   c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("reading from channel: %w", err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			parsed, parseErr := ParseMessage(msg)
			if parseErr != nil {
				slog.ErrorContext(ctx, "failed to parse job",
					"error", parseErr,
					"raw_message_id", msg.ID,
					"channel", c.cfg.Channel)
				_ = c.Ack(ctx, Message{ID: msg.ID, Raw: msg})
				continue
			}
			messages = append(messages, parsed)
		}
	}

	if len(messages) > 0 {
		slog.DebugContext(ctx, "read jobs from channel",
			"count", len(messages),
			"channel", c.cfg.Channel,
			"consumer", c.cfg.Consumer)
	}

	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Channel, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack (channel=%s): %w", c.cfg.Channel, err)
	}

	slog.DebugContext(ctx, "job acknowledged", "channel", c.cfg.Channel)
	return nil
}

// Reschedule acknowledges the delivered message and re-enters the job into
// the scheduled set with the given attempt counter, eligible again after
// the backoff delay. The retry decision itself belongs to the worker; this
// is only the mechanics.
func (c *RedisConsumer) Reschedule(ctx context.Context, msg Message, attempt int, delay time.Duration) error {
	if err := c.Ack(ctx, msg); err != nil {
		return fmt.Errorf("acking job for reschedule: %w", err)
	}

	env := msg.Envelope
	env.Attempt = attempt

	member, err := env.Marshal()
	if err != nil {
		return err
	}

	readyAt := time.Now().Add(delay)
	if err := c.client.ZAdd(ctx, ScheduledSet(c.cfg.Channel), redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: member,
	}).Err(); err != nil {
		return fmt.Errorf("rescheduling job: %w", err)
	}

	slog.InfoContext(ctx, "job rescheduled for retry",
		"next_attempt", attempt,
		"delay_ms", delay.Milliseconds())
	return nil
}

// Discard acknowledges the message and drops the job. Terminal failures
// use this; there is deliberately no dead-letter stream, a job either
// completes or is gone after retry exhaustion.
func (c *RedisConsumer) Discard(ctx context.Context, msg Message) error {
	return c.Ack(ctx, msg)
}

func ParseMessage(msg redis.XMessage) (Message, error) {
	raw, ok := msg.Values["job"]
	if !ok {
		return Message{}, fmt.Errorf("missing job field")
	}

	env, err := ParseEnvelope(fmt.Sprint(raw))
	if err != nil {
		return Message{}, err
	}

	return Message{
		ID:       msg.ID,
		Envelope: env,
		Raw:      msg,
	}, nil
}
