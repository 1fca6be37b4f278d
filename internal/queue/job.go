package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Kushalrock/reposignal-app/internal/domain"
)

// JobNameDeleteComment is the only job kind this queue carries. The name,
// payload keys, and retry options below are part of the process-boundary
// contract: interoperating workers on the same channel must read and write
// the same shapes.
const JobNameDeleteComment = "delete-comment"

// DefaultChannel is the queue channel (Redis stream) name.
const DefaultChannel = "reposignal-cleanup"

// DefaultAttempts and DefaultBackoffBase are the fixed retry options every
// job is enqueued with: 3 attempts, exponential backoff from 5s.
const (
	DefaultAttempts    = 3
	DefaultBackoffBase = 5 * time.Second
)

// ScheduledSet returns the sorted-set key holding not-yet-due jobs for a
// channel, scored by ready-at in epoch milliseconds.
func ScheduledSet(channel string) string {
	return channel + ":scheduled"
}

// BackoffOptions mirror the enqueue-time retry policy on the wire.
type BackoffOptions struct {
	Type  string `json:"type"`
	Delay int64  `json:"delay"` // base delay in milliseconds
}

// JobOptions are the per-job scheduling options carried on the wire.
type JobOptions struct {
	Delay    int64          `json:"delay"` // milliseconds until first eligibility
	Attempts int            `json:"attempts"`
	Backoff  BackoffOptions `json:"backoff"`
}

// Envelope is the self-contained wire form of a scheduled job. It is the
// sorted-set member while the job is delayed and is reconstructed on every
// retry, so the attempt counter survives process boundaries.
type Envelope struct {
	Name    string            `json:"name"`
	Data    domain.CleanupJob `json:"data"`
	Opts    JobOptions        `json:"opts"`
	Attempt int               `json:"attempt"`
	TraceID string            `json:"traceId,omitempty"`
}

// NewEnvelope wraps a cleanup job with the fixed delete-comment options.
func NewEnvelope(job domain.CleanupJob, delay time.Duration, traceID string) Envelope {
	return Envelope{
		Name: JobNameDeleteComment,
		Data: job,
		Opts: JobOptions{
			Delay:    delay.Milliseconds(),
			Attempts: DefaultAttempts,
			Backoff: BackoffOptions{
				Type:  "exponential",
				Delay: DefaultBackoffBase.Milliseconds(),
			},
		},
		Attempt: 1,
		TraceID: traceID,
	}
}

func (e Envelope) Marshal() (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshaling job envelope: %w", err)
	}
	return string(raw), nil
}

func ParseEnvelope(raw string) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Envelope{}, fmt.Errorf("parsing job envelope: %w", err)
	}
	if e.Name == "" {
		return Envelope{}, fmt.Errorf("missing job name")
	}
	if e.Data.Owner == "" || e.Data.Repo == "" || e.Data.CommentID == 0 {
		return Envelope{}, fmt.Errorf("incomplete %s payload", e.Name)
	}
	if e.Attempt <= 0 {
		e.Attempt = 1
	}
	return e, nil
}
