package worker

import (
	"time"

	"github.com/Kushalrock/reposignal-app/internal/queue"
)

// Outcome is the terminal classification of one job execution attempt.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeRetrying
	OutcomeFailed
)

// Result is what one execution attempt resolved to. Retrying carries the
// backoff delay before the job becomes eligible again; the supervising
// loop consumes this instead of callback-style completion events.
type Result struct {
	Outcome   Outcome
	NextDelay time.Duration
	Err       error
}

// Resolve applies the retry policy to an execution error. Attempt counts
// are 1-based; once the attempt reaches the job's configured ceiling the
// job fails terminally. Backoff doubles per attempt from the base delay:
// 5s, 10s, 20s under the default options.
func Resolve(env queue.Envelope, err error) Result {
	if err == nil {
		return Result{Outcome: OutcomeCompleted}
	}

	maxAttempts := env.Opts.Attempts
	if maxAttempts <= 0 {
		maxAttempts = queue.DefaultAttempts
	}
	if env.Attempt >= maxAttempts {
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	base := time.Duration(env.Opts.Backoff.Delay) * time.Millisecond
	if base <= 0 {
		base = queue.DefaultBackoffBase
	}

	delay := base << (env.Attempt - 1)
	return Result{Outcome: OutcomeRetrying, NextDelay: delay, Err: err}
}
