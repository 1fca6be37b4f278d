package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Kushalrock/reposignal-app/common/logger"
	"github.com/Kushalrock/reposignal-app/internal/backend"
	"github.com/Kushalrock/reposignal-app/internal/domain"
	"github.com/Kushalrock/reposignal-app/internal/platform"
	"github.com/Kushalrock/reposignal-app/internal/queue"
)

// Executor performs one execution attempt of a delivered job.
type Executor interface {
	Execute(ctx context.Context, env queue.Envelope) error
}

// CleanupExecutor deletes the target comment and records a system-actor
// audit entry for the removal. Deletion is the only mutation ever applied
// to the target; a double delete surfaces as a retryable error upstream.
type CleanupExecutor struct {
	platform platform.Client
	backend  backend.Client
}

func NewCleanupExecutor(p platform.Client, b backend.Client) *CleanupExecutor {
	return &CleanupExecutor{platform: p, backend: b}
}

func (e *CleanupExecutor) Execute(ctx context.Context, env queue.Envelope) error {
	job := env.Data

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "reposignal.cleanup.executor",
		JobID:     logger.Ptr(job.ID),
		Repo:      logger.Ptr(job.Owner + "/" + job.Repo),
		CommentID: logger.Ptr(job.CommentID),
	})

	if err := e.platform.DeleteComment(ctx, job.Owner, job.Repo, job.CommentID); err != nil {
		return fmt.Errorf("executing %s: %w", env.Name, err)
	}

	entityRef := job.Owner + "/" + job.Repo
	if job.IssueNumber != nil {
		entityRef = fmt.Sprintf("%s#%d", entityRef, *job.IssueNumber)
	}

	entry := domain.LogEntry{
		ActorRole: domain.RoleSystem,
		Action:    "remove_comment",
		EntityRef: entityRef,
		Context:   fmt.Sprintf("removed comment %d", job.CommentID),
	}
	if err := e.backend.WriteLog(ctx, entry); err != nil {
		// The comment is already gone; retrying the job would only
		// re-attempt an idempotent delete. Surface the audit miss to
		// operational logging and complete.
		slog.WarnContext(ctx, "failed to write cleanup audit entry", "error", err)
	}

	slog.InfoContext(ctx, "comment removed")
	return nil
}
