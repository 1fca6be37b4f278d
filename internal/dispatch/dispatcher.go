package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Kushalrock/reposignal-app/common/id"
	"github.com/Kushalrock/reposignal-app/common/logger"
	"github.com/Kushalrock/reposignal-app/internal/backend"
	"github.com/Kushalrock/reposignal-app/internal/command"
	"github.com/Kushalrock/reposignal-app/internal/domain"
	"github.com/Kushalrock/reposignal-app/internal/platform"
	"github.com/Kushalrock/reposignal-app/internal/queue"
	"github.com/Kushalrock/reposignal-app/internal/validate"
)

// Cleanup delays per caller. Every message this system posts or consumes
// as part of an exchange gets exactly one cleanup obligation.
const (
	ExchangeCleanupDelay   = 60 * time.Second
	IssueNudgeCleanupDelay = 5 * time.Minute
	MergeNudgeCleanupDelay = 60 * time.Minute
)

// Dispatcher turns validated commands into exactly one mutating backend
// call per logical batch, posts exactly one confirmation, and schedules
// cleanup for every message the exchange produced. Side effects are
// strictly ordered: mutate, confirm, schedule. If the mutating call fails
// the exchange aborts with nothing posted and nothing scheduled.
type Dispatcher struct {
	backend   backend.Client
	platform  platform.Client
	scheduler queue.Scheduler
	validator *validate.Validator
}

func New(b backend.Client, p platform.Client, s queue.Scheduler, v *validate.Validator) *Dispatcher {
	return &Dispatcher{
		backend:   b,
		platform:  p,
		scheduler: s,
		validator: v,
	}
}

// CommentParams is everything an inbound comment event carries that
// dispatch needs. IDs are platform-assigned.
type CommentParams struct {
	Context      domain.ValidationContext
	RepositoryID int64
	IssueID      int64
	CommentID    int64
	Body         string
}

// HandleComment parses the comment and runs each matched sub-grammar
// through its policy. Text without the trigger token, and every denied
// batch, produce zero observable output.
func (d *Dispatcher) HandleComment(ctx context.Context, params CommentParams) error {
	commands := command.Parse(params.Body)
	if len(commands) == 0 {
		return nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component:   "reposignal.dispatch",
		Repo:        logger.Ptr(params.Context.Thread.Slug()),
		IssueNumber: logger.Ptr(params.Context.Thread.Number),
	})

	classify, rate := splitCommands(commands)

	// The triggering comment gets exactly one cleanup job, even when the
	// comment carried both a classification and a rating batch.
	triggerSwept := false

	if len(classify) > 0 {
		swept, err := d.dispatchClassification(ctx, params, classify, triggerSwept)
		if err != nil {
			return err
		}
		triggerSwept = triggerSwept || swept
	}

	if len(rate) > 0 {
		if _, err := d.dispatchFeedback(ctx, params, rate, triggerSwept); err != nil {
			return err
		}
	}

	return nil
}

// dispatchClassification applies the maintainer policy and, on Allow,
// merges all classification fields into a single backend call.
func (d *Dispatcher) dispatchClassification(ctx context.Context, params CommentParams, commands []domain.Command, triggerSwept bool) (bool, error) {
	decision := d.validator.Maintainer(ctx, params.Context)
	if !decision.Allowed {
		return false, nil
	}

	classifyParams := backend.ClassifyIssueParams{
		RepositoryID: params.RepositoryID,
		IssueID:      params.IssueID,
		Actor: backend.ActorDescriptor{
			Role:  domain.RoleMaintainer,
			Login: params.Context.Actor.Login,
			ID:    params.Context.Actor.ID,
		},
	}
	for _, cmd := range commands {
		switch cmd.Kind {
		case domain.CommandSetDifficulty:
			classifyParams.Difficulty = &cmd.Value
		case domain.CommandSetType:
			t := cmd.Type
			classifyParams.IssueType = &t
		case domain.CommandHide:
			hidden := true
			classifyParams.Hidden = &hidden
		}
	}

	if err := d.backend.ClassifyIssue(ctx, classifyParams); err != nil {
		// Abort: nothing posted, nothing scheduled. The triggering comment
		// stays un-swept; the backlog entry for compensating this is open.
		return false, fmt.Errorf("classifying issue: %w", err)
	}

	d.writeLog(ctx, domain.LogEntry{
		ActorRole:  domain.RoleMaintainer,
		ActorLogin: &params.Context.Actor.Login,
		ActorID:    &params.Context.Actor.ID,
		Action:     "classify_issue",
		EntityRef:  entityRef(params.Context.Thread),
		Context:    classificationSummary(classifyParams),
	})

	return d.confirmExchange(ctx, params, classificationConfirmation(classifyParams), triggerSwept)
}

// dispatchFeedback applies the contributor policy and, on Allow, merges
// the rating fields into a single feedback submission bound to the pull
// request's platform ID. The feedback call carries no actor identity, and
// the matching audit entry is written without one.
func (d *Dispatcher) dispatchFeedback(ctx context.Context, params CommentParams, commands []domain.Command, triggerSwept bool) (bool, error) {
	decision := d.validator.Contributor(ctx, params.Context)
	if !decision.Allowed {
		return false, nil
	}

	feedback := backend.FeedbackParams{
		PullRequestID: decision.BoundEntity,
		RepositoryID:  params.RepositoryID,
	}
	for _, cmd := range commands {
		switch cmd.Kind {
		case domain.CommandRateDifficulty:
			feedback.DifficultyRating = &cmd.Value
		case domain.CommandRateResponsiveness:
			feedback.ResponsivenessRating = &cmd.Value
		}
	}

	if err := d.backend.SubmitFeedback(ctx, feedback); err != nil {
		return false, fmt.Errorf("submitting feedback: %w", err)
	}

	d.writeLog(ctx, domain.LogEntry{
		ActorRole: domain.RoleContributor,
		Action:    "submit_feedback",
		EntityRef: "pr:" + strconv.FormatInt(decision.BoundEntity, 10),
		Context:   feedbackSummary(feedback),
	})

	return d.confirmExchange(ctx, params, feedbackConfirmation(feedback), triggerSwept)
}

// confirmExchange posts the single confirmation message, then schedules
// cleanup for the confirmation and (once) for the triggering comment.
func (d *Dispatcher) confirmExchange(ctx context.Context, params CommentParams, body string, triggerSwept bool) (bool, error) {
	thread := params.Context.Thread

	confirmationID, err := d.platform.CreateComment(ctx, thread.Owner, thread.Repo, thread.Number, body)
	if err != nil {
		return false, fmt.Errorf("posting confirmation: %w", err)
	}

	d.scheduleCleanup(ctx, thread, params.Context.InstallationID, confirmationID, ExchangeCleanupDelay)
	if !triggerSwept {
		d.scheduleCleanup(ctx, thread, params.Context.InstallationID, params.CommentID, ExchangeCleanupDelay)
	}

	return true, nil
}

// NudgeParams locates the thread an unsolicited bot message goes to.
type NudgeParams struct {
	Thread         domain.Thread
	InstallationID int64
}

// HandleIssueOpened posts the classification nudge on a freshly opened
// issue and schedules its removal after five minutes.
func (d *Dispatcher) HandleIssueOpened(ctx context.Context, params NudgeParams) error {
	return d.postNudge(ctx, params, issueOpenedNudge(), IssueNudgeCleanupDelay)
}

// HandlePullRequestMerged posts the merge-feedback nudge inviting the
// author to rate the exchange, removed after an hour.
func (d *Dispatcher) HandlePullRequestMerged(ctx context.Context, params NudgeParams) error {
	return d.postNudge(ctx, params, mergeFeedbackNudge(), MergeNudgeCleanupDelay)
}

func (d *Dispatcher) postNudge(ctx context.Context, params NudgeParams, body string, delay time.Duration) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component:   "reposignal.dispatch",
		Repo:        logger.Ptr(params.Thread.Slug()),
		IssueNumber: logger.Ptr(params.Thread.Number),
	})

	commentID, err := d.platform.CreateComment(ctx, params.Thread.Owner, params.Thread.Repo, params.Thread.Number, body)
	if err != nil {
		return fmt.Errorf("posting nudge: %w", err)
	}

	d.scheduleCleanup(ctx, params.Thread, params.InstallationID, commentID, delay)
	return nil
}

// scheduleCleanup enqueues one delete-comment obligation. Scheduling
// failures never propagate to the exchange: the mutating work is already
// done and the confirmation posted, so the exchange is reported as
// succeeded and the miss goes to operational logging.
func (d *Dispatcher) scheduleCleanup(ctx context.Context, thread domain.Thread, installationID, commentID int64, delay time.Duration) {
	issueNumber := thread.Number
	job := domain.CleanupJob{
		ID:             strconv.FormatInt(id.New(), 10),
		Owner:          thread.Owner,
		Repo:           thread.Repo,
		CommentID:      commentID,
		IssueNumber:    &issueNumber,
		InstallationID: installationID,
	}

	if err := d.scheduler.Schedule(ctx, job, delay); err != nil {
		slog.ErrorContext(ctx, "failed to schedule cleanup",
			"error", err,
			"comment_id", commentID)
	}
}

// writeLog appends an audit entry. Audit writes are a side effect of a
// dispatch that already succeeded; failures stay operational.
func (d *Dispatcher) writeLog(ctx context.Context, entry domain.LogEntry) {
	if err := d.backend.WriteLog(ctx, entry); err != nil {
		slog.WarnContext(ctx, "failed to write audit entry",
			"error", err,
			"action", entry.Action)
	}
}

func splitCommands(commands []domain.Command) (classify, rate []domain.Command) {
	for _, cmd := range commands {
		if cmd.IsRate() {
			rate = append(rate, cmd)
		} else {
			classify = append(classify, cmd)
		}
	}
	return classify, rate
}

func entityRef(thread domain.Thread) string {
	return fmt.Sprintf("%s#%d", thread.Slug(), thread.Number)
}
