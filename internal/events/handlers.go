package events

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"

	"github.com/Kushalrock/reposignal-app/internal/backend"
	"github.com/Kushalrock/reposignal-app/internal/dispatch"
	"github.com/Kushalrock/reposignal-app/internal/domain"
)

// Handlers owns the event-kind bindings for everything this service
// reacts to: the comment command path, the two nudges, and the
// installation lifecycle pass-throughs to the backend.
type Handlers struct {
	dispatcher *dispatch.Dispatcher
	backend    backend.Client
}

func NewHandlers(d *dispatch.Dispatcher, b backend.Client) *Handlers {
	return &Handlers{dispatcher: d, backend: b}
}

// RegisterAll installs every handler into the table.
func (h *Handlers) RegisterAll(t *Table) {
	t.Register("issue_comment.created", h.issueCommentCreated)
	t.Register("issues.opened", h.issueOpened)
	t.Register("issues.deleted", h.issueDeleted)
	t.Register("pull_request.closed", h.pullRequestClosed)
	t.Register("installation.created", h.installationCreated)
	t.Register("installation_repositories.added", h.installationRepositoriesAdded)
	t.Register("repository.edited", h.repositoryEdited)
}

func (h *Handlers) issueCommentCreated(ctx context.Context, event any) error {
	ev, ok := event.(*github.IssueCommentEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event)
	}

	// Never react to bot-authored comments; the bot's own confirmations
	// would otherwise re-enter the pipeline.
	if ev.GetComment().GetUser().GetType() == "Bot" {
		return nil
	}

	kind := domain.ThreadIssue
	if ev.GetIssue().IsPullRequest() {
		kind = domain.ThreadPullRequest
	}

	params := dispatch.CommentParams{
		Context: domain.ValidationContext{
			Actor: domain.Actor{
				Login: ev.GetComment().GetUser().GetLogin(),
				ID:    ev.GetComment().GetUser().GetID(),
			},
			Thread: domain.Thread{
				Owner:  ev.GetRepo().GetOwner().GetLogin(),
				Repo:   ev.GetRepo().GetName(),
				Number: ev.GetIssue().GetNumber(),
				Kind:   kind,
			},
			InstallationID: ev.GetInstallation().GetID(),
		},
		RepositoryID: ev.GetRepo().GetID(),
		IssueID:      ev.GetIssue().GetID(),
		CommentID:    ev.GetComment().GetID(),
		Body:         ev.GetComment().GetBody(),
	}

	return h.dispatcher.HandleComment(ctx, params)
}

func (h *Handlers) issueOpened(ctx context.Context, event any) error {
	ev, ok := event.(*github.IssuesEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event)
	}

	return h.dispatcher.HandleIssueOpened(ctx, dispatch.NudgeParams{
		Thread: domain.Thread{
			Owner:  ev.GetRepo().GetOwner().GetLogin(),
			Repo:   ev.GetRepo().GetName(),
			Number: ev.GetIssue().GetNumber(),
			Kind:   domain.ThreadIssue,
		},
		InstallationID: ev.GetInstallation().GetID(),
	})
}

func (h *Handlers) issueDeleted(ctx context.Context, event any) error {
	ev, ok := event.(*github.IssuesEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event)
	}

	return h.backend.DeleteIssue(ctx, ev.GetRepo().GetID(), ev.GetIssue().GetID())
}

func (h *Handlers) pullRequestClosed(ctx context.Context, event any) error {
	ev, ok := event.(*github.PullRequestEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event)
	}

	// Closed-without-merge is not an invitation to rate anything.
	if !ev.GetPullRequest().GetMerged() {
		return nil
	}

	return h.dispatcher.HandlePullRequestMerged(ctx, dispatch.NudgeParams{
		Thread: domain.Thread{
			Owner:  ev.GetRepo().GetOwner().GetLogin(),
			Repo:   ev.GetRepo().GetName(),
			Number: ev.GetPullRequest().GetNumber(),
			Kind:   domain.ThreadPullRequest,
		},
		InstallationID: ev.GetInstallation().GetID(),
	})
}

func (h *Handlers) installationCreated(ctx context.Context, event any) error {
	ev, ok := event.(*github.InstallationEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event)
	}

	repos := make([]string, 0, len(ev.Repositories))
	for _, r := range ev.Repositories {
		repos = append(repos, r.GetFullName())
	}

	return h.backend.SyncInstallation(ctx, backend.InstallationParams{
		InstallationID: ev.GetInstallation().GetID(),
		AccountLogin:   ev.GetInstallation().GetAccount().GetLogin(),
		Repositories:   repos,
	})
}

func (h *Handlers) installationRepositoriesAdded(ctx context.Context, event any) error {
	ev, ok := event.(*github.InstallationRepositoriesEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event)
	}

	for _, r := range ev.RepositoriesAdded {
		params := backend.RepositoryParams{
			InstallationID: ev.GetInstallation().GetID(),
			Owner:          ownerFromFullName(r.GetFullName()),
			Name:           r.GetName(),
		}
		if err := h.backend.AddRepository(ctx, params); err != nil {
			return fmt.Errorf("adding repository %s: %w", r.GetFullName(), err)
		}
	}
	return nil
}

func (h *Handlers) repositoryEdited(ctx context.Context, event any) error {
	ev, ok := event.(*github.RepositoryEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event)
	}

	// The edited payload doesn't say which of these changed in a form we
	// can rely on, so push the current state of both surfaces.
	desc := ev.GetRepo().GetDescription()
	metadata := backend.MetadataParams{
		RepositoryID: ev.GetRepo().GetID(),
		Description:  &desc,
		Topics:       ev.GetRepo().Topics,
	}
	if err := h.backend.UpdateMetadata(ctx, metadata); err != nil {
		return fmt.Errorf("updating metadata: %w", err)
	}

	settings := backend.SettingsParams{
		RepositoryID: ev.GetRepo().GetID(),
		Settings: map[string]any{
			"defaultBranch": ev.GetRepo().GetDefaultBranch(),
			"private":       ev.GetRepo().GetPrivate(),
			"hasIssues":     ev.GetRepo().GetHasIssues(),
		},
	}
	if err := h.backend.UpdateSettings(ctx, settings); err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}

	return nil
}

func ownerFromFullName(fullName string) string {
	for i := 0; i < len(fullName); i++ {
		if fullName[i] == '/' {
			return fullName[:i]
		}
	}
	return fullName
}
