package validate

import (
	"context"
	"log/slog"

	"github.com/Kushalrock/reposignal-app/common/logger"
	"github.com/Kushalrock/reposignal-app/internal/domain"
	"github.com/Kushalrock/reposignal-app/internal/platform"
)

// Validator decides, per actor and thread context, whether a parsed command
// may execute. Every outcome that is not an Allow is a silent Deny: the
// system never narrates a refusal, so a non-privileged actor cannot learn
// which check failed.
type Validator struct {
	platform platform.Client
}

func New(p platform.Client) *Validator {
	return &Validator{platform: p}
}

// Maintainer allows classification commands iff the actor holds write,
// maintain, or admin permission on the repository. The permission lookup
// is one external call; any lookup failure is a Deny (fail-closed).
// Entity-state preconditions are left to the backend.
func (v *Validator) Maintainer(ctx context.Context, vc domain.ValidationContext) domain.Decision {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "reposignal.validate",
	})

	level, err := v.platform.CollaboratorPermission(ctx, vc.Thread.Owner, vc.Thread.Repo, vc.Actor.Login)
	if err != nil {
		slog.DebugContext(ctx, "permission lookup failed, denying", "error", err)
		return domain.Deny()
	}

	if !level.CanClassify() {
		return domain.Deny()
	}

	return domain.Allow(0)
}

// Contributor allows rate commands iff the enclosing thread is a pull
// request, that pull request is merged, and the commenting actor is its
// author. The bound entity on Allow is the pull request's platform ID,
// which is the feedback correlation key downstream; the thread number is
// never used for that. Whether feedback already exists is the backend's
// check, not replicated here.
func (v *Validator) Contributor(ctx context.Context, vc domain.ValidationContext) domain.Decision {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "reposignal.validate",
	})

	if vc.Thread.Kind != domain.ThreadPullRequest {
		return domain.Deny()
	}

	pr, err := v.platform.GetPullRequest(ctx, vc.Thread.Owner, vc.Thread.Repo, vc.Thread.Number)
	if err != nil {
		slog.DebugContext(ctx, "pull request lookup failed, denying", "error", err)
		return domain.Deny()
	}

	if !pr.Merged {
		return domain.Deny()
	}
	if pr.AuthorID != vc.Actor.ID {
		return domain.Deny()
	}

	return domain.Allow(pr.ID)
}
