package domain

// ThreadKind distinguishes plain issues from pull request threads.
type ThreadKind string

const (
	ThreadIssue       ThreadKind = "issue"
	ThreadPullRequest ThreadKind = "pull_request"
)

// Thread locates the comment thread an inbound event belongs to.
// Number is the per-repository thread number, not a stable identifier;
// pull requests are correlated by their platform-assigned ID instead.
type Thread struct {
	Owner  string
	Repo   string
	Number int
	Kind   ThreadKind
}

// Slug returns the "owner/repo" form used in logs.
func (t Thread) Slug() string {
	return t.Owner + "/" + t.Repo
}

// PullRequest carries the subset of pull request state the contributor
// policy needs: merge state and authorship.
type PullRequest struct {
	ID          int64 // platform-assigned identifier, stable across thread views
	Number      int
	Merged      bool
	AuthorID    int64
	AuthorLogin string
}

// ValidationContext is built fresh per inbound event and never persisted.
type ValidationContext struct {
	Actor          Actor
	Thread         Thread
	InstallationID int64

	// PullRequest is resolved lazily by the contributor policy and is nil
	// for maintainer commands.
	PullRequest *PullRequest
}

// Decision is the outcome of validation. Deny is always silent: no
// user-visible signal and no audit entry for the denial itself.
type Decision struct {
	Allowed     bool
	BoundEntity int64 // pull request platform ID on contributor Allow
}

func Allow(boundEntity int64) Decision {
	return Decision{Allowed: true, BoundEntity: boundEntity}
}

func Deny() Decision {
	return Decision{}
}
