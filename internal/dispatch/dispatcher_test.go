package dispatch_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Kushalrock/reposignal-app/common/id"
	"github.com/Kushalrock/reposignal-app/internal/backend"
	"github.com/Kushalrock/reposignal-app/internal/dispatch"
	"github.com/Kushalrock/reposignal-app/internal/domain"
	"github.com/Kushalrock/reposignal-app/internal/validate"
)

var _ = Describe("Dispatcher", func() {
	var (
		ctx       context.Context
		platform  *mockPlatformClient
		backendC  *mockBackendClient
		scheduler *mockScheduler
		d         *dispatch.Dispatcher
		params    dispatch.CommentParams
	)

	BeforeEach(func() {
		ctx = context.Background()
		platform = &mockPlatformClient{}
		backendC = &mockBackendClient{}
		scheduler = &mockScheduler{}

		Expect(id.Init(1)).To(Succeed())

		d = dispatch.New(backendC, platform, scheduler, validate.New(platform))

		params = dispatch.CommentParams{
			Context: domain.ValidationContext{
				Actor: domain.Actor{Login: "octocat", ID: 583231},
				Thread: domain.Thread{
					Owner:  "acme",
					Repo:   "widgets",
					Number: 17,
					Kind:   domain.ThreadIssue,
				},
				InstallationID: 4242,
			},
			RepositoryID: 1001,
			IssueID:      2002,
			CommentID:    3003,
			Body:         "/reposignal difficulty 3",
		}
	})

	grantMaintainer := func() {
		platform.collaboratorPermissionFn = func(ctx context.Context, owner, repo, login string) (domain.PermissionLevel, error) {
			return domain.PermissionWrite, nil
		}
	}

	Describe("classification commands", func() {
		BeforeEach(grantMaintainer)

		It("merges all fields from one comment into a single backend call", func() {
			params.Body = "/reposignal difficulty 3 type bug hide"

			Expect(d.HandleComment(ctx, params)).To(Succeed())

			Expect(backendC.classifyCalls).To(HaveLen(1))
			call := backendC.classifyCalls[0]
			Expect(call.RepositoryID).To(Equal(int64(1001)))
			Expect(call.IssueID).To(Equal(int64(2002)))
			Expect(*call.Difficulty).To(Equal(3))
			Expect(*call.IssueType).To(Equal(domain.IssueTypeBug))
			Expect(*call.Hidden).To(BeTrue())
			Expect(call.Actor.Login).To(Equal("octocat"))
		})

		It("posts one confirmation and schedules cleanup for it and the trigger", func() {
			Expect(d.HandleComment(ctx, params)).To(Succeed())

			Expect(platform.createdComments).To(HaveLen(1))
			Expect(scheduler.scheduled).To(HaveLen(2))
			for _, s := range scheduler.scheduled {
				Expect(s.delay).To(Equal(60 * time.Second))
				Expect(s.job.Owner).To(Equal("acme"))
				Expect(s.job.Repo).To(Equal("widgets"))
				Expect(s.job.InstallationID).To(Equal(int64(4242)))
				Expect(s.job.ID).NotTo(BeEmpty())
			}
			Expect(scheduler.scheduled[1].job.CommentID).To(Equal(int64(3003)))
		})

		It("writes an audit entry carrying the maintainer's identity", func() {
			Expect(d.HandleComment(ctx, params)).To(Succeed())

			Expect(backendC.logEntries).To(HaveLen(1))
			entry := backendC.logEntries[0]
			Expect(entry.ActorRole).To(Equal(domain.RoleMaintainer))
			Expect(*entry.ActorLogin).To(Equal("octocat"))
			Expect(*entry.ActorID).To(Equal(int64(583231)))
			Expect(entry.Action).To(Equal("classify_issue"))
		})

		It("aborts with nothing posted and nothing scheduled when the backend call fails", func() {
			backendC.classifyIssueFn = func(ctx context.Context, p backend.ClassifyIssueParams) error {
				return errors.New("backend unavailable")
			}

			Expect(d.HandleComment(ctx, params)).NotTo(Succeed())

			Expect(platform.createdComments).To(BeEmpty())
			Expect(scheduler.scheduled).To(BeEmpty())
			Expect(backendC.logEntries).To(BeEmpty())
		})
	})

	Describe("denied classification", func() {
		It("produces zero observable output for a non-privileged actor", func() {
			platform.collaboratorPermissionFn = func(ctx context.Context, owner, repo, login string) (domain.PermissionLevel, error) {
				return domain.PermissionRead, nil
			}

			Expect(d.HandleComment(ctx, params)).To(Succeed())

			Expect(backendC.classifyCalls).To(BeEmpty())
			Expect(backendC.logEntries).To(BeEmpty())
			Expect(platform.createdComments).To(BeEmpty())
			Expect(scheduler.scheduled).To(BeEmpty())
		})
	})

	Describe("rate commands", func() {
		BeforeEach(func() {
			params.Context.Thread.Kind = domain.ThreadPullRequest
			params.Body = "/reposignal rate difficulty 4 rate responsiveness 5"
			platform.getPullRequestFn = func(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error) {
				return &domain.PullRequest{ID: 900100, Merged: true, AuthorID: 583231}, nil
			}
		})

		It("merges both ratings into one submission bound to the pull request ID", func() {
			Expect(d.HandleComment(ctx, params)).To(Succeed())

			Expect(backendC.feedbackCalls).To(HaveLen(1))
			fb := backendC.feedbackCalls[0]
			Expect(fb.PullRequestID).To(Equal(int64(900100)))
			Expect(fb.RepositoryID).To(Equal(int64(1001)))
			Expect(*fb.DifficultyRating).To(Equal(4))
			Expect(*fb.ResponsivenessRating).To(Equal(5))
		})

		It("writes the audit entry without actor identity", func() {
			Expect(d.HandleComment(ctx, params)).To(Succeed())

			Expect(backendC.logEntries).To(HaveLen(1))
			entry := backendC.logEntries[0]
			Expect(entry.ActorRole).To(Equal(domain.RoleContributor))
			Expect(entry.ActorLogin).To(BeNil())
			Expect(entry.ActorID).To(BeNil())
			Expect(entry.Action).To(Equal("submit_feedback"))
		})

		It("denies silently when the commenter is not the author", func() {
			platform.getPullRequestFn = func(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error) {
				return &domain.PullRequest{ID: 900100, Merged: true, AuthorID: 111}, nil
			}

			Expect(d.HandleComment(ctx, params)).To(Succeed())

			Expect(backendC.feedbackCalls).To(BeEmpty())
			Expect(platform.createdComments).To(BeEmpty())
			Expect(scheduler.scheduled).To(BeEmpty())
		})
	})

	Describe("mixed classification and rating in one comment", func() {
		BeforeEach(func() {
			grantMaintainer()
			params.Context.Thread.Kind = domain.ThreadPullRequest
			params.Body = "/reposignal difficulty 2 /reposignal rate difficulty 5"
			platform.getPullRequestFn = func(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error) {
				return &domain.PullRequest{ID: 900100, Merged: true, AuthorID: 583231}, nil
			}
		})

		It("schedules cleanup for the trigger comment exactly once", func() {
			Expect(d.HandleComment(ctx, params)).To(Succeed())

			// Two confirmations plus the trigger comment itself.
			Expect(platform.createdComments).To(HaveLen(2))
			Expect(scheduler.scheduled).To(HaveLen(3))

			triggerJobs := 0
			for _, s := range scheduler.scheduled {
				if s.job.CommentID == params.CommentID {
					triggerJobs++
				}
			}
			Expect(triggerJobs).To(Equal(1))
		})
	})

	Describe("failure ordering", func() {
		BeforeEach(grantMaintainer)

		It("does not fail the exchange when cleanup scheduling fails", func() {
			scheduler.scheduleFn = func(ctx context.Context, job domain.CleanupJob, delay time.Duration) error {
				return errors.New("redis unavailable")
			}

			Expect(d.HandleComment(ctx, params)).To(Succeed())
			Expect(platform.createdComments).To(HaveLen(1))
		})
	})

	Describe("text without commands", func() {
		It("does nothing at all", func() {
			params.Body = "just a regular comment"

			Expect(d.HandleComment(ctx, params)).To(Succeed())

			Expect(backendC.classifyCalls).To(BeEmpty())
			Expect(platform.createdComments).To(BeEmpty())
			Expect(scheduler.scheduled).To(BeEmpty())
		})
	})

	Describe("nudges", func() {
		nudge := dispatch.NudgeParams{}

		BeforeEach(func() {
			nudge = dispatch.NudgeParams{
				Thread: domain.Thread{
					Owner:  "acme",
					Repo:   "widgets",
					Number: 17,
					Kind:   domain.ThreadIssue,
				},
				InstallationID: 4242,
			}
		})

		It("posts the issue-opened nudge and schedules its removal after five minutes", func() {
			Expect(d.HandleIssueOpened(ctx, nudge)).To(Succeed())

			Expect(platform.createdComments).To(HaveLen(1))
			Expect(platform.createdComments[0]).To(ContainSubstring("/reposignal difficulty"))
			Expect(scheduler.scheduled).To(HaveLen(1))
			Expect(scheduler.scheduled[0].delay).To(Equal(5 * time.Minute))
		})

		It("posts the merge-feedback nudge and schedules its removal after an hour", func() {
			nudge.Thread.Kind = domain.ThreadPullRequest

			Expect(d.HandlePullRequestMerged(ctx, nudge)).To(Succeed())

			Expect(platform.createdComments).To(HaveLen(1))
			Expect(platform.createdComments[0]).To(ContainSubstring("rate difficulty"))
			Expect(scheduler.scheduled).To(HaveLen(1))
			Expect(scheduler.scheduled[0].delay).To(Equal(time.Hour))
		})

		It("propagates the error and schedules nothing when posting fails", func() {
			platform.createCommentFn = func(ctx context.Context, owner, repo string, number int, body string) (int64, error) {
				return 0, errors.New("api unavailable")
			}

			Expect(d.HandleIssueOpened(ctx, nudge)).NotTo(Succeed())
			Expect(scheduler.scheduled).To(BeEmpty())
		})
	})
})
