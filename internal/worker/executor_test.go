package worker_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Kushalrock/reposignal-app/internal/domain"
	"github.com/Kushalrock/reposignal-app/internal/queue"
	"github.com/Kushalrock/reposignal-app/internal/worker"
)

var _ = Describe("CleanupExecutor", func() {
	var (
		ctx      context.Context
		platform *mockPlatformClient
		backendC *mockBackendClient
		executor *worker.CleanupExecutor
		env      queue.Envelope
	)

	BeforeEach(func() {
		ctx = context.Background()
		platform = &mockPlatformClient{}
		backendC = &mockBackendClient{}
		executor = worker.NewCleanupExecutor(platform, backendC)

		issueNumber := 17
		env = queue.NewEnvelope(domain.CleanupJob{
			ID:             "job-1",
			Owner:          "acme",
			Repo:           "widgets",
			CommentID:      3003,
			IssueNumber:    &issueNumber,
			InstallationID: 4242,
		}, 0, "")
	})

	It("deletes the target comment and writes a system audit entry", func() {
		Expect(executor.Execute(ctx, env)).To(Succeed())

		Expect(platform.deletedComments).To(Equal([]int64{3003}))
		Expect(backendC.logEntries).To(HaveLen(1))
		entry := backendC.logEntries[0]
		Expect(entry.ActorRole).To(Equal(domain.RoleSystem))
		Expect(entry.ActorLogin).To(BeNil())
		Expect(entry.Action).To(Equal("remove_comment"))
		Expect(entry.EntityRef).To(Equal("acme/widgets#17"))
	})

	It("returns the deletion error so the retry policy applies", func() {
		platform.deleteCommentFn = func(ctx context.Context, owner, repo string, commentID int64) error {
			return errors.New("api unavailable")
		}

		Expect(executor.Execute(ctx, env)).NotTo(Succeed())
		Expect(backendC.logEntries).To(BeEmpty())
	})

	It("completes even when the audit write fails", func() {
		backendC.writeLogFn = func(ctx context.Context, entry domain.LogEntry) error {
			return errors.New("backend unavailable")
		}

		Expect(executor.Execute(ctx, env)).To(Succeed())
		Expect(platform.deletedComments).To(HaveLen(1))
	})

	It("omits the issue number from the entity ref when absent", func() {
		env.Data.IssueNumber = nil

		Expect(executor.Execute(ctx, env)).To(Succeed())
		Expect(backendC.logEntries[0].EntityRef).To(Equal("acme/widgets"))
	})
})
