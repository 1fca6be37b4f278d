package worker_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Kushalrock/reposignal-app/internal/domain"
	"github.com/Kushalrock/reposignal-app/internal/queue"
	"github.com/Kushalrock/reposignal-app/internal/worker"
)

var _ = Describe("Resolve", func() {
	var env queue.Envelope

	BeforeEach(func() {
		env = queue.NewEnvelope(domain.CleanupJob{
			ID:        "1",
			Owner:     "acme",
			Repo:      "widgets",
			CommentID: 3003,
		}, 0, "")
	})

	It("completes on a nil error regardless of attempt", func() {
		env.Attempt = 3
		res := worker.Resolve(env, nil)
		Expect(res.Outcome).To(Equal(worker.OutcomeCompleted))
	})

	It("retries the first failed attempt after the base delay", func() {
		env.Attempt = 1
		res := worker.Resolve(env, errors.New("boom"))
		Expect(res.Outcome).To(Equal(worker.OutcomeRetrying))
		Expect(res.NextDelay).To(Equal(5 * time.Second))
	})

	It("doubles the delay on the second failed attempt", func() {
		env.Attempt = 2
		res := worker.Resolve(env, errors.New("boom"))
		Expect(res.Outcome).To(Equal(worker.OutcomeRetrying))
		Expect(res.NextDelay).To(Equal(10 * time.Second))
	})

	It("fails terminally once the attempt reaches the ceiling", func() {
		env.Attempt = 3
		err := errors.New("boom")
		res := worker.Resolve(env, err)
		Expect(res.Outcome).To(Equal(worker.OutcomeFailed))
		Expect(res.Err).To(MatchError(err))
	})

	It("applies the default ceiling when options carry none", func() {
		env.Opts.Attempts = 0
		env.Attempt = 3
		res := worker.Resolve(env, errors.New("boom"))
		Expect(res.Outcome).To(Equal(worker.OutcomeFailed))
	})

	It("applies the default base delay when options carry none", func() {
		env.Opts.Backoff.Delay = 0
		env.Attempt = 1
		res := worker.Resolve(env, errors.New("boom"))
		Expect(res.NextDelay).To(Equal(5 * time.Second))
	})
})
