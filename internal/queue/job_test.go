package queue_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Kushalrock/reposignal-app/internal/domain"
	"github.com/Kushalrock/reposignal-app/internal/queue"
)

var _ = Describe("Envelope", func() {
	issueNumber := 17
	job := domain.CleanupJob{
		ID:             "job-1",
		Owner:          "acme",
		Repo:           "widgets",
		CommentID:      3003,
		IssueNumber:    &issueNumber,
		InstallationID: 4242,
	}

	Describe("NewEnvelope", func() {
		It("carries the fixed delete-comment retry options", func() {
			env := queue.NewEnvelope(job, 60*time.Second, "")

			Expect(env.Name).To(Equal("delete-comment"))
			Expect(env.Attempt).To(Equal(1))
			Expect(env.Opts.Delay).To(Equal(int64(60000)))
			Expect(env.Opts.Attempts).To(Equal(3))
			Expect(env.Opts.Backoff.Type).To(Equal("exponential"))
			Expect(env.Opts.Backoff.Delay).To(Equal(int64(5000)))
		})
	})

	Describe("wire shape", func() {
		It("serializes payload and option keys in their contract form", func() {
			env := queue.NewEnvelope(job, 60*time.Second, "abc123")
			raw, err := env.Marshal()
			Expect(err).NotTo(HaveOccurred())

			var decoded map[string]json.RawMessage
			Expect(json.Unmarshal([]byte(raw), &decoded)).To(Succeed())
			Expect(decoded).To(HaveKey("name"))
			Expect(decoded).To(HaveKey("data"))
			Expect(decoded).To(HaveKey("opts"))

			var data map[string]json.RawMessage
			Expect(json.Unmarshal(decoded["data"], &data)).To(Succeed())
			Expect(data).To(HaveKey("owner"))
			Expect(data).To(HaveKey("repo"))
			Expect(data).To(HaveKey("commentId"))
			Expect(data).To(HaveKey("issueNumber"))
			Expect(data).To(HaveKey("installationId"))
		})

		It("round-trips through marshal and parse", func() {
			env := queue.NewEnvelope(job, time.Minute, "abc123")
			raw, err := env.Marshal()
			Expect(err).NotTo(HaveOccurred())

			parsed, err := queue.ParseEnvelope(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed.Data.CommentID).To(Equal(int64(3003)))
			Expect(parsed.Data.InstallationID).To(Equal(int64(4242)))
			Expect(parsed.TraceID).To(Equal("abc123"))
			Expect(*parsed.Data.IssueNumber).To(Equal(17))
		})
	})

	Describe("ParseEnvelope", func() {
		It("rejects malformed JSON", func() {
			_, err := queue.ParseEnvelope("{not json")
			Expect(err).To(HaveOccurred())
		})

		It("rejects an envelope without a job name", func() {
			_, err := queue.ParseEnvelope(`{"data":{"owner":"acme","repo":"widgets","commentId":1}}`)
			Expect(err).To(HaveOccurred())
		})

		It("rejects an incomplete payload", func() {
			_, err := queue.ParseEnvelope(`{"name":"delete-comment","data":{"owner":"acme"}}`)
			Expect(err).To(HaveOccurred())
		})

		It("defaults a missing attempt counter to the first attempt", func() {
			env, err := queue.ParseEnvelope(`{"name":"delete-comment","data":{"owner":"acme","repo":"widgets","commentId":9}}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Attempt).To(Equal(1))
		})

		It("accepts envelopes produced by interoperating workers", func() {
			// Minimal wire form: only the contract keys, no trace metadata.
			raw := `{"name":"delete-comment","data":{"owner":"acme","repo":"widgets","commentId":3003,"installationId":4242},"opts":{"delay":60000,"attempts":3,"backoff":{"type":"exponential","delay":5000}},"attempt":2}`

			env, err := queue.ParseEnvelope(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Attempt).To(Equal(2))
			Expect(env.Data.IssueNumber).To(BeNil())
		})
	})

	Describe("ScheduledSet", func() {
		It("derives the delayed-set key from the channel name", func() {
			Expect(queue.ScheduledSet("reposignal-cleanup")).To(Equal("reposignal-cleanup:scheduled"))
		})
	})
})
