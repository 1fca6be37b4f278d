package events_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Kushalrock/reposignal-app/internal/events"
)

var _ = Describe("Table", func() {
	var (
		ctx   context.Context
		table *events.Table
	)

	BeforeEach(func() {
		ctx = context.Background()
		table = events.NewTable()
	})

	It("routes to the handler registered for event.action", func() {
		var got any
		table.Register("issues.opened", func(ctx context.Context, event any) error {
			got = event
			return nil
		})

		body := []byte(`{"action":"opened","issue":{"number":17},"repository":{"name":"widgets"}}`)
		Expect(table.Dispatch(ctx, "issues", "delivery-1", body)).To(Succeed())
		Expect(got).NotTo(BeNil())
	})

	It("ignores event kinds without a registered handler", func() {
		called := false
		table.Register("issues.opened", func(ctx context.Context, event any) error {
			called = true
			return nil
		})

		body := []byte(`{"action":"closed","issue":{"number":17}}`)
		Expect(table.Dispatch(ctx, "issues", "delivery-2", body)).To(Succeed())
		Expect(called).To(BeFalse())
	})

	It("uses the bare event type as the kind when the payload has no action", func() {
		called := false
		table.Register("push", func(ctx context.Context, event any) error {
			called = true
			return nil
		})

		Expect(table.Dispatch(ctx, "push", "delivery-3", []byte(`{}`))).To(Succeed())
		Expect(called).To(BeTrue())
	})

	It("returns the handler's error", func() {
		table.Register("issues.opened", func(ctx context.Context, event any) error {
			return errors.New("handler failed")
		})

		body := []byte(`{"action":"opened"}`)
		Expect(table.Dispatch(ctx, "issues", "delivery-4", body)).NotTo(Succeed())
	})

	It("fails on an unparseable payload", func() {
		Expect(table.Dispatch(ctx, "issues", "delivery-5", []byte(`{broken`))).NotTo(Succeed())
	})

	It("lists registered kinds", func() {
		table.Register("issues.opened", func(ctx context.Context, event any) error { return nil })
		table.Register("issue_comment.created", func(ctx context.Context, event any) error { return nil })

		Expect(table.Kinds()).To(ConsistOf("issues.opened", "issue_comment.created"))
	})
})
