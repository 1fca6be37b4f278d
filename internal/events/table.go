package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v57/github"

	"github.com/Kushalrock/reposignal-app/common/logger"
)

// Handler processes one parsed webhook event.
type Handler func(ctx context.Context, event any) error

// Table is the explicit binding from event kind ("event.action") to
// handler, consulted by a single dispatch loop. Kinds without an entry
// are ignored with no side effect.
type Table struct {
	handlers map[string]Handler
}

func NewTable() *Table {
	return &Table{handlers: make(map[string]Handler)}
}

// Register binds an event kind to a handler. Later registrations for the
// same kind replace earlier ones.
func (t *Table) Register(kind string, h Handler) {
	t.handlers[kind] = h
}

// Kinds returns the registered event kinds, for logging at startup.
func (t *Table) Kinds() []string {
	kinds := make([]string, 0, len(t.handlers))
	for k := range t.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}

// Dispatch parses the raw webhook body for the given event type and runs
// the handler registered for "event.action", if any.
func (t *Table) Dispatch(ctx context.Context, eventType, deliveryID string, body []byte) error {
	payload, err := github.ParseWebHook(eventType, body)
	if err != nil {
		return fmt.Errorf("parsing %s payload: %w", eventType, err)
	}

	kind := eventType
	if a, ok := payload.(interface{ GetAction() string }); ok && a.GetAction() != "" {
		kind = eventType + "." + a.GetAction()
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		DeliveryID: &deliveryID,
		EventType:  &kind,
	})

	handler, ok := t.handlers[kind]
	if !ok {
		slog.DebugContext(ctx, "no handler registered for event, ignoring")
		return nil
	}

	slog.InfoContext(ctx, "dispatching event")
	return handler(ctx, payload)
}
