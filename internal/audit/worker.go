package audit

import (
	"context"
	"log/slog"
)

// Store is the append-only sink the worker drains into.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByPrimary(ctx context.Context, primaryID string) ([]Event, error)
}

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled. Append failures are logged and
// skipped; a broken sink must not take the worker down.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				if w.logger != nil {
					w.logger.ErrorContext(ctx, "failed to append audit event",
						"action", event.Action,
						"error", err.Error(),
					)
				}
			}
		}
	}
}
