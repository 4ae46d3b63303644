package audit

import (
	"context"
	"log/slog"
	"time"
)

// shutdownGrace bounds how long a stopping worker spends flushing.
const shutdownGrace = 5 * time.Second

// Worker consumes audit events from a channel and persists them.
type Worker struct {
	store  Appender
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Appender, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run persists events until the inbox is closed and drained. Cancelling ctx
// aborts early after a bounded flush of what is already queued. Store
// failures are logged and the event is dropped.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.flush(ctx)
			return nil
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			w.append(ctx, event)
		}
	}
}

func (w *Worker) flush(ctx context.Context) {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	for {
		select {
		case event, ok := <-w.inbox:
			if !ok {
				return
			}
			w.append(flushCtx, event)
		default:
			return
		}
	}
}

func (w *Worker) append(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to persist audit event",
			"action", event.Action.String(),
			"request_id", event.RequestID,
			"error", err,
		)
	}
}
