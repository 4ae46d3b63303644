package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"bellgas/pkg/requestcontext"
)

// Appender is the write side of an audit store.
type Appender interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. With a buffer it hands events
// to a Worker and never blocks the caller; without one it appends inline.
type Publisher struct {
	store   Appender
	inbox   chan Event
	logger  *slog.Logger
	dropped atomic.Int64

	mu     sync.RWMutex
	closed bool
}

type Option func(*Publisher)

// WithBuffer makes Emit asynchronous with room for size pending events.
func WithBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.inbox = make(chan Event, size)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Appender, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit stamps the event with request metadata and records it. A full buffer
// drops the event rather than stall the request.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.inbox == nil || p.closed {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
	default:
		p.dropped.Add(1)
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", event.Action.String(),
			"request_id", event.RequestID,
		)
	}
	return nil
}

// Close stops buffering. The worker drains what is queued and returns, and
// later Emit calls append inline. Call it once nothing else will take the
// buffered path, i.e. after the HTTP server has drained.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inbox == nil || p.closed {
		return
	}
	p.closed = true
	close(p.inbox)
}

// Dropped reports how many events were discarded because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Worker returns the consumer for this publisher's buffer, or nil when the
// publisher is synchronous.
func (p *Publisher) Worker() *Worker {
	if p.inbox == nil {
		return nil
	}
	return NewWorker(p.store, p.inbox, p.logger)
}
