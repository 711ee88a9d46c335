package audit

import (
	"context"
	"errors"
)

// ErrQueueFull is returned when the async queue cannot accept an event.
var ErrQueueFull = errors.New("audit queue full")

// QueuePublisher hands events to a Worker without blocking the caller.
type QueuePublisher struct {
	queue chan<- Event
}

func NewQueuePublisher(queue chan<- Event) *QueuePublisher {
	return &QueuePublisher{queue: queue}
}

// Emit enriches the event and enqueues it. A full queue drops the event.
func (p *QueuePublisher) Emit(ctx context.Context, event Event) error {
	select {
	case p.queue <- enrich(ctx, event):
		return nil
	default:
		return ErrQueueFull
	}
}

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations yet.
type Worker struct {
	store   Store
	inbox   <-chan Event
	onError func(Event, error)
}

func NewWorker(store Store, inbox <-chan Event, onError func(Event, error)) *Worker {
	return &Worker{store: store, inbox: inbox, onError: onError}
}

// Run stores events until ctx is done or the inbox is closed. Store failures
// are reported to onError and do not stop the worker.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil && w.onError != nil {
				w.onError(event, err)
			}
		}
	}
}
