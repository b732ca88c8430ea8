package audit

import (
	"context"
	"time"
)

// Publisher hands events to the worker without blocking the request path.
// When the buffer is full the event is dropped; the trail is best-effort and
// must never slow a resolution down.
type Publisher struct {
	inbox chan<- Event
}

func NewPublisher(inbox chan<- Event) *Publisher {
	return &Publisher{inbox: inbox}
}

// Emit enqueues an event. Nil publishers and full buffers are both silent
// no-ops so callers need no guards.
func (p *Publisher) Emit(_ context.Context, event Event) {
	if p == nil || p.inbox == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
	}
}
