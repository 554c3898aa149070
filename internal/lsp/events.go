package lsp

import (
	"context"

	"github.com/lspmux/lspmux/internal/lsp/protocol"
	"github.com/lspmux/lspmux/internal/pubsub"
)

// EventKind discriminates the variants of Event. The set is closed: new
// variants are added here, and the single consumer switches exhaustively.
type EventKind int

const (
	// EventDiagnostics carries published diagnostics for one document.
	EventDiagnostics EventKind = iota + 1
	// EventInitialized signals that a connection finished its handshake.
	EventInitialized
	// EventServerError reports a start or protocol failure for a server.
	EventServerError
	// EventServerExited signals that a server process terminated.
	EventServerExited
)

func (k EventKind) String() string {
	switch k {
	case EventDiagnostics:
		return "diagnostics"
	case EventInitialized:
		return "initialized"
	case EventServerError:
		return "server-error"
	case EventServerExited:
		return "server-exited"
	default:
		return "unknown"
	}
}

// Event is what connections report back to the consumer: diagnostics for
// open documents and lifecycle notices. Fields other than Kind are populated
// per variant.
type Event struct {
	Kind      EventKind
	ClientKey string
	ServerID  string

	// Message is set for EventServerError.
	Message string

	// URI, Version and Diagnostics are set for EventDiagnostics.
	URI         protocol.DocumentUri
	Version     int32
	Diagnostics []protocol.Diagnostic
}

var events = pubsub.NewBroker[Event]()

// Subscribe returns a channel of connection events. Delivery is unbounded on
// the producer side so protocol processing never blocks on a slow consumer.
func Subscribe(ctx context.Context) <-chan pubsub.Event[Event] {
	return events.Subscribe(ctx)
}

func publish(t pubsub.EventType, ev Event) {
	events.Publish(t, ev)
}
