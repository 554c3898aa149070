package pubsub

// EventType identifies what happened to the published payload.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
)

// Event is a typed envelope delivered to subscribers.
type Event[T any] struct {
	Type    EventType
	Payload T
}
