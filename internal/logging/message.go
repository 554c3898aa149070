package logging

import (
	"context"
	"time"

	"github.com/lspmux/lspmux/internal/pubsub"
)

// LogMessage is one structured log record, published so UIs can render a
// live log pane without scraping stderr.
type LogMessage struct {
	ID         string
	Time       time.Time
	Level      string
	Message    string
	Attributes []Attr
}

type Attr struct {
	Key   string
	Value string
}

var broker = pubsub.NewBroker[LogMessage]()

// Subscribe returns a channel of log messages for UI consumers.
func Subscribe(ctx context.Context) <-chan pubsub.Event[LogMessage] {
	return broker.Subscribe(ctx)
}
