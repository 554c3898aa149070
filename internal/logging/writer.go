package logging

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lspmux/lspmux/internal/pubsub"
)

// writer adapts slog's text handler output into LogMessage events.
type writer struct{}

// NewWriter returns an io.Writer suitable as a slog text handler sink.
// Each line becomes a published LogMessage.
func NewWriter() *writer {
	return &writer{}
}

func (w *writer) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimSuffix(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		msg := parseLine(line)
		broker.Publish(pubsub.CreatedEvent, msg)
	}
	return len(p), nil
}

// parseLine splits a slog text-format line ("key=value ...") into a
// LogMessage. Quoted values keep their inner spaces.
func parseLine(line string) LogMessage {
	msg := LogMessage{ID: uuid.NewString(), Time: time.Now()}
	for _, field := range splitFields(line) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"`)
		switch key {
		case "time":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				msg.Time = t
			}
		case "level":
			msg.Level = strings.ToLower(value)
		case "msg":
			msg.Message = value
		default:
			msg.Attributes = append(msg.Attributes, Attr{Key: key, Value: value})
		}
	}
	return msg
}

// splitFields splits on spaces outside of double quotes.
func splitFields(line string) []string {
	var fields []string
	var b strings.Builder
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == ' ' && !inQuote:
			if b.Len() > 0 {
				fields = append(fields, b.String())
				b.Reset()
			}
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		fields = append(fields, b.String())
	}
	return fields
}
