// Package transport implements the LSP base protocol framing: JSON-RPC 2.0
// envelopes prefixed with a MIME-style header block carrying Content-Length.
package transport

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MaxPayloadSize bounds how much we will buffer for a single message.
// Oversized payloads are drained and dropped so the stream stays aligned,
// which keeps a misbehaving peer from forcing unbounded allocations.
const MaxPayloadSize = 32 << 20

var (
	// ErrTooLarge reports a message whose declared length exceeded
	// MaxPayloadSize. The payload has already been consumed; the caller may
	// keep reading the stream.
	ErrTooLarge = errors.New("message exceeds size limit")

	// ErrMissingLength reports a header block with no usable Content-Length.
	// The stream cannot be realigned past this point.
	ErrMissingLength = errors.New("missing Content-Length header")
)

// Message is a JSON-RPC 2.0 envelope. The ID is kept raw so server-initiated
// requests with non-integer ids can be echoed back untouched.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is the JSON-RPC error object.
type ResponseError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// JSON-RPC error codes used by this client.
const (
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

// IsResponse reports whether the message answers one of our requests:
// it carries an id but no method.
func (m *Message) IsResponse() bool {
	return m.Method == "" && len(m.ID) > 0
}

// IsServerRequest reports whether the message is a server-to-client request
// expecting a reply.
func (m *Message) IsServerRequest() bool {
	return m.Method != "" && len(m.ID) > 0
}

// IsNotification reports whether the message is a fire-and-forget
// notification.
func (m *Message) IsNotification() bool {
	return m.Method != "" && len(m.ID) == 0
}

// ResponseID decodes the message id as an integer request id. Returns false
// for absent or non-integer ids.
func (m *Message) ResponseID() (int64, bool) {
	if len(m.ID) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(string(m.ID), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// NewRequest builds a request envelope with the given integer id.
func NewRequest(id int64, method string, params any) (*Message, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Message{
		JSONRPC: "2.0",
		ID:      json.RawMessage(strconv.FormatInt(id, 10)),
		Method:  method,
		Params:  raw,
	}, nil
}

// NewNotification builds a notification envelope.
func NewNotification(method string, params any) (*Message, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, err
	}
	return &Message{JSONRPC: "2.0", Method: method, Params: raw}, nil
}

// NewResponse builds a reply to a server-initiated request, echoing its id.
func NewResponse(id json.RawMessage, result any) (*Message, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Message{JSONRPC: "2.0", ID: id, Result: raw}, nil
}

// NewErrorResponse builds an error reply to a server-initiated request.
func NewErrorResponse(id json.RawMessage, code int, message string) *Message {
	return &Message{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &ResponseError{Code: code, Message: message},
	}
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	return raw, nil
}

// WriteMessage frames and writes one message.
func WriteMessage(w io.Writer, msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// ReadMessage reads one framed message. Unrecognized headers are ignored.
// A recoverable failure (oversized or undecodable payload) leaves the stream
// aligned on the next message boundary; use Recoverable to distinguish it
// from a dead stream.
func ReadMessage(r *bufio.Reader) (*Message, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: bad value %q", ErrMissingLength, value)
		}
		length = n
	}
	if length < 0 {
		return nil, ErrMissingLength
	}

	if length > MaxPayloadSize {
		if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			return nil, fmt.Errorf("discard oversized payload: %w", err)
		}
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}

	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, &decodeError{err: err}
	}
	return &msg, nil
}

// decodeError marks a payload that framed correctly but did not parse.
type decodeError struct{ err error }

func (e *decodeError) Error() string { return fmt.Sprintf("decode message: %v", e.err) }
func (e *decodeError) Unwrap() error { return e.err }

// Recoverable reports whether the read loop may continue after err: the
// offending payload was fully consumed and the next read starts on a frame
// boundary.
func Recoverable(err error) bool {
	if errors.Is(err, ErrTooLarge) {
		return true
	}
	var de *decodeError
	return errors.As(err, &de)
}
