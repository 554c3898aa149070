package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	msg, err := NewRequest(42, "textDocument/hover", map[string]any{"line": 3})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, msg))

	got, err := ReadMessage(bufio.NewReader(&buf))
	require.NoError(t, err)

	assert.Equal(t, "2.0", got.JSONRPC)
	assert.Equal(t, "textDocument/hover", got.Method)
	id, ok := got.ResponseID()
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.JSONEq(t, `{"line":3}`, string(got.Params))
}

func TestReadMessage_IgnoresUnknownHeaders(t *testing.T) {
	payload := `{"jsonrpc":"2.0","method":"initialized"}`
	raw := fmt.Sprintf("Content-Type: application/vscode-jsonrpc\r\nContent-Length: %d\r\n\r\n%s", len(payload), payload)

	got, err := ReadMessage(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, "initialized", got.Method)
}

func TestReadMessage_OversizedKeepsAlignment(t *testing.T) {
	var buf bytes.Buffer

	// An oversized frame followed by a well-formed one.
	huge := MaxPayloadSize + 1
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", huge)
	buf.Write(bytes.Repeat([]byte("x"), huge))

	next, err := NewNotification("textDocument/didSave", nil)
	require.NoError(t, err)
	require.NoError(t, WriteMessage(&buf, next))

	r := bufio.NewReader(&buf)

	_, err = ReadMessage(r)
	require.ErrorIs(t, err, ErrTooLarge)
	assert.True(t, Recoverable(err))

	got, err := ReadMessage(r)
	require.NoError(t, err)
	assert.Equal(t, "textDocument/didSave", got.Method)
}

func TestReadMessage_UndecodablePayloadIsRecoverable(t *testing.T) {
	var buf bytes.Buffer
	bad := `{"jsonrpc":`
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n%s", len(bad), bad)

	next, err := NewNotification("exit", nil)
	require.NoError(t, err)
	require.NoError(t, WriteMessage(&buf, next))

	r := bufio.NewReader(&buf)

	_, err = ReadMessage(r)
	require.Error(t, err)
	assert.True(t, Recoverable(err))

	got, err := ReadMessage(r)
	require.NoError(t, err)
	assert.Equal(t, "exit", got.Method)
}

func TestReadMessage_TruncatedStream(t *testing.T) {
	raw := "Content-Length: 100\r\n\r\n{\"jsonrpc\":\"2.0\"}"

	_, err := ReadMessage(bufio.NewReader(strings.NewReader(raw)))
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.False(t, Recoverable(err))
}

func TestReadMessage_MissingLength(t *testing.T) {
	raw := "Content-Type: application/json\r\n\r\n"

	_, err := ReadMessage(bufio.NewReader(strings.NewReader(raw)))
	assert.ErrorIs(t, err, ErrMissingLength)
	assert.False(t, Recoverable(err))
}

func TestMessage_Classification(t *testing.T) {
	resp := &Message{ID: json.RawMessage("7"), Result: json.RawMessage("null")}
	assert.True(t, resp.IsResponse())
	assert.False(t, resp.IsServerRequest())
	assert.False(t, resp.IsNotification())

	req := &Message{ID: json.RawMessage(`"srv-1"`), Method: "workspace/configuration"}
	assert.True(t, req.IsServerRequest())
	assert.False(t, req.IsResponse())

	_, ok := req.ResponseID()
	assert.False(t, ok, "string ids are not ours")

	notif := &Message{Method: "textDocument/publishDiagnostics"}
	assert.True(t, notif.IsNotification())
}

func TestNewErrorResponse_EchoesID(t *testing.T) {
	id := json.RawMessage(`"abc"`)
	msg := NewErrorResponse(id, CodeMethodNotFound, "method not found")

	assert.Equal(t, id, msg.ID)
	require.NotNil(t, msg.Error)
	assert.Equal(t, CodeMethodNotFound, msg.Error.Code)
}
