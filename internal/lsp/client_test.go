package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lspmux/lspmux/internal/lsp/protocol"
	"github.com/lspmux/lspmux/internal/lsp/transport"
)

// newPipeClient wires a client to in-memory pipes instead of a process.
// serverIn receives everything the client writes; messages pushed through
// serverOut feed the client's read loop.
func newPipeClient(t *testing.T) (c *Client, serverIn *bufio.Reader, serverOut *io.PipeWriter) {
	t.Helper()

	stdinR, stdinW := io.Pipe()
	stdoutR, stdoutW := io.Pipe()

	c = &Client{
		ServerID:    "test",
		ClientKey:   "test@file:///workspace",
		RootURI:     "file:///workspace",
		stdin:       stdinW,
		stdout:      bufio.NewReader(stdoutR),
		outbox:      make(chan *transport.Message, 64),
		done:        make(chan struct{}),
		pending:     make(map[int64]chan result),
		versions:    make(map[protocol.DocumentUri]int32),
		diagnostics: make(map[protocol.DocumentUri][]protocol.Diagnostic),
	}
	go c.writeLoop()
	go c.readLoop()

	t.Cleanup(func() {
		c.drainPending(fmt.Errorf("test over"))
		stdinR.Close()
		stdoutW.Close()
	})

	return c, bufio.NewReader(stdinR), stdoutW
}

func respond(t *testing.T, w io.Writer, id int64, result any) {
	t.Helper()
	raw, err := json.Marshal(id)
	require.NoError(t, err)
	msg, err := transport.NewResponse(raw, result)
	require.NoError(t, err)
	require.NoError(t, transport.WriteMessage(w, msg))
}

func TestRequest_DeliversResult(t *testing.T) {
	c, serverIn, serverOut := newPipeClient(t)

	go func() {
		msg, err := transport.ReadMessage(serverIn)
		if err != nil {
			return
		}
		id, _ := msg.ResponseID()
		respond(t, serverOut, id, map[string]string{"hello": "world"})
	}()

	raw, err := c.Request(context.Background(), "test/echo", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hello":"world"}`, string(raw))
}

func TestRequest_ServerErrorReachesOnlyItsCaller(t *testing.T) {
	c, serverIn, serverOut := newPipeClient(t)

	go func() {
		msg, err := transport.ReadMessage(serverIn)
		if err != nil {
			return
		}
		reply := transport.NewErrorResponse(msg.ID, -32000, "boom")
		_ = transport.WriteMessage(serverOut, reply)
	}()

	_, err := c.Request(context.Background(), "test/fail", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestRequest_CancellationRemovesPendingAndLateResponseIsDropped(t *testing.T) {
	c, serverIn, serverOut := newPipeClient(t)

	gotRequest := make(chan int64, 1)
	go func() {
		msg, err := transport.ReadMessage(serverIn)
		if err != nil {
			return
		}
		id, _ := msg.ResponseID()
		gotRequest <- id
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Request(ctx, "test/slow", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	c.mu.Lock()
	assert.Empty(t, c.pending, "pending slot must be removed on cancellation")
	c.mu.Unlock()

	// A late response for the abandoned id must be silently dropped.
	id := <-gotRequest
	respond(t, serverOut, id, "too late")

	time.Sleep(50 * time.Millisecond)
	c.mu.Lock()
	assert.Empty(t, c.pending)
	c.mu.Unlock()
}

func TestDrainPending_FailsEveryOutstandingRequest(t *testing.T) {
	c, serverIn, _ := newPipeClient(t)

	// Swallow the outgoing requests; the server never answers.
	go func() {
		for {
			if _, err := transport.ReadMessage(serverIn); err != nil {
				return
			}
		}
	}()

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := c.Request(context.Background(), "test/hang", nil)
			errs <- err
		}()
	}

	// Let both requests register before simulating process death.
	time.Sleep(100 * time.Millisecond)
	c.drainPending(fmt.Errorf("server exited unexpectedly"))

	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			require.Error(t, err)
			assert.Contains(t, err.Error(), "server exited unexpectedly")
		case <-time.After(2 * time.Second):
			t.Fatal("request still hanging after drain")
		}
	}

	_, err := c.Request(context.Background(), "test/after", nil)
	assert.Error(t, err, "a drained client refuses new requests")
}

func TestHandleServerRequest_ConfigurationGetsNulls(t *testing.T) {
	_, serverIn, serverOut := newPipeClient(t)

	req, err := transport.NewRequest(7, protocol.MethodWorkspaceConfiguration,
		protocol.ConfigurationParams{Items: []protocol.ConfigurationItem{
			{Section: "gopls"}, {Section: "other"},
		}})
	require.NoError(t, err)
	require.NoError(t, transport.WriteMessage(serverOut, req))

	reply, err := transport.ReadMessage(serverIn)
	require.NoError(t, err)
	assert.JSONEq(t, `[null,null]`, string(reply.Result))
}

func TestHandleServerRequest_WorkspaceFolders(t *testing.T) {
	_, serverIn, serverOut := newPipeClient(t)

	req, err := transport.NewRequest(8, protocol.MethodWorkspaceFolders, nil)
	require.NoError(t, err)
	require.NoError(t, transport.WriteMessage(serverOut, req))

	reply, err := transport.ReadMessage(serverIn)
	require.NoError(t, err)

	var folders []protocol.WorkspaceFolder
	require.NoError(t, json.Unmarshal(reply.Result, &folders))
	require.Len(t, folders, 1)
	assert.Equal(t, protocol.DocumentUri("file:///workspace"), folders[0].URI)
	assert.Equal(t, "workspace", folders[0].Name)
}

func TestHandleServerRequest_UnknownMethodGetsMethodNotFound(t *testing.T) {
	_, serverIn, serverOut := newPipeClient(t)

	req, err := transport.NewRequest(9, "window/showDocument", nil)
	require.NoError(t, err)
	require.NoError(t, transport.WriteMessage(serverOut, req))

	reply, err := transport.ReadMessage(serverIn)
	require.NoError(t, err)
	require.NotNil(t, reply.Error)
	assert.Equal(t, transport.CodeMethodNotFound, reply.Error.Code)
}

func TestPublishDiagnostics_EmitsEventAndCaches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := Subscribe(ctx)

	c, _, serverOut := newPipeClient(t)

	params := protocol.PublishDiagnosticsParams{
		URI:     "file:///workspace/main.go",
		Version: 3,
		Diagnostics: []protocol.Diagnostic{
			{Message: "undefined: foo", Severity: protocol.SeverityError},
		},
	}
	note, err := transport.NewNotification(protocol.MethodPublishDiagnostics, params)
	require.NoError(t, err)
	require.NoError(t, transport.WriteMessage(serverOut, note))

	var ev Event
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Payload.Kind == EventDiagnostics && e.Payload.ClientKey == c.ClientKey {
				ev = e.Payload
			}
		case <-deadline:
			t.Fatal("diagnostics event never arrived")
		}
		if ev.Kind == EventDiagnostics {
			break
		}
	}

	assert.Equal(t, protocol.DocumentUri("file:///workspace/main.go"), ev.URI)
	assert.Equal(t, int32(3), ev.Version)
	require.Len(t, ev.Diagnostics, 1)
	assert.Equal(t, "undefined: foo", ev.Diagnostics[0].Message)

	diags := c.GetDiagnostics()
	require.Contains(t, diags, protocol.DocumentUri("file:///workspace/main.go"))
}

func TestUnknownNotificationIsIgnored(t *testing.T) {
	c, serverIn, serverOut := newPipeClient(t)

	note, err := transport.NewNotification("custom/somethingNew", map[string]int{"x": 1})
	require.NoError(t, err)
	require.NoError(t, transport.WriteMessage(serverOut, note))

	// The connection stays healthy: a request after the unknown
	// notification still round-trips.
	go func() {
		for {
			msg, err := transport.ReadMessage(serverIn)
			if err != nil {
				return
			}
			if id, ok := msg.ResponseID(); ok {
				respond(t, serverOut, id, "pong")
			}
		}
	}()

	raw, err := c.Request(context.Background(), "test/ping", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `"pong"`, string(raw))
}

func TestNotify_WritesFIFO(t *testing.T) {
	c, serverIn, _ := newPipeClient(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Notify("test/seq", map[string]int{"n": i}))
	}

	for i := 0; i < 5; i++ {
		msg, err := transport.ReadMessage(serverIn)
		require.NoError(t, err)
		var params struct {
			N int `json:"n"`
		}
		require.NoError(t, json.Unmarshal(msg.Params, &params))
		assert.Equal(t, i, params.N, "notifications must arrive in call order")
	}
}

func TestDidChange_IncrementsVersionAndSendsFullText(t *testing.T) {
	c, serverIn, _ := newPipeClient(t)
	uri := protocol.DocumentUri("file:///workspace/main.go")

	require.NoError(t, c.DidOpen(context.Background(), uri, "package main\n"))
	require.NoError(t, c.DidChange(context.Background(), uri, "package main\n\nfunc main() {}\n"))

	open, err := transport.ReadMessage(serverIn)
	require.NoError(t, err)
	assert.Equal(t, protocol.MethodDidOpen, open.Method)

	change, err := transport.ReadMessage(serverIn)
	require.NoError(t, err)
	assert.Equal(t, protocol.MethodDidChange, change.Method)

	var params protocol.DidChangeTextDocumentParams
	require.NoError(t, json.Unmarshal(change.Params, &params))
	assert.Equal(t, int32(2), params.TextDocument.Version)
	require.Len(t, params.ContentChanges, 1)
	assert.Equal(t, "package main\n\nfunc main() {}\n", params.ContentChanges[0].Text)
}

func TestDidOpen_Reopen_IsNoOp(t *testing.T) {
	c, serverIn, _ := newPipeClient(t)
	uri := protocol.DocumentUri("file:///workspace/main.go")

	require.NoError(t, c.DidOpen(context.Background(), uri, "x"))
	require.NoError(t, c.DidOpen(context.Background(), uri, "x"))
	require.NoError(t, c.DidClose(context.Background(), uri))

	open, err := transport.ReadMessage(serverIn)
	require.NoError(t, err)
	assert.Equal(t, protocol.MethodDidOpen, open.Method)

	next, err := transport.ReadMessage(serverIn)
	require.NoError(t, err)
	assert.Equal(t, protocol.MethodDidClose, next.Method, "second didOpen must not hit the wire")
}

func TestCompletion_BestEffortDecode(t *testing.T) {
	c, serverIn, serverOut := newPipeClient(t)

	answers := []string{
		`{"isIncomplete":false,"items":[{"label":"Println"}]}`, // CompletionList
		`[{"label":"Printf"}]`,                                 // bare array
		`{"totally":"unexpected"}`,                             // wrong shape
	}
	go func() {
		for _, answer := range answers {
			msg, err := transport.ReadMessage(serverIn)
			if err != nil {
				return
			}
			id, _ := msg.ResponseID()
			raw, _ := json.Marshal(id)
			reply := &transport.Message{JSONRPC: "2.0", ID: raw, Result: json.RawMessage(answer)}
			_ = transport.WriteMessage(serverOut, reply)
		}
	}()

	items, err := c.Completion(context.Background(), "file:///workspace/main.go", 1, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Println", items[0].Label)

	items, err = c.Completion(context.Background(), "file:///workspace/main.go", 1, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Printf", items[0].Label)

	items, err = c.Completion(context.Background(), "file:///workspace/main.go", 1, 3)
	require.NoError(t, err)
	assert.Empty(t, items, "undecodable result degrades to no results")
}

func TestDefinition_NormalizesShapes(t *testing.T) {
	c, serverIn, serverOut := newPipeClient(t)

	answers := []string{
		`{"uri":"file:///a.go","range":{"start":{"line":1,"character":0},"end":{"line":1,"character":4}}}`,
		`[{"uri":"file:///b.go","range":{"start":{"line":2,"character":0},"end":{"line":2,"character":4}}}]`,
		`[{"targetUri":"file:///c.go","targetRange":{"start":{"line":3,"character":0},"end":{"line":3,"character":4}},"targetSelectionRange":{"start":{"line":3,"character":0},"end":{"line":3,"character":4}}}]`,
		`null`,
	}
	go func() {
		for _, answer := range answers {
			msg, err := transport.ReadMessage(serverIn)
			if err != nil {
				return
			}
			id, _ := msg.ResponseID()
			raw, _ := json.Marshal(id)
			reply := &transport.Message{JSONRPC: "2.0", ID: raw, Result: json.RawMessage(answer)}
			_ = transport.WriteMessage(serverOut, reply)
		}
	}()

	locs, err := c.Definition(context.Background(), "file:///x.go", 0, 0)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, protocol.DocumentUri("file:///a.go"), locs[0].URI)

	locs, err = c.Definition(context.Background(), "file:///x.go", 0, 1)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, protocol.DocumentUri("file:///b.go"), locs[0].URI)

	locs, err = c.Definition(context.Background(), "file:///x.go", 0, 2)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, protocol.DocumentUri("file:///c.go"), locs[0].URI)
	assert.Equal(t, uint32(3), locs[0].Range.Start.Line)

	locs, err = c.Definition(context.Background(), "file:///x.go", 0, 3)
	require.NoError(t, err)
	assert.Empty(t, locs)
}
