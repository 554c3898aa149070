package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/lspmux/lspmux/internal/logging"
	"github.com/lspmux/lspmux/internal/lsp/protocol"
	"github.com/lspmux/lspmux/internal/lsp/transport"
	"github.com/lspmux/lspmux/internal/pubsub"
)

const (
	// requestTimeout bounds every outbound request.
	requestTimeout = 15 * time.Second
	// shutdownTimeout bounds the best-effort shutdown request.
	shutdownTimeout = 5 * time.Second
)

// Client is one live protocol session with a spawned language server. It
// owns the process and four goroutines: a writer draining the outbox in
// FIFO order, a reader decoding inbound frames, a stderr drain, and an exit
// watcher that fails all pending requests when the process dies.
type Client struct {
	ServerID  string
	ClientKey string
	RootURI   protocol.DocumentUri

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	outbox chan *transport.Message
	done   chan struct{}

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan result
	closed  bool

	// capabilities is written once after the handshake and read-only after.
	capabilities json.RawMessage

	// versions tracks open document versions for didChange.
	versionsMu sync.Mutex
	versions   map[protocol.DocumentUri]int32

	// diagnostics caches the latest published diagnostics per document.
	diagnosticsMu sync.Mutex
	diagnostics   map[protocol.DocumentUri][]protocol.Diagnostic

	onExit func(*Client)
}

type result struct {
	raw json.RawMessage
	err error
}

// StartOptions carries everything needed to spawn and identify one client.
type StartOptions struct {
	ServerID  string
	ClientKey string
	Command   string
	Args      []string
	RootURI   protocol.DocumentUri
	// OnExit is invoked from the exit watcher after pending requests are
	// drained, so the registry can drop the dead entry.
	OnExit func(*Client)
}

// Start spawns the server process, runs the initialize handshake, and
// returns a usable client. On any error the process is killed and no client
// is returned.
func Start(ctx context.Context, opts StartOptions) (*Client, error) {
	cmd := exec.Command(opts.Command, opts.Args...)
	cmd.Dir = opts.RootURI.Path()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", opts.Command, err)
	}

	c := &Client{
		ServerID:    opts.ServerID,
		ClientKey:   opts.ClientKey,
		RootURI:     opts.RootURI,
		cmd:         cmd,
		stdin:       stdin,
		stdout:      bufio.NewReader(stdout),
		outbox:      make(chan *transport.Message, 64),
		done:        make(chan struct{}),
		pending:     make(map[int64]chan result),
		versions:    make(map[protocol.DocumentUri]int32),
		diagnostics: make(map[protocol.DocumentUri][]protocol.Diagnostic),
		onExit:      opts.OnExit,
	}

	go c.writeLoop()
	go c.readLoop()
	go c.drainStderr(stderr)
	go c.watchExit()

	if err := c.initialize(ctx); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}

	return c, nil
}

// initialize performs the handshake: an initialize request, then the
// initialized notification. The client is unusable until this succeeds.
func (c *Client) initialize(ctx context.Context) error {
	params := protocol.InitializeParams{
		ProcessID: os.Getpid(),
		RootURI:   c.RootURI,
		ClientInfo: &protocol.ClientInfo{
			Name:    "lspmux",
			Version: "1.0.0",
		},
		Capabilities: protocol.DefaultClientCapabilities(),
		WorkspaceFolders: []protocol.WorkspaceFolder{
			{URI: c.RootURI, Name: c.RootURI.DirName()},
		},
	}

	raw, err := c.Request(ctx, protocol.MethodInitialize, params)
	if err != nil {
		return fmt.Errorf("initialize handshake failed: %w", err)
	}

	var res protocol.InitializeResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return fmt.Errorf("malformed initialize response: %w", err)
	}
	c.capabilities = res.Capabilities

	if err := c.Notify(protocol.MethodInitialized, struct{}{}); err != nil {
		return err
	}

	publish(pubsub.CreatedEvent, Event{
		Kind:      EventInitialized,
		ClientKey: c.ClientKey,
		ServerID:  c.ServerID,
	})
	return nil
}

// Capabilities returns the server's advertised capabilities, raw. It is only
// valid after Start has returned.
func (c *Client) Capabilities() json.RawMessage {
	return c.capabilities
}

// Request sends a request and waits for the matching response. Each request
// carries an independent 15 second timeout; on expiry the pending slot is
// removed so a late response is dropped rather than delivered to a caller
// that already gave up.
func (c *Client) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("%s: connection closed", method)
	}
	c.nextID++
	id := c.nextID
	ch := make(chan result, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	msg, err := transport.NewRequest(id, method, params)
	if err != nil {
		c.removePending(id)
		return nil, err
	}
	if err := c.enqueue(msg); err != nil {
		c.removePending(id)
		return nil, err
	}

	timer := time.NewTimer(requestTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.raw, res.err
	case <-timer.C:
		c.removePending(id)
		return nil, fmt.Errorf("%s: request timed out after %s", method, requestTimeout)
	case <-ctx.Done():
		c.removePending(id)
		return nil, ctx.Err()
	}
}

// Notify sends a notification. It never waits for the server.
func (c *Client) Notify(method string, params any) error {
	msg, err := transport.NewNotification(method, params)
	if err != nil {
		return err
	}
	return c.enqueue(msg)
}

func (c *Client) enqueue(msg *transport.Message) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return fmt.Errorf("connection closed")
	}

	// A full outbox blocks rather than drops so writes stay FIFO.
	select {
	case c.outbox <- msg:
		return nil
	case <-c.done:
		return fmt.Errorf("connection closed")
	}
}

func (c *Client) removePending(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// writeLoop drains the outbox in FIFO order. Any write failure means the
// process is gone; the loop stops silently and the exit watcher takes over.
// On shutdown the loop flushes whatever is still queued, then stops.
func (c *Client) writeLoop() {
	defer logging.RecoverPanic("lsp-writer", nil)
	write := func(msg *transport.Message) bool {
		if err := transport.WriteMessage(c.stdin, msg); err != nil {
			logging.Debug("lsp write failed, stopping writer",
				"server", c.ServerID, "error", err)
			return false
		}
		return true
	}

	for {
		select {
		case msg := <-c.outbox:
			if !write(msg) {
				return
			}
		case <-c.done:
			for {
				select {
				case msg := <-c.outbox:
					if !write(msg) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

// readLoop decodes inbound frames and dispatches them: responses complete
// pending requests, server requests get an immediate reply, notifications
// are forwarded or ignored. Protocol-level decode errors are skipped; only
// a dead stream ends the loop.
func (c *Client) readLoop() {
	defer logging.RecoverPanic("lsp-reader", nil)
	for {
		msg, err := transport.ReadMessage(c.stdout)
		if err != nil {
			if transport.Recoverable(err) {
				logging.Debug("skipping undecodable message",
					"server", c.ServerID, "error", err)
				continue
			}
			// Truncated or broken stream: same as process exit, which
			// the exit watcher reports.
			return
		}

		switch {
		case msg.IsResponse():
			c.dispatchResponse(msg)
		case msg.IsServerRequest():
			c.handleServerRequest(msg)
		case msg.IsNotification():
			c.handleNotification(msg)
		}
	}
}

func (c *Client) dispatchResponse(msg *transport.Message) {
	id, ok := msg.ResponseID()
	if !ok {
		logging.Debug("response with non-numeric id, skipping", "server", c.ServerID)
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		// Late response to a timed-out request.
		logging.Debug("dropping response for unknown request",
			"server", c.ServerID, "id", id)
		return
	}

	if msg.Error != nil {
		ch <- result{err: fmt.Errorf("server error %d: %s", msg.Error.Code, msg.Error.Message)}
		return
	}
	ch <- result{raw: msg.Result}
}

// drainStderr logs whatever the server prints on stderr. Server chatter is
// never treated as a protocol error.
func (c *Client) drainStderr(stderr io.Reader) {
	defer logging.RecoverPanic("lsp-stderr", nil)
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		logging.Debug("lsp server stderr", "server", c.ServerID, "output", line)
	}
}

// watchExit waits for the process to terminate, then fails every pending
// request so no caller blocks past process death, and reports the exit.
func (c *Client) watchExit() {
	defer logging.RecoverPanic("lsp-exit-watcher", nil)
	err := c.cmd.Wait()

	c.drainPending(fmt.Errorf("server exited unexpectedly"))

	if err != nil {
		logging.Debug("lsp server exited", "server", c.ServerID, "error", err)
	}

	if c.onExit != nil {
		c.onExit(c)
	}
	publish(pubsub.CreatedEvent, Event{
		Kind:      EventServerExited,
		ClientKey: c.ClientKey,
		ServerID:  c.ServerID,
	})
}

// drainPending atomically fails every outstanding request with err and marks
// the client closed. Safe to call more than once.
func (c *Client) drainPending(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[int64]chan result)
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- result{err: err}
	}
}

// Shutdown performs the polite teardown: a shutdown request bounded by a
// short timeout (best effort, failure ignored), then all remaining pending
// requests are failed, then the exit notification is sent.
func (c *Client) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if _, err := c.Request(shutdownCtx, protocol.MethodShutdown, nil); err != nil {
		logging.Debug("shutdown request failed", "server", c.ServerID, "error", err)
	}

	// Queue exit before marking closed; the writer flushes the outbox on
	// shutdown, so exit is the last message on the wire.
	if err := c.Notify(protocol.MethodExit, nil); err != nil {
		logging.Debug("exit notification failed", "server", c.ServerID, "error", err)
	}

	c.drainPending(fmt.Errorf("server shutting down"))
}
