package lsp

import (
	"encoding/json"

	"github.com/lspmux/lspmux/internal/logging"
	"github.com/lspmux/lspmux/internal/lsp/protocol"
	"github.com/lspmux/lspmux/internal/lsp/transport"
	"github.com/lspmux/lspmux/internal/pubsub"
)

// handleServerRequest answers server-to-client requests from a small fixed
// table. Every request gets an immediate reply; an unknown method gets a
// method-not-found error, never a dropped call or a disconnect.
func (c *Client) handleServerRequest(msg *transport.Message) {
	var reply *transport.Message
	var err error

	switch msg.Method {
	case protocol.MethodWorkspaceConfiguration:
		// Decline to supply configuration: one null per requested item.
		var params protocol.ConfigurationParams
		n := 0
		if uerr := json.Unmarshal(msg.Params, &params); uerr == nil {
			n = len(params.Items)
		}
		nulls := make([]any, n)
		reply, err = transport.NewResponse(msg.ID, nulls)

	case protocol.MethodWorkspaceFolders:
		folders := []protocol.WorkspaceFolder{
			{URI: c.RootURI, Name: c.RootURI.DirName()},
		}
		reply, err = transport.NewResponse(msg.ID, folders)

	case protocol.MethodWorkDoneProgressCreate,
		protocol.MethodRegisterCapability,
		protocol.MethodUnregisterCapability:
		reply, err = transport.NewResponse(msg.ID, nil)

	default:
		logging.Debug("unhandled server request", "server", c.ServerID, "method", msg.Method)
		reply = transport.NewErrorResponse(msg.ID, transport.CodeMethodNotFound,
			"method not found: "+msg.Method)
	}

	if err != nil {
		logging.Warn("failed to build reply for server request",
			"server", c.ServerID, "method", msg.Method, "error", err)
		reply = transport.NewErrorResponse(msg.ID, transport.CodeInternalError,
			"internal error")
	}

	if qerr := c.enqueue(reply); qerr != nil {
		logging.Debug("failed to reply to server request",
			"server", c.ServerID, "method", msg.Method, "error", qerr)
	}
}

// handleNotification forwards diagnostics and quietly absorbs everything
// else. Unknown notifications are never an error.
func (c *Client) handleNotification(msg *transport.Message) {
	switch msg.Method {
	case protocol.MethodPublishDiagnostics:
		var params protocol.PublishDiagnosticsParams
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			logging.Debug("malformed diagnostics notification",
				"server", c.ServerID, "error", err)
			return
		}
		c.storeDiagnostics(params.URI, params.Diagnostics)
		eventType := pubsub.UpdatedEvent
		if len(params.Diagnostics) == 0 {
			eventType = pubsub.DeletedEvent
		}
		publish(eventType, Event{
			Kind:        EventDiagnostics,
			ClientKey:   c.ClientKey,
			ServerID:    c.ServerID,
			URI:         params.URI,
			Version:     params.Version,
			Diagnostics: params.Diagnostics,
		})

	case protocol.MethodWindowLogMessage, protocol.MethodWindowShowMessage:
		var params struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(msg.Params, &params); err == nil && params.Message != "" {
			logging.Debug("lsp server message", "server", c.ServerID, "message", params.Message)
		}

	case protocol.MethodProgress, protocol.MethodLogTrace:
		// High-volume chatter, intentionally ignored.

	default:
		logging.Debug("ignoring notification", "server", c.ServerID, "method", msg.Method)
	}
}

func (c *Client) storeDiagnostics(uri protocol.DocumentUri, diags []protocol.Diagnostic) {
	c.diagnosticsMu.Lock()
	defer c.diagnosticsMu.Unlock()
	if len(diags) == 0 {
		delete(c.diagnostics, uri)
		return
	}
	c.diagnostics[uri] = diags
}

// GetDiagnostics returns a snapshot of the latest diagnostics per document.
func (c *Client) GetDiagnostics() map[protocol.DocumentUri][]protocol.Diagnostic {
	c.diagnosticsMu.Lock()
	defer c.diagnosticsMu.Unlock()
	out := make(map[protocol.DocumentUri][]protocol.Diagnostic, len(c.diagnostics))
	for uri, diags := range c.diagnostics {
		out[uri] = diags
	}
	return out
}
