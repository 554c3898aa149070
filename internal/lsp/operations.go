package lsp

import (
	"context"
	"encoding/json"
	"os"

	"github.com/lspmux/lspmux/internal/logging"
	"github.com/lspmux/lspmux/internal/lsp/protocol"
)

// DidOpen announces a document to the server. The text is read from disk
// when not supplied. Reopening an already-open document is a no-op.
func (c *Client) DidOpen(ctx context.Context, uri protocol.DocumentUri, text string) error {
	c.versionsMu.Lock()
	if _, open := c.versions[uri]; open {
		c.versionsMu.Unlock()
		return nil
	}
	c.versions[uri] = 1
	c.versionsMu.Unlock()

	if text == "" {
		data, err := os.ReadFile(uri.Path())
		if err != nil {
			c.forgetDocument(uri)
			return err
		}
		text = string(data)
	}

	return c.Notify(protocol.MethodDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: DetectLanguageID(string(uri)),
			Version:    1,
			Text:       text,
		},
	})
}

// DidChange sends the full document text. Full sync trades bandwidth for
// trivially consistent server-side state.
func (c *Client) DidChange(ctx context.Context, uri protocol.DocumentUri, text string) error {
	c.versionsMu.Lock()
	version, open := c.versions[uri]
	if !open {
		c.versionsMu.Unlock()
		return c.DidOpen(ctx, uri, text)
	}
	version++
	c.versions[uri] = version
	c.versionsMu.Unlock()

	return c.Notify(protocol.MethodDidChange, protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                version,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: text}},
	})
}

// DidSave notifies the server that the document was written to disk.
func (c *Client) DidSave(ctx context.Context, uri protocol.DocumentUri) error {
	return c.Notify(protocol.MethodDidSave, protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
}

// DidClose tells the server to drop the document and clears its cached
// diagnostics and version.
func (c *Client) DidClose(ctx context.Context, uri protocol.DocumentUri) error {
	c.forgetDocument(uri)
	c.storeDiagnostics(uri, nil)
	return c.Notify(protocol.MethodDidClose, protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	})
}

func (c *Client) forgetDocument(uri protocol.DocumentUri) {
	c.versionsMu.Lock()
	delete(c.versions, uri)
	c.versionsMu.Unlock()
}

// IsOpen reports whether the document was announced via DidOpen.
func (c *Client) IsOpen(uri protocol.DocumentUri) bool {
	c.versionsMu.Lock()
	defer c.versionsMu.Unlock()
	_, open := c.versions[uri]
	return open
}

// Completion requests completion items at the given position. Servers return
// either a bare item array or a CompletionList; a result decoding as neither
// degrades to no results, since conformance varies across servers.
func (c *Client) Completion(ctx context.Context, uri protocol.DocumentUri, line, character uint32) ([]protocol.CompletionItem, error) {
	params := protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: line, Character: character},
		},
		Context: &protocol.CompletionContext{
			TriggerKind: protocol.TriggerInvoked,
		},
	}

	raw, err := c.Request(ctx, protocol.MethodCompletion, params)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}

	var list protocol.CompletionList
	if err := json.Unmarshal(raw, &list); err == nil {
		return list.Items, nil
	}
	var items []protocol.CompletionItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}

	logging.Debug("completion result in unexpected shape",
		"server", c.ServerID, "uri", uri)
	return nil, nil
}

// Hover requests hover information; nil means nothing to show.
func (c *Client) Hover(ctx context.Context, uri protocol.DocumentUri, line, character uint32) (*protocol.Hover, error) {
	params := protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: line, Character: character},
		},
	}

	raw, err := c.Request(ctx, protocol.MethodHover, params)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}

	var hover protocol.Hover
	if err := json.Unmarshal(raw, &hover); err != nil {
		logging.Debug("hover result in unexpected shape",
			"server", c.ServerID, "uri", uri, "error", err)
		return nil, nil
	}
	return &hover, nil
}

// Definition resolves the definition sites for the symbol at the position.
// Servers answer with a single Location, a Location array, or LocationLinks;
// all three shapes are normalized to a Location slice.
func (c *Client) Definition(ctx context.Context, uri protocol.DocumentUri, line, character uint32) ([]protocol.Location, error) {
	params := protocol.DefinitionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: line, Character: character},
		},
	}

	raw, err := c.Request(ctx, protocol.MethodDefinition, params)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}

	var locations []protocol.Location
	if err := json.Unmarshal(raw, &locations); err == nil {
		// A LocationLink array also decodes here, but with empty URIs;
		// only accept the plain shape when the URIs are present.
		if len(locations) == 0 || locations[0].URI != "" {
			return locations, nil
		}
	}
	var single protocol.Location
	if err := json.Unmarshal(raw, &single); err == nil && single.URI != "" {
		return []protocol.Location{single}, nil
	}
	var links []protocol.LocationLink
	if err := json.Unmarshal(raw, &links); err == nil {
		locations = make([]protocol.Location, 0, len(links))
		for _, link := range links {
			locations = append(locations, protocol.Location{
				URI:   link.TargetURI,
				Range: link.TargetRange,
			})
		}
		return locations, nil
	}

	logging.Debug("definition result in unexpected shape",
		"server", c.ServerID, "uri", uri)
	return nil, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
