package protocol

import "encoding/json"

// CompletionTriggerKind per the LSP spec.
type CompletionTriggerKind int

const (
	TriggerInvoked          CompletionTriggerKind = 1
	TriggerCharacter        CompletionTriggerKind = 2
	TriggerIncompleteResult CompletionTriggerKind = 3
)

// CompletionContext describes how a completion was requested.
type CompletionContext struct {
	TriggerKind      CompletionTriggerKind `json:"triggerKind"`
	TriggerCharacter string                `json:"triggerCharacter,omitempty"`
}

// CompletionParams for textDocument/completion.
type CompletionParams struct {
	TextDocumentPositionParams
	Context *CompletionContext `json:"context,omitempty"`
}

// CompletionItem is one completion suggestion. TextEdit is kept raw because
// servers send either a TextEdit or an InsertReplaceEdit.
type CompletionItem struct {
	Label            string          `json:"label"`
	Kind             int             `json:"kind,omitempty"`
	Detail           string          `json:"detail,omitempty"`
	Documentation    any             `json:"documentation,omitempty"`
	SortText         string          `json:"sortText,omitempty"`
	FilterText       string          `json:"filterText,omitempty"`
	InsertText       string          `json:"insertText,omitempty"`
	InsertTextFormat int             `json:"insertTextFormat,omitempty"`
	TextEdit         json.RawMessage `json:"textEdit,omitempty"`
}

// CompletionList is the list-shaped completion result.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

// HoverParams for textDocument/hover.
type HoverParams struct {
	TextDocumentPositionParams
}

// MarkupContent is hover documentation text.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// Hover is the hover result.
type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// DefinitionParams for textDocument/definition.
type DefinitionParams struct {
	TextDocumentPositionParams
}

// ConfigurationItem is one entry of a workspace/configuration request.
type ConfigurationItem struct {
	ScopeURI DocumentUri `json:"scopeUri,omitempty"`
	Section  string      `json:"section,omitempty"`
}

// ConfigurationParams is the payload of a server-initiated
// workspace/configuration request.
type ConfigurationParams struct {
	Items []ConfigurationItem `json:"items"`
}
