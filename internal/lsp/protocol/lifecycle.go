package protocol

import "encoding/json"

// InitializeParams for the initialize handshake. Capability advertisement is
// conservative: only features this client actually consumes are announced.
type InitializeParams struct {
	ProcessID             int                `json:"processId"`
	RootURI               DocumentUri        `json:"rootUri,omitempty"`
	Capabilities          ClientCapabilities `json:"capabilities"`
	InitializationOptions any                `json:"initializationOptions,omitempty"`
	WorkspaceFolders      []WorkspaceFolder  `json:"workspaceFolders,omitempty"`
	ClientInfo            *ClientInfo        `json:"clientInfo,omitempty"`
}

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type ClientCapabilities struct {
	TextDocument TextDocumentClientCapabilities `json:"textDocument"`
	Workspace    WorkspaceClientCapabilities    `json:"workspace"`
	Window       *WindowClientCapabilities      `json:"window,omitempty"`
}

type TextDocumentClientCapabilities struct {
	Completion         *CompletionClientCapabilities  `json:"completion,omitempty"`
	Hover              *HoverClientCapabilities       `json:"hover,omitempty"`
	Definition         *DefinitionClientCapabilities  `json:"definition,omitempty"`
	PublishDiagnostics *PublishDiagnosticsCapability  `json:"publishDiagnostics,omitempty"`
	Synchronization    *TextDocumentSyncClientCapabil `json:"synchronization,omitempty"`
}

type CompletionClientCapabilities struct {
	CompletionItem CompletionItemCapability `json:"completionItem"`
}

type CompletionItemCapability struct {
	SnippetSupport       bool `json:"snippetSupport"`
	InsertReplaceSupport bool `json:"insertReplaceSupport"`
}

type HoverClientCapabilities struct {
	ContentFormat []string `json:"contentFormat,omitempty"`
}

type DefinitionClientCapabilities struct {
	LinkSupport bool `json:"linkSupport"`
}

type PublishDiagnosticsCapability struct {
	RelatedInformation bool `json:"relatedInformation"`
	VersionSupport     bool `json:"versionSupport"`
	TagSupport         *struct {
		ValueSet []DiagnosticTag `json:"valueSet"`
	} `json:"tagSupport,omitempty"`
}

type TextDocumentSyncClientCapabil struct {
	DidSave bool `json:"didSave"`
}

type WorkspaceClientCapabilities struct {
	WorkspaceFolders       bool                          `json:"workspaceFolders"`
	Configuration          bool                          `json:"configuration"`
	DidChangeConfiguration *DynamicRegistrationCapable   `json:"didChangeConfiguration,omitempty"`
	DidChangeWatchedFiles  *DynamicRegistrationCapable   `json:"didChangeWatchedFiles,omitempty"`
	Symbol                 *WorkspaceSymbolClientCapabil `json:"symbol,omitempty"`
}

type DynamicRegistrationCapable struct {
	DynamicRegistration bool `json:"dynamicRegistration"`
}

type WorkspaceSymbolClientCapabil struct {
	DynamicRegistration bool `json:"dynamicRegistration"`
}

type WindowClientCapabilities struct {
	WorkDoneProgress bool `json:"workDoneProgress"`
}

// InitializeResult carries the server's capability set. Capabilities are kept
// raw: servers disagree enough about shapes that decoding them strictly
// causes more harm than good.
type InitializeResult struct {
	Capabilities json.RawMessage `json:"capabilities"`
	ServerInfo   *ServerInfo     `json:"serverInfo,omitempty"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializedParams is empty by definition.
type InitializedParams struct{}

// DefaultClientCapabilities is the capability set advertised on every
// handshake: completion with snippets and insert/replace, hover, definition
// with links, versioned diagnostics with related information, and workspace
// folder plus dynamic configuration support.
func DefaultClientCapabilities() ClientCapabilities {
	return ClientCapabilities{
		TextDocument: TextDocumentClientCapabilities{
			Completion: &CompletionClientCapabilities{
				CompletionItem: CompletionItemCapability{
					SnippetSupport:       true,
					InsertReplaceSupport: true,
				},
			},
			Hover: &HoverClientCapabilities{
				ContentFormat: []string{"markdown", "plaintext"},
			},
			Definition: &DefinitionClientCapabilities{LinkSupport: true},
			PublishDiagnostics: &PublishDiagnosticsCapability{
				RelatedInformation: true,
				VersionSupport:     true,
			},
			Synchronization: &TextDocumentSyncClientCapabil{DidSave: true},
		},
		Workspace: WorkspaceClientCapabilities{
			WorkspaceFolders:       true,
			Configuration:          true,
			DidChangeConfiguration: &DynamicRegistrationCapable{DynamicRegistration: true},
			DidChangeWatchedFiles:  &DynamicRegistrationCapable{DynamicRegistration: true},
		},
	}
}
