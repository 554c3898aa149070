package protocol

// Method names used by this client.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "initialized"
	MethodShutdown    = "shutdown"
	MethodExit        = "exit"

	MethodDidOpen   = "textDocument/didOpen"
	MethodDidChange = "textDocument/didChange"
	MethodDidSave   = "textDocument/didSave"
	MethodDidClose  = "textDocument/didClose"

	MethodCompletion = "textDocument/completion"
	MethodHover      = "textDocument/hover"
	MethodDefinition = "textDocument/definition"

	MethodPublishDiagnostics = "textDocument/publishDiagnostics"

	MethodWorkspaceConfiguration = "workspace/configuration"
	MethodWorkspaceFolders       = "workspace/workspaceFolders"
	MethodDidChangeWatchedFiles  = "workspace/didChangeWatchedFiles"
	MethodWorkDoneProgressCreate = "window/workDoneProgress/create"
	MethodRegisterCapability     = "client/registerCapability"
	MethodUnregisterCapability   = "client/unregisterCapability"
	MethodWindowLogMessage       = "window/logMessage"
	MethodWindowShowMessage      = "window/showMessage"
	MethodProgress               = "$/progress"
	MethodLogTrace               = "$/logTrace"
	MethodCancelRequest          = "$/cancelRequest"
)
