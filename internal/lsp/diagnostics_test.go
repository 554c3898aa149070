package lsp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lspmux/lspmux/internal/lsp/protocol"
)

func diag(line uint32, severity protocol.DiagnosticSeverity, msg string) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    protocol.Range{Start: protocol.Position{Line: line, Character: 4}},
		Severity: severity,
		Source:   "gopls",
		Message:  msg,
	}
}

func TestCollectDiagnostics_SplitsFileAndProject(t *testing.T) {
	client := stubClient("gopls", "gopls@file:///proj")
	client.diagnostics[protocol.URIFromPath("/proj/main.go")] = []protocol.Diagnostic{
		diag(9, protocol.SeverityWarning, "unused variable"),
		diag(2, protocol.SeverityError, "undefined: foo"),
	}
	client.diagnostics[protocol.URIFromPath("/proj/other.go")] = []protocol.Diagnostic{
		diag(0, protocol.SeverityError, "syntax error"),
	}

	fileDiags, projectDiags := CollectDiagnostics("/proj/main.go", map[string]*Client{
		client.ClientKey: client,
	})

	require.Len(t, fileDiags, 2)
	require.Len(t, projectDiags, 1)

	// Errors come first within a section.
	assert.Equal(t, "Error", fileDiags[0].Severity)
	assert.Equal(t, "undefined: foo", fileDiags[0].Message)
	assert.Equal(t, 3, fileDiags[0].Line)
	assert.Equal(t, 5, fileDiags[0].Column)
	assert.Equal(t, "Warn", fileDiags[1].Severity)
	assert.Equal(t, "/proj/other.go", projectDiags[0].File)
}

func TestRenderDiagnostics_SectionsAndSummary(t *testing.T) {
	fileDiags := []FileDiagnostic{
		{File: "/proj/main.go", Line: 3, Column: 5, Severity: "Error", Source: "gopls", Message: "undefined: foo"},
		{File: "/proj/main.go", Line: 10, Column: 5, Severity: "Warn", Source: "gopls", Message: "unused variable"},
	}
	projectDiags := []FileDiagnostic{
		{File: "/proj/other.go", Line: 1, Column: 1, Severity: "Error", Source: "gopls", Message: "syntax error"},
	}

	out := RenderDiagnostics(fileDiags, projectDiags)

	assert.Contains(t, out, "Current file:\n")
	assert.Contains(t, out, "Project:\n")
	assert.Contains(t, out, "Error: /proj/main.go:3:5 [gopls] undefined: foo")
	assert.Contains(t, out, "Summary: file 1 errors / 1 warnings, project 1 errors / 0 warnings")
}

func TestRenderDiagnostics_EmptyIsEmptyString(t *testing.T) {
	assert.Equal(t, "", RenderDiagnostics(nil, nil))
}

func TestFormatDiagnostics_RendersClientCaches(t *testing.T) {
	client := stubClient("gopls", "gopls@file:///proj")
	client.diagnostics[protocol.URIFromPath("/proj/main.go")] = []protocol.Diagnostic{
		diag(2, protocol.SeverityError, "undefined: foo"),
	}

	out := FormatDiagnostics("/proj/main.go", map[string]*Client{client.ClientKey: client})

	assert.Contains(t, out, "Current file:\n")
	assert.Contains(t, out, "Error: /proj/main.go:3:5 [gopls] undefined: foo")
	assert.Equal(t, "", FormatDiagnostics("/proj/main.go", map[string]*Client{}))
}

func TestRenderDiagnostics_TruncatesLongSections(t *testing.T) {
	var diags []FileDiagnostic
	for i := 0; i < maxDiagnosticsPerSection+5; i++ {
		diags = append(diags, FileDiagnostic{
			File: "/proj/main.go", Line: i + 1, Column: 1,
			Severity: "Warn", Source: "gopls", Message: "lint",
		})
	}

	out := RenderDiagnostics(diags, nil)

	assert.Contains(t, out, "... and 5 more")
	assert.Equal(t, maxDiagnosticsPerSection, strings.Count(out, "lint"))
}

func TestFileDiagnosticString_CodeAndTags(t *testing.T) {
	d := FileDiagnostic{
		File: "/proj/main.go", Line: 7, Column: 2,
		Severity: "Warn", Source: "ts", Code: "6133", Tags: "unnecessary",
		Message: "declared but never read",
	}
	assert.Equal(t, "Warn: /proj/main.go:7:2 [ts][6133] (unnecessary) declared but never read", d.String())
}
