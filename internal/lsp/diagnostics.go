package lsp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lspmux/lspmux/internal/lsp/protocol"
)

const maxDiagnosticsPerSection = 25

// FileDiagnostic is one diagnostic flattened for reporting, with the
// positions 1-based as an editor would show them.
type FileDiagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
	Source   string `json:"source,omitempty"`
	Code     string `json:"code,omitempty"`
	Tags     string `json:"tags,omitempty"`
	Message  string `json:"message"`
	ServerID string `json:"server_id"`
}

func severityLabel(s protocol.DiagnosticSeverity) string {
	switch s {
	case protocol.SeverityError:
		return "Error"
	case protocol.SeverityWarning:
		return "Warn"
	case protocol.SeverityHint:
		return "Hint"
	default:
		return "Info"
	}
}

func newFileDiagnostic(path string, diag protocol.Diagnostic, serverID string) FileDiagnostic {
	source := diag.Source
	if source == "" {
		source = serverID
	}

	code := ""
	if diag.Code != nil {
		code = fmt.Sprintf("%v", diag.Code)
	}

	tags := ""
	if len(diag.Tags) > 0 {
		names := make([]string, 0, len(diag.Tags))
		for _, tag := range diag.Tags {
			switch tag {
			case protocol.Unnecessary:
				names = append(names, "unnecessary")
			case protocol.Deprecated:
				names = append(names, "deprecated")
			}
		}
		tags = strings.Join(names, ", ")
	}

	return FileDiagnostic{
		File:     path,
		Line:     int(diag.Range.Start.Line) + 1,
		Column:   int(diag.Range.Start.Character) + 1,
		Severity: severityLabel(diag.Severity),
		Source:   source,
		Code:     code,
		Tags:     tags,
		Message:  diag.Message,
		ServerID: serverID,
	}
}

func (d FileDiagnostic) String() string {
	code := ""
	if d.Code != "" {
		code = fmt.Sprintf("[%s]", d.Code)
	}
	tags := ""
	if d.Tags != "" {
		tags = fmt.Sprintf(" (%s)", d.Tags)
	}
	return fmt.Sprintf("%s: %s:%d:%d [%s]%s%s %s",
		d.Severity, d.File, d.Line, d.Column, d.Source, code, tags, d.Message)
}

// sortBySeverity orders diagnostics errors-first, then by file position, so
// the most urgent findings are at the top of each section.
func sortBySeverity(diags []FileDiagnostic) {
	sort.Slice(diags, func(i, j int) bool {
		iErr := diags[i].Severity == "Error"
		jErr := diags[j].Severity == "Error"
		if iErr != jErr {
			return iErr
		}
		if diags[i].File != diags[j].File {
			return diags[i].File < diags[j].File
		}
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		return diags[i].Column < diags[j].Column
	})
}

// CollectDiagnostics gathers the cached diagnostics of every client, split
// into findings for the given file and findings elsewhere in the project.
// Both slices come back errors-first.
func CollectDiagnostics(filePath string, clients map[string]*Client) (fileDiags, projectDiags []FileDiagnostic) {
	for _, client := range clients {
		for uri, diags := range client.GetDiagnostics() {
			path := uri.Path()
			for _, diag := range diags {
				fd := newFileDiagnostic(path, diag, client.ServerID)
				if path == filePath {
					fileDiags = append(fileDiags, fd)
				} else {
					projectDiags = append(projectDiags, fd)
				}
			}
		}
	}
	sortBySeverity(fileDiags)
	sortBySeverity(projectDiags)
	return fileDiags, projectDiags
}

// RenderDiagnostics formats collected diagnostics as a plain-text report with
// a section per scope and a closing summary line. Returns "" when both
// slices are empty.
func RenderDiagnostics(fileDiags, projectDiags []FileDiagnostic) string {
	if len(fileDiags) == 0 && len(projectDiags) == 0 {
		return ""
	}

	var b strings.Builder
	writeSection := func(title string, diags []FileDiagnostic) {
		if len(diags) == 0 {
			return
		}
		fmt.Fprintf(&b, "%s:\n", title)
		shown := diags
		if len(shown) > maxDiagnosticsPerSection {
			shown = shown[:maxDiagnosticsPerSection]
		}
		for _, d := range shown {
			fmt.Fprintf(&b, "  %s\n", d)
		}
		if len(diags) > maxDiagnosticsPerSection {
			fmt.Fprintf(&b, "  ... and %d more\n", len(diags)-maxDiagnosticsPerSection)
		}
	}

	writeSection("Current file", fileDiags)
	writeSection("Project", projectDiags)

	fmt.Fprintf(&b, "Summary: file %d errors / %d warnings, project %d errors / %d warnings\n",
		countSeverity(fileDiags, "Error"), countSeverity(fileDiags, "Warn"),
		countSeverity(projectDiags, "Error"), countSeverity(projectDiags, "Warn"))

	return b.String()
}

// FormatDiagnostics renders the cached diagnostics of every client for one
// file as plain text.
func FormatDiagnostics(filePath string, clients map[string]*Client) string {
	fileDiags, projectDiags := CollectDiagnostics(filePath, clients)
	return RenderDiagnostics(fileDiags, projectDiags)
}

func countSeverity(diags []FileDiagnostic, severity string) int {
	count := 0
	for _, d := range diags {
		if d.Severity == severity {
			count++
		}
	}
	return count
}
