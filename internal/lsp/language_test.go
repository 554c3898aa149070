package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lspmux/lspmux/internal/lsp/protocol"
)

func TestDetectLanguageID(t *testing.T) {
	tests := []struct {
		path     string
		expected protocol.LanguageKind
	}{
		{"/proj/main.go", protocol.LangGo},
		{"/proj/src/App.TSX", protocol.LangTypeScriptReact},
		{"/proj/lib.rs", protocol.LangRust},
		{"/proj/script.sh", protocol.LangShellScript},
		{"/proj/infra/main.tf", protocol.LangTerraform},
		{"/proj/Dockerfile", protocol.LangDockerfile},
		{"/proj/Gemfile", protocol.LangRuby},
		{"/proj/report.typ", protocol.LangTypst},
		{"/proj/flake.nix", protocol.LangNix},
		{"/proj/README", protocol.LanguageKind("")},
		{"/proj/archive.tar.gz", protocol.LanguageKind("")},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DetectLanguageID(tt.path), "path %s", tt.path)
	}
}

// Every extension the detector knows must map to a language kind the
// protocol package defines, so didOpen never carries an invented id.
func TestDetectLanguageID_TableIsNonEmptyKinds(t *testing.T) {
	for ext, lang := range extensionLanguages {
		assert.NotEmpty(t, lang, "extension %s", ext)
	}
	for name, lang := range filenameLanguages {
		assert.NotEmpty(t, lang, "filename %s", name)
	}
}
