package lsp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lspmux/lspmux/internal/lsp/protocol"
)

func mkdirAll(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(path, 0o755))
	return path
}

func touch(t *testing.T, parts ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(parts...), nil, 0o644))
}

func TestDetectRoot_GitWinsOverCloserMarker(t *testing.T) {
	root := t.TempDir()
	mkdirAll(t, root, ".git")
	sub := mkdirAll(t, root, "sub")
	touch(t, sub, "package.json")
	deep := mkdirAll(t, sub, "deep")
	touch(t, deep, "file.ts")

	got := DetectRoot(protocol.URIFromPath(filepath.Join(deep, "file.ts")),
		[]string{"package.json"}, "/fallback")
	assert.Equal(t, root, got)
}

func TestDetectRoot_NearestMarkerWithoutVCS(t *testing.T) {
	root := t.TempDir()
	sub := mkdirAll(t, root, "sub")
	touch(t, sub, "package.json")
	deep := mkdirAll(t, sub, "deep")
	touch(t, deep, "file.ts")

	got := DetectRoot(protocol.URIFromPath(filepath.Join(deep, "file.ts")),
		[]string{"package.json"}, "/fallback")
	assert.Equal(t, sub, got)
}

func TestDetectRoot_FallbackWhenNothingFound(t *testing.T) {
	root := t.TempDir()
	deep := mkdirAll(t, root, "a", "b")
	touch(t, deep, "file.go")

	got := DetectRoot(protocol.URIFromPath(filepath.Join(deep, "file.go")),
		[]string{"not-there.toml"}, "/workspace")
	assert.Equal(t, "/workspace", got)
}

func TestDetectRoot_MarkerFileNamedLikeVCSDoesNotWin(t *testing.T) {
	// A plain file called .git is not a repository boundary.
	root := t.TempDir()
	sub := mkdirAll(t, root, "sub")
	touch(t, sub, ".git")
	touch(t, sub, "go.mod")
	deep := mkdirAll(t, sub, "deep")
	touch(t, deep, "main.go")

	got := DetectRoot(protocol.URIFromPath(filepath.Join(deep, "main.go")),
		[]string{"go.mod"}, "/fallback")
	assert.Equal(t, sub, got)
}
