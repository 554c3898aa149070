package lsp

import (
	"os"
	"path/filepath"

	"github.com/lspmux/lspmux/internal/lsp/protocol"
)

// vcsMarkers identify a version-control boundary. Finding one of these in an
// ancestor directory always wins over any configured marker file: a
// repository boundary is the strongest "this is one project" signal, while a
// marker file can appear in any subdirectory of a monorepo.
var vcsMarkers = []string{".git", ".hg", ".svn"}

// DetectRoot infers the project root for a file. It walks the ancestor
// chain starting at the file's directory: the first ancestor holding a VCS
// marker directory is returned outright; otherwise the ancestor nearest to
// the file holding one of the configured marker files is used; otherwise
// fallback (typically the workspace the consumer opened) is returned.
func DetectRoot(fileURI protocol.DocumentUri, markers []string, fallback string) string {
	path := fileURI.Path()

	var markerCandidate string
	dir := filepath.Dir(path)
	for {
		for _, vcs := range vcsMarkers {
			if info, err := os.Stat(filepath.Join(dir, vcs)); err == nil && info.IsDir() {
				return dir
			}
		}

		if markerCandidate == "" {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
					markerCandidate = dir
					break
				}
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if markerCandidate != "" {
		return markerCandidate
	}
	return fallback
}
