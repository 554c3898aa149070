package protocol

import (
	"net/url"
	"path/filepath"
	"strings"
)

// DocumentUri identifies a document, usually with the file scheme.
type DocumentUri string

// URIFromPath converts an absolute filesystem path to a file URI.
func URIFromPath(path string) DocumentUri {
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		// Windows drive letters need a leading slash in the URI path.
		path = "/" + path
	}
	u := url.URL{Scheme: "file", Path: path}
	return DocumentUri(u.String())
}

// Path converts a file URI back to a filesystem path. Non-file URIs are
// returned unchanged so callers can still display them.
func (u DocumentUri) Path() string {
	parsed, err := url.Parse(string(u))
	if err != nil || parsed.Scheme != "file" {
		return string(u)
	}
	path := parsed.Path
	// Strip the artificial leading slash in front of Windows drive letters.
	if len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}

// DirName returns the last path element of the URI, used as a display name
// for workspace folders.
func (u DocumentUri) DirName() string {
	return filepath.Base(u.Path())
}
