// Package watcher forwards filesystem changes under the workspace to every
// live language server as workspace/didChangeWatchedFiles notifications, so
// servers pick up edits made outside the editor (generated code, branch
// switches, tool output).
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/lspmux/lspmux/internal/logging"
	"github.com/lspmux/lspmux/internal/lsp"
	"github.com/lspmux/lspmux/internal/lsp/protocol"
)

// ignoredDirs are never watched; they churn constantly and servers do their
// own discovery inside them anyway.
var ignoredDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"dist":         true,
	"build":        true,
	".idea":        true,
	".vscode":      true,
}

// Watcher observes one workspace directory tree.
type Watcher struct {
	registry *lsp.Registry
	workDir  string

	fs      *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	started bool
}

// New creates a watcher rooted at workDir. Directories are added
// recursively; newly created directories are picked up while running.
func New(registry *lsp.Registry, workDir string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		registry: registry,
		workDir:  workDir,
		fs:       fs,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	if err := w.addRecursive(workDir); err != nil {
		fs.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (ignoredDirs[name] || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			logging.Debug("cannot watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// Start begins forwarding events. Safe to call once.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	defer logging.RecoverPanic("workspace-watcher", nil)
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logging.Warn("workspace watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	changeType, relevant := mapOp(ev.Op)
	if !relevant {
		return
	}

	// Keep newly created directories under watch.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !ignoredDirs[filepath.Base(ev.Name)] {
				_ = w.addRecursive(ev.Name)
			}
			return
		}
	}

	params := protocol.DidChangeWatchedFilesParams{
		Changes: []protocol.FileEvent{
			{URI: protocol.URIFromPath(ev.Name), Type: changeType},
		},
	}

	for _, client := range w.registry.Clients() {
		if !underRoot(ev.Name, client.RootURI.Path()) {
			continue
		}
		if err := client.Notify(protocol.MethodDidChangeWatchedFiles, params); err != nil {
			logging.Debug("failed to forward file change",
				"server", client.ServerID, "path", ev.Name, "error", err)
		}
	}
}

// underRoot reports whether path is root itself or inside it. A plain prefix
// check is not enough: /work/app must not claim /work/app-v2.
func underRoot(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

func mapOp(op fsnotify.Op) (protocol.FileChangeType, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return protocol.FileCreated, true
	case op.Has(fsnotify.Write):
		return protocol.FileChanged, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return protocol.FileDeleted, true
	default:
		return 0, false
	}
}

// Stop halts the watcher and releases its OS resources.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	w.mu.Unlock()

	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
	if started {
		<-w.doneCh
	}
	return w.fs.Close()
}
