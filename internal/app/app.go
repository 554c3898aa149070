// Package app wires configuration, the language server registry, and the
// workspace watcher into one application lifecycle.
package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lspmux/lspmux/internal/config"
	"github.com/lspmux/lspmux/internal/logging"
	"github.com/lspmux/lspmux/internal/lsp"
	"github.com/lspmux/lspmux/internal/lsp/protocol"
	"github.com/lspmux/lspmux/internal/lsp/watcher"
	"github.com/lspmux/lspmux/internal/pubsub"
)

// App owns the registry and the workspace watcher for one working directory.
type App struct {
	Registry *lsp.Registry

	cfg     *config.Config
	watcher *watcher.Watcher
}

// New builds the application over an already-loaded configuration. The
// workspace watcher is optional: failure to create it is logged, not fatal.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		Registry: lsp.NewRegistry(cfg),
		cfg:      cfg,
	}

	w, err := watcher.New(app.Registry, cfg.WorkingDir)
	if err != nil {
		logging.Warn("workspace watcher unavailable", "error", err)
	} else {
		app.watcher = w
		w.Start(ctx)
	}

	return app, nil
}

// Events returns the stream of diagnostics and lifecycle notices from all
// connections.
func (app *App) Events(ctx context.Context) <-chan pubsub.Event[lsp.Event] {
	return lsp.Subscribe(ctx)
}

// OpenFile routes a file to every configured server for its language,
// starting servers as needed, and announces the document to each.
func (app *App) OpenFile(ctx context.Context, path string) ([]*lsp.Client, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	uri := protocol.URIFromPath(abs)

	languageID := string(lsp.DetectLanguageID(abs))
	if languageID == "" {
		return nil, fmt.Errorf("no language known for %s", filepath.Base(abs))
	}

	clients := app.Registry.GetClients(ctx, languageID, uri)
	for _, client := range clients {
		if err := client.DidOpen(ctx, uri, ""); err != nil {
			logging.Warn("didOpen failed", "server", client.ServerID, "file", abs, "error", err)
		}
	}
	return clients, nil
}

// FileReport holds the diagnostics gathered for one requested file, plus
// anything the servers flagged elsewhere in its project.
type FileReport struct {
	Path        string               `json:"path"`
	Diagnostics []lsp.FileDiagnostic `json:"diagnostics"`
	Project     []lsp.FileDiagnostic `json:"project,omitempty"`
}

// DiagnoseReport is the result of a diagnose run across requested files.
type DiagnoseReport struct {
	Files []FileReport `json:"files"`
}

// Text renders the report the way the CLI prints it.
func (r *DiagnoseReport) Text() string {
	var b strings.Builder
	for _, f := range r.Files {
		body := lsp.RenderDiagnostics(f.Diagnostics, f.Project)
		if body == "" {
			body = "No diagnostics.\n"
		}
		fmt.Fprintf(&b, "== %s\n%s", f.Path, body)
	}
	return b.String()
}

// Diagnose opens the given files, waits up to wait for diagnostics to
// settle, and returns a report per file.
func (app *App) Diagnose(ctx context.Context, paths []string, wait time.Duration) (*DiagnoseReport, error) {
	eventsCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := lsp.Subscribe(eventsCtx)

	clientSet := make(map[string]*lsp.Client)
	files := make([]string, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, err
		}
		files = append(files, abs)

		clients, err := app.OpenFile(ctx, path)
		if err != nil {
			logging.Warn("skipping file", "file", path, "reason", err)
			continue
		}
		for _, c := range clients {
			clientSet[c.ClientKey] = c
		}
	}

	if len(clientSet) == 0 {
		return nil, fmt.Errorf("no language server available for the given files")
	}

	app.awaitDiagnostics(ctx, events, wait)

	report := &DiagnoseReport{Files: make([]FileReport, 0, len(files))}
	for _, file := range files {
		fileDiags, projectDiags := lsp.CollectDiagnostics(file, clientSet)
		report.Files = append(report.Files, FileReport{
			Path:        file,
			Diagnostics: fileDiags,
			Project:     projectDiags,
		})
	}
	return report, nil
}

// awaitDiagnostics drains events until they go quiet or the deadline hits.
// Servers publish diagnostics at their own pace after didOpen; a short
// quiet period after the last batch is the best available settle signal.
func (app *App) awaitDiagnostics(ctx context.Context, events <-chan pubsub.Event[lsp.Event], wait time.Duration) {
	deadline := time.After(wait)
	quiet := time.NewTimer(wait)
	defer quiet.Stop()

	sawAny := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Payload.Kind == lsp.EventDiagnostics {
				sawAny = true
				quiet.Reset(500 * time.Millisecond)
			}
		case <-quiet.C:
			if sawAny {
				return
			}
			quiet.Reset(wait)
		}
	}
}

// Shutdown tears the application down politely: the watcher first, then
// every live server.
func (app *App) Shutdown(ctx context.Context) {
	if app.watcher != nil {
		if err := app.watcher.Stop(); err != nil {
			logging.Debug("watcher stop failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	app.Registry.ShutdownAll(shutdownCtx)
}

// ForceShutdown is the impatient variant used when the process must leave
// now: a very short grace period, then any remaining children are killed.
func (app *App) ForceShutdown() {
	if app.watcher != nil {
		_ = app.watcher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	app.Registry.ShutdownAll(shutdownCtx)
	cancel()

	forceKillChildProcesses()
}

// forceKillChildProcesses kills whatever child processes are still around.
func forceKillChildProcesses() {
	cmd := exec.Command("pgrep", "-P", strconv.Itoa(os.Getpid()))
	output, err := cmd.Output()
	if err != nil {
		// No children left, or pgrep is unavailable.
		return
	}

	for _, pidStr := range strings.Fields(string(output)) {
		pid, err := strconv.Atoi(pidStr)
		if err != nil {
			continue
		}
		if process, err := os.FindProcess(pid); err == nil {
			logging.Debug("force killing child process", "pid", pid)
			_ = process.Kill()
		}
	}
}
