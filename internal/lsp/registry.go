package lsp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lspmux/lspmux/internal/config"
	"github.com/lspmux/lspmux/internal/logging"
	"github.com/lspmux/lspmux/internal/lsp/install"
	"github.com/lspmux/lspmux/internal/lsp/protocol"
	"github.com/lspmux/lspmux/internal/pubsub"
)

const (
	// startCooldown suppresses re-spawn attempts after a failed start.
	startCooldown = 15 * time.Second
	// startPollInterval is how often a waiter re-checks while another
	// caller is starting the same client.
	startPollInterval = 50 * time.Millisecond
)

// Registry multiplexes language server clients. It resolves which servers
// apply to a language, keys clients by server id and project root, and
// guarantees at most one live client per key, with a cooldown after failed
// starts and deduplication of concurrent start attempts.
type Registry struct {
	cfg *config.Config

	mu        sync.Mutex
	clients   map[string]*Client
	cooldowns map[string]time.Time
	starting  map[string]struct{}

	// startFn and resolveFn exist so tests can intercept process spawning.
	startFn   func(context.Context, StartOptions) (*Client, error)
	resolveFn func(string) (string, error)
}

// NewRegistry creates a registry over the effective configuration.
func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		cfg:       cfg,
		clients:   make(map[string]*Client),
		cooldowns: make(map[string]time.Time),
		starting:  make(map[string]struct{}),
		startFn:   Start,
		resolveFn: install.ResolveCommand,
	}
}

// ClientKey uniquely identifies one client: a server id bound to one root.
func ClientKey(serverID string, rootURI protocol.DocumentUri) string {
	return serverID + "@" + string(rootURI)
}

// ResolveServerIDs maps a language id to the server ids configured for it.
// A language with no route but whose id matches a server id directly routes
// to that server. An unknown language resolves to nothing, which is not an
// error.
func (r *Registry) ResolveServerIDs(languageID string) []string {
	if ids, ok := r.cfg.LanguageServers[languageID]; ok {
		return ids
	}
	if _, ok := r.cfg.Servers[languageID]; ok {
		return []string{languageID}
	}
	return nil
}

// GetClients returns a live client for every server configured for the
// language, starting them as needed. Fan-out is best effort: one server
// failing to start never blocks the others.
func (r *Registry) GetClients(ctx context.Context, languageID string, fileURI protocol.DocumentUri) []*Client {
	ids := r.ResolveServerIDs(languageID)
	if len(ids) == 0 {
		return nil
	}

	root := DetectRoot(fileURI, r.cfg.RootMarkers, r.cfg.WorkingDir)
	rootURI := protocol.URIFromPath(root)

	clients := make([]*Client, 0, len(ids))
	for _, id := range ids {
		if c := r.getOrStartClient(ctx, id, rootURI); c != nil {
			clients = append(clients, c)
		}
	}
	return clients
}

// getOrStartClient returns the live client for (serverID, root), starting
// one if needed. Returns nil when the key is cooling down after a failure or
// the start attempt fails.
func (r *Registry) getOrStartClient(ctx context.Context, serverID string, rootURI protocol.DocumentUri) *Client {
	key := ClientKey(serverID, rootURI)

	for {
		r.mu.Lock()
		if c, ok := r.clients[key]; ok {
			r.mu.Unlock()
			return c
		}
		if until, ok := r.cooldowns[key]; ok {
			if time.Now().Before(until) {
				r.mu.Unlock()
				return nil
			}
			delete(r.cooldowns, key)
		}
		if _, inFlight := r.starting[key]; inFlight {
			r.mu.Unlock()
			// Another caller is starting this client; wait for its
			// outcome and re-check.
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(startPollInterval):
			}
			continue
		}
		r.starting[key] = struct{}{}
		r.mu.Unlock()

		c := r.startClient(ctx, serverID, key, rootURI)

		r.mu.Lock()
		delete(r.starting, key)
		if c != nil {
			r.clients[key] = c
		} else {
			r.cooldowns[key] = time.Now().Add(startCooldown)
		}
		r.mu.Unlock()
		return c
	}
}

// startClient resolves the configured command and spawns the server. All
// failures are reported once via an event and result in nil.
func (r *Registry) startClient(ctx context.Context, serverID, key string, rootURI protocol.DocumentUri) *Client {
	desc, ok := r.cfg.Servers[serverID]
	if !ok {
		r.reportStartFailure(key, serverID, fmt.Sprintf("no server configured with id %q", serverID))
		return nil
	}

	path, err := r.resolveFn(desc.Command)
	if err != nil {
		msg := fmt.Sprintf("%s: %v (install it with your system package manager)", serverID, err)
		if install.Managed(serverID) {
			msg = fmt.Sprintf("%s: %v (run `lspmux install %s` to install it)", serverID, err, serverID)
		}
		r.reportStartFailure(key, serverID, msg)
		return nil
	}

	c, err := r.startFn(ctx, StartOptions{
		ServerID:  serverID,
		ClientKey: key,
		Command:   path,
		Args:      desc.Args,
		RootURI:   rootURI,
		OnExit: func(c *Client) {
			r.RemoveClient(c.ClientKey)
		},
	})
	if err != nil {
		r.reportStartFailure(key, serverID, err.Error())
		return nil
	}

	logging.Info("language server started", "server", serverID, "root", rootURI)
	return c
}

func (r *Registry) reportStartFailure(key, serverID, msg string) {
	logging.Warn("language server failed to start", "server", serverID, "error", msg)
	publish(pubsub.CreatedEvent, Event{
		Kind:      EventServerError,
		ClientKey: key,
		ServerID:  serverID,
		Message:   msg,
	})
}

// RemoveClient drops a client from the live table, so the next request
// starts a fresh one instead of reusing a dead entry.
func (r *Registry) RemoveClient(key string) {
	r.mu.Lock()
	delete(r.clients, key)
	r.mu.Unlock()
}

// Clients returns a snapshot of the live table.
func (r *Registry) Clients() map[string]*Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*Client, len(r.clients))
	for k, c := range r.clients {
		out[k] = c
	}
	return out
}

// ShutdownAll politely shuts down every live client. Used at teardown.
func (r *Registry) ShutdownAll(ctx context.Context) {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[string]*Client)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			defer logging.RecoverPanic("lsp-shutdown", nil)
			c.Shutdown(ctx)
		}(c)
	}
	wg.Wait()
}
