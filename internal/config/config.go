// Package config manages application configuration from various sources.
//
// Two trust scopes exist. The global scope (per-user file plus environment)
// is trusted: it may define which executables run as language servers. The
// project-local scope is untrusted, because it arrives with whatever
// repository the user opened: it may tune servers that the trusted scope
// already defines, but it must never introduce a new command to execute.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/lspmux/lspmux/internal/logging"
)

// ServerDescriptor describes how to launch one kind of language server.
type ServerDescriptor struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Data defines storage locations for logs and managed tools.
type Data struct {
	Directory string `json:"directory,omitempty"`
}

// Config is the effective configuration: built-in defaults merged with the
// trusted global scope and filtered project-local overlays. It is built once
// by Load and read-only afterwards.
type Config struct {
	WorkingDir         string                      `json:"wd,omitempty"`
	Data               Data                        `json:"data"`
	Servers            map[string]ServerDescriptor `json:"servers,omitempty"`
	LanguageServers    map[string][]string         `json:"language_servers,omitempty"`
	RootMarkers        []string                    `json:"root_markers,omitempty"`
	Debug              bool                        `json:"debug,omitempty"`
	DebugLSP           bool                        `json:"debugLSP,omitempty"`
	DisableLSPDownload bool                        `json:"disableLSPDownload,omitempty"`
}

// overlay is the file shape shared by both scopes. RootMarkers is a pointer
// to tell "absent" apart from "present but empty".
type overlay struct {
	Servers         map[string]ServerDescriptor `json:"servers"           mapstructure:"servers"`
	LanguageServers map[string][]string         `json:"language_servers"  mapstructure:"language_servers"`
	RootMarkers     *[]string                   `json:"root_markers"      mapstructure:"root_markers"`
}

const (
	defaultDataDirectory = ".lspmux"
	appName              = "lspmux"
)

// localConfigNames are project-local overlay files probed under the working
// directory, in merge order.
var localConfigNames = []string{
	".lspmux.json",
	filepath.Join(".lspmux", "config.json"),
}

// Global configuration instance
var cfg *Config

// Reset clears the global configuration, allowing Load to be called again.
// This is intended for use in tests only.
func Reset() {
	cfg = nil
	viper.Reset()
}

// Load initializes the configuration from built-in defaults, the global
// config file, environment variables, and project-local overlays.
func Load(workingDir string, debug bool) (*Config, error) {
	if cfg != nil {
		return cfg, nil
	}

	cfg = &Config{
		WorkingDir:      workingDir,
		Servers:         builtinServers(),
		LanguageServers: builtinLanguageServers(),
		RootMarkers:     builtinRootMarkers(),
	}

	configureViper()
	setDefaults(debug)

	// Read global config
	if err := readConfig(viper.ReadInConfig()); err != nil {
		return cfg, err
	}

	var global overlay
	if err := viper.Unmarshal(&global); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyTrusted(cfg, &global)

	cfg.Data.Directory = viper.GetString("data.directory")
	cfg.Debug = viper.GetBool("debug")
	cfg.DebugLSP = viper.GetBool("debugLSP")
	cfg.DisableLSPDownload = viper.GetBool("disableLSPDownload")

	// Project-local overlays are untrusted and merged through the filter.
	mergeLocalConfig(workingDir)

	if err := setupLogging(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// configureViper sets up viper's configuration paths and environment variables.
func configureViper() {
	viper.SetConfigName(fmt.Sprintf(".%s", appName))
	viper.SetConfigType("json")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(fmt.Sprintf("$XDG_CONFIG_HOME/%s", appName))
	viper.AddConfigPath(fmt.Sprintf("$HOME/.config/%s", appName))
	viper.SetEnvPrefix(strings.ToUpper(appName))
	viper.AutomaticEnv()
}

// setDefaults configures default values for configuration options.
func setDefaults(debug bool) {
	viper.SetDefault("data.directory", defaultDataDirectory)

	if v := os.Getenv("LSPMUX_DISABLE_LSP_DOWNLOAD"); v == "true" || v == "1" {
		viper.Set("disableLSPDownload", true)
	}

	if debug {
		viper.SetDefault("debug", true)
	} else {
		viper.SetDefault("debug", false)
	}
}

// readConfig handles the result of reading a configuration file.
func readConfig(err error) error {
	if err == nil {
		return nil
	}

	// It's okay if the config file doesn't exist
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return nil
	}

	return fmt.Errorf("failed to read config: %w", err)
}

// applyTrusted merges a trusted overlay: servers and routes may be added or
// replaced outright, the marker list is replaced only when non-empty.
func applyTrusted(cfg *Config, o *overlay) {
	for id, srv := range o.Servers {
		if srv.Command == "" {
			logging.Warn("server entry has no command, ignoring", "server", id)
			continue
		}
		cfg.Servers[id] = srv
	}
	for lang, ids := range o.LanguageServers {
		if len(ids) == 0 {
			continue
		}
		cfg.LanguageServers[lang] = ids
	}
	if o.RootMarkers != nil && len(*o.RootMarkers) > 0 {
		cfg.RootMarkers = append([]string(nil), *o.RootMarkers...)
	}
}

// applyUntrusted merges a project-local overlay under the trust rules:
// a repository must never be able to run a command the user did not already
// trust, so new server ids and routes to unknown ids are rejected.
func applyUntrusted(cfg *Config, o *overlay, source string) {
	for id, srv := range o.Servers {
		existing, ok := cfg.Servers[id]
		if !ok {
			logging.Warn("project config tried to add unknown server, ignoring",
				"server", id, "source", source)
			continue
		}
		// Only args may be tuned; the command stays what the user trusted.
		existing.Args = append([]string(nil), srv.Args...)
		cfg.Servers[id] = existing
	}

	for lang, ids := range o.LanguageServers {
		filtered := make([]string, 0, len(ids))
		for _, id := range ids {
			if _, ok := cfg.Servers[id]; ok {
				filtered = append(filtered, id)
			} else {
				logging.Warn("project config routed language to unknown server, dropping",
					"language", lang, "server", id, "source", source)
			}
		}
		if len(filtered) == 0 {
			continue
		}
		cfg.LanguageServers[lang] = filtered
	}

	if o.RootMarkers != nil {
		cfg.RootMarkers = append([]string(nil), *o.RootMarkers...)
	}
}

// mergeLocalConfig loads project-local overlay files from the working
// directory. Malformed files are logged and skipped so a broken or hostile
// repository cannot keep the editor session from working.
func mergeLocalConfig(workingDir string) {
	for _, name := range localConfigNames {
		path := filepath.Join(workingDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var o overlay
		if err := json.Unmarshal(data, &o); err != nil {
			logging.Warn("ignoring malformed project config", "path", path, "error", err)
			continue
		}
		applyUntrusted(cfg, &o, path)
	}
}

// setupLogging configures the default slog logger the way the rest of the
// application expects it.
func setupLogging() error {
	defaultLevel := slog.LevelInfo
	if cfg.Debug {
		defaultLevel = slog.LevelDebug
	}

	if os.Getenv("LSPMUX_DEV_DEBUG") == "true" {
		loggingFile := filepath.Join(cfg.Data.Directory, "debug.log")

		if _, err := os.Stat(loggingFile); os.IsNotExist(err) {
			if err := os.MkdirAll(cfg.Data.Directory, 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		}

		sloggingFileWriter, err := os.OpenFile(loggingFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logger := slog.New(slog.NewTextHandler(sloggingFileWriter, &slog.HandlerOptions{
			Level: defaultLevel,
		}))
		slog.SetDefault(logger)
		return nil
	}

	logger := slog.New(slog.NewTextHandler(logging.NewWriter(), &slog.HandlerOptions{
		Level: defaultLevel,
	}))
	slog.SetDefault(logger)
	return nil
}

// Get returns the current configuration.
// It's safe to call this function multiple times.
func Get() *Config {
	return cfg
}

// WorkingDirectory returns the current working directory from the configuration.
func WorkingDirectory() string {
	if cfg == nil {
		panic("config not loaded")
	}
	return cfg.WorkingDir
}
