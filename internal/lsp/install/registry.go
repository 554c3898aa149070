// Package install locates language server binaries and, for servers this
// tool knows how to manage, installs them on demand. Command resolution is a
// pure query; installation only happens through an explicit Install call.
package install

// Strategy defines how a managed server binary is obtained.
type Strategy int

const (
	StrategyNone          Strategy = iota // must be pre-installed by the user
	StrategyNpm                           // npm install --prefix <bin dir> <package>
	StrategyGoInstall                     // go install <module>@latest
	StrategyGitHubRelease                 // download from GitHub releases
)

func (s Strategy) String() string {
	switch s {
	case StrategyNpm:
		return "npm"
	case StrategyGoInstall:
		return "go-install"
	case StrategyGitHubRelease:
		return "github-release"
	default:
		return "none"
	}
}

// Tool describes how one server id maps onto an installable artifact.
// Binary is the executable name the install produces.
type Tool struct {
	ServerID string
	Binary   string
	Strategy Strategy
	Package  string // npm package names or go module path
	Repo     string // GitHub owner/repo for release downloads
}

// ManagedTools lists every server this tool can install itself. Servers not
// in this table must be installed by the user through their system package
// manager or toolchain.
var ManagedTools = []Tool{
	{
		ServerID: "gopls",
		Binary:   "gopls",
		Strategy: StrategyGoInstall,
		Package:  "golang.org/x/tools/gopls@latest",
	},
	{
		ServerID: "typescript",
		Binary:   "typescript-language-server",
		Strategy: StrategyNpm,
		Package:  "typescript-language-server typescript",
	},
	{
		ServerID: "pyright",
		Binary:   "pyright-langserver",
		Strategy: StrategyNpm,
		Package:  "pyright",
	},
	{
		ServerID: "bash",
		Binary:   "bash-language-server",
		Strategy: StrategyNpm,
		Package:  "bash-language-server",
	},
	{
		ServerID: "yaml",
		Binary:   "yaml-language-server",
		Strategy: StrategyNpm,
		Package:  "yaml-language-server",
	},
	{
		ServerID: "vue",
		Binary:   "vue-language-server",
		Strategy: StrategyNpm,
		Package:  "@vue/language-server",
	},
	{
		ServerID: "svelte",
		Binary:   "svelteserver",
		Strategy: StrategyNpm,
		Package:  "svelte-language-server",
	},
	{
		ServerID: "astro",
		Binary:   "astro-ls",
		Strategy: StrategyNpm,
		Package:  "@astrojs/language-server",
	},
	{
		ServerID: "intelephense",
		Binary:   "intelephense",
		Strategy: StrategyNpm,
		Package:  "intelephense",
	},
	{
		ServerID: "prisma",
		Binary:   "prisma-language-server",
		Strategy: StrategyNpm,
		Package:  "@prisma/language-server",
	},
	{
		ServerID: "lua-ls",
		Binary:   "lua-language-server",
		Strategy: StrategyGitHubRelease,
		Repo:     "LuaLS/lua-language-server",
	},
	{
		ServerID: "terraform",
		Binary:   "terraform-ls",
		Strategy: StrategyGitHubRelease,
		Repo:     "hashicorp/terraform-ls",
	},
	{
		ServerID: "tinymist",
		Binary:   "tinymist",
		Strategy: StrategyGitHubRelease,
		Repo:     "Myriad-Dreamin/tinymist",
	},
}

// Lookup returns the managed-tool entry for a server id, if there is one.
func Lookup(serverID string) (Tool, bool) {
	for _, t := range ManagedTools {
		if t.ServerID == serverID {
			return t, true
		}
	}
	return Tool{}, false
}

// Managed reports whether the server id has an install strategy.
func Managed(serverID string) bool {
	_, ok := Lookup(serverID)
	return ok
}
