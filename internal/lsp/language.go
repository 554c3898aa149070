package lsp

import (
	"path/filepath"
	"strings"

	"github.com/lspmux/lspmux/internal/lsp/protocol"
)

// extensionLanguages maps file extensions to the language ids this tool can
// route. Extensions outside the table come back as the empty kind, which
// callers treat as "no server configured".
var extensionLanguages = map[string]protocol.LanguageKind{
	".go":      protocol.LangGo,
	".ts":      protocol.LangTypeScript,
	".mts":     protocol.LangTypeScript,
	".cts":     protocol.LangTypeScript,
	".tsx":     protocol.LangTypeScriptReact,
	".js":      protocol.LangJavaScript,
	".mjs":     protocol.LangJavaScript,
	".cjs":     protocol.LangJavaScript,
	".jsx":     protocol.LangJavaScriptReact,
	".py":      protocol.LangPython,
	".pyi":     protocol.LangPython,
	".rs":      protocol.LangRust,
	".c":       protocol.LangC,
	".h":       protocol.LangC,
	".cpp":     protocol.LangCPP,
	".cxx":     protocol.LangCPP,
	".cc":      protocol.LangCPP,
	".hpp":     protocol.LangCPP,
	".cs":      protocol.LangCSharp,
	".css":     protocol.LangCSS,
	".clj":     protocol.LangClojure,
	".cljs":    protocol.LangClojure,
	".cljc":    protocol.LangClojure,
	".dart":    protocol.LangDart,
	".ex":      protocol.LangElixir,
	".exs":     protocol.LangElixir,
	".erl":     protocol.LangErlang,
	".hrl":     protocol.LangErlang,
	".fs":      protocol.LangFSharp,
	".fsi":     protocol.LangFSharp,
	".fsx":     protocol.LangFSharp,
	".html":    protocol.LangHTML,
	".htm":     protocol.LangHTML,
	".hs":      protocol.LangHaskell,
	".lhs":     protocol.LangHaskell,
	".json":    protocol.LangJSON,
	".java":    protocol.LangJava,
	".kt":      protocol.LangKotlin,
	".kts":     protocol.LangKotlin,
	".lua":     protocol.LangLua,
	".md":      protocol.LangMarkdown,
	".ml":      protocol.LangOCaml,
	".mli":     protocol.LangOCaml,
	".php":     protocol.LangPHP,
	".rb":      protocol.LangRuby,
	".rake":    protocol.LangRuby,
	".gemspec": protocol.LangRuby,
	".ru":      protocol.LangRuby,
	".scala":   protocol.LangScala,
	".sbt":     protocol.LangScala,
	".sh":      protocol.LangShellScript,
	".bash":    protocol.LangShellScript,
	".zsh":     protocol.LangShellScript,
	".swift":   protocol.LangSwift,
	".tf":      protocol.LangTerraform,
	".tfvars":  protocol.LangTerraform,
	".vue":     protocol.LangVue,
	".svelte":  protocol.LangSvelte,
	".astro":   protocol.LangAstro,
	".yaml":    protocol.LangYAML,
	".yml":     protocol.LangYAML,
	".zig":     protocol.LangZig,
	".zon":     protocol.LangZig,
	".nix":     protocol.LangNix,
	".gleam":   protocol.LangGleam,
	".typ":     protocol.LangTypst,
	".typc":    protocol.LangTypst,
	".prisma":  protocol.LangPrisma,
}

// filenameLanguages catches well-known files without a usable extension.
var filenameLanguages = map[string]protocol.LanguageKind{
	"dockerfile": protocol.LangDockerfile,
	"gemfile":    protocol.LangRuby,
	"rakefile":   protocol.LangRuby,
}

// DetectLanguageID infers the LSP language id for a path from its extension,
// falling back to a small table of well-known filenames.
func DetectLanguageID(path string) protocol.LanguageKind {
	if lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	if lang, ok := filenameLanguages[strings.ToLower(filepath.Base(path))]; ok {
		return lang
	}
	return protocol.LanguageKind("")
}
