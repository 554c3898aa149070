package protocol

// LanguageKind is the language identifier sent in textDocument/didOpen.
type LanguageKind string

const (
	LangC               LanguageKind = "c"
	LangCPP             LanguageKind = "cpp"
	LangCSharp          LanguageKind = "csharp"
	LangCSS             LanguageKind = "css"
	LangClojure         LanguageKind = "clojure"
	LangDart            LanguageKind = "dart"
	LangDockerfile      LanguageKind = "dockerfile"
	LangElixir          LanguageKind = "elixir"
	LangErlang          LanguageKind = "erlang"
	LangFSharp          LanguageKind = "fsharp"
	LangGo              LanguageKind = "go"
	LangHTML            LanguageKind = "html"
	LangHaskell         LanguageKind = "haskell"
	LangJSON            LanguageKind = "json"
	LangJava            LanguageKind = "java"
	LangJavaScript      LanguageKind = "javascript"
	LangJavaScriptReact LanguageKind = "javascriptreact"
	LangKotlin          LanguageKind = "kotlin"
	LangLua             LanguageKind = "lua"
	LangMarkdown        LanguageKind = "markdown"
	LangOCaml           LanguageKind = "ocaml"
	LangPHP             LanguageKind = "php"
	LangPython          LanguageKind = "python"
	LangRuby            LanguageKind = "ruby"
	LangRust            LanguageKind = "rust"
	LangScala           LanguageKind = "scala"
	LangShellScript     LanguageKind = "shellscript"
	LangSwift           LanguageKind = "swift"
	LangTerraform       LanguageKind = "terraform"
	LangTypeScript      LanguageKind = "typescript"
	LangTypeScriptReact LanguageKind = "typescriptreact"
	LangVue             LanguageKind = "vue"
	LangSvelte          LanguageKind = "svelte"
	LangAstro           LanguageKind = "astro"
	LangYAML            LanguageKind = "yaml"
	LangZig             LanguageKind = "zig"
	LangNix             LanguageKind = "nix"
	LangGleam           LanguageKind = "gleam"
	LangTypst           LanguageKind = "typst"
	LangPrisma          LanguageKind = "prisma"
)
