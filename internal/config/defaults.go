package config

// builtinServers is the trusted baseline server table. Global configuration
// may add to or replace it; project-local configuration may only tune args.
func builtinServers() map[string]ServerDescriptor {
	return map[string]ServerDescriptor{
		"gopls":         {Command: "gopls"},
		"typescript":    {Command: "typescript-language-server", Args: []string{"--stdio"}},
		"pyright":       {Command: "pyright-langserver", Args: []string{"--stdio"}},
		"rust-analyzer": {Command: "rust-analyzer"},
		"clangd":        {Command: "clangd"},
		"bash":          {Command: "bash-language-server", Args: []string{"start"}},
		"yaml":          {Command: "yaml-language-server", Args: []string{"--stdio"}},
		"lua-ls":        {Command: "lua-language-server"},
		"intelephense":  {Command: "intelephense", Args: []string{"--stdio"}},
		"terraform":     {Command: "terraform-ls", Args: []string{"serve"}},
		"jdtls":         {Command: "jdtls"},
		"ruby-lsp":      {Command: "ruby-lsp"},
		"zls":           {Command: "zls"},
		"hls":           {Command: "haskell-language-server-wrapper", Args: []string{"--lsp"}},
		"sourcekit-lsp": {Command: "sourcekit-lsp"},
		"elixir-ls":     {Command: "elixir-ls"},
		"metals":        {Command: "metals"},
		"vue":           {Command: "vue-language-server", Args: []string{"--stdio"}},
		"svelte":        {Command: "svelteserver", Args: []string{"--stdio"}},
		"astro":         {Command: "astro-ls", Args: []string{"--stdio"}},
		"prisma":        {Command: "prisma-language-server", Args: []string{"--stdio"}},
		"tinymist":      {Command: "tinymist", Args: []string{"lsp"}},
		"nixd":          {Command: "nixd"},
		"gleam":         {Command: "gleam", Args: []string{"lsp"}},
	}
}

// builtinLanguageServers routes language ids to server ids.
func builtinLanguageServers() map[string][]string {
	return map[string][]string{
		"go":              {"gopls"},
		"typescript":      {"typescript"},
		"typescriptreact": {"typescript"},
		"javascript":      {"typescript"},
		"javascriptreact": {"typescript"},
		"python":          {"pyright"},
		"rust":            {"rust-analyzer"},
		"c":               {"clangd"},
		"cpp":             {"clangd"},
		"shellscript":     {"bash"},
		"yaml":            {"yaml"},
		"lua":             {"lua-ls"},
		"php":             {"intelephense"},
		"terraform":       {"terraform"},
		"java":            {"jdtls"},
		"ruby":            {"ruby-lsp"},
		"zig":             {"zls"},
		"haskell":         {"hls"},
		"swift":           {"sourcekit-lsp"},
		"elixir":          {"elixir-ls"},
		"scala":           {"metals"},
		"vue":             {"vue"},
		"svelte":          {"svelte"},
		"astro":           {"astro"},
		"prisma":          {"prisma"},
		"typst":           {"tinymist"},
		"nix":             {"nixd"},
		"gleam":           {"gleam"},
	}
}

// builtinRootMarkers are filenames that suggest a project root, checked by
// the root resolver. Version-control directories are handled separately and
// always win.
func builtinRootMarkers() []string {
	return []string{
		"go.mod",
		"go.work",
		"package.json",
		"tsconfig.json",
		"pnpm-workspace.yaml",
		"Cargo.toml",
		"pyproject.toml",
		"setup.py",
		"requirements.txt",
		"Pipfile",
		"composer.json",
		"Gemfile",
		"pom.xml",
		"build.gradle",
		"build.gradle.kts",
		"CMakeLists.txt",
		"Makefile",
		"mix.exs",
		"build.sbt",
		"stack.yaml",
		"cabal.project",
		"Package.swift",
		"deno.json",
		"flake.nix",
		"shard.yml",
		"gleam.toml",
	}
}
