package install

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/lspmux/lspmux/internal/logging"
)

// Install obtains the binary for a managed server id using its strategy and
// verifies that the binary resolves afterwards.
func Install(ctx context.Context, serverID string) error {
	tool, ok := Lookup(serverID)
	if !ok {
		return fmt.Errorf("%s is not a managed tool, install it with your system package manager", serverID)
	}

	logging.Info("installing language server", "server", serverID, "strategy", tool.Strategy)

	var err error
	switch tool.Strategy {
	case StrategyNpm:
		err = installNpm(ctx, tool)
	case StrategyGoInstall:
		err = installGo(ctx, tool)
	case StrategyGitHubRelease:
		err = installGitHubRelease(ctx, tool)
	default:
		return fmt.Errorf("no install strategy for %s", serverID)
	}
	if err != nil {
		return fmt.Errorf("install failed for %s: %w", serverID, err)
	}

	if _, err := ResolveCommand(tool.Binary); err != nil {
		return fmt.Errorf("%q still not found after installing %s", tool.Binary, serverID)
	}
	logging.Info("language server installed", "server", serverID, "binary", tool.Binary)
	return nil
}

func installNpm(ctx context.Context, tool Tool) error {
	npmPath, err := exec.LookPath("npm")
	if err != nil {
		return fmt.Errorf("npm not found in PATH, cannot install %s", tool.ServerID)
	}

	binDir := BinDir()
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("failed to create bin directory: %w", err)
	}

	packages := strings.Fields(tool.Package)
	args := append([]string{"install", "--prefix", binDir}, packages...)

	cmd := exec.CommandContext(ctx, npmPath, args...)
	cmd.Dir = binDir
	cmd.Env = os.Environ()

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("npm install failed: %w\noutput: %s", err, string(output))
	}
	return nil
}

func installGo(ctx context.Context, tool Tool) error {
	goPath, err := exec.LookPath("go")
	if err != nil {
		return fmt.Errorf("go not found in PATH, cannot install %s", tool.ServerID)
	}

	binDir := BinDir()
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("failed to create bin directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, goPath, "install", tool.Package)
	cmd.Env = append(os.Environ(), "GOBIN="+binDir)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("go install failed: %w\noutput: %s", err, string(output))
	}
	return nil
}

func installGitHubRelease(ctx context.Context, tool Tool) error {
	if tool.Repo == "" {
		return fmt.Errorf("no GitHub repo configured for %s", tool.ServerID)
	}

	binDir := BinDir()
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("failed to create bin directory: %w", err)
	}

	url := fmt.Sprintf("https://api.github.com/repos/%s/releases/latest", tool.Repo)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch release info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("GitHub API returned status %d for %s", resp.StatusCode, tool.Repo)
	}

	var release struct {
		Assets []struct {
			Name               string `json:"name"`
			BrowserDownloadURL string `json:"browser_download_url"`
		} `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return fmt.Errorf("failed to decode release info: %w", err)
	}

	asset := findMatchingAsset(release.Assets)
	if asset == "" {
		return fmt.Errorf("no matching release asset found for %s on %s/%s",
			tool.ServerID, runtime.GOOS, runtime.GOARCH)
	}

	logging.Info("downloading language server", "server", tool.ServerID, "url", asset)
	req, err = http.NewRequestWithContext(ctx, "GET", asset, nil)
	if err != nil {
		return err
	}

	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download release: %w", err)
	}
	defer resp.Body.Close()

	tmpFile, err := os.CreateTemp(binDir, "lsp-download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to download: %w", err)
	}
	tmpFile.Close()

	downloadName := filepath.Base(asset)
	switch {
	case strings.HasSuffix(downloadName, ".tar.gz") || strings.HasSuffix(downloadName, ".tgz"):
		return extractTarGz(tmpFile.Name(), binDir, tool.Binary)
	case strings.HasSuffix(downloadName, ".zip"):
		return extractZip(tmpFile.Name(), binDir, tool.Binary)
	default:
		// Assume a raw binary.
		dest := filepath.Join(binDir, tool.Binary)
		if err := os.Rename(tmpFile.Name(), dest); err != nil {
			return err
		}
		return os.Chmod(dest, 0o755)
	}
}

func findMatchingAsset(assets []struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}) string {
	goos := runtime.GOOS
	goarch := runtime.GOARCH

	osNames := []string{goos}
	archNames := []string{goarch}

	switch goos {
	case "darwin":
		osNames = append(osNames, "macos", "osx", "apple")
	case "windows":
		osNames = append(osNames, "win")
	}

	switch goarch {
	case "amd64":
		archNames = append(archNames, "x86_64", "x64")
	case "arm64":
		archNames = append(archNames, "aarch64")
	}

	for _, a := range assets {
		name := strings.ToLower(a.Name)
		osMatch := false
		archMatch := false

		for _, os := range osNames {
			if strings.Contains(name, os) {
				osMatch = true
				break
			}
		}
		for _, arch := range archNames {
			if strings.Contains(name, arch) {
				archMatch = true
				break
			}
		}

		if osMatch && archMatch {
			return a.BrowserDownloadURL
		}
	}
	return ""
}

func extractTarGz(src, destDir, binaryName string) error {
	cmd := exec.Command("tar", "xzf", src, "-C", destDir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("tar extraction failed: %w\noutput: %s", err, string(output))
	}

	binary := filepath.Join(destDir, binaryName)
	if _, err := os.Stat(binary); err == nil {
		return os.Chmod(binary, 0o755)
	}

	// The archive may have unpacked into a subdirectory.
	err = filepath.WalkDir(destDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if d.Name() == binaryName {
			return os.Chmod(path, 0o755)
		}
		return nil
	})
	return err
}

func extractZip(src, destDir, binaryName string) error {
	cmd := exec.Command("unzip", "-o", src, "-d", destDir)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("unzip failed: %w\noutput: %s", err, string(output))
	}

	binary := filepath.Join(destDir, binaryName)
	if _, err := os.Stat(binary); err == nil {
		return os.Chmod(binary, 0o755)
	}
	return nil
}
