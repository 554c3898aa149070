package install

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// BinDir returns the directory where managed server binaries are stored.
func BinDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".lspmux", "bin")
	}
	return filepath.Join(home, ".lspmux", "bin")
}

// ResolveCommand locates an executable for the configured command without
// side effects: an absolute path is checked directly, otherwise the system
// PATH is searched, then the managed bin directory, then the npm bin
// directory inside it.
func ResolveCommand(command string) (string, error) {
	if command == "" {
		return "", fmt.Errorf("empty command")
	}

	if filepath.IsAbs(command) {
		if _, err := os.Stat(command); err == nil {
			return command, nil
		}
		return "", fmt.Errorf("configured command not found: %s", command)
	}

	if path, err := exec.LookPath(command); err == nil {
		return path, nil
	}

	binDir := BinDir()
	localBin := filepath.Join(binDir, command)
	if _, err := os.Stat(localBin); err == nil {
		return localBin, nil
	}

	npmBin := filepath.Join(binDir, "node_modules", ".bin", command)
	if _, err := os.Stat(npmBin); err == nil {
		return npmBin, nil
	}

	return "", fmt.Errorf("%q not found on PATH or in %s", command, binDir)
}

// Installed reports which managed tools currently resolve to a binary.
func Installed() map[string]bool {
	out := make(map[string]bool, len(ManagedTools))
	for _, t := range ManagedTools {
		_, err := ResolveCommand(t.Binary)
		out[t.ServerID] = err == nil
	}
	return out
}
