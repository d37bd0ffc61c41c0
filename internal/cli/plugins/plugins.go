// Package plugins provides exec-based plugin support for threadsplit.
// Plugins are separate binaries named threadsplit-<command> that are
// discovered and executed when an unknown command is invoked.
//
// This follows the same pattern used by kubectl and git for plugins.
package plugins

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Prefix is prepended to a command name to form the plugin binary name.
const Prefix = "threadsplit-"

// ErrPluginNotFound is returned when no plugin binary can be located.
var ErrPluginNotFound = errors.New("plugin not found")

// Dir returns ~/.threadsplit/plugins.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".threadsplit", "plugins"), nil
}

// FindPlugin searches for a plugin binary named threadsplit-<command>.
// It searches in the following locations in order:
//  1. Same directory as the threadsplit binary
//  2. ~/.threadsplit/plugins/
//  3. Anywhere in PATH
//
// Returns the full path to the plugin binary if found.
func FindPlugin(command string) (string, error) {
	pluginName := Prefix + command

	// 1. Check same directory as threadsplit binary
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	// 2. Check ~/.threadsplit/plugins/
	if dir, err := Dir(); err == nil {
		candidate := filepath.Join(dir, pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	// 3. Check PATH
	if path, err := exec.LookPath(pluginName); err == nil {
		return path, nil
	}

	return "", ErrPluginNotFound
}

// Execute runs a plugin with the given arguments.
// It connects stdin, stdout, and stderr to the plugin process
// and returns the plugin's exit code.
func Execute(pluginPath string, args []string) int {
	cmd := exec.Command(pluginPath, args...) // #nosec G204 -- plugin path comes from FindPlugin
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing plugin: %v\n", err)
		return 1
	}

	return 0
}

// FormatNotFoundError returns the message shown when a command is neither
// built in nor an installed plugin.
func FormatNotFoundError(command string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "unknown command %q for \"threadsplit\"\n", command)
	sb.WriteString("\nIf this is a plugin, install the binary as one of:\n")

	fmt.Fprintf(&sb, "  - %s%s in the same directory as threadsplit\n", Prefix, command)
	fmt.Fprintf(&sb, "  - ~/.threadsplit/plugins/%s%s\n", Prefix, command)
	fmt.Fprintf(&sb, "  - %s%s anywhere in your PATH\n", Prefix, command)

	sb.WriteString("\nRun 'threadsplit --help' for usage.")

	return sb.String()
}

// isExecutable checks if a file exists and is executable.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	// Windows has no execute bit, so this only holds on Unix.
	if info.Mode().IsRegular() {
		return info.Mode()&0111 != 0
	}

	return false
}
