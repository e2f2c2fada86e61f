package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	osWindows = "windows"
	osDarwin  = "darwin"
)

// ResolveLogDir returns the directory log files go to, creating it if
// needed. A non-empty custom path overrides the OS standard location.
func ResolveLogDir(custom string) (string, error) {
	dir := custom
	if dir == "" {
		var err error
		dir, err = standardLogDir()
		if err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}
	return dir, nil
}

// standardLogDir returns the standard log directory for the current OS
func standardLogDir() (string, error) {
	switch runtime.GOOS {
	case osWindows:
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return defaultLogDir()
			}
			localAppData = filepath.Join(userProfile, "AppData", "Local")
		}
		return filepath.Join(localAppData, "proxybridge", "logs"), nil
	case osDarwin:
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return defaultLogDir()
		}
		return filepath.Join(homeDir, "Library", "Logs", "proxybridge"), nil
	default:
		// XDG Base Directory Specification for Linux and the rest
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return defaultLogDir()
		}
		stateDir := os.Getenv("XDG_STATE_HOME")
		if stateDir == "" {
			stateDir = filepath.Join(homeDir, ".local", "state")
		}
		return filepath.Join(stateDir, "proxybridge", "logs"), nil
	}
}

func defaultLogDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".proxybridge", "logs"), nil
}
