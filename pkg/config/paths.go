package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetClaudeStateDir returns the Claude state directory path.
// Defaults to ~/.claude but can be overridden with SESSION_IMPROVER_CLAUDE_DIR.
func GetClaudeStateDir() (string, error) {
	if envDir := os.Getenv(ClaudeStateDirEnv); envDir != "" {
		return envDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ClaudeStateDir), nil
}

// GetProjectsDir returns the path to the Claude projects directory
func GetProjectsDir() (string, error) {
	claudeDir, err := GetClaudeStateDir()
	if err != nil {
		return "", fmt.Errorf("failed to get claude state directory: %w", err)
	}
	return filepath.Join(claudeDir, ClaudeProjectsSubdir), nil
}

// GetHistoryPath returns the path to the Claude prompt history file
func GetHistoryPath() (string, error) {
	claudeDir, err := GetClaudeStateDir()
	if err != nil {
		return "", fmt.Errorf("failed to get claude state directory: %w", err)
	}
	return filepath.Join(claudeDir, ClaudeHistoryFile), nil
}

// GetAppDir returns ~/.session-improver, or SESSION_IMPROVER_HOME when set
func GetAppDir() (string, error) {
	if envDir := os.Getenv(AppDirEnv); envDir != "" {
		return envDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, AppDirName), nil
}

// GetConfigPath returns the default YAML config file path
func GetConfigPath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, ConfigFileName), nil
}

// GetCachePath returns the default summary cache database path
func GetCachePath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, CacheFileName), nil
}
