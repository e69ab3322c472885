package database

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	AppDirName       = ".shuttle-router"
	SQLiteDBFileName = "runs.db"
	ExportDirName    = "exports"
)

// GetAppDir returns ~/.shuttle-router, creating it if needed
func GetAppDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	appDir := filepath.Join(homeDir, AppDirName)
	if err := os.MkdirAll(appDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create app directory: %w", err)
	}

	return appDir, nil
}

// GetDefaultDBPath returns the default SQLite database path: ~/.shuttle-router/runs.db
func GetDefaultDBPath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, SQLiteDBFileName), nil
}

// GetExportDir returns ~/.shuttle-router/exports, creating it if needed
func GetExportDir() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}

	exportDir := filepath.Join(appDir, ExportDirName)
	if err := os.MkdirAll(exportDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	return exportDir, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place
func WriteFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", tmpPath, err)
	}

	return nil
}
