package server

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveDir turns a configured server path into an absolute directory path
// and checks that it exists.
func ResolveDir(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("server path is empty")
	}

	fullPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", fullPath)
	}
	return fullPath, nil
}
