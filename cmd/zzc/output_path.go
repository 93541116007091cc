package main

import (
	"path/filepath"
	"strings"
)

// formatRelative renders path relative to root for display, falling back
// to path unchanged if it isn't actually under root.
func formatRelative(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
