package utils

import (
	"path/filepath"
	"strings"
)

// SanitizeFilePath sanitizes a file path to prevent directory traversal attacks
func SanitizeFilePath(path string) string {
	// Convert to slash path
	path = filepath.ToSlash(path)

	// Remove any "." or ".." components
	parts := strings.Split(path, "/")
	var sanitizedParts []string
	for _, part := range parts {
		if part != "" && part != "." && part != ".." {
			sanitizedParts = append(sanitizedParts, part)
		}
	}

	return strings.Join(sanitizedParts, "/")
}

// NormalizeExtensions turns "txt", ".txt" and "TXT" into ".txt".
func NormalizeExtensions(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, ".") {
			t = "." + t
		}
		out = append(out, t)
	}
	return out
}

// HasAllowedExtension reports whether path ends in one of the normalized
// extensions. An empty list allows everything.
func HasAllowedExtension(path string, normalized []string) bool {
	if len(normalized) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, t := range normalized {
		if ext == t {
			return true
		}
	}
	return false
}
