package core

import (
	"path/filepath"
	"strings"
)

// ResolveUnderRoot resolves a caller-supplied path against the workspace root
// and rejects anything that would escape it. Absolute paths are allowed only
// when they are already inside the root.
func ResolveUnderRoot(root, path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", NewError(ErrCodeSchemaInvalid, "path is required")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", NewError(ErrCodeInternal, "resolve workspace root: %v", err)
	}

	var full string
	if filepath.IsAbs(trimmed) {
		full = filepath.Clean(trimmed)
	} else {
		full = filepath.Join(absRoot, trimmed)
	}

	rel, err := filepath.Rel(absRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", NewError(ErrCodePathEscape, "path %q escapes workspace root", path)
	}
	return full, nil
}
