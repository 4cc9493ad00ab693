// Package checks implements the code-quality tool handlers: format checking
// and fixing, linting, and deep static analysis. All handlers share the same
// file-set resolution so check and fix stay idempotent.
package checks

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ciforge/ciforge/internal/core"
)

// resolveFileSet turns a request's file arguments into workspace-relative
// paths. An explicit file list wins over a directory scan; with neither, the
// whole workspace root is scanned. Paths escaping the root are rejected.
func resolveFileSet(root string, files []string, dir string, extensions []string) ([]string, error) {
	if len(files) > 0 {
		out := make([]string, 0, len(files))
		for _, f := range files {
			full, err := core.ResolveUnderRoot(root, f)
			if err != nil {
				return nil, err
			}
			rel, err := filepath.Rel(root, full)
			if err != nil {
				return nil, core.NewError(core.ErrCodePathEscape, "path %q escapes workspace root", f)
			}
			out = append(out, rel)
		}
		sort.Strings(out)
		return out, nil
	}

	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	scanRoot, err := core.ResolveUnderRoot(root, dir)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		wanted[ext] = true
	}

	var out []string
	err = filepath.WalkDir(scanRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if name := d.Name(); strings.HasPrefix(name, ".") && path != scanRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if !wanted[filepath.Ext(path)] {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, core.NewError(core.ErrCodeInternal, "scan %s: %v", dir, err)
	}
	sort.Strings(out)
	return out, nil
}
