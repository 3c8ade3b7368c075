package harness

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ScenarioDirError is returned when a scenario directory doesn't exist.
type ScenarioDirError struct {
	Dir string
	Err error
}

// Error implements the error interface.
func (e *ScenarioDirError) Error() string {
	return fmt.Sprintf("scenario directory %q: %v", e.Dir, e.Err)
}

// Unwrap returns the underlying filesystem error.
func (e *ScenarioDirError) Unwrap() error { return e.Err }

// Discover returns the scenario files (.yaml, .yml) under dir, sorted.
//
// If filter is non-empty it is a filepath.Match glob applied to each file's
// base name without extension, so "brew_*" picks brew_full.yaml. Config
// files referenced by scenarios should live outside dir or use another
// extension.
func Discover(dir, filter string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, &ScenarioDirError{Dir: dir, Err: err}
	}
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("filter %q: %w", filter, err)
		}
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if ok, _ := filepath.Match(filter, stem); !ok {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(paths)
	return paths, nil
}
