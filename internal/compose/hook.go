package compose

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidHook = errors.New("compose: invalid path prefix hook")

// PathPrefixHook prepends a local tool directory to the search path at
// activation time. It only rewrites the in-memory path value; the
// directory's on-disk contents are never touched.
type PathPrefixHook struct {
	PrefixDir string
}

// Resolve computes the absolute prefix directory relative to the
// descriptor directory.
func (h PathPrefixHook) Resolve(baseDir string) (string, error) {
	dir := strings.TrimSpace(h.PrefixDir)
	if dir == "" {
		return "", fmt.Errorf("%w: empty prefix dir", ErrInvalidHook)
	}
	if filepath.IsAbs(dir) {
		return "", fmt.Errorf("%w: prefix dir %q must be relative", ErrInvalidHook, dir)
	}
	abs, err := filepath.Abs(filepath.Join(baseDir, filepath.FromSlash(dir)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHook, err)
	}
	return abs, nil
}

// JoinPath assembles a search path from entries followed by the existing
// base path. Nothing is removed or deduplicated.
func JoinPath(entries []string, basePath string) string {
	parts := make([]string, 0, len(entries)+1)
	parts = append(parts, entries...)
	if basePath != "" {
		parts = append(parts, basePath)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}
