package toolchain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/envctl/internal/store"
)

var (
	ErrIntegrityMismatch = errors.New("toolchain: pinned content hash mismatch")
	ErrPinIncomplete     = errors.New("toolchain: incomplete pin")
	ErrPinUnreadable     = errors.New("toolchain: pinned file unreadable")
)

// Pin locks a toolchain descriptor file to a recorded content hash. The
// hash is the sole reproducibility guarantee: resolution either yields the
// exact pinned content or fails.
type Pin struct {
	File   string
	SHA256 string
}

// Resolved is a verified pin: absolute file path plus its normalized hash.
type Resolved struct {
	File   string
	SHA256 string
}

// Validate checks pin shape without touching the filesystem.
func (p Pin) Validate() error {
	if strings.TrimSpace(p.File) == "" {
		return fmt.Errorf("%w: file path is required", ErrPinIncomplete)
	}
	if _, err := store.NormalizeDigest(p.SHA256); err != nil {
		return fmt.Errorf("%w: %v", ErrPinIncomplete, err)
	}
	return nil
}

// Resolve reads the pinned file relative to baseDir, hashes its content,
// and compares against the recorded hash. A mismatch is fatal for the
// whole composition; no partial result is returned.
func Resolve(p Pin, baseDir string) (Resolved, error) {
	if err := p.Validate(); err != nil {
		return Resolved{}, err
	}
	want, _ := store.NormalizeDigest(p.SHA256)

	path := strings.TrimSpace(p.File)
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	got, err := CurrentDigest(p, baseDir)
	if err != nil {
		return Resolved{}, err
	}
	if got != want {
		return Resolved{}, fmt.Errorf(
			"%w: file=%q got=%s want=%s",
			ErrIntegrityMismatch, p.File, got, want,
		)
	}
	log.Debug().Str("file", path).Str("sha256", got).Msg("toolchain pin verified")
	return Resolved{File: path, SHA256: got}, nil
}

// CurrentDigest hashes the pinned file's content as it exists on disk,
// without comparing it to the recorded value.
func CurrentDigest(p Pin, baseDir string) (string, error) {
	path := strings.TrimSpace(p.File)
	if path == "" {
		return "", fmt.Errorf("%w: file path is required", ErrPinIncomplete)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	digest, err := store.FileDigest(path)
	if err != nil {
		return "", fmt.Errorf("%w: file=%q: %v", ErrPinUnreadable, p.File, err)
	}
	return digest, nil
}
