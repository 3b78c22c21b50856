package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DigestPrefix is the only supported content-hash scheme.
const DigestPrefix = "sha256-"

var ErrDigestInvalid = errors.New("store: invalid digest")

// NormalizeDigest validates a sha256 digest string and lowercases the hex
// part. Comparison of normalized digests is plain string equality.
func NormalizeDigest(raw string) (string, error) {
	d := strings.TrimSpace(raw)
	if !strings.HasPrefix(d, DigestPrefix) {
		return "", fmt.Errorf("%w: %q must start with %q", ErrDigestInvalid, raw, DigestPrefix)
	}
	hexPart := strings.ToLower(strings.TrimPrefix(d, DigestPrefix))
	if len(hexPart) != sha256.Size*2 {
		return "", fmt.Errorf("%w: %q has %d hex digits, want %d", ErrDigestInvalid, raw, len(hexPart), sha256.Size*2)
	}
	if _, err := hex.DecodeString(hexPart); err != nil {
		return "", fmt.Errorf("%w: %q is not hex: %v", ErrDigestInvalid, raw, err)
	}
	return DigestPrefix + hexPart, nil
}

// FileDigest computes the sha256 digest of one file's content.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return DigestPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// TreeDigest computes a deterministic sha256 digest over a directory tree:
// sorted slash-relative paths, each followed by its content. Two trees with
// identical layout and bytes always hash identically.
func TreeDigest(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	paths := make([]string, 0)
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, rel := range paths {
		h.Write([]byte(rel))
		h.Write([]byte{0})
		f, err := os.Open(filepath.Join(abs, filepath.FromSlash(rel)))
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(h, f); err != nil {
			f.Close()
			return "", err
		}
		f.Close()
		h.Write([]byte{0})
	}
	return DigestPrefix + hex.EncodeToString(h.Sum(nil)), nil
}
