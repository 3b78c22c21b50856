package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrInvalidRoot     = errors.New("store: invalid root")
	ErrArtifactMissing = errors.New("store: artifact missing")
	ErrArtifactExists  = errors.New("store: artifact already present")
)

// Store is an explicit handle to a content-addressed artifact cache.
// Artifacts live under <root>/<digest>/ and are immutable once written;
// all reads are by digest. Composition receives the handle as an input
// parameter, never through package state.
type Store struct {
	root string
}

// Open prepares a store handle rooted at the given directory.
func Open(root string) (*Store, error) {
	resolved := strings.TrimSpace(root)
	if resolved == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidRoot)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute store root directory.
func (s *Store) Root() string {
	return s.root
}

// Has reports whether an artifact with this digest is cached.
func (s *Store) Has(digest string) bool {
	_, err := s.Path(digest)
	return err == nil
}

// Path returns the artifact root directory for a digest.
func (s *Store) Path(digest string) (string, error) {
	d, err := NormalizeDigest(digest)
	if err != nil {
		return "", err
	}
	p := filepath.Join(s.root, d)
	info, statErr := os.Stat(p)
	if statErr != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: digest=%s", ErrArtifactMissing, d)
	}
	return p, nil
}

// BinPath returns the executable directory of a cached artifact, joining
// the artifact root with the provider-declared relative bin dir.
func (s *Store) BinPath(digest string, binDir string) (string, error) {
	root, err := s.Path(digest)
	if err != nil {
		return "", err
	}
	rel := strings.TrimSpace(binDir)
	if rel == "" {
		return root, nil
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("store: bin dir must be relative, got %q", binDir)
	}
	p := filepath.Clean(filepath.Join(root, filepath.FromSlash(rel)))
	if !isWithin(p, root) {
		return "", fmt.Errorf("store: bin dir %q escapes artifact root", binDir)
	}
	return p, nil
}

// Put copies a source tree into the store under its own tree digest and
// returns that digest. Existing entries are left untouched; a digest
// collision with identical content is not an error.
func (s *Store) Put(srcDir string) (string, error) {
	digest, err := TreeDigest(srcDir)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(s.root, digest)
	if _, err := os.Stat(dst); err == nil {
		return digest, nil
	}

	tmp, err := os.MkdirTemp(s.root, ".put-*")
	if err != nil {
		return "", err
	}
	if err := copyTree(srcDir, tmp); err != nil {
		os.RemoveAll(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.RemoveAll(tmp)
		// Lost the rename race to an identical artifact.
		if _, statErr := os.Stat(dst); statErr == nil {
			return digest, nil
		}
		return "", err
	}
	return digest, nil
}

// List returns all cached digests in sorted order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	digests := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		d, err := NormalizeDigest(e.Name())
		if err != nil {
			continue
		}
		digests = append(digests, d)
	}
	sort.Strings(digests)
	return digests, nil
}

func copyTree(src string, dst string) error {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	return filepath.WalkDir(srcAbs, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(srcAbs, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func isWithin(path string, root string) bool {
	p := filepath.Clean(path)
	r := filepath.Clean(root)
	if p == r {
		return true
	}
	return strings.HasPrefix(p, r+string(os.PathSeparator))
}
