package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/envctl/internal/testutil/testlog"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return dir
}

func TestPutPathAndBinPath(t *testing.T) {
	testlog.Start(t)
	s, err := Open(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	src := writeTree(t, map[string]string{
		"bin/avr-gcc":  "#!/bin/sh\n",
		"share/readme": "docs",
	})
	digest, err := s.Put(src)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if !strings.HasPrefix(digest, DigestPrefix) {
		t.Fatalf("unexpected digest format: %s", digest)
	}
	if !s.Has(digest) {
		t.Fatalf("expected store to contain %s", digest)
	}

	bin, err := s.BinPath(digest, "bin")
	if err != nil {
		t.Fatalf("bin path: %v", err)
	}
	if _, err := os.Stat(filepath.Join(bin, "avr-gcc")); err != nil {
		t.Fatalf("expected avr-gcc under bin path: %v", err)
	}
}

func TestPutIsContentAddressed(t *testing.T) {
	testlog.Start(t)
	s, err := Open(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	a := writeTree(t, map[string]string{"bin/tool": "v1"})
	b := writeTree(t, map[string]string{"bin/tool": "v1"})
	c := writeTree(t, map[string]string{"bin/tool": "v2"})

	da, err := s.Put(a)
	if err != nil {
		t.Fatalf("put a: %v", err)
	}
	db, err := s.Put(b)
	if err != nil {
		t.Fatalf("put b: %v", err)
	}
	dc, err := s.Put(c)
	if err != nil {
		t.Fatalf("put c: %v", err)
	}
	if da != db {
		t.Fatalf("identical trees hashed differently: %s vs %s", da, db)
	}
	if da == dc {
		t.Fatalf("distinct trees collided: %s", da)
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 cached artifacts, got %v", list)
	}
}

func TestPathMissingArtifact(t *testing.T) {
	testlog.Start(t)
	s, err := Open(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	missing := DigestPrefix + strings.Repeat("ab", 32)
	if _, err := s.Path(missing); !errors.Is(err, ErrArtifactMissing) {
		t.Fatalf("expected ErrArtifactMissing, got %v", err)
	}
}

func TestBinPathEscapeRejected(t *testing.T) {
	testlog.Start(t)
	s, err := Open(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	digest, err := s.Put(writeTree(t, map[string]string{"bin/tool": "x"}))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.BinPath(digest, "../outside"); err == nil {
		t.Fatalf("expected escape rejection")
	}
	if _, err := s.BinPath(digest, "/abs"); err == nil {
		t.Fatalf("expected absolute bin dir rejection")
	}
}

func TestNormalizeDigest(t *testing.T) {
	testlog.Start(t)
	hexPart := strings.Repeat("AB", 32)
	got, err := NormalizeDigest(DigestPrefix + hexPart)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != DigestPrefix+strings.ToLower(hexPart) {
		t.Fatalf("expected lowercased hex, got %s", got)
	}

	bad := []string{"", "md5-abcd", DigestPrefix + "xyz", DigestPrefix + "abcd"}
	for _, raw := range bad {
		if _, err := NormalizeDigest(raw); !errors.Is(err, ErrDigestInvalid) {
			t.Fatalf("expected ErrDigestInvalid for %q, got %v", raw, err)
		}
	}
}

func TestTreeDigestIgnoresWriteOrder(t *testing.T) {
	testlog.Start(t)
	a := writeTree(t, map[string]string{"x": "1", "y": "2"})
	b := writeTree(t, map[string]string{"y": "2", "x": "1"})
	da, err := TreeDigest(a)
	if err != nil {
		t.Fatalf("digest a: %v", err)
	}
	db, err := TreeDigest(b)
	if err != nil {
		t.Fatalf("digest b: %v", err)
	}
	if da != db {
		t.Fatalf("tree digest not deterministic: %s vs %s", da, db)
	}
}
