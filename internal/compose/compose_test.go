package compose

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/danmuck/envctl/internal/catalog"
	"github.com/danmuck/envctl/internal/store"
	"github.com/danmuck/envctl/internal/testutil/testlog"
	"github.com/danmuck/envctl/internal/toolchain"
)

type fixture struct {
	catalog *catalog.Catalog
	store   *store.Store
	baseDir string
}

// newFixture builds a store holding one artifact per capability id and a
// catalog of providers pointing at those artifacts for x86_64-linux.
func newFixture(t *testing.T, ids ...string) fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "store"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	cat := catalog.NewCatalog()
	for _, id := range ids {
		src := t.TempDir()
		if err := os.MkdirAll(filepath.Join(src, "bin"), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(src, "bin", id), []byte(id), 0o755); err != nil {
			t.Fatalf("write tool: %v", err)
		}
		digest, err := st.Put(src)
		if err != nil {
			t.Fatalf("put: %v", err)
		}
		unfree := strings.HasSuffix(id, "blob")
		err = cat.Register(catalog.StaticProvider{
			Meta: catalog.Metadata{ID: id, Name: id, Description: "test capability", Unfree: unfree},
			Builds: map[string]catalog.Artifact{
				"x86_64-linux": {Digest: digest, BinDir: "bin"},
			},
		})
		if err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	return fixture{catalog: cat, store: st, baseDir: t.TempDir()}
}

func (f fixture) request(ids ...string) Request {
	return Request{
		Platform:     "x86_64-linux",
		Capabilities: ids,
		Overrides: map[string]string{
			"RAVEDUDE_PORT":         "/dev/ttyACM0",
			"AVR_HAL_BUILD_TARGETS": "arduino-micro",
		},
		BaseDir:  f.baseDir,
		BasePath: "/usr/bin:/bin",
		Catalog:  f.catalog,
		Store:    f.store,
	}
}

func TestComposeBasics(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t, "avr-gcc", "ravedude")

	env, err := Compose(f.request("ravedude", "avr-gcc"))
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	if got, _ := env.Lookup("RAVEDUDE_PORT"); got != "/dev/ttyACM0" {
		t.Fatalf("RAVEDUDE_PORT not verbatim: %q", got)
	}
	if got, _ := env.Lookup("AVR_HAL_BUILD_TARGETS"); got != "arduino-micro" {
		t.Fatalf("AVR_HAL_BUILD_TARGETS not verbatim: %q", got)
	}
	if len(env.Capabilities) != 2 {
		t.Fatalf("capabilities: %+v", env.Capabilities)
	}
	if !strings.HasSuffix(env.Path, "/usr/bin:/bin") {
		t.Fatalf("base path not preserved at tail: %s", env.Path)
	}
	for _, rc := range env.Capabilities {
		if !strings.Contains(env.Path, rc.BinDir) {
			t.Fatalf("capability bin dir missing from path: %s", rc.BinDir)
		}
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t, "avr-gcc", "ravedude", "picocom")

	// Same inputs in different declaration order, with a duplicate.
	a, err := Compose(f.request("picocom", "avr-gcc", "ravedude"))
	if err != nil {
		t.Fatalf("compose a: %v", err)
	}
	b, err := Compose(f.request("ravedude", "picocom", "avr-gcc", "picocom"))
	if err != nil {
		t.Fatalf("compose b: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("composition not deterministic:\n a=%+v\n b=%+v", a, b)
	}
}

func TestComposeUnknownCapability(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t, "avr-gcc")
	if _, err := Compose(f.request("avr-gcc", "mystery-tool")); !errors.Is(err, ErrUnresolvableCapability) {
		t.Fatalf("expected ErrUnresolvableCapability, got %v", err)
	}
}

func TestComposeWrongPlatform(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t, "avr-gcc")
	req := f.request("avr-gcc")
	req.Platform = "aarch64-darwin"
	if _, err := Compose(req); !errors.Is(err, ErrUnresolvableCapability) {
		t.Fatalf("expected ErrUnresolvableCapability, got %v", err)
	}
}

func TestComposeArtifactMissingFromStore(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t)
	orphan := store.DigestPrefix + strings.Repeat("cd", 32)
	err := f.catalog.Register(catalog.StaticProvider{
		Meta: catalog.Metadata{ID: "ghost-tool", Name: "Ghost", Description: "uncached"},
		Builds: map[string]catalog.Artifact{
			"x86_64-linux": {Digest: orphan, BinDir: "bin"},
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := Compose(f.request("ghost-tool")); !errors.Is(err, ErrUnresolvableCapability) {
		t.Fatalf("expected ErrUnresolvableCapability, got %v", err)
	}
}

func TestComposePolicy(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t, "avr-gcc", "avr-vendor-blob")

	req := f.request("avr-gcc", "avr-vendor-blob")
	if _, err := Compose(req); !errors.Is(err, ErrPolicyViolation) {
		t.Fatalf("expected ErrPolicyViolation, got %v", err)
	}

	denied := f.request("avr-gcc")
	base, err := Compose(denied)
	if err != nil {
		t.Fatalf("compose without blob: %v", err)
	}

	req.AllowUnfree = []string{"avr-vendor-blob"}
	env, err := Compose(req)
	if err != nil {
		t.Fatalf("compose with allow list: %v", err)
	}

	// Widening the allow list must not disturb any other binding.
	if !reflect.DeepEqual(env.Vars, base.Vars) {
		t.Fatalf("policy change altered variables:\n got=%+v\n want=%+v", env.Vars, base.Vars)
	}
}

func TestComposePinVerification(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t, "avr-gcc")

	pinFile := filepath.Join(f.baseDir, "rust-toolchain.toml")
	if err := os.WriteFile(pinFile, []byte("channel = \"nightly\"\n"), 0o644); err != nil {
		t.Fatalf("write pin file: %v", err)
	}
	digest, err := store.FileDigest(pinFile)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}

	req := f.request("avr-gcc")
	req.Pin = &toolchain.Pin{File: "rust-toolchain.toml", SHA256: digest}
	env, err := Compose(req)
	if err != nil {
		t.Fatalf("compose with valid pin: %v", err)
	}
	if env.Toolchain == nil || env.Toolchain.SHA256 != digest {
		t.Fatalf("pin not carried into environment: %+v", env.Toolchain)
	}

	req.Pin = &toolchain.Pin{File: "rust-toolchain.toml", SHA256: store.DigestPrefix + strings.Repeat("00", 32)}
	if _, err := Compose(req); !errors.Is(err, toolchain.ErrIntegrityMismatch) {
		t.Fatalf("expected ErrIntegrityMismatch, got %v", err)
	}
}

func TestComposeValidatesRequest(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t, "avr-gcc")

	req := f.request("avr-gcc")
	req.Catalog = nil
	if _, err := Compose(req); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for nil catalog, got %v", err)
	}

	req = f.request("avr-gcc")
	req.Store = nil
	if _, err := Compose(req); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for nil store, got %v", err)
	}

	req = f.request("avr-gcc")
	req.Platform = "  "
	if _, err := Compose(req); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for empty platform, got %v", err)
	}
}
