package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	tomlv2 "github.com/pelletier/go-toml/v2"

	"github.com/danmuck/envctl/internal/toolchain"
)

const (
	// DefaultFileName is the descriptor looked up when no path is given.
	DefaultFileName = "envctl.toml"
	// DefaultProfileName selects the profile when none is named.
	DefaultProfileName = "default"
	// DefaultPlatform is the fixed target platform when the descriptor
	// does not declare one.
	DefaultPlatform = "x86_64-linux"
)

var (
	ErrProfileUnknown = errors.New("manifest: unknown profile")
	ErrInvalidInput   = errors.New("manifest: invalid input")
	ErrInvalidProfile = errors.New("manifest: invalid profile")
)

// Manifest is the static, versioned environment descriptor.
type Manifest struct {
	Description string             `toml:"description"`
	Platform    string             `toml:"platform"`
	Inputs      map[string]Input   `toml:"inputs,omitempty"`
	Profiles    map[string]Profile `toml:"profile"`
}

// Input is one named external source; Follows tracks another input's
// pinned revision instead of carrying its own.
type Input struct {
	URL     string `toml:"url"`
	Ref     string `toml:"ref,omitempty"`
	Follows string `toml:"follows,omitempty"`
}

// Profile is one selectable environment variant.
type Profile struct {
	Capabilities []string          `toml:"capabilities"`
	Env          map[string]string `toml:"env,omitempty"`
	Toolchain    *ToolchainPin     `toml:"toolchain,omitempty"`
	Hook         *Hook             `toml:"hook,omitempty"`
	Policy       *Policy           `toml:"policy,omitempty"`
}

// ToolchainPin is the descriptor form of a content-hash toolchain pin.
type ToolchainPin struct {
	File   string `toml:"file"`
	SHA256 string `toml:"sha256"`
}

// Hook declares the search-path prefix action for shell activation.
type Hook struct {
	PrefixDir string `toml:"prefix_dir"`
}

// Policy restricts which license-restricted capabilities may compose.
type Policy struct {
	AllowUnfree []string `toml:"allow_unfree"`
}

// Pin converts the descriptor pin into the toolchain package's form.
func (p Profile) Pin() *toolchain.Pin {
	if p.Toolchain == nil {
		return nil
	}
	return &toolchain.Pin{
		File:   strings.TrimSpace(p.Toolchain.File),
		SHA256: strings.TrimSpace(p.Toolchain.SHA256),
	}
}

// Load reads and validates a descriptor file.
func Load(path string) (Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest load failed (%s): %w", path, err)
	}
	if !meta.IsDefined("platform") || strings.TrimSpace(m.Platform) == "" {
		m.Platform = DefaultPlatform
	}
	m.Platform = strings.TrimSpace(m.Platform)
	if err := Validate(m); err != nil {
		return Manifest{}, fmt.Errorf("manifest load failed (%s): %w", path, err)
	}
	return m, nil
}

// Save rewrites a descriptor file. Used by pin updates; formatting is
// regenerated, so hand-written comments in the descriptor do not survive.
func Save(path string, m Manifest) error {
	if err := Validate(m); err != nil {
		return fmt.Errorf("manifest save failed (%s): %w", path, err)
	}
	data, err := tomlv2.Marshal(m)
	if err != nil {
		return fmt.Errorf("manifest save failed (%s): %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks descriptor invariants at load time.
func Validate(m Manifest) error {
	for name, in := range m.Inputs {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty input name", ErrInvalidInput)
		}
		if strings.TrimSpace(in.URL) == "" {
			return fmt.Errorf("%w: input %q requires url", ErrInvalidInput, name)
		}
		follows := strings.TrimSpace(in.Follows)
		if follows != "" {
			if follows == name {
				return fmt.Errorf("%w: input %q follows itself", ErrInvalidInput, name)
			}
			if _, ok := m.Inputs[follows]; !ok {
				return fmt.Errorf("%w: input %q follows unknown input %q", ErrInvalidInput, name, follows)
			}
		}
	}

	if len(m.Profiles) == 0 {
		return fmt.Errorf("%w: at least one profile is required", ErrInvalidProfile)
	}
	for name, p := range m.Profiles {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: empty profile name", ErrInvalidProfile)
		}
		for _, capID := range p.Capabilities {
			if strings.TrimSpace(capID) == "" {
				return fmt.Errorf("%w: profile %q has empty capability id", ErrInvalidProfile, name)
			}
		}
		for key := range p.Env {
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("%w: profile %q has empty env key", ErrInvalidProfile, name)
			}
		}
		if pin := p.Pin(); pin != nil {
			if err := pin.Validate(); err != nil {
				return fmt.Errorf("%w: profile %q: %v", ErrInvalidProfile, name, err)
			}
		}
		if p.Hook != nil {
			dir := strings.TrimSpace(p.Hook.PrefixDir)
			if dir == "" {
				return fmt.Errorf("%w: profile %q hook requires prefix_dir", ErrInvalidProfile, name)
			}
			if filepath.IsAbs(dir) {
				return fmt.Errorf("%w: profile %q hook prefix_dir must be relative", ErrInvalidProfile, name)
			}
		}
	}
	return nil
}

// Profile returns one named profile.
func (m Manifest) Profile(name string) (Profile, error) {
	resolved := strings.TrimSpace(name)
	if resolved == "" {
		resolved = DefaultProfileName
	}
	p, ok := m.Profiles[resolved]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (have %v)", ErrProfileUnknown, resolved, m.ProfileNames())
	}
	return p, nil
}

// ProfileNames returns profile names in sorted order.
func (m Manifest) ProfileNames() []string {
	names := make([]string, 0, len(m.Profiles))
	for name := range m.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
