package compose

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/envctl/internal/catalog"
	"github.com/danmuck/envctl/internal/store"
	"github.com/danmuck/envctl/internal/toolchain"
)

var (
	ErrUnresolvableCapability = errors.New("compose: unresolvable capability")
	ErrInvalidRequest         = errors.New("compose: invalid request")
)

// Request carries every input of one composition. The catalog and store
// are explicit collaborator handles; Compose holds no state of its own.
type Request struct {
	Platform     string
	Capabilities []string
	Overrides    map[string]string
	Pin          *toolchain.Pin
	Hook         *PathPrefixHook
	AllowUnfree  []string
	BaseDir      string
	BasePath     string
	Catalog      *catalog.Catalog
	Store        *store.Store
}

// Compose materializes one environment, all-or-nothing. Any unresolvable
// capability, pin integrity failure, or policy violation aborts with no
// partial result. Compose performs no side effects; the caller applies
// the returned bindings.
func Compose(req Request) (*Environment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	ids := normalizeCapabilities(req.Capabilities)
	resolved := make([]ResolvedCapability, 0, len(ids))
	pathEntries := make([]string, 0, len(ids)+1)

	for _, id := range ids {
		rc, err := resolveCapability(req, id)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, rc)
	}

	var pinned *toolchain.Resolved
	if req.Pin != nil {
		r, err := toolchain.Resolve(*req.Pin, req.BaseDir)
		if err != nil {
			return nil, err
		}
		pinned = &r
	}

	prefixDir := ""
	if req.Hook != nil {
		abs, err := req.Hook.Resolve(req.BaseDir)
		if err != nil {
			return nil, err
		}
		prefixDir = abs
		pathEntries = append(pathEntries, abs)
	}
	for _, rc := range resolved {
		pathEntries = append(pathEntries, rc.BinDir)
	}

	env := &Environment{
		Platform:     req.Platform,
		Vars:         sortedVars(req.Overrides),
		Path:         JoinPath(pathEntries, req.BasePath),
		PrefixDir:    prefixDir,
		Capabilities: resolved,
		Toolchain:    pinned,
	}
	log.Debug().
		Str("platform", env.Platform).
		Int("capabilities", len(env.Capabilities)).
		Bool("pinned", env.Toolchain != nil).
		Bool("hook", env.PrefixDir != "").
		Msg("environment composed")
	return env, nil
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.Platform) == "" {
		return fmt.Errorf("%w: platform is required", ErrInvalidRequest)
	}
	if req.Catalog == nil {
		return fmt.Errorf("%w: catalog handle is required", ErrInvalidRequest)
	}
	if req.Store == nil {
		return fmt.Errorf("%w: store handle is required", ErrInvalidRequest)
	}
	return nil
}

func resolveCapability(req Request, id string) (ResolvedCapability, error) {
	provider, ok := req.Catalog.Resolve(id)
	if !ok {
		return ResolvedCapability{}, fmt.Errorf(
			"%w: capability=%q not in catalog", ErrUnresolvableCapability, id,
		)
	}
	meta := provider.Metadata()
	if meta.Unfree && !unfreeAllowed(id, req.AllowUnfree) {
		return ResolvedCapability{}, fmt.Errorf(
			"%w: capability=%q requires allow_unfree entry", ErrPolicyViolation, id,
		)
	}
	artifact, ok := provider.Artifact(req.Platform)
	if !ok {
		return ResolvedCapability{}, fmt.Errorf(
			"%w: capability=%q has no build for platform=%q",
			ErrUnresolvableCapability, id, req.Platform,
		)
	}
	binDir, err := req.Store.BinPath(artifact.Digest, artifact.BinDir)
	if err != nil {
		return ResolvedCapability{}, fmt.Errorf(
			"%w: capability=%q platform=%q: %v",
			ErrUnresolvableCapability, id, req.Platform, err,
		)
	}
	return ResolvedCapability{ID: id, Digest: artifact.Digest, BinDir: binDir}, nil
}

// normalizeCapabilities trims, drops empties, collapses duplicates, and
// sorts. Declaration order carries no meaning, so the sorted order is the
// deterministic one.
func normalizeCapabilities(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	ids := make([]string, 0, len(raw))
	for _, entry := range raw {
		id := strings.TrimSpace(entry)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
