package compose

import (
	"github.com/danmuck/envctl/internal/catalog"
	"github.com/danmuck/envctl/internal/manifest"
	"github.com/danmuck/envctl/internal/store"
)

// RequestFromProfile assembles a composition request from one descriptor
// profile. The .env developer overlay in the descriptor directory is
// layered on top of the profile's env table.
func RequestFromProfile(
	m manifest.Manifest,
	profileName string,
	baseDir string,
	cat *catalog.Catalog,
	st *store.Store,
	basePath string,
) (Request, error) {
	profile, err := m.Profile(profileName)
	if err != nil {
		return Request{}, err
	}

	overrides := profile.Env
	overlay, err := manifest.DotEnvOverlay(baseDir)
	if err != nil {
		return Request{}, err
	}
	if len(overlay) > 0 {
		overrides = manifest.MergeOverrides(overrides, overlay)
	}

	req := Request{
		Platform:     m.Platform,
		Capabilities: profile.Capabilities,
		Overrides:    overrides,
		Pin:          profile.Pin(),
		BaseDir:      baseDir,
		BasePath:     basePath,
		Catalog:      cat,
		Store:        st,
	}
	if profile.Hook != nil {
		req.Hook = &PathPrefixHook{PrefixDir: profile.Hook.PrefixDir}
	}
	if profile.Policy != nil {
		req.AllowUnfree = profile.Policy.AllowUnfree
	}
	return req, nil
}
