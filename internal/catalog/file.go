package catalog

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Catalog file entry mapping to one static capability provider.
type fileProvider struct {
	Name        string                  `toml:"name"`
	Description string                  `toml:"description"`
	Unfree      bool                    `toml:"unfree"`
	Builds      map[string]fileArtifact `toml:"builds"`
}

type fileArtifact struct {
	Digest string `toml:"digest"`
	BinDir string `toml:"bin_dir"`
}

type fileCatalog struct {
	Capabilities map[string]fileProvider `toml:"capability"`
}

// LoadFile reads a capability catalog descriptor (catalog.toml). The file
// is owned by the artifact-store collaborator; this loader only validates
// shape and registers static providers.
func LoadFile(path string) (*Catalog, error) {
	var raw fileCatalog
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("catalog load failed (%s): %w", path, err)
	}

	cat := NewCatalog()
	for id, entry := range raw.Capabilities {
		builds := make(map[string]Artifact, len(entry.Builds))
		for platform, art := range entry.Builds {
			platform = strings.TrimSpace(platform)
			digest := strings.TrimSpace(art.Digest)
			if platform == "" || digest == "" {
				return nil, fmt.Errorf(
					"catalog load failed (%s): capability %q build requires platform and digest",
					path, id,
				)
			}
			builds[platform] = Artifact{
				Digest: digest,
				BinDir: strings.TrimSpace(art.BinDir),
			}
		}
		provider := StaticProvider{
			Meta: Metadata{
				ID:          strings.TrimSpace(id),
				Name:        strings.TrimSpace(entry.Name),
				Description: strings.TrimSpace(entry.Description),
				Unfree:      entry.Unfree,
			},
			Builds: builds,
		}
		if err := cat.Register(provider); err != nil {
			return nil, fmt.Errorf("catalog load failed (%s): %w", path, err)
		}
	}
	return cat, nil
}
