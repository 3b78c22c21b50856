package catalog

// Metadata is the contract for capability identity and display data.
type Metadata struct {
	ID          string
	Name        string
	Description string
	Unfree      bool
}

// Artifact is one pre-built capability payload for a single platform.
// Digest addresses the payload in the artifact store; BinDir is the
// executable directory relative to the artifact root.
type Artifact struct {
	Digest string
	BinDir string
}

// Provider is the capability resolution boundary. Builds are keyed by
// platform identifier; a missing platform entry means the capability has
// no build for that platform.
type Provider interface {
	Metadata() Metadata
	Artifact(platform string) (Artifact, bool)
}

// StaticProvider serves a fixed artifact table, one entry per platform.
type StaticProvider struct {
	Meta   Metadata
	Builds map[string]Artifact
}

func (p StaticProvider) Metadata() Metadata {
	return p.Meta
}

func (p StaticProvider) Artifact(platform string) (Artifact, bool) {
	a, ok := p.Builds[platform]
	return a, ok
}
