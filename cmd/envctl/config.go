package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/envctl/internal/manifest"
)

const (
	EnvManifestPath = "ENVCTL_MANIFEST"
	EnvStoreRoot    = "ENVCTL_STORE"
	EnvCatalogPath  = "ENVCTL_CATALOG"

	defaultStoreRoot = "local/store"
	catalogFileName  = "catalog.toml"
)

type options struct {
	mode     string
	manifest string
	profile  string
	store    string
	catalog  string
	shell    string
	write    bool
	kind     string
	output   string
	force    bool
	addr     string
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("envctl", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := options{}
	fs.StringVar(&opts.mode, "mode", "shell", "mode: shell|check|env|pin|profiles|init|serve")
	fs.StringVar(&opts.manifest, "manifest", "", "descriptor path (default envctl.toml)")
	fs.StringVar(&opts.profile, "profile", "", "profile name (default \"default\")")
	fs.StringVar(&opts.store, "store", "", "artifact store root (default local/store)")
	fs.StringVar(&opts.catalog, "catalog", "", "capability catalog path (default <store>/catalog.toml)")
	fs.StringVar(&opts.shell, "shell", "", "shell binary for activation (default $SHELL)")
	fs.BoolVar(&opts.write, "write", false, "pin mode: record the recomputed hash in the descriptor")
	fs.StringVar(&opts.kind, "kind", "manifest", "init mode: template kind manifest|catalog")
	fs.StringVar(&opts.output, "output", "", "init mode: output path")
	fs.BoolVar(&opts.force, "force", false, "init mode: overwrite existing file")
	fs.StringVar(&opts.addr, "addr", "", "serve mode: listen address (default :9400)")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", rest)
	}
	resolveDefaults(&opts)
	return opts, nil
}

func resolveDefaults(opts *options) {
	opts.mode = strings.ToLower(strings.TrimSpace(opts.mode))

	if strings.TrimSpace(opts.manifest) == "" {
		opts.manifest = strings.TrimSpace(os.Getenv(EnvManifestPath))
	}
	if opts.manifest == "" {
		opts.manifest = manifest.DefaultFileName
	}

	if strings.TrimSpace(opts.store) == "" {
		opts.store = strings.TrimSpace(os.Getenv(EnvStoreRoot))
	}
	if opts.store == "" {
		opts.store = defaultStoreRoot
	}

	if strings.TrimSpace(opts.catalog) == "" {
		opts.catalog = strings.TrimSpace(os.Getenv(EnvCatalogPath))
	}
	if opts.catalog == "" {
		opts.catalog = filepath.Join(opts.store, catalogFileName)
	}
}

// baseDir is the descriptor directory; relative pin files and hook dirs
// resolve against it.
func (o options) baseDir() string {
	abs, err := filepath.Abs(o.manifest)
	if err != nil {
		return filepath.Dir(o.manifest)
	}
	return filepath.Dir(abs)
}
