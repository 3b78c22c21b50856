package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/envctl/internal/activate"
	"github.com/danmuck/envctl/internal/catalog"
	"github.com/danmuck/envctl/internal/compose"
	"github.com/danmuck/envctl/internal/logging"
	"github.com/danmuck/envctl/internal/manifest"
	"github.com/danmuck/envctl/internal/observability"
	"github.com/danmuck/envctl/internal/server"
	"github.com/danmuck/envctl/internal/store"
	"github.com/danmuck/envctl/internal/toolchain"
)

func main() {
	logging.ConfigureRuntime()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fatalf("%v", err)
	}

	switch opts.mode {
	case "shell":
		runShell(opts)
	case "check":
		runCheck(opts)
	case "env":
		runEnv(opts)
	case "pin":
		runPin(opts)
	case "profiles":
		runProfiles(opts)
	case "init":
		runInit(opts)
	case "serve":
		runServe(opts)
	default:
		fatalf("unknown mode %q (supported: shell, check, env, pin, profiles, init, serve)", opts.mode)
	}
}

// workspace bundles the loaded collaborators every composing mode needs.
type workspace struct {
	manifest manifest.Manifest
	catalog  *catalog.Catalog
	store    *store.Store
}

func loadWorkspace(opts options) (workspace, error) {
	m, err := manifest.Load(opts.manifest)
	if err != nil {
		return workspace{}, err
	}
	st, err := store.Open(opts.store)
	if err != nil {
		return workspace{}, err
	}
	cat, err := catalog.LoadFile(opts.catalog)
	if err != nil {
		return workspace{}, err
	}
	return workspace{manifest: m, catalog: cat, store: st}, nil
}

func composeProfile(ws workspace, opts options) (*compose.Environment, error) {
	req, err := compose.RequestFromProfile(
		ws.manifest, opts.profile, opts.baseDir(),
		ws.catalog, ws.store, os.Getenv("PATH"),
	)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	env, err := compose.Compose(req)
	observability.RecordCompose(profileLabel(opts.profile), err, time.Since(started))
	return env, err
}

func runShell(opts options) {
	ws, err := loadWorkspace(opts)
	if err != nil {
		fatalf("%v", err)
	}
	env, err := composeProfile(ws, opts)
	if err != nil {
		fatalf("composition failed, not starting a shell: %v", err)
	}
	observability.RecordActivation(profileLabel(opts.profile))
	if err := activate.Shell(env, os.Environ(), opts.shell, activate.ExecRunner{}); err != nil {
		os.Exit(activate.ExitCode(err))
	}
}

func runCheck(opts options) {
	ws, err := loadWorkspace(opts)
	if err != nil {
		fatalf("%v", err)
	}
	env, err := composeProfile(ws, opts)
	if err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("ok: profile=%s platform=%s capabilities=%d\n",
		profileLabel(opts.profile), env.Platform, len(env.Capabilities))
}

func runEnv(opts options) {
	ws, err := loadWorkspace(opts)
	if err != nil {
		fatalf("%v", err)
	}
	env, err := composeProfile(ws, opts)
	if err != nil {
		fatalf("%v", err)
	}
	for _, line := range env.ExportLines() {
		fmt.Println(line)
	}
}

func runPin(opts options) {
	m, err := manifest.Load(opts.manifest)
	if err != nil {
		fatalf("%v", err)
	}
	name := profileLabel(opts.profile)
	profile, err := m.Profile(name)
	if err != nil {
		fatalf("%v", err)
	}
	pin := profile.Pin()
	if pin == nil {
		fatalf("profile %q declares no toolchain pin", name)
	}

	current, err := toolchain.CurrentDigest(*pin, opts.baseDir())
	if err != nil {
		fatalf("%v", err)
	}

	if opts.write {
		profile.Toolchain.SHA256 = current
		m.Profiles[name] = profile
		if err := manifest.Save(opts.manifest, m); err != nil {
			fatalf("%v", err)
		}
		fmt.Printf("pin updated: file=%s sha256=%s\n", pin.File, current)
		return
	}

	if _, err := toolchain.Resolve(*pin, opts.baseDir()); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("pin verified: file=%s sha256=%s\n", pin.File, current)
}

func runProfiles(opts options) {
	m, err := manifest.Load(opts.manifest)
	if err != nil {
		fatalf("%v", err)
	}
	for _, name := range m.ProfileNames() {
		marker := " "
		if name == manifest.DefaultProfileName {
			marker = "*"
		}
		p := m.Profiles[name]
		fmt.Printf("%s %-16s capabilities=%d pinned=%v hook=%v\n",
			marker, name, len(p.Capabilities), p.Toolchain != nil, p.Hook != nil)
	}
}

func runInit(opts options) {
	output := strings.TrimSpace(opts.output)
	if output == "" {
		switch strings.ToLower(strings.TrimSpace(opts.kind)) {
		case "catalog":
			output = catalogFileName
		default:
			output = manifest.DefaultFileName
		}
	}
	if err := manifest.WriteTemplate(output, opts.kind, opts.force); err != nil {
		fatalf("%v", err)
	}
	fmt.Printf("wrote %s template: %s\n", opts.kind, output)
}

func runServe(opts options) {
	ws, err := loadWorkspace(opts)
	if err != nil {
		fatalf("%v", err)
	}
	cfg := server.DefaultConfig()
	if strings.TrimSpace(opts.addr) != "" {
		cfg.Addr = opts.addr
	}
	srv := server.New(cfg, ws.manifest, func(profile string) (*compose.Environment, error) {
		req, err := compose.RequestFromProfile(
			ws.manifest, profile, opts.baseDir(),
			ws.catalog, ws.store, os.Getenv("PATH"),
		)
		if err != nil {
			return nil, err
		}
		return compose.Compose(req)
	})
	if err := srv.Run(); err != nil {
		fatalf("%v", err)
	}
}

func profileLabel(name string) string {
	resolved := strings.TrimSpace(name)
	if resolved == "" {
		return manifest.DefaultProfileName
	}
	return resolved
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "envctl: "+format+"\n", args...)
	os.Exit(1)
}
