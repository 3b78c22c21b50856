package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danmuck/envctl/internal/compose"
	"github.com/danmuck/envctl/internal/manifest"
	"github.com/danmuck/envctl/internal/observability"
)

// ComposeFunc materializes the environment for one named profile.
type ComposeFunc func(profile string) (*compose.Environment, error)

// Config for the read-only status API.
type Config struct {
	Addr        string
	CorsOrigins []string
	Version     string
}

func DefaultConfig() Config {
	return Config{
		Addr:        ":9400",
		CorsOrigins: []string{"http://localhost:3000"},
		Version:     "0.1.0",
	}
}

// Server exposes descriptor and composition status over HTTP. It never
// mutates anything; composition results are recomputed per request.
type Server struct {
	cfg       Config
	manifest  manifest.Manifest
	composeFn ComposeFunc
	startedAt time.Time
}

func New(cfg Config, m manifest.Manifest, composeFn ComposeFunc) *Server {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	return &Server{
		cfg:       cfg,
		manifest:  m,
		composeFn: composeFn,
		startedAt: time.Now(),
	}
}

// Router builds the gin engine with all status routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()

	// Middleware: keep it lean
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CorsOrigins,
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	r.GET("/health", s.handleHealth)
	r.GET("/profiles", s.handleProfiles)
	r.GET("/environment", s.handleEnvironment)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	observability.RegisterMetrics()
	return s.Router().Run(s.cfg.Addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"uptime":   time.Since(s.startedAt).String(),
		"service":  "envctl",
		"version":  s.cfg.Version,
		"platform": s.manifest.Platform,
	})
}

func (s *Server) handleProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"description": s.manifest.Description,
		"platform":    s.manifest.Platform,
		"profiles":    s.manifest.ProfileNames(),
	})
}

func (s *Server) handleEnvironment(c *gin.Context) {
	profile := strings.TrimSpace(c.Query("profile"))
	if profile == "" {
		profile = manifest.DefaultProfileName
	}

	started := time.Now()
	env, err := s.composeFn(profile)
	observability.RecordCompose(profile, err, time.Since(started))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"profile": profile,
			"outcome": observability.OutcomeForError(err),
			"error":   err.Error(),
		})
		return
	}

	vars := make(map[string]string, len(env.Vars))
	for _, v := range env.Vars {
		vars[v.Key] = v.Value
	}
	capabilities := make([]gin.H, 0, len(env.Capabilities))
	for _, rc := range env.Capabilities {
		capabilities = append(capabilities, gin.H{
			"id":      rc.ID,
			"digest":  rc.Digest,
			"bin_dir": rc.BinDir,
		})
	}
	payload := gin.H{
		"profile":      profile,
		"platform":     env.Platform,
		"path":         env.Path,
		"prefix_dir":   env.PrefixDir,
		"vars":         vars,
		"capabilities": capabilities,
	}
	if env.Toolchain != nil {
		payload["toolchain"] = gin.H{
			"file":   env.Toolchain.File,
			"sha256": env.Toolchain.SHA256,
		}
	}
	c.JSON(http.StatusOK, payload)
}
