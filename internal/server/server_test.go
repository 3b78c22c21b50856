package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/danmuck/envctl/internal/compose"
	"github.com/danmuck/envctl/internal/manifest"
	"github.com/danmuck/envctl/internal/testutil/testlog"
)

func testManifest() manifest.Manifest {
	return manifest.Manifest{
		Description: "avr-hal development environment",
		Platform:    "x86_64-linux",
		Profiles: map[string]manifest.Profile{
			"default":     {Capabilities: []string{"avr-gcc"}},
			"all-targets": {Capabilities: []string{"avr-gcc"}},
		},
	}
}

func testServer(composeFn ComposeFunc) *Server {
	gin.SetMode(gin.TestMode)
	return New(DefaultConfig(), testManifest(), composeFn)
}

func doGet(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Router().ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}
	return w, body
}

func TestHealth(t *testing.T) {
	testlog.Start(t)
	s := testServer(nil)
	w, body := doGet(t, s, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if body["service"] != "envctl" || body["status"] != "ok" {
		t.Fatalf("health body: %v", body)
	}
}

func TestProfiles(t *testing.T) {
	testlog.Start(t)
	s := testServer(nil)
	w, body := doGet(t, s, "/profiles")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	profiles, ok := body["profiles"].([]any)
	if !ok || len(profiles) != 2 || profiles[0] != "all-targets" {
		t.Fatalf("profiles body: %v", body)
	}
}

func TestEnvironmentOK(t *testing.T) {
	testlog.Start(t)
	s := testServer(func(profile string) (*compose.Environment, error) {
		return &compose.Environment{
			Platform: "x86_64-linux",
			Vars:     []compose.Variable{{Key: "RAVEDUDE_PORT", Value: "/dev/ttyACM0"}},
			Path:     "/opt/devtools/bin:/usr/bin",
			Capabilities: []compose.ResolvedCapability{
				{ID: "avr-gcc", Digest: "sha256-ab", BinDir: "/store/ab/bin"},
			},
		}, nil
	})
	w, body := doGet(t, s, "/environment?profile=default")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body=%v", w.Code, body)
	}
	vars, ok := body["vars"].(map[string]any)
	if !ok || vars["RAVEDUDE_PORT"] != "/dev/ttyACM0" {
		t.Fatalf("vars: %v", body)
	}
}

func TestEnvironmentFailure(t *testing.T) {
	testlog.Start(t)
	s := testServer(func(profile string) (*compose.Environment, error) {
		return nil, fmt.Errorf("boom: %w", compose.ErrUnresolvableCapability)
	})
	w, body := doGet(t, s, "/environment")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: %d", w.Code)
	}
	if body["outcome"] != "unresolvable" || body["profile"] != "default" {
		t.Fatalf("failure body: %v", body)
	}
}
