package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/drone-academy/services/academy/internal/config"
	"github.com/example/drone-academy/services/academy/internal/format"
	"github.com/example/drone-academy/services/academy/internal/generation"
	"github.com/example/drone-academy/services/academy/internal/llm"
)

func TestTranscriptCommand_PrintsTimestampedLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"transcript": []format.Segment{
			{Text: "Check the props", Start: 0, Duration: 2},
			{Text: "then arm the motors", Start: 65, Duration: 3},
		}})
	}))
	defer srv.Close()

	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("GENERATION_BACKEND", "")
	t.Setenv("TRANSCRIPT_BASE_URL", srv.URL)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"transcript", "vid-1"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || lines[0] != "[0:00] Check the props" || lines[1] != "[1:05] then arm the motors" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestNewGenerator_SelectsBackend(t *testing.T) {
	remote, err := newGenerator(context.Background(), config.Clients{
		GenerationBackend: config.BackendRemote,
		GenerationURL:     "https://gen.academy.test/api/generate",
	}, nil)
	if err != nil {
		t.Fatalf("remote: %v", err)
	}
	if _, ok := remote.(*generation.RemoteGenerator); !ok {
		t.Fatalf("expected remote generator, got %T", remote)
	}

	local, err := newGenerator(context.Background(), config.Clients{
		GenerationBackend: config.BackendLLM,
		LLM:               llm.Config{Provider: "mock"},
	}, nil)
	if err != nil {
		t.Fatalf("llm: %v", err)
	}
	if _, ok := local.(*generation.LLMGenerator); !ok {
		t.Fatalf("expected llm generator, got %T", local)
	}
}

func TestLoadEnvFile_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "academy.env")
	if err := os.WriteFile(path, []byte("ACADEMY_TEST_FROM_FILE=file\nACADEMY_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ACADEMY_TEST_FROM_FILE", "")
	os.Unsetenv("ACADEMY_TEST_FROM_FILE")
	t.Setenv("ACADEMY_TEST_PRESET", "shell")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("ACADEMY_TEST_FROM_FILE"); got != "file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("ACADEMY_TEST_PRESET"); got != "shell" {
		t.Fatalf("preset value overridden: %q", got)
	}
}
