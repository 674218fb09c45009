package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/h1v3-io/tkt/internal/config"
	"github.com/h1v3-io/tkt/internal/logbuf"
)

func TestNewLogger(t *testing.T) {
	var out bytes.Buffer
	buf := logbuf.New(10)
	logger := newLogger(&out, "text", slog.LevelInfo, buf)

	logger.Debug("hidden")
	logger.Info("shown", "id", "T001")

	if strings.Contains(out.String(), "hidden") {
		t.Error("debug record reached the console")
	}
	if !strings.Contains(out.String(), "msg=shown id=T001") {
		t.Errorf("console = %q", out.String())
	}
	if got := buf.Query(time.Time{}, slog.LevelDebug, 0); len(got) != 2 {
		t.Errorf("buffer kept %d entries, want 2", len(got))
	}
}

func TestNewLogger_JSONDefault(t *testing.T) {
	var out bytes.Buffer
	newLogger(&out, "", slog.LevelInfo, logbuf.New(1)).Info("hello")
	if !strings.HasPrefix(out.String(), "{") {
		t.Errorf("expected JSON output, got %q", out.String())
	}
}

func TestWebhookConfig(t *testing.T) {
	got := webhookConfig(&config.WebhookConfig{Endpoints: map[string]config.WebhookEndpoint{
		"ci":     {BearerToken: "tok"},
		"github": {Secret: "whsec"},
	}})
	if got.Endpoints["ci"].BearerToken != "tok" || got.Endpoints["github"].Secret != "whsec" {
		t.Errorf("got %+v", got)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tkt.yaml")
	if err := os.WriteFile(path, []byte("api:\n  port: 7000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(context.Background(), options{configPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.Port != 7000 || cfg.Store.Backend != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestBuildConnectors_NoneConfigured(t *testing.T) {
	conns, err := buildConnectors(&config.Config{}, nil, slog.Default())
	if err != nil || len(conns) != 0 {
		t.Errorf("conns = %v, err = %v", conns, err)
	}
}
