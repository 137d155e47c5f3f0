package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gwillem/algae/internal/log"
)

func withOptions(t *testing.T, o Options) {
	t.Helper()
	saved := opts
	opts = o
	t.Cleanup(func() { opts = saved })
}

func TestLoadConfig_LogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "algae.yaml")
	if err := os.WriteFile(path, []byte("log_level: error\n"), 0644); err != nil {
		t.Fatal(err)
	}

	withOptions(t, Options{Config: path})
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error from file", cfg.LogLevel)
	}

	withOptions(t, Options{Config: path, LogLevel: "debug"})
	cfg, err = loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug from --log-level", cfg.LogLevel)
	}
}

func TestInitLogging_AppliesConfiguredLevel(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "algae.yaml")
	if err := os.WriteFile(path, []byte("log_level: info\n"), 0644); err != nil {
		t.Fatal(err)
	}

	withOptions(t, Options{Config: path, LogLevel: "error"})
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	initLogging(cfg)
	if log.L().Enabled(ctx, slog.LevelWarn) {
		t.Error("warn enabled after --log-level error")
	}

	withOptions(t, Options{Config: path, LogLevel: "debug"})
	cfg, _ = loadConfig()
	initLogging(cfg)
	if !log.L().Enabled(ctx, slog.LevelDebug) {
		t.Error("debug disabled after --log-level debug")
	}
}
