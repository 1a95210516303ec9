package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "setup.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DepsRoot != "deps" {
		t.Errorf("DepsRoot = %q, want %q", cfg.DepsRoot, "deps")
	}
	if cfg.SourceDir != "." || cfg.BuildDir != "build" {
		t.Errorf("unexpected project dirs: %q %q", cfg.SourceDir, cfg.BuildDir)
	}
	if cfg.Tool != "cmake" {
		t.Errorf("Tool = %q, want cmake", cfg.Tool)
	}
	if cfg.BuildType != "" {
		t.Errorf("BuildType = %q, want empty", cfg.BuildType)
	}
	if cfg.LogLevel() != zerolog.InfoLevel {
		t.Errorf("LogLevel() = %v, want info", cfg.LogLevel())
	}
	if cfg.Log.JSON || cfg.Debug {
		t.Error("JSON logging and debug output should be off by default")
	}
}

func TestLoadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "setup.toml")
	content := `
deps_root = "third_party"
generator = "Ninja"
build_type = "RelWithDebInfo"

[log]
level = "debug"
json = true
`
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.DepsRoot != "third_party" {
		t.Errorf("DepsRoot = %q, want third_party", cfg.DepsRoot)
	}
	if cfg.Generator != "Ninja" {
		t.Errorf("Generator = %q, want Ninja", cfg.Generator)
	}
	if cfg.BuildType != "RelWithDebInfo" {
		t.Errorf("BuildType = %q, want RelWithDebInfo", cfg.BuildType)
	}
	if cfg.LogLevel() != zerolog.DebugLevel || !cfg.Log.JSON {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("SETUP_TOOL", "cmake3")
	t.Setenv("SETUP_BUILD_TYPE", "Release")

	cfg, err := Load(filepath.Join(t.TempDir(), "setup.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Tool != "cmake3" {
		t.Errorf("Tool = %q, want cmake3", cfg.Tool)
	}
	if cfg.BuildType != "Release" {
		t.Errorf("BuildType = %q, want Release", cfg.BuildType)
	}
}

func TestLoadDebugEnv(t *testing.T) {
	t.Setenv("SETUP_DEBUG", "1")

	cfg, err := Load(filepath.Join(t.TempDir(), "setup.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("SETUP_DEBUG should enable Debug")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{DepsRoot: "deps", Tool: "cmake"}
		cfg.Log.Level = "info"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"build type", func(c *Config) { c.BuildType = "release" }},
		{"deps root", func(c *Config) { c.DepsRoot = "" }},
		{"tool", func(c *Config) { c.Tool = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
