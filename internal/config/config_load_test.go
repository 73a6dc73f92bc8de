package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to set os.Args for testing
func setArgs(args []string) {
	os.Args = args
}

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	originalArgs := os.Args
	t.Cleanup(func() {
		os.Args = originalArgs
		resetFlags()
	})
	setArgs(args)
	resetFlags()
}

func TestLoadFromFlags_Defaults(t *testing.T) {
	dir := t.TempDir()
	withArgs(t, "pdf-template-filler", "--dir="+dir, "--datadir="+filepath.Join(dir, "data"))

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Mode != "stdio" {
		t.Errorf("LoadFromFlags() Mode = %v, want stdio", cfg.Mode)
	}
	if cfg.Store != "sqlite" {
		t.Errorf("LoadFromFlags() Store = %v, want sqlite", cfg.Store)
	}
	if cfg.WorkDirectory != dir {
		t.Errorf("LoadFromFlags() WorkDirectory = %v, want %v", cfg.WorkDirectory, dir)
	}
	if cfg.Padding != 40 {
		t.Errorf("LoadFromFlags() Padding = %v, want 40", cfg.Padding)
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	dir := t.TempDir()
	withArgs(t, "pdf-template-filler",
		"--dir="+dir,
		"--store=redis",
		"--redisaddr=cache:6380",
		"--redisdb=2",
		"--padding=24",
		"--loglevel=debug",
		"--maxfilesize=50000000",
	)

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Store != StoreRedis {
		t.Errorf("Store = %v, want redis", cfg.Store)
	}
	if cfg.RedisAddr != "cache:6380" {
		t.Errorf("RedisAddr = %v, want cache:6380", cfg.RedisAddr)
	}
	if cfg.RedisDB != 2 {
		t.Errorf("RedisDB = %v, want 2", cfg.RedisDB)
	}
	if cfg.Padding != 24 {
		t.Errorf("Padding = %v, want 24", cfg.Padding)
	}
	if !cfg.IsDebug() {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.MaxFileSize != 50000000 {
		t.Errorf("MaxFileSize = %v, want 50000000", cfg.MaxFileSize)
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PDF_TEMPLATE_STORE", "memory")
	t.Setenv("PDF_TEMPLATE_DIR", dir)
	t.Setenv("PDF_TEMPLATE_LOGLEVEL", "warn")
	withArgs(t, "pdf-template-filler")

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Store != StoreMemory {
		t.Errorf("Store = %v, want memory", cfg.Store)
	}
	if cfg.WorkDirectory != dir {
		t.Errorf("WorkDirectory = %v, want %v", cfg.WorkDirectory, dir)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %v, want warn", cfg.LogLevel)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PDF_TEMPLATE_STORE", "redis")
	withArgs(t, "pdf-template-filler", "--store=memory", "--dir="+dir)

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}
	if cfg.Store != StoreMemory {
		t.Errorf("Store = %v, want memory (flag should override env)", cfg.Store)
	}
}

func TestLoadFromFlags_InvalidStore(t *testing.T) {
	withArgs(t, "pdf-template-filler", "--store=postgres", "--dir="+t.TempDir())

	if _, err := LoadFromFlags(); err == nil {
		t.Fatal("LoadFromFlags() expected error for unknown store")
	}
}

func TestLoadFromFlags_Version(t *testing.T) {
	withArgs(t, "pdf-template-filler", "--version")

	if _, err := LoadFromFlags(); err == nil {
		t.Fatal("LoadFromFlags() expected version error")
	}
}
