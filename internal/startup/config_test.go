package startup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var configEnvKeys = []string{
	"SECRET_KEY", "DATABASE_PATH", "MANAGED_DIRECTORY", "LISTEN_ADDRESS",
	"METRICS_ENABLED", "THUMBNAIL_SIZE", "LOG_LEVEL", "LOG_FILE",
	"LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS",
}

// clearConfigEnv unsets every configuration variable for the duration of
// the test.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatal(err)
		}
	}
}

func writeConfigFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig("", nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.ListenAddress != defaults.ListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.ListenAddress, defaults.ListenAddress)
	}
	if cfg.ThumbnailSize != 320 || !cfg.MetricsEnabled {
		t.Errorf("ThumbnailSize = %d, MetricsEnabled = %v", cfg.ThumbnailSize, cfg.MetricsEnabled)
	}
	if cfg.Log.Level != "info" || cfg.Log.MaxSizeMB != 10 || cfg.Log.MaxBackups != 3 {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if !filepath.IsAbs(cfg.DatabasePath) || filepath.Base(cfg.DatabasePath) != "filemanager.db" {
		t.Errorf("DatabasePath = %q, want absolute path to filemanager.db", cfg.DatabasePath)
	}
	if !filepath.IsAbs(cfg.ManagedDirectory) || filepath.Base(cfg.ManagedDirectory) != "managed_files" {
		t.Errorf("ManagedDirectory = %q", cfg.ManagedDirectory)
	}
	if !cfg.UsesDefaultSecret() {
		t.Error("default secret not detected")
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()

	path := writeConfigFile(t, dir, `
secret_key: from-file
listen_address: 127.0.0.1:6000
thumbnail_size: 200
managed_directory: `+filepath.Join(dir, "files")+`
log:
  level: warn
  max_backups: 9
`)

	t.Setenv("LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("THUMBNAIL_SIZE", "150")

	cfg, err := LoadConfig(path, map[string]any{"thumbnail_size": 100})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"file value", cfg.SecretKey, "from-file"},
		{"nested file value", cfg.Log.MaxBackups, 9},
		{"env beats file", cfg.ListenAddress, "0.0.0.0:7000"},
		{"nested env beats file", cfg.Log.Level, "debug"},
		{"override beats env", cfg.ThumbnailSize, 100},
		{"default fills gaps", cfg.Log.MaxSizeMB, 10},
		{"path from file", cfg.ManagedDirectory, filepath.Join(dir, "files")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if cfg.UsesDefaultSecret() {
		t.Error("configured secret reported as default")
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	clearConfigEnv(t)
	dir := t.TempDir()

	path := writeConfigFile(t, dir, "listen_address: 127.0.0.1:6000\n")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SECRET_KEY=from-dotenv\nLISTEN_ADDRESS=127.0.0.1:6001\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path, nil)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.SecretKey != "from-dotenv" {
		t.Errorf("SecretKey = %q, want value from .env", cfg.SecretKey)
	}
	if cfg.ListenAddress != "127.0.0.1:6001" {
		t.Errorf("ListenAddress = %q, want .env to beat the config file", cfg.ListenAddress)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		path      string
		overrides map[string]any
		wantErr   string
	}{
		{
			name:    "explicit file missing",
			path:    filepath.Join(dir, "missing.yaml"),
			wantErr: "error reading config file",
		},
		{
			name:    "malformed yaml",
			path:    writeConfigFile(t, t.TempDir(), "listen_address: [unterminated\n"),
			wantErr: "error reading config file",
		},
		{
			name:      "non-positive thumbnail size",
			overrides: map[string]any{"thumbnail_size": 0},
			wantErr:   "thumbnail_size",
		},
		{
			name:      "empty listen address",
			overrides: map[string]any{"listen_address": " "},
			wantErr:   "listen_address",
		},
		{
			name:      "empty database path",
			overrides: map[string]any{"database_path": ""},
			wantErr:   "database_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			_, err := LoadConfig(tt.path, tt.overrides)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := WriteDefaultConfig(path, false); err != nil {
		t.Fatalf("WriteDefaultConfig failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"secret_key:", "managed_directory:", "listen_address:", "max_size_mb:"} {
		if !strings.Contains(string(data), key) {
			t.Errorf("generated config missing %q", key)
		}
	}

	cfg, err := LoadConfig(path, nil)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.ListenAddress != DefaultConfig().ListenAddress {
		t.Errorf("ListenAddress = %q", cfg.ListenAddress)
	}

	if err := WriteDefaultConfig(path, false); err == nil {
		t.Error("expected refusal to overwrite existing file")
	}
	if err := WriteDefaultConfig(path, true); err != nil {
		t.Errorf("overwrite failed: %v", err)
	}
}

func TestDatabaseInManagedDirectory(t *testing.T) {
	base := t.TempDir()
	managed := filepath.Join(base, "managed")

	tests := []struct {
		name string
		db   string
		want bool
	}{
		{"sibling directory", filepath.Join(base, "data", "catalog.db"), false},
		{"directly inside", filepath.Join(managed, "catalog.db"), true},
		{"nested inside", filepath.Join(managed, ".state", "catalog.db"), true},
		{"prefix lookalike", filepath.Join(base, "managed-data", "catalog.db"), false},
		{"dotted name inside", filepath.Join(managed, "..catalog.db"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ManagedDirectory = managed
			cfg.DatabasePath = tt.db
			if got := cfg.DatabaseInManagedDirectory(); got != tt.want {
				t.Errorf("DatabaseInManagedDirectory() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDatabaseFiles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "catalog.db")

	files := cfg.DatabaseFiles()
	if len(files) != 4 || files[0] != cfg.DatabasePath {
		t.Fatalf("DatabaseFiles() = %v", files)
	}
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		found := false
		for _, f := range files {
			if f == cfg.DatabasePath+suffix {
				found = true
			}
		}
		if !found {
			t.Errorf("DatabaseFiles() missing %s file", suffix)
		}
	}
}
