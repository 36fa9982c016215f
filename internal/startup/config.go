package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"file-dashboard/internal/logging"
)

// DefaultSecretKey is the development signing secret. Running with it logs
// a warning.
const DefaultSecretKey = "dev-secret-key-change-in-production"

// Config holds all application configuration
type Config struct {
	SecretKey        string    `mapstructure:"secret_key"        yaml:"secret_key"`
	DatabasePath     string    `mapstructure:"database_path"     yaml:"database_path"`
	ManagedDirectory string    `mapstructure:"managed_directory" yaml:"managed_directory"`
	ListenAddress    string    `mapstructure:"listen_address"    yaml:"listen_address"`
	MetricsEnabled   bool      `mapstructure:"metrics_enabled"   yaml:"metrics_enabled"`
	ThumbnailSize    int       `mapstructure:"thumbnail_size"    yaml:"thumbnail_size"`
	Log              LogConfig `mapstructure:"log"               yaml:"log"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level"       yaml:"level"`
	File       string `mapstructure:"file"        yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
}

// LoggingOptions converts the log section for logging.Configure.
func (c LogConfig) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Level,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
	}
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		SecretKey:        DefaultSecretKey,
		DatabasePath:     "./filemanager.db",
		ManagedDirectory: "./managed_files",
		ListenAddress:    "127.0.0.1:5000",
		MetricsEnabled:   true,
		ThumbnailSize:    320,
		Log: LogConfig{
			Level:      "info",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("secret_key", defaults.SecretKey)
	v.SetDefault("database_path", defaults.DatabasePath)
	v.SetDefault("managed_directory", defaults.ManagedDirectory)
	v.SetDefault("listen_address", defaults.ListenAddress)
	v.SetDefault("metrics_enabled", defaults.MetricsEnabled)
	v.SetDefault("thumbnail_size", defaults.ThumbnailSize)

	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.max_size_mb", defaults.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
}

// LoadConfig reads configuration from, in increasing precedence: built-in
// defaults, the YAML file at path (or ./config.yaml when path is empty and
// the file exists), environment variables (optionally from .env files) and
// overrides. Environment variable names are the upper-cased keys with dots
// replaced by underscores, for example LOG_LEVEL.
func LoadConfig(path string, overrides map[string]any) (*Config, error) {
	loadEnvFiles(path)

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	if used := v.ConfigFileUsed(); used != "" {
		logging.Debug("Loaded configuration file %s", used)
	}
	return cfg, nil
}

// loadEnvFiles loads .env files from the working directory and the config
// file's directory. Variables already set in the environment win.
func loadEnvFiles(configPath string) {
	dirs := []string{"."}
	if configPath != "" {
		dirs = append(dirs, filepath.Dir(configPath))
	}

	for _, dir := range dirs {
		for _, name := range []string{".env", ".env.local"} {
			envPath := filepath.Join(dir, name)
			if _, err := os.Stat(envPath); err != nil {
				continue
			}
			if err := godotenv.Load(envPath); err != nil {
				logging.Warn("Failed to load %s: %v", envPath, err)
			}
		}
	}
}

// normalize validates the configuration and makes paths absolute.
func (c *Config) normalize() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return errors.New("listen_address cannot be empty")
	}
	if c.ThumbnailSize <= 0 {
		return fmt.Errorf("thumbnail_size must be positive, got %d", c.ThumbnailSize)
	}
	if c.DatabasePath == "" {
		return errors.New("database_path cannot be empty")
	}
	if c.ManagedDirectory == "" {
		return errors.New("managed_directory cannot be empty")
	}

	var err error
	if c.DatabasePath, err = filepath.Abs(c.DatabasePath); err != nil {
		return fmt.Errorf("failed to resolve database path: %w", err)
	}
	if c.ManagedDirectory, err = filepath.Abs(c.ManagedDirectory); err != nil {
		return fmt.Errorf("failed to resolve managed directory path: %w", err)
	}
	return nil
}

// UsesDefaultSecret reports whether the development secret is in use.
func (c *Config) UsesDefaultSecret() bool {
	return c.SecretKey == DefaultSecretKey || c.SecretKey == ""
}

// DatabaseFiles returns the database file and the journal files SQLite
// keeps beside it.
func (c *Config) DatabaseFiles() []string {
	return []string{
		c.DatabasePath,
		c.DatabasePath + "-wal",
		c.DatabasePath + "-shm",
		c.DatabasePath + "-journal",
	}
}

// DatabaseInManagedDirectory reports whether the database lives somewhere
// under the managed directory.
func (c *Config) DatabaseInManagedDirectory() bool {
	rel, err := filepath.Rel(c.ManagedDirectory, c.DatabasePath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// WriteDefaultConfig writes the built-in configuration as YAML to path.
// An existing file is only replaced when overwrite is set.
func WriteDefaultConfig(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%s already exists (use --overwrite to replace)", path)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
