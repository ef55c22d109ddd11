// Package config provides configuration loading from YAML files, the system
// keychain, and environment variables. Environment variables take precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

const (
	// KeychainService is the keychain service name for inviscam secrets.
	KeychainService = "inviscam"

	// KeyAnalyticsToken is the keychain account of the analytics bearer token.
	KeyAnalyticsToken = "analytics-token"
)

// ErrNoSecret is returned when a secret is in none of the sources.
var ErrNoSecret = fmt.Errorf("secret not found: %w", keyring.ErrNotFound)

// Config holds the full application configuration, assembled from YAML + Keychain + env.
type Config struct {
	MediaDir     string          `yaml:"media_dir"`
	LogLevel     string          `yaml:"log_level"`
	ProfilesFile string          `yaml:"profiles_file"`
	Camera       CameraConfig    `yaml:"camera"`
	Analytics    AnalyticsConfig `yaml:"analytics"`
	Status       StatusConfig    `yaml:"status"`
	Remote       RemoteConfig    `yaml:"remote"`
}

// CameraConfig tunes the simulated camera.
type CameraConfig struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	FPS     int     `yaml:"fps"`
	MinZoom float64 `yaml:"min_zoom"`
	MaxZoom float64 `yaml:"max_zoom"`
	FFmpeg  string  `yaml:"ffmpeg"`
	Audio   bool    `yaml:"audio"`
}

// AnalyticsConfig configures event delivery. Without an endpoint events are
// only logged.
type AnalyticsConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Batch    int           `yaml:"batch"`
	Flush    time.Duration `yaml:"flush"`
	Token    string        `yaml:"-"` // secret, not in YAML
}

// StatusConfig configures the status websocket server. An empty address
// disables it.
type StatusConfig struct {
	Addr string `yaml:"addr"`
}

// RemoteConfig configures the Stream Deck remote. It is off unless enabled.
type RemoteConfig struct {
	Enabled    bool `yaml:"enabled"`
	Brightness byte `yaml:"brightness"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "inviscam")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	if p := os.Getenv("INVISCAM_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		MediaDir:     filepath.Join(home, "Pictures"),
		LogLevel:     "info",
		ProfilesFile: filepath.Join(DefaultConfigDir(), "profiles.yaml"),
		Camera: CameraConfig{
			Width:   1280,
			Height:  720,
			FPS:     15,
			MinZoom: 0.5,
			MaxZoom: 8,
			FFmpeg:  "ffmpeg",
		},
		Analytics: AnalyticsConfig{
			Batch: 50,
			Flush: 30 * time.Second,
		},
		Remote: RemoteConfig{
			Brightness: 60,
		},
	}
}

// Load assembles configuration from the YAML file at DefaultConfigPath,
// then the keychain, then environment variables.
func Load() (*Config, error) {
	return LoadFile(DefaultConfigPath())
}

// LoadFile is Load reading path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	// 1. Try to load YAML config file
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	// 2. Layer in Keychain secrets (ignore errors, the keychain may not be populated)
	if token, err := keyring.Get(KeychainService, KeyAnalyticsToken); err == nil {
		cfg.Analytics.Token = token
	}

	// 3. Environment variables override everything
	if v := os.Getenv("INVISCAM_MEDIA_DIR"); v != "" {
		cfg.MediaDir = v
	}
	if v := os.Getenv("INVISCAM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("INVISCAM_ANALYTICS_ENDPOINT"); v != "" {
		cfg.Analytics.Endpoint = v
	}
	if v := os.Getenv("INVISCAM_ANALYTICS_TOKEN"); v != "" {
		cfg.Analytics.Token = v
	}
	if v := os.Getenv("INVISCAM_STATUS_ADDR"); v != "" {
		cfg.Status.Addr = v
	}
	if v := os.Getenv("INVISCAM_FFMPEG"); v != "" {
		cfg.Camera.FFmpeg = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.MediaDir == "" {
		c.MediaDir = d.MediaDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.ProfilesFile == "" {
		c.ProfilesFile = d.ProfilesFile
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		c.Camera.Width, c.Camera.Height = d.Camera.Width, d.Camera.Height
	}
	if c.Camera.FPS <= 0 {
		c.Camera.FPS = d.Camera.FPS
	}
	if c.Camera.MinZoom <= 0 {
		c.Camera.MinZoom = d.Camera.MinZoom
	}
	if c.Camera.MaxZoom <= 0 {
		c.Camera.MaxZoom = d.Camera.MaxZoom
	}
	if c.Camera.MaxZoom < c.Camera.MinZoom {
		c.Camera.MinZoom, c.Camera.MaxZoom = d.Camera.MinZoom, d.Camera.MaxZoom
	}
	if c.Camera.FFmpeg == "" {
		c.Camera.FFmpeg = d.Camera.FFmpeg
	}
	if c.Analytics.Batch <= 0 {
		c.Analytics.Batch = d.Analytics.Batch
	}
	if c.Analytics.Flush <= 0 {
		c.Analytics.Flush = d.Analytics.Flush
	}
	if c.Remote.Brightness == 0 {
		c.Remote.Brightness = d.Remote.Brightness
	}
}

// Level parses LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// WriteConfigFile writes the non-secret portion of config to the YAML file.
func WriteConfigFile(cfg *Config) error {
	return WriteConfigFileTo(DefaultConfigPath(), cfg)
}

// WriteConfigFileTo is WriteConfigFile writing path.
func WriteConfigFileTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// SetKeychainSecret stores a secret in the system keychain.
func SetKeychainSecret(account, value string) error {
	// Delete first to avoid "already exists" errors on update
	_ = keyring.Delete(KeychainService, account)
	return keyring.Set(KeychainService, account, value)
}

// GetKeychainSecret retrieves a secret from the system keychain.
func GetKeychainSecret(account string) (string, error) {
	v, err := keyring.Get(KeychainService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoSecret
	}
	return v, err
}
