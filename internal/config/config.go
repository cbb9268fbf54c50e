// Package config handles configuration loading and defaults for studytrack.
// Configuration is loaded from XDG-compliant paths (typically ~/.config/studytrack/config.yaml).
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"studytrack/internal/fsutil"

	"gopkg.in/yaml.v3"
)

// Environment overrides.
const (
	EnvUser            = "STUDYTRACK_USER"
	EnvVaultPassphrase = "STUDYTRACK_VAULT_PASSPHRASE"
)

// Platforms with special behavior.
const (
	PlatformWeb = "web"
	PlatformIOS = "ios"
)

// Config represents the application configuration.
type Config struct {
	// DataDir overrides the default data directory (~/.studytrack)
	DataDir string `yaml:"data_dir,omitempty"`

	// Platform tags exports and selects platform behavior (default: runtime OS)
	Platform string `yaml:"platform,omitempty"`

	// User is the signed-in account; empty means guest
	User UserConfig `yaml:"user,omitempty"`

	Storage StorageConfig `yaml:"storage,omitempty"`
	Timer   TimerConfig   `yaml:"timer,omitempty"`
	Backup  BackupConfig  `yaml:"backup,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`

	// Theme customizes the visual appearance
	Theme ThemeConfig `yaml:"theme,omitempty"`

	// Keys customizes keyboard shortcuts of the live timer view
	Keys KeysConfig `yaml:"keys,omitempty"`
}

// UserConfig identifies the signed-in user.
type UserConfig struct {
	ID    string `yaml:"id,omitempty"`
	Email string `yaml:"email,omitempty"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	// Backend is one of file, sqlite, memory (default: file)
	Backend string `yaml:"backend,omitempty"`

	// Path overrides the store location (default: <data_dir>/store.json or store.db)
	Path string `yaml:"path,omitempty"`
}

// TimerConfig defines timer behavior.
type TimerConfig struct {
	// ForegroundPolling drives completion from a 1s poll even off the web platform
	ForegroundPolling bool `yaml:"foreground_polling,omitempty"`

	// PollInterval is a Go duration string (default: "1s")
	PollInterval string `yaml:"poll_interval,omitempty"`

	// DefaultMinutes is the pomodoro length when none is given (default: 25)
	DefaultMinutes int `yaml:"default_minutes,omitempty"`

	// Notify sends a desktop notification when a pomodoro completes (default: true)
	Notify bool `yaml:"notify,omitempty"`
}

// BackupConfig defines export and secure-copy settings.
type BackupConfig struct {
	// ExportDir is where exports are written (default: <data_dir>/backups)
	ExportDir string `yaml:"export_dir,omitempty"`

	// Vault keeps an encrypted copy of exports and imports for signed-in users
	Vault bool `yaml:"vault,omitempty"`

	// VaultService namespaces the secure copies (default: StudyTrackerBackup)
	VaultService string `yaml:"vault_service,omitempty"`

	// Keep is how many exports `backup prune` retains by default (default: 10)
	Keep int `yaml:"keep,omitempty"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error (default: warn)
	Format string `yaml:"format,omitempty"` // text or json (default: text)
}

// ThemeConfig defines color and style settings.
type ThemeConfig struct {
	// Primary color for the clock (hex, e.g., "#FF5733")
	Primary string `yaml:"primary,omitempty"`

	// Accent color for the progress bar (hex)
	Accent string `yaml:"accent,omitempty"`

	// Muted color for secondary text (hex)
	Muted string `yaml:"muted,omitempty"`
}

// KeysConfig defines customizable keyboard shortcuts.
// Each field accepts a comma-separated list of key bindings.
// Examples: "q,ctrl+c", "space", "p,space"
type KeysConfig struct {
	Toggle      string `yaml:"toggle,omitempty"`      // default: "space,p"
	Stop        string `yaml:"stop,omitempty"`        // default: "x"
	Distraction string `yaml:"distraction,omitempty"` // default: "d"
	Quit        string `yaml:"quit,omitempty"`        // default: "q,ctrl+c"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir:  defaultDataDir(),
		Platform: runtime.GOOS,
		Storage: StorageConfig{
			Backend: "file",
		},
		Timer: TimerConfig{
			ForegroundPolling: false,
			PollInterval:      "1s",
			DefaultMinutes:    25,
			Notify:            true,
		},
		Backup: BackupConfig{
			Vault:        false,
			VaultService: "StudyTrackerBackup",
			Keep:         10,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Theme: ThemeConfig{
			Primary: "#7C3AED", // Violet
			Accent:  "#10B981", // Emerald
			Muted:   "#6B7280", // Gray
		},
		Keys: KeysConfig{
			// Defaults are empty strings, which means use built-in defaults
		},
	}
}

// defaultDataDir returns the default data directory path.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".studytrack"
	}
	return filepath.Join(home, ".studytrack")
}

// configDir returns the configuration directory path (XDG compliant).
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "studytrack")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "studytrack")
}

// configPath returns the path to the config file.
func configPath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads configuration from disk, merging with defaults, then applies
// environment overrides. If no config file exists, defaults are used.
func Load() (*Config, error) {
	cfg := Default()

	if path := configPath(); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var userCfg Config
			if err := yaml.Unmarshal(data, &userCfg); err != nil {
				return nil, err
			}

			var doc yaml.Node
			_ = yaml.Unmarshal(data, &doc) // best-effort; fall back to conservative merge if this fails

			cfg.mergeFromYAML(&userCfg, &doc)
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if user, ok := os.LookupEnv(EnvUser); ok {
		c.User.ID = strings.TrimSpace(user)
	}
}

// mergeNonEmpty applies non-empty values from other to c.
// It intentionally does not touch booleans (those require presence-aware merging).
func (c *Config) mergeNonEmpty(other *Config) {
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if other.Platform != "" {
		c.Platform = other.Platform
	}

	if other.User.ID != "" {
		c.User.ID = other.User.ID
	}
	if other.User.Email != "" {
		c.User.Email = other.User.Email
	}

	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}

	if other.Timer.PollInterval != "" {
		c.Timer.PollInterval = other.Timer.PollInterval
	}
	if other.Timer.DefaultMinutes > 0 {
		c.Timer.DefaultMinutes = other.Timer.DefaultMinutes
	}

	if other.Backup.ExportDir != "" {
		c.Backup.ExportDir = other.Backup.ExportDir
	}
	if other.Backup.VaultService != "" {
		c.Backup.VaultService = other.Backup.VaultService
	}
	if other.Backup.Keep > 0 {
		c.Backup.Keep = other.Backup.Keep
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}

	if other.Theme.Primary != "" {
		c.Theme.Primary = other.Theme.Primary
	}
	if other.Theme.Accent != "" {
		c.Theme.Accent = other.Theme.Accent
	}
	if other.Theme.Muted != "" {
		c.Theme.Muted = other.Theme.Muted
	}

	if other.Keys.Toggle != "" {
		c.Keys.Toggle = other.Keys.Toggle
	}
	if other.Keys.Stop != "" {
		c.Keys.Stop = other.Keys.Stop
	}
	if other.Keys.Distraction != "" {
		c.Keys.Distraction = other.Keys.Distraction
	}
	if other.Keys.Quit != "" {
		c.Keys.Quit = other.Keys.Quit
	}
}

func (c *Config) mergeFromYAML(other *Config, doc *yaml.Node) {
	c.mergeNonEmpty(other)

	// Without a node tree we can't tell "false" from "absent"; keep defaults.
	if doc == nil || len(doc.Content) == 0 {
		return
	}

	if yamlHasPath(doc, "timer", "foreground_polling") {
		c.Timer.ForegroundPolling = other.Timer.ForegroundPolling
	}
	if yamlHasPath(doc, "timer", "notify") {
		c.Timer.Notify = other.Timer.Notify
	}
	if yamlHasPath(doc, "backup", "vault") {
		c.Backup.Vault = other.Backup.Vault
	}
}

func yamlHasPath(doc *yaml.Node, path ...string) bool {
	if doc == nil || len(path) == 0 {
		return false
	}

	// Document -> root mapping.
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, key := range path {
		if n == nil || n.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			v := n.Content[i+1]
			if k.Kind == yaml.ScalarNode && k.Value == key {
				next = v
				break
			}
		}
		if next == nil {
			return false
		}
		n = next
	}
	return true
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	path := configPath()
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return fsutil.WriteFileAtomic(path, data, 0600)
}

// GetDataDir returns the resolved data directory path.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return expandHome(c.DataDir)
}

// StoragePath returns where the KV backend keeps its data.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return expandHome(c.Storage.Path)
	}
	if c.Storage.Backend == "sqlite" {
		return filepath.Join(c.GetDataDir(), "store.db")
	}
	return filepath.Join(c.GetDataDir(), "store.json")
}

// ExportDir returns where backups are exported.
func (c *Config) ExportDir() string {
	if c.Backup.ExportDir != "" {
		return expandHome(c.Backup.ExportDir)
	}
	return filepath.Join(c.GetDataDir(), "backups")
}

// VaultDir returns where the secure backup store lives.
func (c *Config) VaultDir() string {
	return filepath.Join(c.GetDataDir(), "vault")
}

// VaultPassphrase returns the secure store passphrase from the environment.
// Empty means a generated master key is used.
func (c *Config) VaultPassphrase() string {
	return os.Getenv(EnvVaultPassphrase)
}

// ForegroundPolling reports whether timer completion is driven by an
// in-process poll: always on the web platform, otherwise when configured.
func (c *Config) ForegroundPolling() bool {
	return c.Platform == PlatformWeb || c.Timer.ForegroundPolling
}

// SecretBackups reports whether exports and imports also keep a secure
// copy: always on iOS, otherwise when configured.
func (c *Config) SecretBackups() bool {
	return c.Platform == PlatformIOS || c.Backup.Vault
}

// PollEvery parses Timer.PollInterval, falling back to one second.
func (c *Config) PollEvery() time.Duration {
	d, err := time.ParseDuration(c.Timer.PollInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

func expandHome(p string) string {
	if p == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return p
	}
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err == nil {
			trimmed := strings.TrimPrefix(p, "~/")
			trimmed = strings.TrimPrefix(trimmed, `~\`)
			trimmed = strings.TrimPrefix(trimmed, `\`)
			return filepath.Join(home, trimmed)
		}
	}
	return p
}
