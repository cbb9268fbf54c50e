package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// withConfig points XDG_CONFIG_HOME at a temp dir and writes content as the
// config file. Empty content writes nothing.
func withConfig(t *testing.T, content string) string {
	t.Helper()
	tempDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tempDir)
	t.Setenv(EnvUser, "")
	os.Unsetenv(EnvUser)

	if content == "" {
		return tempDir
	}
	configDir := filepath.Join(tempDir, "studytrack")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return tempDir
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
	if cfg.Theme.Primary == "" {
		t.Error("Theme.Primary should have a default value")
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Storage.Backend = %q, want file", cfg.Storage.Backend)
	}
	if cfg.Timer.DefaultMinutes != 25 {
		t.Errorf("Timer.DefaultMinutes = %d, want 25", cfg.Timer.DefaultMinutes)
	}
	if !cfg.Timer.Notify {
		t.Error("Timer.Notify should default to true")
	}
	if cfg.Backup.VaultService != "StudyTrackerBackup" {
		t.Errorf("Backup.VaultService = %q", cfg.Backup.VaultService)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	withConfig(t, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Theme.Primary != "#7C3AED" {
		t.Errorf("Theme.Primary = %q, want #7C3AED", cfg.Theme.Primary)
	}
	if cfg.User.ID != "" {
		t.Errorf("User.ID = %q, want guest", cfg.User.ID)
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	withConfig(t, `
data_dir: /custom/data
platform: web
user:
  id: u42
  email: me@example.com
storage:
  backend: sqlite
timer:
  default_minutes: 50
theme:
  primary: "#FF0000"
keys:
  stop: "s"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DataDir != "/custom/data" {
		t.Errorf("DataDir = %q, want /custom/data", cfg.DataDir)
	}
	if cfg.User.ID != "u42" || cfg.User.Email != "me@example.com" {
		t.Errorf("User = %+v", cfg.User)
	}
	if cfg.Timer.DefaultMinutes != 50 {
		t.Errorf("Timer.DefaultMinutes = %d, want 50", cfg.Timer.DefaultMinutes)
	}
	if got := cfg.StoragePath(); got != filepath.Join("/custom/data", "store.db") {
		t.Errorf("StoragePath() = %q", got)
	}
	if cfg.Theme.Muted != "#6B7280" {
		t.Errorf("Theme.Muted = %q, want default", cfg.Theme.Muted)
	}
	if cfg.Keys.Stop != "s" {
		t.Errorf("Keys.Stop = %q, want s", cfg.Keys.Stop)
	}
	if !cfg.ForegroundPolling() {
		t.Error("web platform should poll in the foreground")
	}
}

func TestMerge(t *testing.T) {
	base := Default()
	override := &Config{
		DataDir: "/override/path",
		Theme: ThemeConfig{
			Primary: "#CUSTOM",
		},
	}

	base.mergeNonEmpty(override)

	if base.DataDir != "/override/path" {
		t.Errorf("DataDir = %q, want /override/path", base.DataDir)
	}
	if base.Theme.Primary != "#CUSTOM" {
		t.Errorf("Theme.Primary = %q, want #CUSTOM", base.Theme.Primary)
	}
	if base.Theme.Accent != "#10B981" {
		t.Errorf("Theme.Accent = %q, want #10B981", base.Theme.Accent)
	}
	if base.Backup.Keep != 10 {
		t.Errorf("Backup.Keep = %d, want 10", base.Backup.Keep)
	}
}

func TestLoad_MissingBoolKeysDoesNotClobberDefaults(t *testing.T) {
	withConfig(t, `
theme:
  primary: "#FF0000"
backup:
  vault: true
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Backup.Vault {
		t.Errorf("Backup.Vault = %v, want true", cfg.Backup.Vault)
	}
	if !cfg.Timer.Notify {
		t.Errorf("Timer.Notify = %v, want true", cfg.Timer.Notify)
	}
}

func TestLoad_ExplicitFalseOverridesDefault(t *testing.T) {
	withConfig(t, `
timer:
  notify: false
  foreground_polling: true
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Timer.Notify {
		t.Errorf("Timer.Notify = %v, want false", cfg.Timer.Notify)
	}
	if !cfg.Timer.ForegroundPolling {
		t.Errorf("Timer.ForegroundPolling = %v, want true", cfg.Timer.ForegroundPolling)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	withConfig(t, "timer: [unclosed")
	if _, err := Load(); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestLoad_EnvUserOverride(t *testing.T) {
	withConfig(t, "user:\n  id: from-file\n")
	t.Setenv(EnvUser, " from-env ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.User.ID != "from-env" {
		t.Errorf("User.ID = %q, want from-env", cfg.User.ID)
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		name       string
		platform   string
		polling    bool
		vault      bool
		wantPoll   bool
		wantSecret bool
	}{
		{"desktop defaults", "linux", false, false, false, false},
		{"web always polls", "web", false, false, true, false},
		{"ios always keeps secure copies", "ios", false, false, false, true},
		{"explicit opt-in", "darwin", true, true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Platform = tt.platform
			cfg.Timer.ForegroundPolling = tt.polling
			cfg.Backup.Vault = tt.vault

			if got := cfg.ForegroundPolling(); got != tt.wantPoll {
				t.Errorf("ForegroundPolling() = %v, want %v", got, tt.wantPoll)
			}
			if got := cfg.SecretBackups(); got != tt.wantSecret {
				t.Errorf("SecretBackups() = %v, want %v", got, tt.wantSecret)
			}
		})
	}
}

func TestPollEvery(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"1s", time.Second},
		{"250ms", 250 * time.Millisecond},
		{"", time.Second},
		{"soon", time.Second},
		{"-1s", time.Second},
	}
	for _, tt := range tests {
		cfg := &Config{Timer: TimerConfig{PollInterval: tt.in}}
		if got := cfg.PollEvery(); got != tt.want {
			t.Errorf("PollEvery(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/data", Storage: StorageConfig{Backend: "file"}}

	if got := cfg.StoragePath(); got != filepath.Join("/data", "store.json") {
		t.Errorf("StoragePath() = %q", got)
	}
	if got := cfg.ExportDir(); got != filepath.Join("/data", "backups") {
		t.Errorf("ExportDir() = %q", got)
	}
	if got := cfg.VaultDir(); got != filepath.Join("/data", "vault") {
		t.Errorf("VaultDir() = %q", got)
	}

	cfg.Storage.Path = "/elsewhere/kv.json"
	cfg.Backup.ExportDir = "/exports"
	if got := cfg.StoragePath(); got != "/elsewhere/kv.json" {
		t.Errorf("StoragePath() = %q", got)
	}
	if got := cfg.ExportDir(); got != "/exports" {
		t.Errorf("ExportDir() = %q", got)
	}
}

func TestGetDataDir(t *testing.T) {
	tests := []struct {
		name    string
		dataDir string
		want    string
	}{
		{name: "empty uses default", dataDir: "", want: ""},
		{name: "absolute path", dataDir: "/custom/path", want: "/custom/path"},
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		tests = append(tests,
			struct {
				name    string
				dataDir string
				want    string
			}{name: "tilde expands home", dataDir: "~", want: home},
			struct {
				name    string
				dataDir string
				want    string
			}{name: "tilde path expands home", dataDir: "~/mydata", want: filepath.Join(home, "mydata")},
		)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DataDir: tt.dataDir}
			got := cfg.GetDataDir()

			if tt.dataDir == "" {
				if filepath.Base(got) != ".studytrack" {
					t.Errorf("GetDataDir() = %q, want to end with .studytrack", got)
				}
			} else if tt.want != "" && got != tt.want {
				t.Errorf("GetDataDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSave(t *testing.T) {
	tempDir := withConfig(t, "")

	cfg := Default()
	cfg.DataDir = "/saved/path"
	cfg.Theme.Primary = "#SAVED"
	cfg.Backup.Vault = true

	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	configPath := filepath.Join(tempDir, "studytrack", "config.yaml")
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DataDir != "/saved/path" {
		t.Errorf("loaded DataDir = %q, want /saved/path", loaded.DataDir)
	}
	if loaded.Theme.Primary != "#SAVED" {
		t.Errorf("loaded Theme.Primary = %q, want #SAVED", loaded.Theme.Primary)
	}
	if !loaded.Backup.Vault {
		t.Error("loaded Backup.Vault = false, want true")
	}
}
