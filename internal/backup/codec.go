// Package backup exports a user's study dataset as a portable JSON
// envelope, imports envelopes (and older backup shapes) back, merges them
// into existing data and manages the exported files on disk.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"studytrack/internal/fsutil"
	"studytrack/internal/storage"
)

// FilePrefix and fileLayout build export names such as
// study-tracker-backup-2024-01-02T03-04-05.json.
const (
	FilePrefix = "study-tracker-backup-"
	FileExt    = ".json"
	fileLayout = "2006-01-02T15-04-05"
)

var (
	ErrSharingUnavailable = errors.New("sharing is not available")
	ErrNoFileSelected     = errors.New("no file selected")
	ErrEmptyFile          = errors.New("backup file is empty")
	ErrCorruptedFile      = errors.New("backup file is corrupted")
	ErrInvalidJSON        = errors.New("backup file is not valid JSON")
	ErrUnrecognizedFormat = errors.New("unrecognized backup format")
	ErrNoData             = errors.New("backup contains no data")
	ErrBackupNotFound     = errors.New("backup not found")
)

var userMessages = map[error]string{
	ErrSharingUnavailable: "Sharing is not available on this device",
	ErrNoFileSelected:     "No file selected",
	ErrEmptyFile:          "The selected file is empty",
	ErrCorruptedFile:      "The backup file appears to be corrupted. Please try a different backup file.",
	ErrInvalidJSON:        "The file is not a valid JSON backup file. Please select a backup file exported from this app.",
	ErrUnrecognizedFormat: "The selected file is not a recognized backup format. Please select a backup file exported from this app.",
	ErrNoData:             "The backup file contains no data to import. Please select a valid backup file.",
}

// Message returns the user-facing text for err. Errors without a dedicated
// message fall back to err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	for sentinel, msg := range userMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return err.Error()
}

// Sharer hands a written export to whatever surface the platform offers.
type Sharer interface {
	Available() bool
	Share(ctx context.Context, path string) error
}

// SecretStore is the secure key/value store backups may be mirrored into.
type SecretStore interface {
	Set(key, value string) error
	Get(key string) (string, bool, error)
	Keys(prefix string) []string
}

// Codec builds, reads and persists backup envelopes.
type Codec struct {
	Dir        string // where exports are written
	AppVersion string
	Platform   string

	Sharer Sharer
	Picker Picker

	// Secrets receives a copy of each export and import when SecretBackups
	// is set and a user is signed in.
	Secrets       SecretStore
	SecretBackups bool

	Now    func() time.Time
	Logger *slog.Logger
}

// ExportResult describes a written export.
type ExportResult struct {
	Path      string
	Envelope  *Envelope
	SecretKey string // empty unless a secure copy was stored
}

func (c *Codec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Codec) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger.With("component", "backup")
	}
	return slog.Default().With("component", "backup")
}

// FileName returns the export file name for t.
func FileName(t time.Time) string {
	return FilePrefix + t.UTC().Format(fileLayout) + FileExt
}

// Export writes ds as an indented JSON envelope and hands it to the Sharer.
// When no share surface is available the file is still written and its
// result is returned alongside ErrSharingUnavailable.
func (c *Codec) Export(ctx context.Context, ds storage.Dataset, user User) (*ExportResult, error) {
	now := c.now()
	env := NewEnvelope(ds, user, now, c.AppVersion, c.Platform)

	if err := os.MkdirAll(c.Dir, 0700); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(c.Dir, FileName(now))
	if err := fsutil.WriteJSONAtomic(path, env, 0600); err != nil {
		return nil, fmt.Errorf("write export: %w", err)
	}

	res := &ExportResult{Path: path, Envelope: env}
	res.SecretKey = c.storeSecret(user.ID, env, now)

	if c.Sharer == nil || !c.Sharer.Available() {
		return res, ErrSharingUnavailable
	}
	if err := c.Sharer.Share(ctx, path); err != nil {
		return res, fmt.Errorf("share export: %w", err)
	}
	c.log().Info("exported backup", "path", path, "sessions", env.Metadata.TotalSessions)
	return res, nil
}

// storeSecret mirrors env into the secret store. Failures are logged only.
func (c *Codec) storeSecret(userID string, env *Envelope, now time.Time) string {
	if !c.SecretBackups || c.Secrets == nil || userID == "" {
		return ""
	}
	data, err := json.Marshal(env)
	if err != nil {
		c.log().Warn("encode secure backup", "err", err)
		return ""
	}
	key := SecretKey(userID, now)
	if err := c.Secrets.Set(key, string(data)); err != nil {
		c.log().Warn("store secure backup", "key", key, "err", err)
		return ""
	}
	return key
}

// SecretKey names a secure backup entry.
func SecretKey(userID string, t time.Time) string {
	return fmt.Sprintf("backup_%s_%d", userID, t.UnixMilli())
}
