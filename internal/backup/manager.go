package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Manager lists, reads and prunes exported backup files in one directory.
type Manager struct {
	dir string
}

// BackupInfo summarises one export file.
type BackupInfo struct {
	Name      string         // file name (study-tracker-backup-2025-12-15T14-30-22.json)
	Path      string         // full path
	CreatedAt time.Time      // parsed from the name
	Stats     map[string]int // sessions, tests, subjects, plans
}

// NewManager creates a manager for exports under dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Dir returns the export directory.
func (m *Manager) Dir() string { return m.dir }

// List returns all exports, newest first. Files whose names don't parse are
// skipped; files that don't decode are listed without stats.
func (m *Manager) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		createdAt, err := parseBackupName(entry.Name())
		if err != nil {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		backups = append(backups, BackupInfo{
			Name:      entry.Name(),
			Path:      path,
			CreatedAt: createdAt,
			Stats:     statsFor(path),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Get returns information about one export.
func (m *Manager) Get(name string) (*BackupInfo, error) {
	if err := validateBackupName(name); err != nil {
		return nil, err
	}
	path := filepath.Join(m.dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, name)
	}
	createdAt, _ := parseBackupName(name)
	return &BackupInfo{Name: name, Path: path, CreatedAt: createdAt, Stats: statsFor(path)}, nil
}

// Latest returns the newest export.
func (m *Manager) Latest() (*BackupInfo, error) {
	backups, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, fmt.Errorf("%w: no backups available", ErrBackupNotFound)
	}
	return &backups[0], nil
}

// Delete removes one export.
func (m *Manager) Delete(name string) error {
	if err := validateBackupName(name); err != nil {
		return err
	}
	path := filepath.Join(m.dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, name)
	}
	return os.Remove(path)
}

// Prune removes old exports, keeping only the N most recent.
func (m *Manager) Prune(keepCount int) (int, error) {
	if keepCount < 0 {
		return 0, fmt.Errorf("keepCount must be non-negative")
	}
	backups, err := m.List()
	if err != nil {
		return 0, err
	}
	if len(backups) <= keepCount {
		return 0, nil
	}

	deleted := 0
	for _, b := range backups[keepCount:] {
		if err := m.Delete(b.Name); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func validateBackupName(name string) error {
	if name == "" {
		return fmt.Errorf("backup name is required")
	}
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	if _, err := parseBackupName(name); err != nil {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	return nil
}

// parseBackupName extracts the UTC timestamp from an export file name.
func parseBackupName(name string) (time.Time, error) {
	if !strings.HasPrefix(name, FilePrefix) || !strings.HasSuffix(name, FileExt) {
		return time.Time{}, fmt.Errorf("not a backup file: %s", name)
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, FilePrefix), FileExt)
	return time.Parse(fileLayout, stamp)
}

// statsFor counts records in an export. Unreadable files get empty stats.
func statsFor(path string) map[string]int {
	stats := map[string]int{}
	data, err := os.ReadFile(path)
	if err != nil {
		return stats
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return stats
	}
	stats["sessions"] = len(env.Data.StudySessions)
	stats["tests"] = len(env.Data.TestScores)
	stats["subjects"] = len(env.Data.Subjects)
	stats["plans"] = len(env.Data.StudyPlans)
	return stats
}
