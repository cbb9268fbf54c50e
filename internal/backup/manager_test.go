package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeExport drops an export stamped at t into dir.
func writeExport(t *testing.T, dir string, at time.Time) string {
	t.Helper()
	c := &Codec{Dir: dir, Sharer: &fakeSharer{available: true}, Now: func() time.Time { return at }}
	res, err := c.Export(context.Background(), sampleDataset(), User{})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	return filepath.Base(res.Path)
}

func TestManagerList(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	backups, err := m.List()
	if err != nil {
		t.Fatalf("List() on empty dir error = %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("List() = %d backups, want 0", len(backups))
	}

	base := time.Date(2025, 12, 15, 14, 30, 0, 0, time.UTC)
	oldest := writeExport(t, dir, base)
	newest := writeExport(t, dir, base.Add(2*time.Hour))
	writeExport(t, dir, base.Add(time.Hour))

	// noise that must be ignored
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, FilePrefix+"dir"), 0700); err != nil {
		t.Fatal(err)
	}

	backups, err = m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("List() = %d backups, want 3", len(backups))
	}
	if backups[0].Name != newest {
		t.Errorf("List()[0] = %s, want %s", backups[0].Name, newest)
	}
	if backups[2].Name != oldest {
		t.Errorf("List()[2] = %s, want %s", backups[2].Name, oldest)
	}
	if got := backups[0].Stats["sessions"]; got != 2 {
		t.Errorf("Stats[sessions] = %d, want 2", got)
	}
	if got := backups[0].Stats["plans"]; got != 1 {
		t.Errorf("Stats[plans] = %d, want 1", got)
	}
}

func TestManagerListMissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope"))
	backups, err := m.List()
	if err != nil || len(backups) != 0 {
		t.Errorf("List() = %v, %v; want empty, nil", backups, err)
	}
}

func TestManagerGetAndLatest(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	if _, err := m.Latest(); !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("Latest() on empty dir error = %v, want ErrBackupNotFound", err)
	}

	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	name := writeExport(t, dir, at)

	info, err := m.Get(name)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !info.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", info.CreatedAt, at)
	}

	latest, err := m.Latest()
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.Name != name {
		t.Errorf("Latest() = %s, want %s", latest.Name, name)
	}

	if _, err := m.Get(FileName(at.Add(time.Second))); !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrBackupNotFound", err)
	}
}

func TestManagerPrune(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		writeExport(t, dir, base.Add(time.Duration(i)*time.Minute))
	}

	deleted, err := m.Prune(2)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 3 {
		t.Errorf("Prune() deleted %d, want 3", deleted)
	}

	backups, _ := m.List()
	if len(backups) != 2 {
		t.Fatalf("after Prune() %d backups remain, want 2", len(backups))
	}
	if !backups[0].CreatedAt.Equal(base.Add(4 * time.Minute)) {
		t.Errorf("newest backup was pruned")
	}

	if deleted, err := m.Prune(10); err != nil || deleted != 0 {
		t.Errorf("Prune(10) = %d, %v; want 0, nil", deleted, err)
	}
	if _, err := m.Prune(-1); err == nil {
		t.Error("Prune(-1) should fail")
	}
}

func TestValidateBackupName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"study-tracker-backup-2025-12-15T14-30-22.json", false},
		{"", true},
		{"../study-tracker-backup-2025-12-15T14-30-22.json", true},
		{"sub/study-tracker-backup-2025-12-15T14-30-22.json", true},
		{`sub\study-tracker-backup-2025-12-15T14-30-22.json`, true},
		{"study-tracker-backup-2025-12-15.json", true},
		{"study-tracker-backup-2025-12-15T14-30-22.txt", true},
		{"backup-2025-12-15T14-30-22.json", true},
	}
	for _, tt := range tests {
		err := validateBackupName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateBackupName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestManagerDeleteRejectsTraversal(t *testing.T) {
	m := NewManager(t.TempDir())
	if err := m.Delete("../etc/passwd"); err == nil {
		t.Error("Delete() accepted a path outside the backup dir")
	}
}
