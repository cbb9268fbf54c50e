package backup

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"studytrack/internal/storage"
)

// Persist writes env's dataset into repo's scope. Signed-in users also get
// the cloud mirror and, when enabled, a secure copy; failures of either are
// logged and do not fail the import.
func (c *Codec) Persist(ctx context.Context, repo *storage.Storage, env *Envelope) error {
	if env == nil {
		return fmt.Errorf("persist: nil envelope")
	}
	if err := repo.SaveDataset(ctx, env.Data); err != nil {
		return fmt.Errorf("save imported data: %w", err)
	}

	scope := repo.Scope()
	if !scope.IsUser() {
		return nil
	}
	if err := repo.MirrorDataset(ctx, env.Data); err != nil {
		c.log().Warn("mirror imported data", "user", scope.UserID, "err", err)
	}
	c.storeSecret(scope.UserID, env, c.now())
	return nil
}

// VaultBackups lists the secure backup keys stored for userID, newest first.
func (c *Codec) VaultBackups(userID string) []string {
	if c.Secrets == nil || userID == "" {
		return nil
	}
	prefix := "backup_" + userID + "_"
	keys := c.Secrets.Keys(prefix)
	sort.SliceStable(keys, func(i, j int) bool {
		return stampOf(keys[i], prefix) > stampOf(keys[j], prefix)
	})
	return keys
}

// RestoreVaultBackup reads a secure backup entry back into an Envelope.
func (c *Codec) RestoreVaultBackup(key string) (*Envelope, error) {
	if c.Secrets == nil {
		return nil, ErrBackupNotFound
	}
	raw, ok, err := c.Secrets.Get(key)
	if err != nil {
		return nil, fmt.Errorf("read secure backup %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, key)
	}
	return c.Decode([]byte(raw))
}

func stampOf(key, prefix string) int64 {
	n, err := strconv.ParseInt(strings.TrimPrefix(key, prefix), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
