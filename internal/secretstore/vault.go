// Package secretstore is a small encrypted key/value vault, namespaced by a
// service identifier, used for offsite-style backup copies.
//
// Entries are sealed with AES-256-GCM under a key derived with Argon2id from
// either a user passphrase or a generated master key kept next to the vault.
package secretstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"

	"studytrack/internal/fsutil"
)

// DefaultService namespaces the study-tracker backup entries.
const DefaultService = "StudyTrackerBackup"

const (
	keySize   = 32
	saltSize  = 16
	nonceSize = 12

	vaultVersion = 1
	checkPlain   = "studytrack-vault"
)

// Argon2id parameters. Tests lower the memory cost.
var (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
)

var (
	// ErrWrongSecret means the vault exists but the key material doesn't open it.
	ErrWrongSecret = errors.New("vault secret does not match")
	// ErrCorruptVault means the vault file could not be read as a vault.
	ErrCorruptVault = errors.New("vault file is corrupt")
)

type vaultFile struct {
	Version int               `json:"version"`
	Service string            `json:"service"`
	Salt    string            `json:"salt"`
	Check   string            `json:"check"`
	Entries map[string]string `json:"entries"`
}

// Vault is an open secret store. It is safe for concurrent use.
type Vault struct {
	path    string
	service string

	mu   sync.Mutex
	aead cipher.AEAD
	file vaultFile
}

// Open opens or creates the vault for service under dir. An empty
// passphrase uses (and if needed creates) a master key file instead.
func Open(dir, service, passphrase string) (*Vault, error) {
	if service == "" {
		service = DefaultService
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create vault directory: %w", err)
	}

	secret := []byte(passphrase)
	if passphrase == "" {
		mk, err := loadOrCreateMasterKey(filepath.Join(dir, service+".key"))
		if err != nil {
			return nil, err
		}
		secret = mk
	}

	v := &Vault{path: filepath.Join(dir, service+".vault"), service: service}

	data, err := os.ReadFile(v.path)
	switch {
	case os.IsNotExist(err):
		salt := make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
		if err := v.initCipher(secret, salt); err != nil {
			return nil, err
		}
		check, err := v.seal([]byte(checkPlain))
		if err != nil {
			return nil, err
		}
		v.file = vaultFile{
			Version: vaultVersion,
			Service: service,
			Salt:    base64.StdEncoding.EncodeToString(salt),
			Check:   check,
			Entries: map[string]string{},
		}
		if err := v.flush(); err != nil {
			return nil, err
		}
		return v, nil
	case err != nil:
		return nil, fmt.Errorf("read vault: %w", err)
	}

	if err := json.Unmarshal(data, &v.file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptVault, err)
	}
	salt, err := base64.StdEncoding.DecodeString(v.file.Salt)
	if err != nil || len(salt) != saltSize {
		return nil, fmt.Errorf("%w: bad salt", ErrCorruptVault)
	}
	if err := v.initCipher(secret, salt); err != nil {
		return nil, err
	}
	if plain, err := v.open(v.file.Check); err != nil || string(plain) != checkPlain {
		return nil, ErrWrongSecret
	}
	if v.file.Entries == nil {
		v.file.Entries = map[string]string{}
	}
	return v, nil
}

// Service returns the namespace the vault was opened for.
func (v *Vault) Service() string { return v.service }

// Path returns the vault file location.
func (v *Vault) Path() string { return v.path }

// Set seals value under key, replacing any previous entry.
func (v *Vault) Set(key, value string) error {
	if key == "" {
		return fmt.Errorf("vault key is required")
	}
	sealed, err := v.seal([]byte(value))
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	prev, had := v.file.Entries[key]
	v.file.Entries[key] = sealed
	if err := v.flush(); err != nil {
		if had {
			v.file.Entries[key] = prev
		} else {
			delete(v.file.Entries, key)
		}
		return err
	}
	return nil
}

// Get returns the plaintext stored under key.
func (v *Vault) Get(key string) (string, bool, error) {
	v.mu.Lock()
	sealed, ok := v.file.Entries[key]
	v.mu.Unlock()
	if !ok {
		return "", false, nil
	}
	plain, err := v.open(sealed)
	if err != nil {
		return "", false, fmt.Errorf("decrypt %s: %w", key, err)
	}
	return string(plain), true, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (v *Vault) Delete(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	prev, had := v.file.Entries[key]
	if !had {
		return nil
	}
	delete(v.file.Entries, key)
	if err := v.flush(); err != nil {
		v.file.Entries[key] = prev
		return err
	}
	return nil
}

// Keys lists entry keys starting with prefix, sorted.
func (v *Vault) Keys(prefix string) []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	var keys []string
	for k := range v.file.Entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (v *Vault) initCipher(secret, salt []byte) error {
	derived := argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, keySize)
	block, err := aes.NewCipher(derived)
	if err != nil {
		return fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("create GCM cipher: %w", err)
	}
	v.aead = aead
	return nil
}

func (v *Vault) seal(plain []byte) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(v.aead.Seal(nonce, nonce, plain, nil)), nil
}

func (v *Vault) open(sealed string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, err
	}
	if len(raw) < nonceSize+v.aead.Overhead() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	return v.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
}

func (v *Vault) flush() error {
	if err := fsutil.WriteJSONAtomic(v.path, v.file, 0600); err != nil {
		return fmt.Errorf("write vault: %w", err)
	}
	return nil
}

func loadOrCreateMasterKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		key, decErr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if decErr != nil || len(key) != keySize {
			return nil, fmt.Errorf("%w: invalid master key file %s", ErrCorruptVault, path)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read master key: %w", err)
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate master key: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := fsutil.WriteFileAtomic(path, []byte(encoded), 0600); err != nil {
		return nil, fmt.Errorf("write master key: %w", err)
	}
	return key, nil
}
