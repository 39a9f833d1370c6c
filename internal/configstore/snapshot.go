package configstore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SaveDump writes an AES-GCM encrypted snapshot of store to a new file named
// path plus a ".20060102T150405Z"-style UTC timestamp suffix. The
// encryption key is derived by SHA-256'ing the configured encryption key
// string (MEM_ENCRYPTION_KEY), so operators can supply a passphrase of any
// length rather than a raw 32-byte key.
func SaveDump(store Store, path, encryptionKey string) error {
	if encryptionKey == "" {
		return errors.New("configstore: dump encryption key is required")
	}
	data, err := store.Dump(context.Background())
	if err != nil {
		return fmt.Errorf("dump store: %w", err)
	}
	plaintext, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal dump: %w", err)
	}

	ciphertext, err := encrypt(plaintext, encryptionKey)
	if err != nil {
		return fmt.Errorf("encrypt dump: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dump directory: %w", err)
		}
	}

	stamped := timestampedPath(path, time.Now())
	if err := os.WriteFile(stamped, ciphertext, 0o600); err != nil {
		return fmt.Errorf("write dump file: %w", err)
	}
	return nil
}

// LoadLatestDump finds the most recent snapshot under path's directory and
// decrypts it into a restorable collection map.
func LoadLatestDump(path, encryptionKey string) (map[string][]map[string]interface{}, error) {
	latest, err := FindLatestDumpPath(path)
	if err != nil {
		return nil, err
	}
	return LoadDump(latest, encryptionKey)
}

// LoadDump decrypts and deserializes one snapshot file.
func LoadDump(path, encryptionKey string) (map[string][]map[string]interface{}, error) {
	if encryptionKey == "" {
		return nil, errors.New("configstore: dump encryption key is required")
	}
	ciphertext, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dump file: %w", err)
	}
	plaintext, err := decrypt(ciphertext, encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decrypt dump: %w", err)
	}
	var data map[string][]map[string]interface{}
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, fmt.Errorf("unmarshal dump: %w", err)
	}
	return data, nil
}

// FindLatestDumpPath returns the most recently created snapshot file sharing
// basePath's directory and file-name prefix.
func FindLatestDumpPath(basePath string) (string, error) {
	dir := filepath.Dir(basePath)
	prefix := filepath.Base(basePath) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read dump directory: %w", err)
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), prefix) {
			candidates = append(candidates, filepath.Join(dir, e.Name()))
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no dump files found matching %s*", basePath)
	}
	sort.Strings(candidates)
	return candidates[len(candidates)-1], nil
}

func timestampedPath(base string, t time.Time) string {
	return fmt.Sprintf("%s.%s", base, t.UTC().Format("20060102T150405Z"))
}

func deriveKey(passphrase string) []byte {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:]
}

func encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	block, err := aes.NewCipher(deriveKey(passphrase))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	block, err := aes.NewCipher(deriveKey(passphrase))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("configstore: ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
