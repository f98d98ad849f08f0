package credstore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize = 16
	keySize  = chacha20poly1305.KeySize
)

// FileStore persists credentials as a JSON object in a single file. With a
// passphrase the file is sealed with XChaCha20-Poly1305 under a key derived
// by scrypt; the layout is salt | nonce | ciphertext. Without a passphrase
// the JSON is written as-is with 0600 permissions.
type FileStore struct {
	path       string
	passphrase []byte
	mu         sync.Mutex
}

func NewFileStore(path, passphrase string) *FileStore {
	return &FileStore{path: path, passphrase: []byte(passphrase)}
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok && v != "", nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value
	return f.save(values)
}

// Clear removes the backing file. A missing file is not an error.
func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}

func (f *FileStore) load() (map[string]string, error) {
	blob, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	plain := blob
	if len(f.passphrase) > 0 {
		if plain, err = f.open(blob); err != nil {
			return nil, err
		}
	}
	values := map[string]string{}
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return values, nil
}

func (f *FileStore) save(values map[string]string) error {
	plain, err := json.Marshal(values)
	if err != nil {
		return err
	}
	out := plain
	if len(f.passphrase) > 0 {
		if out, err = f.seal(plain); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("mkdir credentials dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileStore) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	aead, err := f.aead(salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(salt)+len(nonce)+len(plain)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plain, salt), nil
}

func (f *FileStore) open(blob []byte) ([]byte, error) {
	if len(blob) < saltSize+chacha20poly1305.NonceSizeX {
		return nil, ErrCorrupt
	}
	salt := blob[:saltSize]
	nonce := blob[saltSize : saltSize+chacha20poly1305.NonceSizeX]
	aead, err := f.aead(salt)
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, nonce, blob[saltSize+chacha20poly1305.NonceSizeX:], salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return plain, nil
}

func (f *FileStore) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(f.passphrase, salt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return chacha20poly1305.NewX(key)
}
