package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const secretBytes = 32

// SecretManager resolves the process wide signing secret exactly once.
// Resolution order: configured value, persisted file, freshly generated and persisted.
type SecretManager struct {
	configured string
	path       string

	once   sync.Once
	secret []byte
	err    error
}

// NewSecretManager creates a manager for the configured value and secret file path.
func NewSecretManager(configured, path string) *SecretManager {
	return &SecretManager{configured: configured, path: path}
}

// SigningSecret returns the resolved secret. Every call returns the result of the first one.
func (m *SecretManager) SigningSecret() ([]byte, error) {
	m.once.Do(func() {
		m.secret, m.err = m.resolve()
	})
	if m.err != nil {
		return nil, m.err
	}
	return m.secret, nil
}

func (m *SecretManager) resolve() ([]byte, error) {
	if v := strings.TrimSpace(m.configured); v != "" {
		return []byte(v), nil
	}
	if m.path == "" {
		return nil, errors.New("signing secret: no configured value and no secret file path")
	}

	if v, err := readSecretFile(m.path); err != nil {
		return nil, err
	} else if v != "" {
		return []byte(v), nil
	}

	generated, err := generateSecret()
	if err != nil {
		return nil, err
	}
	return m.persist(generated)
}

// persist publishes secret at the configured path. The file only ever appears
// with its full content, and when another process published first its
// content wins. An existing empty file is replaced and then read back, so
// every caller adopts what ended up on disk.
func (m *SecretManager) persist(secret string) ([]byte, error) {
	tmp, err := writeTempSecret(filepath.Dir(m.path), secret)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	err = os.Link(tmp, m.path)
	if err == nil {
		return []byte(secret), nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("publish secret file %s: %w", m.path, err)
	}

	v, err := readSecretFile(m.path)
	if err != nil {
		return nil, err
	}
	if v != "" {
		return []byte(v), nil
	}

	// present but empty: replace it, then adopt whatever is there
	if err := os.Rename(tmp, m.path); err != nil {
		return nil, fmt.Errorf("replace secret file %s: %w", m.path, err)
	}
	v, err = readSecretFile(m.path)
	if err != nil {
		return nil, err
	}
	if v == "" {
		return nil, fmt.Errorf("secret file %s is empty after write", m.path)
	}
	return []byte(v), nil
}

func writeTempSecret(dir, secret string) (string, error) {
	f, err := os.CreateTemp(dir, ".secret-*")
	if err != nil {
		return "", fmt.Errorf("write secret file: %w", err)
	}
	name := f.Name()
	if err := f.Chmod(0o600); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("write secret file: %w", err)
	}
	if _, err := f.WriteString(secret); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("write secret file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", fmt.Errorf("sync secret file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("write secret file: %w", err)
	}
	return name, nil
}

func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read secret file %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func generateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
