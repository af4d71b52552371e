package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

var errCorruptFile = errors.New("failed to parse session file")

const (
	configDirName   = "leadcrm"
	sessionFileName = "session.json"
)

// DefaultFilePath returns ~/.config/leadcrm/session.json (or the platform
// equivalent of the user config dir).
func DefaultFilePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, configDirName, sessionFileName), nil
}

// FileKV stores values as a JSON object in a single file. Every write
// replaces the file atomically so readers in other processes never see a
// half-written session.
type FileKV struct {
	path string
	mu   sync.Mutex
}

// NewFileKV creates a FileKV backed by path. The file is created on the first
// write.
func NewFileKV(path string) *FileKV {
	return &FileKV{path: filepath.Clean(path)}
}

// Path returns the backing file path.
func (f *FileKV) Path() string {
	return f.path
}

func (f *FileKV) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}

	value, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (f *FileKV) Set(values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.loadForWrite()
	if err != nil {
		return err
	}

	for k, v := range values {
		current[k] = v
	}
	return f.store(current)
}

func (f *FileKV) Delete(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Nothing to remove if the file was never written
	if _, err := os.Stat(f.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	current, err := f.loadForWrite()
	if err != nil {
		return err
	}

	for _, k := range keys {
		delete(current, k)
	}
	return f.store(current)
}

func (f *FileKV) load() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return values, nil
	}

	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorruptFile, err)
	}
	return values, nil
}

// loadForWrite is load, except that an unparseable file counts as empty so
// the next write replaces it.
func (f *FileKV) loadForWrite() (map[string]string, error) {
	values, err := f.load()
	if errors.Is(err, errCorruptFile) {
		return make(map[string]string), nil
	}
	return values, err
}

func (f *FileKV) store(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := atomic.WriteFile(f.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	// The token is a credential
	if err := os.Chmod(f.path, 0o600); err != nil {
		return fmt.Errorf("failed to set session file permissions: %w", err)
	}
	return nil
}
