package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const tempSuffix = ".tmp"

// Manager handles file storage operations in one output directory
type Manager struct {
	outputDir string
	saved     map[string]int64
	mu        sync.RWMutex
}

// NewManager creates a storage manager, creating outputDir if needed
func NewManager(outputDir string) (*Manager, error) {
	m := &Manager{
		outputDir: outputDir,
		saved:     make(map[string]int64),
	}
	if err := m.ensureDir(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) ensureDir() error {
	if err := os.MkdirAll(m.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// Dir returns the output directory path
func (m *Manager) Dir() string {
	return m.outputDir
}

// Path returns the full path of name inside the output directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// Exists reports whether a regular file called name is present
func (m *Manager) Exists(name string) bool {
	info, err := os.Stat(m.Path(name))
	return err == nil && !info.IsDir()
}

// Remove deletes name. A file that is already gone is not an error.
func (m *Manager) Remove(name string) error {
	if err := os.Remove(m.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}

	m.mu.Lock()
	delete(m.saved, name)
	m.mu.Unlock()
	return nil
}

// Save writes r to name atomically and returns the number of bytes written.
// An existing file with the same name is replaced.
func (m *Manager) Save(r io.Reader, name string) (int64, error) {
	if err := m.ensureDir(); err != nil {
		return 0, err
	}

	filename := m.Path(name)
	tempFile := filename + tempSuffix
	out, err := os.Create(tempFile)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	n, err := io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return n, fmt.Errorf("failed to save image data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return n, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return n, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[name] = n
	m.mu.Unlock()

	return n, nil
}

// SavedCount returns the number of files saved by this manager
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}

// SavedBytes returns the total size of files saved by this manager
func (m *Manager) SavedBytes() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total int64
	for _, n := range m.saved {
		total += n
	}
	return total
}
