// Package journal remembers what the automation last wrote to each local
// workbook, so a later file change can be told apart from its own writes.
package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
)

type Journal struct {
	Fingerprints map[string]string `json:"fingerprints"`
	Path         string            `json:"-"`
	mu           sync.RWMutex
	dirty        bool
}

func New() (*Journal, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(home, ".config", "tasksheet", "journal.json"))
}

// Open loads the journal at path, or starts an empty one if it does not exist.
func Open(path string) (*Journal, error) {
	j := &Journal{
		Fingerprints: make(map[string]string),
		Path:         path,
	}
	if _, err := os.Stat(path); err == nil {
		if err := j.Load(); err != nil {
			return nil, err
		}
	}
	return j, nil
}

func (j *Journal) Load() error {
	f, err := os.Open(j.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	j.mu.Lock()
	defer j.mu.Unlock()
	if err := json.NewDecoder(f).Decode(&j.Fingerprints); err != nil {
		return err
	}
	// a file holding null decodes to a nil map
	if j.Fingerprints == nil {
		j.Fingerprints = make(map[string]string)
	}
	return nil
}

func (j *Journal) Save() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(j.Path), 0700); err != nil {
		return err
	}
	f, err := os.Create(j.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(j.Fingerprints); err != nil {
		return err
	}
	j.dirty = false
	return nil
}

// Record stores the current fingerprint of the workbook file as written by the automation.
func (j *Journal) Record(workbook string) error {
	sum, err := Fingerprint(workbook)
	if err != nil {
		return err
	}
	key := key(workbook)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Fingerprints[key] != sum {
		j.Fingerprints[key] = sum
		j.dirty = true
	}
	return nil
}

// SelfWritten reports whether the workbook file is byte for byte what the automation last wrote.
func (j *Journal) SelfWritten(workbook string) (bool, error) {
	sum, err := Fingerprint(workbook)
	if err != nil {
		return false, err
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Fingerprints[key(workbook)] == sum, nil
}

func (j *Journal) Forget(workbook string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, exists := j.Fingerprints[key(workbook)]; exists {
		delete(j.Fingerprints, key(workbook))
		j.dirty = true
	}
}

// Fingerprint returns the hex SHA-256 of the file contents.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
