// Package lockfile implements l10nkit.lock, a lock file that tracks an MD5
// checksum of the input each downstream file was last rebased from. This
// enables incremental rebasing: files whose upstream content and ruleset are
// unchanged are not rewritten.
//
// The lock file is stored alongside .l10nkit.yaml as l10nkit.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "l10nkit.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the l10nkit.lock file structure.
type LockFile struct {
	Version   int               `yaml:"version"`
	Checksums map[string]string `yaml:"checksums"` // downstream key -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
	dir  string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]string),
		path:      path,
		dir:       dir,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lf.Version != Version {
		return nil, fmt.Errorf("%s: unsupported lock file version %d (want %d)", path, lf.Version, Version)
	}
	lf.path = path
	lf.dir = dir

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// Key builds the lock key for a downstream file: its slash-separated path
// relative to the lock file directory, or the absolute path when it lies
// outside that directory.
func (lf *LockFile) Key(path string) string {
	if lf.dir != "" {
		if rel, err := filepath.Rel(lf.dir, path); err == nil && !outside(rel) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

func outside(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsChanged reports whether content differs from what path was last built from.
func (lf *LockFile) IsChanged(path, content string) bool {
	key := lf.Key(path)

	lf.mu.Lock()
	defer lf.mu.Unlock()

	old, ok := lf.Checksums[key]
	return !ok || old != Hash(content)
}

// Update records the content path was built from.
func (lf *LockFile) Update(path, content string) {
	key := lf.Key(path)

	lf.mu.Lock()
	defer lf.mu.Unlock()
	lf.Checksums[key] = Hash(content)
}

// Remove forgets path.
func (lf *LockFile) Remove(path string) {
	key := lf.Key(path)

	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, key)
}

// Clean removes entries for files that are no longer in the current set of
// downstream paths. This prevents stale entries from accumulating.
func (lf *LockFile) Clean(currentPaths []string) int {
	valid := make(map[string]bool, len(currentPaths))
	for _, p := range currentPaths {
		valid[lf.Key(p)] = true
	}

	lf.mu.Lock()
	defer lf.mu.Unlock()

	removed := 0
	for k := range lf.Checksums {
		if !valid[k] {
			delete(lf.Checksums, k)
			removed++
		}
	}
	return removed
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Len returns the number of tracked files.
func (lf *LockFile) Len() int {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return len(lf.Checksums)
}

// Keys returns the sorted list of tracked keys.
func (lf *LockFile) Keys() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	keys := make([]string, 0, len(lf.Checksums))
	for k := range lf.Checksums {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	n := lf.Len()
	if n == 0 {
		return "empty"
	}
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}
