package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/giantswarm/registrar/pkg/logging"

	"gopkg.in/yaml.v3"
)

const snapshotDir = "snapshots"

// SnapshotEntry is one registered value as written to a snapshot file.
type SnapshotEntry struct {
	Type      string `yaml:"type"`
	Params    string `yaml:"params,omitempty"`
	Qualifier string `yaml:"qualifier,omitempty"`
	Value     string `yaml:"value"`
}

// Snapshot is the content of a registry as saved by the shell.
type Snapshot struct {
	SavedAt time.Time       `yaml:"savedAt"`
	Entries []SnapshotEntry `yaml:"entries"`
}

// Storage persists registry snapshots as YAML files in the snapshots/
// subdirectory of the configuration directory.
type Storage struct {
	mu         sync.RWMutex
	configPath string
}

// NewStorage creates a Storage rooted at configPath.
func NewStorage(configPath string) *Storage {
	return &Storage{configPath: configPath}
}

// Save stores snapshot under name, replacing an existing one.
func (ds *Storage) Save(name string, snapshot Snapshot) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	data, err := yaml.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %s: %w", name, err)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	targetDir := filepath.Join(ds.configPath, snapshotDir)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", targetDir, err)
	}

	filePath := ds.path(name)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}

	logging.Info("Storage", "Saved snapshot %s with %d entries to %s", name, len(snapshot.Entries), filePath)
	return nil
}

// Load reads the snapshot called name.
func (ds *Storage) Load(name string) (Snapshot, error) {
	if name == "" {
		return Snapshot{}, fmt.Errorf("name cannot be empty")
	}

	ds.mu.RLock()
	defer ds.mu.RUnlock()

	filePath := ds.path(name)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, fmt.Errorf("snapshot %s not found", name)
		}
		return Snapshot{}, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, NewConfigurationError(filePath, ErrorTypeParse, "malformed snapshot", err)
	}

	logging.Debug("Storage", "Loaded snapshot %s from %s", name, filePath)
	return snapshot, nil
}

// Delete removes the snapshot called name.
func (ds *Storage) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	filePath := ds.path(name)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("snapshot %s not found", name)
	}
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", filePath, err)
	}

	logging.Info("Storage", "Deleted snapshot %s", name)
	return nil
}

// List returns the names of all saved snapshots, sorted.
func (ds *Storage) List() ([]string, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	files, err := filepath.Glob(filepath.Join(ds.configPath, snapshotDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob snapshot files: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		base := filepath.Base(f)
		names = append(names, strings.TrimSuffix(base, filepath.Ext(base)))
	}
	sort.Strings(names)
	return names, nil
}

func (ds *Storage) path(name string) string {
	return filepath.Join(ds.configPath, snapshotDir, sanitizeFilename(name)+".yaml")
}

var unsafeFilenameChars = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", ".", "_", " ", "_",
)

// sanitizeFilename ensures the filename is safe for filesystem operations
func sanitizeFilename(name string) string {
	sanitized := unsafeFilenameChars.Replace(strings.TrimSpace(name))

	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")

	if sanitized == "" {
		sanitized = "unnamed"
	}
	return sanitized
}
