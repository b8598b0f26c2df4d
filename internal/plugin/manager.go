package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ayusman/marionette/internal/log"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// ManifestFile is the manifest name looked up in each hook directory.
const ManifestFile = "plugin.json"

// Manager discovers hooks under one directory and answers lookups.
type Manager struct {
	dir string

	mu     sync.RWMutex
	byName map[string]*Plugin
	sorted []*Plugin
}

// NewManager creates a Manager over dir. Nothing is read until Discover.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, byName: make(map[string]*Plugin)}
}

// Discover rescans the directory, replacing what was found before. Each
// subdirectory holding a manifest is a hook; broken ones are logged and
// skipped. A missing directory yields no hooks.
func (m *Manager) Discover() error {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		entries, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("scan hooks: %w", err)
	}

	byName := make(map[string]*Plugin)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p, err := loadHook(filepath.Join(m.dir, entry.Name()))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			log.Warn("skip hook", "dir", entry.Name(), "error", err)
			continue
		}
		if _, dup := byName[p.Manifest.Name]; dup {
			log.Warn("skip hook", "dir", entry.Name(), "error", "duplicate name "+p.Manifest.Name)
			continue
		}
		byName[p.Manifest.Name] = p
	}

	sorted := make([]*Plugin, 0, len(byName))
	for _, p := range byName {
		sorted = append(sorted, p)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Manifest.Name < sorted[j].Manifest.Name })

	m.mu.Lock()
	m.byName, m.sorted = byName, sorted
	m.mu.Unlock()

	log.Debug("hooks discovered", "dir", m.dir, "count", len(sorted))
	return nil
}

// loadHook reads the manifest in dir. It returns an os.ErrNotExist error
// when dir has no manifest at all.
func loadHook(dir string) (*Plugin, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.Name == "" || manifest.Executable == "" {
		return nil, errors.New("name and executable are required")
	}

	exe := filepath.Join(dir, manifest.Executable)
	if rel, err := filepath.Rel(dir, exe); err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("executable %q escapes the hook directory", manifest.Executable)
	}

	return &Plugin{Manifest: manifest, Path: dir, Executable: exe}, nil
}

// Get returns a plugin by name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.byName[name]; ok {
		return p, nil
	}
	return nil, ErrPluginNotFound
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Plugin(nil), m.sorted...)
}

// Subscribers returns the plugins subscribed to gesture g, sorted by name.
func (m *Manager) Subscribers(g string) []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Plugin
	for _, p := range m.sorted {
		if p.Subscribes(g) {
			out = append(out, p)
		}
	}
	return out
}

// PluginDir returns the directory hooks are discovered in.
func (m *Manager) PluginDir() string {
	return m.dir
}
