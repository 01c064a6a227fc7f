// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// registry.go - durable feature registry.
//
// The registry is a JSON file mapping feature set names to RegistryEntry
// records. It is the only durable description of what features exist, so
// downstream consumers can discover available features without querying the
// data store. Saves are atomic (temp file + rename) and entries are validated
// on load because the file is external input.
package featurestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"github.com/2024ac05667-alt/recomart/internal/models"
)

// Registry manages feature set metadata backed by a JSON file.
type Registry struct {
	path     string
	mu       sync.RWMutex
	entries  map[string]models.RegistryEntry
	validate *validator.Validate
}

// NewRegistry opens the registry at path, loading existing entries if the
// file exists. A missing file is an empty registry, not an error.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{
		path:     path,
		entries:  make(map[string]models.RegistryEntry),
		validate: validator.New(),
	}

	if err := r.load(); err != nil {
		return nil, fmt.Errorf("load registry %s: %w", path, err)
	}

	return r, nil
}

// load reads and validates the registry file.
func (r *Registry) load() error {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	entries := make(map[string]models.RegistryEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse registry: %w", err)
	}

	for name, entry := range entries {
		if err := r.validate.Struct(entry); err != nil {
			return fmt.Errorf("invalid registry entry %q: %w", name, err)
		}
	}

	r.entries = entries
	return nil
}

// Get returns the entry registered under name.
func (r *Registry) Get(name string) (models.RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry, ok
}

// Names returns all registered feature set names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Put validates entry, registers it under its name (overwriting any prior
// entry), and persists the registry file atomically.
func (r *Registry) Put(entry models.RegistryEntry) error {
	if err := r.validate.Struct(entry); err != nil {
		return fmt.Errorf("invalid registry entry %q: %w", entry.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prior, hadPrior := r.entries[entry.Name]
	r.entries[entry.Name] = entry

	if err := r.save(); err != nil {
		// Restore in-memory state so a retried Put starts clean.
		if hadPrior {
			r.entries[entry.Name] = prior
		} else {
			delete(r.entries, entry.Name)
		}
		return fmt.Errorf("save registry %s: %w", r.path, err)
	}

	return nil
}

// save writes the registry file atomically (must be called with mu held).
func (r *Registry) save() error {
	dir := filepath.Dir(r.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create registry directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(r.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil { //nolint:gosec // registry is not secret material
		return fmt.Errorf("write registry temp file: %w", err)
	}

	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace registry file: %w", err)
	}

	return nil
}
