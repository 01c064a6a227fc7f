// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// Package reports writes JSON report artifacts for audit: one snapshot per
// training run and per data quality check, named with a UTC timestamp so
// artifacts from successive runs never collide.
package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
)

// timestampLayout matches the artifact naming of the ingestion collaborator's
// data lake files.
const timestampLayout = "20060102T150405"

// Writer writes JSON report documents into a reports directory.
type Writer struct {
	dir string
}

// NewWriter creates a report writer, ensuring the directory exists.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create reports directory %s: %w", dir, err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the reports directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Write marshals payload and writes it to <dir>/<name>_<timestamp>.json,
// returning the written path.
func (w *Writer) Write(name string, payload any) (string, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report %s: %w", name, err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.json", name, time.Now().UTC().Format(timestampLayout)))
	if err := os.WriteFile(path, data, 0o640); err != nil { //nolint:gosec // reports are not secret material
		return "", fmt.Errorf("write report %s: %w", path, err)
	}

	return path, nil
}
