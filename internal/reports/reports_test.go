// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

package reports

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	payload := map[string]any{"rmse": 1.25, "n_components": 5}
	path, err := writer.Write("model_performance", payload)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "model_performance_") || !strings.HasSuffix(base, ".json") {
		t.Errorf("report filename = %q, want model_performance_<timestamp>.json", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded["rmse"] != 1.25 {
		t.Errorf("rmse = %v, want 1.25", decoded["rmse"])
	}
}

func TestNewWriterCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")

	writer, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if writer.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", writer.Dir(), dir)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !info.IsDir() {
		t.Error("report path is not a directory")
	}
}

func TestWriteUnmarshalablePayload(t *testing.T) {
	writer, err := NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	if _, err := writer.Write("bad", func() {}); err == nil {
		t.Error("Write() expected error for unencodable payload, got nil")
	}
}
