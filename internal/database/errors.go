// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// errors.go - persistence error type shared by all data access methods.
package database

import (
	"errors"
	"fmt"
	"strings"
)

// PersistenceError reports a failed backend read or write. It carries the
// operation and table so the coordinator's audit trail can distinguish "no
// data" from "write failed" without parsing messages. The layer never retries
// internally; retry policy belongs to the coordinator.
type PersistenceError struct {
	// Op is the failed operation (e.g. "replace_features", "append_run").
	Op string

	// Table is the target table (without schema qualifier).
	Table string

	// Rows is the number of rows involved, when known.
	Rows int

	// Err is the underlying driver error.
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Rows > 0 {
		return fmt.Sprintf("persistence failure: op=%s table=%s rows=%d: %v", e.Op, e.Table, e.Rows, e.Err)
	}
	return fmt.Sprintf("persistence failure: op=%s table=%s: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistenceError reports whether err is (or wraps) a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsMissingTableError reports whether err indicates the target table does not
// exist in the catalog. DuckDB has no portable error code for this, so the
// check is textual.
func IsMissingTableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Catalog Error") && strings.Contains(msg, "does not exist")
}
