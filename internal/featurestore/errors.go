// RecoMart - Recommendation Feature Pipeline
// Copyright 2026 RecoMart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/2024ac05667-alt/recomart

// errors.go - Feature store lookup error types.
package featurestore

import (
	"errors"
	"fmt"
)

// UnknownFeatureError reports a lookup against a feature name that has no
// registry entry.
type UnknownFeatureError struct {
	// Feature is the requested feature name.
	Feature string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("feature %q is not registered", e.Feature)
}

// IsUnknownFeature reports whether err is (or wraps) an UnknownFeatureError.
func IsUnknownFeature(err error) bool {
	var ufe *UnknownFeatureError
	return errors.As(err, &ufe)
}

// DataUnavailableError reports that a registered feature resolved to a
// backing store that does not exist: the registry and the data store have
// diverged.
type DataUnavailableError struct {
	// Feature is the requested feature name.
	Feature string

	// Table is the backing table the registry resolved to.
	Table string

	// Err is the underlying lookup error.
	Err error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("feature %q: backing store %s unavailable: %v", e.Feature, e.Table, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// IsDataUnavailable reports whether err is (or wraps) a DataUnavailableError.
func IsDataUnavailable(err error) bool {
	var due *DataUnavailableError
	return errors.As(err, &due)
}
