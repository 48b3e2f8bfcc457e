// Package errors defines the sentinel errors shared across the scan engine.
package errors

import "errors"

// Input errors. These fail a scan call immediately with no partial result.
var (
	ErrEmptyTarget      = errors.New("target cannot be empty")
	ErrInvalidTarget    = errors.New("invalid scan target")
	ErrInvalidCIDR      = errors.New("invalid CIDR notation")
	ErrInvalidPortSpec  = errors.New("invalid port specification")
	ErrUnknownCheck     = errors.New("unknown check name")
	ErrUnknownFramework = errors.New("unknown compliance framework")
)

// Lifecycle errors.
var (
	ErrScanInProgress = errors.New("scan already in progress")
	ErrScanAborted    = errors.New("scan aborted")
)

// Output errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported output format")
)
