package dataset

import "errors"

// Sentinel errors for the one-time dataset load phase. All of these are
// fatal: a dataset that fails to load never reaches playback. Callers
// match with errors.Is; wrapped variants carry the offending path or
// line number.
var (
	// ErrDataNotFound indicates a required file or directory is missing.
	ErrDataNotFound = errors.New("dataset: data not found")

	// ErrParse indicates a timestamp line could not be parsed as an int64.
	ErrParse = errors.New("dataset: parse error")

	// ErrCardinalityMismatch indicates the timestamp count does not equal
	// the frame file count.
	ErrCardinalityMismatch = errors.New("dataset: timestamp/file cardinality mismatch")
)
