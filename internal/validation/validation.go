// Package validation checks user-supplied paths and input sizes
// before the conversion pipeline touches them.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Limits guarding against resource exhaustion (CWE-400).
const (
	// MaxInputSize is the largest input document accepted (256 MB).
	MaxInputSize = 256 << 20

	// MaxPathLength is the longest accepted path.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrEmptyPath   = errors.New("path cannot be empty")
	ErrPathTooLong = errors.New("path too long")
	ErrNullByte    = errors.New("null byte in path")
	ErrInputTooBig = errors.New("input exceeds size limit")
	ErrNotRegular  = errors.New("not a regular file path")
)

// ValidatePath checks a user-supplied path for the obvious hazards:
// emptiness, excessive length, and embedded null bytes. The path may
// be absolute or relative; the CLI reads and writes wherever the user
// points it.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return fmt.Errorf("%w: %d bytes", ErrPathTooLong, len(path))
	}
	if strings.ContainsRune(path, 0) {
		return ErrNullByte
	}
	if strings.HasSuffix(path, string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	return nil
}

// ValidateInputSize rejects inputs past the size limit before they
// reach a parser.
func ValidateInputSize(n int) error {
	if n > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrInputTooBig, n, MaxInputSize)
	}
	return nil
}
