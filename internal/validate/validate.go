// Package validate gatekeeps uploaded TT2 files before any bytes are fetched or parsed.
package validate

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// MaxFileSize is the exclusive upper bound for a TT2 file (100 MiB).
const MaxFileSize int64 = 100 << 20

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
)

var allowedExt = map[string]bool{
	".tt2":  true,
	".tt2x": true,
}

// IsValidFileType reports whether fn ends in .tt2 or .tt2x (case insensitive).
func IsValidFileType(fn string) bool {
	return allowedExt[strings.ToLower(filepath.Ext(fn))]
}

// IsValidFileSize reports whether n is strictly below MaxFileSize.
// Zero-byte files pass here and fail at parse time.
func IsValidFileSize(n int64) bool {
	return n >= 0 && n < MaxFileSize
}

// File checks both rules and returns an error naming the file and the rule it broke.
func File(fn string, size int64) error {
	if !IsValidFileType(fn) {
		return fmt.Errorf("%w: %q must have a .tt2 or .tt2x extension", ErrInvalidFileType, fn)
	}
	if !IsValidFileSize(size) {
		return fmt.Errorf("%w: %q is %d bytes, limit is %d", ErrFileTooLarge, fn, size, MaxFileSize)
	}
	return nil
}
