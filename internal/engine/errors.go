package engine

import (
	"fmt"
	"io/fs"
)

// InvalidFormatError is returned when a format registration is rejected.
// The registry is left untouched.
type InvalidFormatError struct {
	Name   string
	Reason string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid archive format %q: %s", e.Name, e.Reason)
}

// UnknownExtensionError is returned when no registered format recognizes the archive path.
type UnknownExtensionError struct {
	ArchivePath string
	Available   []string // registered extensions
}

func (e *UnknownExtensionError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown archive suffix %q: no formats registered", e.ArchivePath)
	}
	return fmt.Sprintf("unknown archive suffix %q (available: %v)", e.ArchivePath, e.Available)
}

// MissingSourceError is returned when the archive target does not exist.
type MissingSourceError struct {
	Path string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("no such file or directory %q", e.Path)
}

func (e *MissingSourceError) Unwrap() error {
	return fs.ErrNotExist
}

// UnknownFormatError is returned when unregistering a format that is not registered.
type UnknownFormatError struct {
	Name      string
	Available []string // registered format names
}

func (e *UnknownFormatError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown archive format %q: no formats registered", e.Name)
	}
	return fmt.Sprintf("unknown archive format %q (available: %v)", e.Name, e.Available)
}
