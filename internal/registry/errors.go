package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no application has the given name.
	ErrNotFound = errors.New("application not found")
	// ErrExists is returned when renaming onto a name that is taken.
	ErrExists = errors.New("application already exists")
	// ErrEmptyName is returned when an application has no name.
	ErrEmptyName = errors.New("application name is empty")
)

// ConfigCorruptError means the registry file exists but could not be parsed.
type ConfigCorruptError struct {
	Path string
	Err  error
}

func (e *ConfigCorruptError) Error() string {
	return fmt.Sprintf("registry file %s is corrupt: %v", e.Path, e.Err)
}

func (e *ConfigCorruptError) Unwrap() error { return e.Err }

// PersistenceError means the registry could not be written. The in-memory
// registry still holds the change.
type PersistenceError struct {
	Path string
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s registry file %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// MissingPathError means a descriptor points at an executable that does not
// exist (or has no path at all).
type MissingPathError struct {
	Name string
	Path string
}

func (e *MissingPathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("no executable configured for %q", e.Name)
	}
	return fmt.Sprintf("executable for %q not found at %s", e.Name, e.Path)
}

// IsMissingPath reports whether err is, or wraps, a *MissingPathError.
func IsMissingPath(err error) bool {
	var me *MissingPathError
	return errors.As(err, &me)
}

// IsCorrupt reports whether err is, or wraps, a *ConfigCorruptError.
func IsCorrupt(err error) bool {
	var ce *ConfigCorruptError
	return errors.As(err, &ce)
}
