package registry

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Registry maps application names to launch descriptors and persists every
// change to a YAML file. It is owned by a single goroutine.
type Registry struct {
	path string
	apps map[string]AppEntry
	log  *logrus.Entry

	// Set when the backing file failed to parse; the next save moves it
	// aside instead of overwriting it.
	corrupt bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger for load and save records.
func WithLogger(entry *logrus.Entry) Option {
	return func(r *Registry) {
		if entry != nil {
			r.log = entry
		}
	}
}

// New returns an empty registry bound to path. Nothing is read or written.
func New(path string, opts ...Option) *Registry {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	r := &Registry{
		path: ExpandPath(path),
		apps: make(map[string]AppEntry),
		log:  logrus.NewEntry(quiet),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads the registry stored at path. A missing file yields an empty
// registry. A file that cannot be parsed yields an empty registry together
// with a *ConfigCorruptError, so callers can report it and keep going.
func Load(path string, opts ...Option) (*Registry, error) {
	r := New(path, opts...)

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.log.WithField("path", r.path).Debug("No registry file yet, starting empty")
			return r, nil
		}
		return r, &PersistenceError{Path: r.path, Op: "read", Err: err}
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		r.corrupt = true
		r.log.WithError(err).WithField("path", r.path).Warn("Registry file is corrupt")
		return r, &ConfigCorruptError{Path: r.path, Err: err}
	}

	for name, entry := range file.Apps {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		r.apps[name] = entry
	}

	r.log.WithFields(logrus.Fields{"path": r.path, "apps": len(r.apps)}).Debug("Registry loaded")
	return r, nil
}

// Path returns the file the registry is persisted to.
func (r *Registry) Path() string {
	return r.path
}

// Len returns the number of registered applications.
func (r *Registry) Len() int {
	return len(r.apps)
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	entry, ok := r.apps[name]
	if !ok {
		return Descriptor{}, false
	}
	return entry.descriptor(name), true
}

// List returns all descriptors sorted by name.
func (r *Registry) List() []Descriptor {
	names := make([]string, 0, len(r.apps))
	for name := range r.apps {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.apps[name].descriptor(name))
	}
	return out
}

// Upsert inserts or replaces the descriptor for name and saves. If the save
// fails the change is kept in memory and a *PersistenceError is returned.
func (r *Registry) Upsert(name string, d Descriptor) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	r.apps[name] = entryFor(d)
	return r.Save()
}

// Remove deletes name and saves. Unknown names return ErrNotFound.
func (r *Registry) Remove(name string) error {
	if _, ok := r.apps[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	delete(r.apps, name)
	return r.Save()
}

// Rename moves the descriptor under oldName to newName and saves.
func (r *Registry) Rename(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrEmptyName
	}
	entry, ok := r.apps[oldName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, oldName)
	}
	if newName == oldName {
		return nil
	}
	if _, taken := r.apps[newName]; taken {
		return fmt.Errorf("%w: %s", ErrExists, newName)
	}
	delete(r.apps, oldName)
	r.apps[newName] = entry
	return r.Save()
}

// SetPath replaces the executable path of name and saves.
func (r *Registry) SetPath(name, path string) error {
	entry, ok := r.apps[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	entry.Path = path
	r.apps[name] = entry
	return r.Save()
}

// ResolvePath returns the executable of d with ~ expanded if it exists on
// disk. Otherwise it returns a *MissingPathError. It never mutates anything.
func (r *Registry) ResolvePath(d Descriptor) (string, error) {
	return ResolvePath(d)
}

// ResolvePath is the registry-independent form of (*Registry).ResolvePath.
func ResolvePath(d Descriptor) (string, error) {
	if strings.TrimSpace(d.Path) == "" {
		return "", &MissingPathError{Name: d.Name}
	}
	path := ExpandPath(d.Path)
	if _, err := os.Stat(path); err != nil {
		return "", &MissingPathError{Name: d.Name, Path: d.Path}
	}
	return path, nil
}

// Save writes the whole registry to its file, creating the directory if
// needed. The file is replaced atomically.
func (r *Registry) Save() error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PersistenceError{Path: r.path, Op: "create directory for", Err: err}
	}

	if r.corrupt {
		backup := r.path + ".corrupt"
		if err := os.Rename(r.path, backup); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &PersistenceError{Path: r.path, Op: "back up", Err: err}
		}
		r.log.WithField("backup", backup).Warn("Moved corrupt registry file aside")
		r.corrupt = false
	}

	data, err := yaml.Marshal(File{Apps: r.apps})
	if err != nil {
		return &PersistenceError{Path: r.path, Op: "encode", Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".registry-*.yml")
	if err != nil {
		return &PersistenceError{Path: r.path, Op: "write", Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &PersistenceError{Path: r.path, Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &PersistenceError{Path: r.path, Op: "write", Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return &PersistenceError{Path: r.path, Op: "write", Err: err}
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return &PersistenceError{Path: r.path, Op: "replace", Err: err}
	}

	r.log.WithFields(logrus.Fields{"path": r.path, "apps": len(r.apps)}).Debug("Registry saved")
	return nil
}

// ExpandPath expands a leading ~ to the home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// DefaultName derives an application name from its executable: the base
// name without extension.
func DefaultName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
