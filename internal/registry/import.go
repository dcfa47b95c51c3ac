package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ImportJSON merges a JSON app list ({"Name": {"path": ..., "cli": ...,
// "file_input": ...}}) into the registry and saves once. Existing names are
// replaced. It returns the number of imported entries.
func (r *Registry) ImportJSON(path string) (int, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var apps map[string]AppEntry
	if err := json.Unmarshal(data, &apps); err != nil {
		return 0, &ConfigCorruptError{Path: path, Err: err}
	}

	n := 0
	for name, entry := range apps {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		r.apps[name] = entry
		n++
	}
	if n == 0 {
		return 0, nil
	}

	r.log.WithField("source", path).WithField("apps", n).Info("Imported applications")
	return n, r.Save()
}
