package history

import (
	"sort"
	"time"

	"github.com/grovetools/launchpad/internal/registry"
)

// SortByRecent orders apps by last launch time, most recent first. Apps
// that were never launched keep their relative order after the launched ones.
func SortByRecent(apps []registry.Descriptor, last map[string]time.Time) []registry.Descriptor {
	// Create a copy to avoid modifying the original
	sorted := make([]registry.Descriptor, len(apps))
	copy(sorted, apps)

	sort.SliceStable(sorted, func(i, j int) bool {
		ti, okI := last[sorted[i].Name]
		tj, okJ := last[sorted[j].Name]

		// If only one has been launched, it comes first
		if okI != okJ {
			return okI
		}
		if !okI {
			return false
		}
		return ti.After(tj)
	})

	return sorted
}
