package version

import (
	"strings"
	"testing"
)

func TestGetInfoLinkTimeValues(t *testing.T) {
	oldVersion, oldCommit, oldDate := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = oldVersion, oldCommit, oldDate })

	Version, Commit, BuildDate = "v1.2.3", "abc1234", "2026-01-02"
	info := GetInfo()

	if info.Version != "v1.2.3" || info.Commit != "abc1234" || info.BuildDate != "2026-01-02" {
		t.Errorf("Link-time values not used: %+v", info)
	}
	s := info.String()
	for _, want := range []string{"lpad v1.2.3", "(abc1234)", "built 2026-01-02"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
