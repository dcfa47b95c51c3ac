package registry

//go:generate sh -c "cd ../.. && go run ./tools/schema-generator/"

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects how an application is started.
type Mode int

const (
	// ModeGUI starts the program detached, without capturing output.
	ModeGUI Mode = iota
	// ModeCLI starts the program with stdout and stderr captured.
	ModeCLI
)

func (m Mode) String() string {
	if m == ModeCLI {
		return "cli"
	}
	return "gui"
}

// ParseMode accepts "gui" or "cli" in any case.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gui", "":
		return ModeGUI, nil
	case "cli":
		return ModeCLI, nil
	default:
		return ModeGUI, fmt.Errorf("unknown mode %q (want gui or cli)", s)
	}
}

// Descriptor is everything needed to launch one registered application.
type Descriptor struct {
	Name              string
	Path              string
	Mode              Mode
	TakesFileArgument bool
}

// File is the on-disk layout of the registry, stored as YAML.
type File struct {
	Apps map[string]AppEntry `yaml:"apps" json:"apps" jsonschema:"description=Registered applications keyed by display name"`
}

// MarshalYAML writes application names as double-quoted keys so names such
// as "<<", "true" or "null" are read back as plain strings.
func (f File) MarshalYAML() (interface{}, error) {
	names := make([]string, 0, len(f.Apps))
	for name := range f.Apps {
		names = append(names, name)
	}
	sort.Strings(names)

	apps := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range names {
		var value yaml.Node
		if err := value.Encode(f.Apps[name]); err != nil {
			return nil, err
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name, Style: yaml.DoubleQuotedStyle}
		apps.Content = append(apps.Content, key, &value)
	}

	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: "apps"},
			apps,
		},
	}, nil
}

// AppEntry is a single application in the registry file. Missing keys fall
// back to a GUI program without a file argument.
type AppEntry struct {
	Path      string `yaml:"path,omitempty" json:"path,omitempty" jsonschema:"description=Absolute path of the executable; ~ is expanded"`
	CLI       bool   `yaml:"cli,omitempty" json:"cli,omitempty" jsonschema:"description=Capture stdout and stderr instead of detaching"`
	FileInput bool   `yaml:"file_input,omitempty" json:"file_input,omitempty" jsonschema:"description=Ask for exactly one file and pass it as the only argument"`
}

func (e AppEntry) descriptor(name string) Descriptor {
	d := Descriptor{
		Name:              name,
		Path:              e.Path,
		TakesFileArgument: e.FileInput,
	}
	if e.CLI {
		d.Mode = ModeCLI
	}
	return d
}

func entryFor(d Descriptor) AppEntry {
	return AppEntry{
		Path:      d.Path,
		CLI:       d.Mode == ModeCLI,
		FileInput: d.TakesFileArgument,
	}
}
