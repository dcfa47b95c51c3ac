package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/grovetools/launchpad/internal/config"
	"github.com/grovetools/launchpad/internal/registry"
)

type schemaTarget struct {
	file        string
	tag         string
	value       interface{}
	title       string
	description string
}

func main() {
	targets := []schemaTarget{
		{
			file:        "registry.schema.json",
			tag:         "yaml",
			value:       &registry.File{},
			title:       "Launchpad Application Registry",
			description: "Schema for the apps.yml registry of launchable programs.",
		},
		{
			file:        "config.schema.json",
			tag:         "toml",
			value:       &config.ConfigFile{},
			title:       "Launchpad Settings",
			description: "Schema for the lpad config.toml settings file.",
		},
	}

	for _, target := range targets {
		r := &jsonschema.Reflector{
			AllowAdditionalProperties: true,
			ExpandedStruct:            true,
			FieldNameTag:              target.tag,
		}

		schema := r.Reflect(target.value)
		schema.Title = target.title
		schema.Description = target.description

		// Every key is optional; missing ones fall back to defaults
		schema.Required = nil

		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			log.Fatalf("Error marshaling schema: %v", err)
		}

		if err := os.WriteFile(target.file, data, 0644); err != nil {
			log.Fatalf("Error writing schema file: %v", err)
		}

		log.Printf("Successfully generated schema at %s", target.file)
	}
}
