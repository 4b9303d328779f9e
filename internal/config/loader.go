package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// experimentSchema validates the shape of an experiment file before it
// is decoded over the defaults, so typos in field names fail loudly
// instead of silently keeping a default.
var experimentSchema = jsonschema.MustCompileString("experiment.json", `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"warmupCount": {"type": "integer", "minimum": 0},
		"benchmarkCount": {"type": "integer", "minimum": 1},
		"concurrencyLimit": {"type": "integer", "minimum": 1},
		"timeout": {"type": "string"},
		"maxRps": {"type": "number", "minimum": 0},
		"scenarios": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"additionalProperties": false,
				"required": ["name", "path"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"path": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`)

// Load reads a YAML experiment file, validates it against the embedded
// schema, and applies it over DefaultConfig. Fields absent from the file
// keep their defaults; a scenarios list replaces the default list
// entirely.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc != nil {
		// The schema validator wants json.Unmarshal value types, so the
		// YAML document takes a round trip through encoding/json first.
		raw, err := json.Marshal(doc)
		if err != nil {
			return Config{}, fmt.Errorf("converting %s: %w", path, err)
		}
		var jsonDoc interface{}
		if err := json.Unmarshal(raw, &jsonDoc); err != nil {
			return Config{}, fmt.Errorf("converting %s: %w", path, err)
		}
		if err := experimentSchema.Validate(jsonDoc); err != nil {
			return Config{}, fmt.Errorf("validating %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decoding %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}
