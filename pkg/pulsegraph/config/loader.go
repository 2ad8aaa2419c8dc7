package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// FromFile loads settings from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
//
// Keys missing from the file keep their Default values. Unknown keys are
// rejected.
func FromFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into Settings.
func FromYAML(data []byte) (Settings, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse yaml: %w", err)
	}
	return decode(m)
}

// FromJSON parses JSON data into Settings.
func FromJSON(data []byte) (Settings, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Settings{}, fmt.Errorf("parse json: %w", err)
	}
	return decode(m)
}

// decode overlays m onto Default().
//
// Input is weakly typed so "1000" and 1000 both fill an int, and durations
// are written as strings ("30s", "1m").
func decode(m map[string]any) (Settings, error) {
	s := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Settings{}, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}
