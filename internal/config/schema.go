package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed settings.schema.json
var settingsSchemaJSON []byte

var (
	settingsSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// compileSchema compiles the embedded settings schema once.
func compileSchema() error {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(settingsSchemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal settings schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("settings.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add settings schema resource: %w", err)
			return
		}

		settingsSchema, err = compiler.Compile("settings.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile settings schema: %w", err)
		}
	})
	return compileErr
}

// Validate checks YAML settings data against the embedded schema.
// An empty document is valid.
func Validate(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	if raw == nil {
		return nil
	}

	// Round-trip through JSON so the validator sees JSON-native types.
	js, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("settings are not representable as JSON: %w", err)
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := settingsSchema.Validate(v); err != nil {
		return fmt.Errorf("settings validation failed: %w", err)
	}
	return nil
}
