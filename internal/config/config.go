// Package config loads and validates the optional tscbridge settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults for every setting. They match a stock npm installation.
const (
	DefaultNodePath         = "/usr/local/bin/node"
	DefaultTypeScriptPath   = "/usr/local/share/npm/bin/tsc"
	DefaultOutputExt        = ".js"
	DefaultSyntax           = "Packages/JavaScript/JavaScript.tmLanguage"
	DefaultFallbackEncoding = "windows-1252"
)

// Setting names recognised by Overlay.
const (
	KeyNodePath       = "node_path"
	KeyTypeScriptPath = "typescript_path"
	KeyOutputExt      = "output_ext"
	KeySyntax         = "syntax"
	KeyFallback       = "fallback_encoding"
	KeyTempDir        = "temp_dir"
	KeyKeepTemp       = "keep_temp"
	KeyDebug          = "debug"
)

// Keys returns every setting name Overlay recognises.
func Keys() []string {
	return []string{
		KeyNodePath, KeyTypeScriptPath, KeyOutputExt, KeySyntax,
		KeyFallback, KeyTempDir, KeyKeepTemp, KeyDebug,
	}
}

// IsKey reports whether name is a setting Overlay recognises.
func IsKey(name string) bool {
	return slices.Contains(Keys(), name)
}

// Config holds compiler invocation settings.
// All fields are optional; zero values select the defaults above.
type Config struct {
	NodePath       string            `yaml:"node_path"`
	TypeScriptPath string            `yaml:"typescript_path"`
	RawOutputExt   string            `yaml:"output_ext"`
	RawSyntax      string            `yaml:"syntax"`
	RawFallback    string            `yaml:"fallback_encoding"`
	TempDir        string            `yaml:"temp_dir"` // empty means os.TempDir()
	KeepTemp       bool              `yaml:"keep_temp"`
	Debug          bool              `yaml:"debug"`
	Env            map[string]string `yaml:"env"`
}

// Default returns a Config with every setting at its default.
func Default() Config {
	return Config{}
}

// Node returns the interpreter path.
func (c Config) Node() string {
	if c.NodePath != "" {
		return c.NodePath
	}
	return DefaultNodePath
}

// TypeScript returns the compiler entry point.
func (c Config) TypeScript() string {
	if c.TypeScriptPath != "" {
		return c.TypeScriptPath
	}
	return DefaultTypeScriptPath
}

// OutputExt returns the extension given to compiled output.
func (c Config) OutputExt() string {
	if c.RawOutputExt != "" {
		return c.RawOutputExt
	}
	return DefaultOutputExt
}

// Syntax returns the syntax definition applied to compiled output.
func (c Config) Syntax() string {
	if c.RawSyntax != "" {
		return c.RawSyntax
	}
	return DefaultSyntax
}

// FallbackEncoding returns the encoding tried when output is not UTF-8.
func (c Config) FallbackEncoding() string {
	if c.RawFallback != "" {
		return c.RawFallback
	}
	return DefaultFallbackEncoding
}

// Load reads the settings file at path. A missing file is not an error and
// yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates YAML settings against the embedded schema and decodes them.
func Parse(data []byte) (Config, error) {
	if err := Validate(data); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing settings: %w", err)
	}
	return cfg, nil
}

// SettingsLookup resolves a host setting by name. The boolean reports
// whether the host has a value for it.
type SettingsLookup func(name string) (string, bool)

// Overlay returns a copy of c with any host-provided settings applied on top.
// Host values win over file values. Boolean settings that do not parse are
// reported as an error.
func (c Config) Overlay(lookup SettingsLookup) (Config, error) {
	if lookup == nil {
		return c, nil
	}

	strs := map[string]*string{
		KeyNodePath:       &c.NodePath,
		KeyTypeScriptPath: &c.TypeScriptPath,
		KeyOutputExt:      &c.RawOutputExt,
		KeySyntax:         &c.RawSyntax,
		KeyFallback:       &c.RawFallback,
		KeyTempDir:        &c.TempDir,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		KeyKeepTemp: &c.KeepTemp,
		KeyDebug:    &c.Debug,
	}
	for key, dst := range bools {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("setting %s: %w", key, err)
		}
		*dst = b
	}

	return c, nil
}
