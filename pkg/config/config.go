// Package config loads gojavap settings from an optional YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/daimatz/gojavap/pkg/javap"
)

// EnvVar names the environment variable holding the default config path.
const EnvVar = "GOJAVAP_CONFIG"

// Config mirrors the command line flags. Flags given on the command line
// take precedence over file values.
type Config struct {
	Access        string `yaml:"access"`
	Disassemble   bool   `yaml:"disassemble"`
	LineAndLocals bool   `yaml:"line_and_locals"`
	Signatures    bool   `yaml:"signatures"`
	Verbose       bool   `yaml:"verbose"`
	AllAttributes bool   `yaml:"all_attributes"`

	Classpath     string `yaml:"classpath"`
	Bootclasspath string `yaml:"bootclasspath"`
	Jobs          int    `yaml:"jobs"`
	LogLevel      string `yaml:"log_level"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Access:    "package",
		Classpath: ".",
		Jobs:      4,
		LogLevel:  "warn",
	}
}

// Load reads the file at path over the defaults. An empty path falls back
// to $GOJAVAP_CONFIG, and when that is unset too the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	cfg, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Read decodes YAML from r over the defaults. Unknown keys are rejected.
func Read(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if cfg.Jobs < 1 {
		return nil, fmt.Errorf("jobs must be at least 1, got %d", cfg.Jobs)
	}
	return cfg, nil
}

// Options converts the printing settings.
func (c *Config) Options() (javap.Options, error) {
	access, err := javap.ParseAccess(c.Access)
	if err != nil {
		return javap.Options{}, err
	}
	return javap.Options{
		Access:        access,
		Disassemble:   c.Disassemble,
		LineAndLocals: c.LineAndLocals,
		Signatures:    c.Signatures,
		Verbose:       c.Verbose,
		AllAttributes: c.AllAttributes,
	}, nil
}
