package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// ErrUnsupportedFormat is returned by Load for a file extension it cannot
// decode.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Load reads a config file, choosing the format from its extension:
// .yaml, .yml and .json are decoded as YAML; .cue is unified with the
// #Cauldron schema.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return ParseYAML(data)
	case ".cue":
		return ParseCUE(data, path)
	}
	return nil, fmt.Errorf("%w: unsupported config extension %q (want .yaml, .yml, .json or .cue)", ErrUnsupportedFormat, filepath.Ext(path))
}

// ParseYAML decodes and validates a YAML config. Unknown keys are rejected.
func ParseYAML(data []byte) (*Config, error) {
	return decodeYAML(data, &Config{})
}

// ParseYAMLWithDefaults is ParseYAML over Default(): keys the document
// leaves out keep their default values. Lists are replaced, not merged.
func ParseYAMLWithDefaults(data []byte) (*Config, error) {
	return decodeYAML(data, Default())
}

func decodeYAML(data []byte, cfg *Config) (*Config, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseCUE evaluates a CUE config. The source must define a top-level
// `cauldron` value; it is unified with #Cauldron, which supplies defaults
// and closes the struct against unknown fields. filename is used for error
// positions only.
func ParseCUE(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling embedded schema: %w", err)
	}

	src := ctx.CompileBytes(data, cue.Filename(filename))
	if err := src.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := src.LookupPath(cue.ParsePath("cauldron"))
	if !v.Exists() {
		return nil, &ConfigError{Field: "cauldron", Message: "top-level cauldron value is required", Pos: src.Pos()}
	}

	unified := schema.LookupPath(cue.ParsePath("#Cauldron")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
