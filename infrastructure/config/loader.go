package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/adversary-go/infrastructure/logging"
)

// Format represents a configuration file format.
type Format string

const (
	// FormatYAML is the YAML format.
	FormatYAML Format = "yaml"
	// FormatJSON is the JSON format.
	FormatJSON Format = "json"
)

// Loader reads configuration documents.
type Loader struct {
	// ExpandEnv enables ${VAR} expansion in file contents.
	ExpandEnv bool
	// Validate enables structural validation after parsing.
	Validate bool
}

// NewLoader creates a loader with expansion and validation enabled.
func NewLoader() *Loader {
	return &Loader{ExpandEnv: true, Validate: true}
}

// formatForPath picks the format from the file extension.
func formatForPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// LoadFile loads configuration from a file, choosing the format by
// extension.
func (l *Loader) LoadFile(path string) (*Config, error) {
	format, err := formatForPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	return l.Load(f, format)
}

// Load loads configuration from a reader.
func (l *Loader) Load(r io.Reader, format Format) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if l.ExpandEnv {
		data = expandEnv(data)
	}

	cfg := &Config{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if l.Validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// LoadOrDefault loads the file at path, falling back to Default with a
// warning when the file does not exist. Parse and validation failures
// still surface as errors.
func (l *Loader) LoadOrDefault(path string) (*Config, error) {
	cfg, err := l.LoadFile(path)
	if err == nil {
		return cfg, nil
	}
	if isNotFound(err) {
		logging.Warn().
			Add(logging.Component("config")).
			Add(logging.ErrorField(err)).
			Msg("config file missing, using built-in defaults")
		return Default(), nil
	}
	return nil, err
}

func isNotFound(err error) bool {
	for err != nil {
		if err == ErrConfigNotFound {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// envPattern matches ${VAR} and ${VAR:-default} references.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// expandEnv expands ${VAR} and ${VAR:-default} references in raw
// config bytes. Unset variables without a default expand to the empty
// string.
func expandEnv(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		inner := string(match[2 : len(match)-1])
		name, def, hasDef := strings.Cut(inner, ":-")
		value, exists := os.LookupEnv(name)
		if (!exists || value == "") && hasDef {
			return []byte(def)
		}
		return []byte(value)
	})
}

// SaveFile writes the configuration atomically: the document is written
// to a temporary file in the target directory, then renamed over the
// destination. The format is chosen by extension.
func SaveFile(cfg *Config, path string) error {
	format, err := formatForPath(path)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case FormatYAML:
		data, err = yaml.Marshal(cfg)
	case FormatJSON:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}
