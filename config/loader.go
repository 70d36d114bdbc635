package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/llm-bridge/errors"
	"github.com/grovetools/llm-bridge/pkg/paths"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames are probed in order inside the config directory.
var configNames = []string{"llm-bridge.toml", "llm-bridge.yml", "llm-bridge.yaml"}

// FindConfigFile returns the first existing config file in the llm-bridge
// config directory, or "" when none exists.
func FindConfigFile() string {
	dir := paths.ConfigDir()
	if dir == "" {
		return ""
	}
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Load builds the effective configuration: defaults, then the config file
// (explicit path, or the first one found in the config directory), then
// environment overrides. The result is validated before it is returned.
func Load(path string) (*Config, ConfigSource, error) {
	cfg := Default()
	source := SourceDefault

	if path == "" {
		path = FindConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.ConfigNotFound(path)
		}
		return nil, "", errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to stat config file").
			WithDetail("path", path)
	}

	if path != "" {
		raw, err := readRaw(path)
		if err != nil {
			return nil, "", err
		}
		if err := decodeInto(cfg, raw, path); err != nil {
			return nil, "", err
		}
		source = SourceFile
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, "", err
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, source, nil
}

// ValidateFile checks a config file against the schema and the semantic
// rules without applying environment overrides.
func ValidateFile(path string) error {
	raw, err := readRaw(path)
	if err != nil {
		return err
	}
	cfg := Default()
	if err := decodeInto(cfg, raw, path); err != nil {
		return err
	}
	return cfg.Validate()
}

func readRaw(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}
	expanded := []byte(expandEnvVars(string(data)))

	raw := map[string]interface{}{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(expanded, &raw)
	case ".yml", ".yaml":
		err = yaml.Unmarshal(expanded, &raw)
	default:
		return nil, errors.ConfigInvalid("unsupported config extension " + filepath.Ext(path)).
			WithDetail("path", path)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse config file").
			WithDetail("path", path)
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	return raw, nil
}

func decodeInto(cfg *Config, raw map[string]interface{}, path string) error {
	validator, err := NewSchemaValidator()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to build config schema")
	}
	if err := validator.Validate(raw); err != nil {
		if be, ok := err.(*errors.BridgeError); ok {
			return be.WithDetail("path", path)
		}
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create mapstructure decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to decode config").
			WithDetail("path", path)
	}
	return nil
}

// expandEnvVars replaces ${VAR} references with their environment values.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		name := envVarRegex.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
