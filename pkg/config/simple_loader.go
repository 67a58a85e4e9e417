package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/flatindex/pkg/errors"
)

// Loader decodes a configuration document from its surface syntax.
type Loader interface {
	// Decode parses data into a Config. It does not validate the result.
	Decode(data []byte) (*Config, error)
	// Format names the syntax, for messages.
	Format() string
}

// YAMLLoader decodes YAML documents.
type YAMLLoader struct{}

// Decode implements Loader.
func (YAMLLoader) Decode(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML")
	}
	return &cfg, nil
}

// Format implements Loader.
func (YAMLLoader) Format() string { return "yaml" }

// JSONLoader decodes JSON documents. Column keys are written as strings
// ({"1": "NAME"}) as JSON requires.
type JSONLoader struct{}

// Decode implements Loader.
func (JSONLoader) Decode(data []byte) (*Config, error) {
	var cfg Config
	if len(bytes.TrimSpace(data)) == 0 {
		return &cfg, nil
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse JSON")
	}
	return &cfg, nil
}

// Format implements Loader.
func (JSONLoader) Format() string { return "json" }

// LoaderFor picks a Loader from the file extension. Anything that is not
// .json is read as YAML, which also accepts most JSON.
func LoaderFor(path string) Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONLoader{}
	default:
		return YAMLLoader{}
	}
}

// Load decodes and validates a document read from r, then expands
// environment references in delimiters and field names.
func Load(r io.Reader, loader Loader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to read config")
	}

	cfg, err := loader.Decode(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.expandEnv()
	return cfg, nil
}

// LoadFile loads a configuration from a YAML or JSON file
func LoadFile(filePath string) (*Config, error) {
	f, err := os.Open(filePath) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to open config file").
			WithDetail("path", filePath)
	}
	defer f.Close()

	loader := LoaderFor(filePath)
	cfg, err := Load(f, loader)
	if err != nil {
		var e *errors.Error
		if errors.As(err, &e) {
			return nil, e.WithDetail("path", filePath).WithDetail("format", loader.Format())
		}
		return nil, err
	}
	return cfg, nil
}

// expandEnv substitutes environment references in decoded delimiters and
// field names. Match patterns are left alone: "${" is valid regex text.
func (c *Config) expandEnv() {
	for i := range c.Profiles {
		p := &c.Profiles[i]
		p.Delimiter = substituteEnvVars(p.Delimiter)
		for col, name := range p.FieldMap {
			p.FieldMap[col] = substituteEnvVars(name)
		}
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		b.WriteString(content[:start])
		b.WriteString(os.Getenv(varName))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
