package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fulmenhq/mappack/internal/assets"
	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// SchemaPath locates the config schema inside the embedded schemas.
const SchemaPath = "config/mappack-config-v1.yaml"

var configSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	schemaBytes, ok := assets.GetSchema(SchemaPath)
	if !ok {
		return nil, fmt.Errorf("config schema %s is not embedded", SchemaPath)
	}
	// Convert YAML to JSON for gojsonschema
	var schemaData interface{}
	if err := yaml.Unmarshal(schemaBytes, &schemaData); err != nil {
		return nil, fmt.Errorf("failed to parse config schema: %w", err)
	}
	jsonBytes, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("failed to convert config schema: %w", err)
	}
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(jsonBytes))
})

// ValidateConfig validates a decoded configuration document (a map read from
// a file, or a *Config) against the embedded schema.
func ValidateConfig(doc interface{}) error {
	schema, err := configSchema()
	if err != nil {
		return fmt.Errorf("failed to load config schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

// readDocument reads only the keys a config file sets, without defaults or
// environment, in whatever format viper detects from its extension.
func readDocument(path string) (map[string]interface{}, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v.AllSettings(), nil
}
