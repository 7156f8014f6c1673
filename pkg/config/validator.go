package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ValidationError lists every schema violation found in a configuration file.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "configuration file is not valid: " + strings.Join(e.Problems, "; ")
}

// Validate validates a configuration file (JSON or YAML) against the JSON schema
func Validate(configFile string) error {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return validateDocument(data, isYAML(configFile))
}

func validateDocument(data []byte, yamlDoc bool) error {
	schemaLoader := gojsonschema.NewStringLoader(Schema)

	var documentLoader gojsonschema.JSONLoader
	if yamlDoc {
		doc := map[string]interface{}{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		documentLoader = gojsonschema.NewGoLoader(doc)
	} else {
		documentLoader = gojsonschema.NewBytesLoader(data)
	}

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}

	if !result.Valid() {
		verr := &ValidationError{}
		for _, desc := range result.Errors() {
			verr.Problems = append(verr.Problems, desc.String())
		}
		return verr
	}

	return nil
}
