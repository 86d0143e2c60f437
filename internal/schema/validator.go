package schema

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sourceplane/tmplstudio/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed template.schema.yaml
var templateSchemaYAML []byte

//go:embed metadata.schema.yaml
var metadataSchemaYAML []byte

// Validator handles JSON schema validation of template documents
type Validator struct {
	templateSchema *jsonschema.Schema
	metadataSchema *jsonschema.Schema
}

// NewValidator compiles the embedded template schemas
func NewValidator() (*Validator, error) {
	v := &Validator{}

	// Compile template schema
	templateSchema, err := compileSchema("template", templateSchemaYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to load template schema: %w", err)
	}
	v.templateSchema = templateSchema

	// Compile metadata schema
	metadataSchema, err := compileSchema("metadata", metadataSchemaYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata schema: %w", err)
	}
	v.metadataSchema = metadataSchema

	return v, nil
}

// MustNewValidator is NewValidator for the embedded schemas, which always compile
func MustNewValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateTemplate validates a template document against the schema
func (v *Validator) ValidateTemplate(doc model.Document) error {
	if v.templateSchema == nil {
		return fmt.Errorf("template schema not loaded")
	}
	data, err := toJSONValue(doc)
	if err != nil {
		return err
	}
	return v.templateSchema.Validate(data)
}

// ValidateMetadata validates template metadata against the schema
func (v *Validator) ValidateMetadata(meta model.Metadata) error {
	if v.metadataSchema == nil {
		return fmt.Errorf("metadata schema not loaded")
	}
	data, err := toJSONValue(meta)
	if err != nil {
		return err
	}
	return v.metadataSchema.Validate(data)
}

// Messages flattens a validation error into one message per failing location
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []string{err.Error()}
	}

	var messages []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "/"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(validationErr)
	return messages
}

// toJSONValue converts a Go value into the generic shape the compiler validates
func toJSONValue(in interface{}) (interface{}, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return out, nil
}

// compileSchema compiles a YAML schema (JSON also accepted)
func compileSchema(name string, data []byte) (*jsonschema.Schema, error) {
	// Parse YAML to interface{} (supports both YAML and JSON)
	var schemaData interface{}
	if err := yaml.Unmarshal(data, &schemaData); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	// Convert to JSON for schema compiler
	jsonData, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	schemaURI := fmt.Sprintf("tmplstudio://%s/schema.json", name)
	compiler := jsonschema.NewCompiler()
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		if url == schemaURI {
			return io.NopCloser(strings.NewReader(string(jsonData))), nil
		}
		return nil, fmt.Errorf("external schema reference not supported: %s", url)
	}

	schema, err := compiler.Compile(schemaURI)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return schema, nil
}
