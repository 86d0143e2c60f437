package studio

import (
	"fmt"
	"strings"

	"github.com/sourceplane/tmplstudio/internal/model"
	"gopkg.in/yaml.v3"
)

// ParseTemplateYAML decodes a template document. On failure it returns the
// default document for childType together with the parse error.
func ParseTemplateYAML(raw string, childType string) (model.Document, error) {
	if strings.TrimSpace(raw) == "" {
		return model.DefaultDocument(childType), fmt.Errorf("template yaml is empty")
	}

	var doc model.Document
	if err := yaml.Unmarshal([]byte(raw), &doc); err != nil {
		return model.DefaultDocument(childType), fmt.Errorf("failed to parse template yaml: %w", err)
	}
	if doc.Kind == "" && doc.Spec == nil {
		return model.DefaultDocument(childType), fmt.Errorf("template yaml has no kind or spec")
	}

	return doc, nil
}

// MarshalTemplateYAML renders a document back to YAML text
func MarshalTemplateYAML(doc model.Document) string {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return ""
	}
	return string(data)
}
