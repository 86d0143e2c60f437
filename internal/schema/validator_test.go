package schema

import (
	"testing"

	"github.com/sourceplane/tmplstudio/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTemplate(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		doc     model.Document
		wantErr bool
	}{
		{"default step", model.DefaultDocument(model.TemplateTypeStep), false},
		{"default stage", model.DefaultDocument(model.TemplateTypeStage), false},
		{"unknown type", model.DefaultDocument("Banana"), true},
		{"missing spec", model.Document{Version: 1, Kind: model.DocumentKind}, true},
		{"wrong kind", model.Document{Version: 1, Kind: "pipeline", Spec: map[string]interface{}{"type": "Step"}}, true},
		{"zero version", model.Document{Kind: model.DocumentKind, Spec: map[string]interface{}{"type": "Step"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateTemplate(tt.doc)
			if tt.wantErr {
				assert.Error(t, err)
				assert.NotEmpty(t, Messages(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMetadata(t *testing.T) {
	v := MustNewValidator()

	assert.NoError(t, v.ValidateMetadata(model.Metadata{Name: "Deploy", Identifier: "deploy", VersionLabel: "v1"}))
	assert.Error(t, v.ValidateMetadata(model.Metadata{Name: "Deploy", Identifier: "1-bad", VersionLabel: "v1"}))
	assert.Error(t, v.ValidateMetadata(model.Metadata{Identifier: "deploy", VersionLabel: "v1"}))
}

func TestMessagesOnPlainError(t *testing.T) {
	assert.Nil(t, Messages(nil))
	assert.Equal(t, []string{assert.AnError.Error()}, Messages(assert.AnError))
}
