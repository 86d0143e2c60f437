package render

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sourceplane/tmplstudio/internal/model"
	"github.com/sourceplane/tmplstudio/internal/studio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleState() studio.State {
	state := studio.InitialState()
	state.TemplateIdentifier = "deploy"
	state.Template = model.DefaultDocument(model.TemplateTypeStage)
	state.Template.Set("spec.timeout", "10m")
	state.TemplateMetadata = model.Metadata{Name: "Deploy", Identifier: "deploy", VersionLabel: "v1"}
	state.StableVersion = "v1"
	state.LastPublishedVersion = "v2"
	state.IsUpdated = true
	state.GitDetails = model.GitDetails{RepoName: "templates", Branch: "main", FilePath: "deploy/v1/template.yaml"}
	state.EntityValidityDetails = model.EntityValidityDetails{Valid: false, ErrorMessages: []string{"missing properties: 'type'"}}
	return state
}

func TestRenderFormats(t *testing.T) {
	r := NewRenderer()
	state := sampleState()

	data, err := r.Render(state, "json")
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "deploy", decoded["templateIdentifier"])
	assert.Equal(t, true, decoded["isUpdated"])

	data, err = r.Render(state, "yaml")
	require.NoError(t, err)
	decoded = nil
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "v1", decoded["stableVersion"])

	_, err = r.Render(state, "toml")
	assert.Error(t, err)
}

func TestWriteState(t *testing.T) {
	r := NewRenderer()
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "out", "state.yaml")
	require.NoError(t, r.WriteState(sampleState(), yamlPath))
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "templateIdentifier: deploy")

	jsonPath := filepath.Join(dir, "state.out")
	require.NoError(t, r.WriteState(sampleState(), jsonPath))
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestDebugDump(t *testing.T) {
	out := NewRenderer().DebugDump(sampleState())

	assert.Contains(t, out, "Template: Deploy (deploy)")
	assert.Contains(t, out, "Type: Stage")
	assert.Contains(t, out, "Git: templates@main deploy/v1/template.yaml")
	assert.Contains(t, out, "Unsaved template changes: true")
	assert.Contains(t, out, "missing properties")
}

func TestVersionViewer(t *testing.T) {
	versions := []model.VersionSummary{
		{VersionLabel: "v1", StableTemplate: true, CreatedAt: 1700000000000, ChildType: model.TemplateTypeStage},
		{VersionLabel: "v2", CreatedAt: 1700000100000, ChildType: model.TemplateTypeStage,
			GitDetails: &model.GitDetails{RepoName: "templates", Branch: "main", FilePath: "deploy/v2/template.yaml"}},
		{VersionLabel: "legacy", CreatedAt: 1600000000000},
	}

	out := NewVersionViewer("deploy", versions).ViewTree("v1")
	lines := strings.Split(out, "\n")

	assert.Equal(t, "deploy", lines[0])
	assert.Equal(t, "├─ [Stage]", lines[1])
	assert.Equal(t, "│  ├─ v2 (latest)", lines[2])
	assert.Contains(t, out, "│  └─ v1 (stable) *")
	assert.Contains(t, out, "git: templates@main deploy/v2/template.yaml")
	assert.Contains(t, out, "└─ [Unknown]")
	assert.Contains(t, out, "created: 2023-11-14T22:13:20Z")
	assert.Contains(t, out, "Summary: 3 versions, stable: v1, latest: v2")
}

func TestVersionViewerEmpty(t *testing.T) {
	assert.Equal(t, "No versions found for template: deploy", NewVersionViewer("deploy", nil).ViewTree(""))
}
