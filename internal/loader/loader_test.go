package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sourceplane/tmplstudio/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadTemplateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deploy")
	writeFile(t, filepath.Join(dir, "metadata.yaml"), "name: Deploy\nstableVersion: v1\ntags:\n  team: platform\n")
	writeFile(t, filepath.Join(dir, "v1", "template.yaml"), "version: 1\nkind: template\nspec:\n  type: Step\n")
	writeFile(t, filepath.Join(dir, "v2", "template.yaml"), "version: 1\nkind: template\nspec:\n  type: Step\n")
	writeFile(t, filepath.Join(dir, "notes", "README.md"), "ignored")

	td, err := LoadTemplateDir(dir)
	require.NoError(t, err)

	assert.Equal(t, "deploy", td.Identifier)
	assert.Equal(t, "Deploy", td.Metadata.Name)
	assert.Equal(t, map[string]string{"team": "platform"}, td.Metadata.Tags)
	require.Len(t, td.Versions, 2)
	assert.Equal(t, "v1", td.Versions[0].Label)
	assert.Equal(t, "v2", td.Versions[1].Label)
	assert.Equal(t, "v1", td.StableVersion())
	assert.Contains(t, string(td.VersionMap["v2"].YAML), "type: Step")
}

func TestLoadTemplateDirDefaultsStableToHighestLabel(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "build")
	writeFile(t, filepath.Join(dir, "1.0", "template.yaml"), "version: 1\n")
	writeFile(t, filepath.Join(dir, "2.0", "template.yaml"), "version: 1\n")

	td, err := LoadTemplateDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "2.0", td.StableVersion())
}

func TestLoadTemplateDirErrors(t *testing.T) {
	_, err := LoadTemplateDir(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	empty := t.TempDir()
	_, err = LoadTemplateDir(empty)
	assert.ErrorContains(t, err, "no template.yaml")

	dir := filepath.Join(t.TempDir(), "deploy")
	writeFile(t, filepath.Join(dir, "metadata.yaml"), "stableVersion: v9\n")
	writeFile(t, filepath.Join(dir, "v1", "template.yaml"), "version: 1\n")
	_, err = LoadTemplateDir(dir)
	assert.ErrorContains(t, err, "stable version v9")
}

func TestWriteAndLoadTemplateFile(t *testing.T) {
	dir := t.TempDir()
	doc := model.DefaultDocument(model.TemplateTypeStage)
	doc.Set("spec.timeout", "5m")

	path, err := WriteTemplateVersion(dir, "v3", doc)
	require.NoError(t, err)

	loaded, raw, err := LoadTemplateFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, model.TemplateTypeStage, loaded.Type())
	timeout, ok := loaded.Lookup("spec.timeout")
	require.True(t, ok)
	assert.Equal(t, "5m", timeout)
}

func TestLoadTemplateFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, path, "template:\n  invalid: [")

	_, raw, err := LoadTemplateFile(path)
	assert.Error(t, err)
	assert.NotEmpty(t, raw)
}
