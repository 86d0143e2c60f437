package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssignments(t *testing.T) {
	values, order, err := parseAssignments([]string{
		"spec.timeout=10m",
		"spec.retries=3",
		"spec.tags=[a, b]",
		"spec.timeout=20m",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"spec.timeout", "spec.retries", "spec.tags"}, order)
	assert.Equal(t, "20m", values["spec.timeout"])
	assert.Equal(t, 3, values["spec.retries"])
	assert.Equal(t, []interface{}{"a", "b"}, values["spec.tags"])

	_, _, err = parseAssignments([]string{"novalue"})
	assert.Error(t, err)
	_, _, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestValidatePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deploy")
	writeFile(t, filepath.Join(dir, "metadata.yaml"), "name: Deploy\nstableVersion: v1\n")
	writeFile(t, filepath.Join(dir, "v1", "template.yaml"), "version: 1\nkind: template\nspec:\n  type: Stage\n  spec: {}\n")

	assert.NoError(t, validatePath(filepath.Join(dir, "v1", "template.yaml")))
	assert.NoError(t, validatePath(dir))

	writeFile(t, filepath.Join(dir, "v2", "template.yaml"), "version: 1\nkind: template\nspec:\n  spec: {}\n")
	assert.Error(t, validatePath(filepath.Join(dir, "v2", "template.yaml")))
	assert.Error(t, validatePath(dir))

	assert.Error(t, validatePath(filepath.Join(dir, "missing.yaml")))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "main", orDefault("main", "(default)"))
	assert.Equal(t, "(default)", orDefault("", "(default)"))
}
