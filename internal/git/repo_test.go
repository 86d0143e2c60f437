package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"git@github.com:sourceplane/templates.git", "templates"},
		{"https://github.com/sourceplane/templates", "templates"},
		{"https://github.com/sourceplane/templates.git/", "templates"},
		{"templates", "templates"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, RepoNameFromURL(tt.url))
		})
	}
}

func TestDetailsOutsideRepository(t *testing.T) {
	in := NewInspector(t.TempDir())
	details, err := in.Details(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, details)
}

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestDetailsInsideRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	ctx := context.Background()
	dir := t.TempDir()
	gitCmd(t, dir, "init", "-q", "-b", "main")
	gitCmd(t, dir, "remote", "add", "origin", "git@github.com:sourceplane/templates.git")

	file := filepath.Join(dir, "deploy", "v1", "template.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, os.WriteFile(file, []byte("version: 1\n"), 0644))
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "-q", "-m", "init")

	in := NewInspector(dir)
	details, err := in.Details(ctx, file)
	require.NoError(t, err)
	require.NotNil(t, details)

	assert.Equal(t, "main", details.Branch)
	assert.Equal(t, "templates", details.RepoName)
	assert.Equal(t, "deploy/v1/template.yaml", details.FilePath)
	assert.Equal(t, "deploy/v1", details.RootFolder)
	assert.NotEmpty(t, details.CommitID)
	assert.NotEmpty(t, details.ObjectID)

	changed, err := in.IsFileChanged(ctx, file)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, os.WriteFile(file, []byte("version: 2\n"), 0644))
	changed, err = in.IsFileChanged(ctx, file)
	require.NoError(t, err)
	assert.True(t, changed)
}
