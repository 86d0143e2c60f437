package git

import (
	"context"
	"fmt"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/sourceplane/tmplstudio/internal/model"
)

// Inspector reads git coordinates of files inside a working tree
type Inspector struct {
	dir string // any directory inside the working tree
}

// NewInspector creates an inspector rooted at dir
func NewInspector(dir string) *Inspector {
	return &Inspector{dir: dir}
}

// run executes a git subcommand in the inspector's directory
func (in *Inspector) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = in.dir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// IsRepository reports whether the directory is inside a git working tree
func (in *Inspector) IsRepository(ctx context.Context) bool {
	out, err := in.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// TopLevel returns the absolute path of the working tree root
func (in *Inspector) TopLevel(ctx context.Context) (string, error) {
	return in.run(ctx, "rev-parse", "--show-toplevel")
}

// CurrentBranch returns the checked-out branch, or "" on a detached HEAD
func (in *Inspector) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := in.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if branch == "HEAD" {
		return "", nil
	}
	return branch, nil
}

// RemoteURL returns the fetch URL of origin, or "" when there is none
func (in *Inspector) RemoteURL(ctx context.Context) string {
	url, err := in.run(ctx, "config", "--get", "remote.origin.url")
	if err != nil {
		return ""
	}
	return url
}

// RepoName derives the repository name from origin, falling back to the top-level directory name
func (in *Inspector) RepoName(ctx context.Context) (string, error) {
	if url := in.RemoteURL(ctx); url != "" {
		return RepoNameFromURL(url), nil
	}
	top, err := in.TopLevel(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Base(top), nil
}

// LastCommit returns the last commit touching file, or HEAD when file is ""
func (in *Inspector) LastCommit(ctx context.Context, file string) (string, error) {
	args := []string{"log", "-n", "1", "--format=%H"}
	if file != "" {
		args = append(args, "--", file)
	}
	return in.run(ctx, args...)
}

// ObjectID returns the blob id of file at HEAD
func (in *Inspector) ObjectID(ctx context.Context, file string) (string, error) {
	rel, err := in.relative(ctx, file)
	if err != nil {
		return "", err
	}
	return in.run(ctx, "rev-parse", "HEAD:"+rel)
}

// IsFileChanged reports whether file has staged or unstaged modifications
func (in *Inspector) IsFileChanged(ctx context.Context, file string) (bool, error) {
	out, err := in.run(ctx, "status", "--porcelain", "--", file)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

// relative converts file to a slash path relative to the working tree root
func (in *Inspector) relative(ctx context.Context, file string) (string, error) {
	top, err := in.TopLevel(ctx)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	// Resolve symlinks so temp dirs compare equal to git's view
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if resolved, err := filepath.EvalSymlinks(top); err == nil {
		top = resolved
	}
	rel, err := filepath.Rel(top, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Details collects GitDetails for file. Outside a repository it returns nil.
func (in *Inspector) Details(ctx context.Context, file string) (*model.GitDetails, error) {
	if !in.IsRepository(ctx) {
		return nil, nil
	}

	details := &model.GitDetails{}

	branch, err := in.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	details.Branch = branch

	repoName, err := in.RepoName(ctx)
	if err != nil {
		return nil, err
	}
	details.RepoName = repoName
	details.RepoIdentifier = repoName
	details.RepoURL = in.RemoteURL(ctx)

	if file != "" {
		rel, err := in.relative(ctx, file)
		if err != nil {
			return nil, err
		}
		details.FilePath = rel
		details.RootFolder = path.Dir(rel)
		// Untracked files have no commit or blob yet
		details.CommitID, _ = in.LastCommit(ctx, file)
		details.ObjectID, _ = in.ObjectID(ctx, file)
	} else {
		details.CommitID, _ = in.LastCommit(ctx, "")
	}

	return details, nil
}

// RepoNameFromURL extracts "name" from URLs like git@host:org/name.git or https://host/org/name
func RepoNameFromURL(url string) string {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	url = strings.TrimSuffix(url, ".git")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		return url[i+1:]
	}
	return url
}
