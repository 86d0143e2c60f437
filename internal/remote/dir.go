package remote

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sourceplane/tmplstudio/internal/git"
	"github.com/sourceplane/tmplstudio/internal/loader"
	"github.com/sourceplane/tmplstudio/internal/model"
	"gopkg.in/yaml.v3"
)

// CodeSCMBadRequest is reported when the requested branch is not available
const CodeSCMBadRequest = "SCM_BAD_REQUEST"

// DirClient serves templates from a directory tree laid out as
// <root>/[org/[project/]]<identifier>/<versionLabel>/template.yaml.
// When the tree is a git working tree, versions carry git details and
// only the checked-out branch can be read.
type DirClient struct {
	Root string
}

// NewDirClient creates a directory-backed client
func NewDirClient(root string) *DirClient {
	return &DirClient{Root: root}
}

// templateDir resolves the template directory under Root. Every scope
// segment must be a single path element.
func (c *DirClient) templateDir(q Query) (string, error) {
	parts := []string{c.Root}
	segments := []string{}
	if q.OrgID != "" {
		segments = append(segments, q.OrgID)
		if q.ProjectID != "" {
			segments = append(segments, q.ProjectID)
		}
	}
	segments = append(segments, q.TemplateIdentifier)

	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, `/\`) {
			return "", &Error{
				Status:  http.StatusBadRequest,
				Code:    CodeInvalidRequest,
				Message: fmt.Sprintf("invalid template path segment %q", seg),
			}
		}
		parts = append(parts, seg)
	}
	return filepath.Join(parts...), nil
}

// load reads the template directory and checks the requested branch
func (c *DirClient) load(ctx context.Context, q Query) (*loader.TemplateDir, *git.Inspector, error) {
	dir, err := c.templateDir(q)
	if err != nil {
		return nil, nil, err
	}
	td, err := loader.LoadTemplateDir(dir)
	if err != nil {
		return nil, nil, &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: err.Error()}
	}

	inspector := git.NewInspector(dir)
	if q.Branch != "" && inspector.IsRepository(ctx) {
		branch, err := inspector.CurrentBranch(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read current branch: %w", err)
		}
		if branch != q.Branch {
			return nil, nil, &Error{
				Status:  http.StatusBadRequest,
				Code:    CodeSCMBadRequest,
				Message: fmt.Sprintf("branch %s is not checked out (current: %s)", q.Branch, branch),
			}
		}
	}

	return td, inspector, nil
}

// ListVersions returns one summary per version directory
func (c *DirClient) ListVersions(ctx context.Context, q Query) ([]model.VersionSummary, error) {
	td, inspector, err := c.load(ctx, q)
	if err != nil {
		return nil, err
	}

	stable := td.StableVersion()
	versions := make([]model.VersionSummary, 0, len(td.Versions))
	for _, v := range td.Versions {
		summary := model.VersionSummary{
			VersionLabel:       v.Label,
			Name:               td.Metadata.Name,
			StableTemplate:     v.Label == stable,
			CreatedAt:          v.ModTime,
			LastUpdatedAt:      v.ModTime,
			ChildType:          childType(v.YAML, td.Metadata.ChildType),
			TemplateEntityType: childType(v.YAML, td.Metadata.ChildType),
			StoreType:          model.StoreTypeInline,
			YAML:               string(v.YAML),
		}

		details, err := inspector.Details(ctx, v.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read git details of %s: %w", v.Path, err)
		}
		if details != nil {
			summary.GitDetails = details
			summary.StoreType = model.StoreTypeRemote
		}

		versions = append(versions, summary)
	}

	return versions, nil
}

// GetYAML returns the requested version, or the stable one when versionLabel is ""
func (c *DirClient) GetYAML(ctx context.Context, q Query, versionLabel string) (*YAMLResponse, error) {
	td, inspector, err := c.load(ctx, q)
	if err != nil {
		return nil, err
	}

	stable := td.StableVersion()
	if versionLabel == "" {
		versionLabel = stable
	}

	version, ok := td.VersionMap[versionLabel]
	if !ok {
		return nil, &Error{
			Status:  http.StatusNotFound,
			Code:    CodeNotFound,
			Message: fmt.Sprintf("template %s has no version %s", td.Identifier, versionLabel),
		}
	}

	name := td.Metadata.Name
	if name == "" {
		name = td.Identifier
	}

	resp := &YAMLResponse{
		YAML:              string(version.YAML),
		Name:              name,
		Identifier:        td.Identifier,
		VersionLabel:      version.Label,
		Description:       td.Metadata.Description,
		Tags:              td.Metadata.Tags,
		Icon:              td.Metadata.Icon,
		OrgIdentifier:     q.OrgID,
		ProjectIdentifier: q.ProjectID,
		ChildType:         childType(version.YAML, td.Metadata.ChildType),
		StableTemplate:    version.Label == stable,
		StoreType:         model.StoreTypeInline,
	}

	details, err := inspector.Details(ctx, version.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read git details of %s: %w", version.Path, err)
	}
	if details != nil {
		resp.GitDetails = details
		resp.StoreType = model.StoreTypeRemote

		changed, err := inspector.IsFileChanged(ctx, version.Path)
		if err == nil {
			state := model.CacheStateValid
			if changed {
				state = model.CacheStateStale
			}
			resp.CacheResponseMetadata = &model.CacheResponseMetadata{
				CacheState:    state,
				LastUpdatedAt: version.ModTime,
			}
		}
	}

	return resp, nil
}

// childType reads spec.type from raw YAML, falling back to the declared type
func childType(raw []byte, fallback string) string {
	var doc model.Document
	if err := yaml.Unmarshal(raw, &doc); err == nil {
		if t := doc.Type(); t != "" {
			return t
		}
	}
	return fallback
}
