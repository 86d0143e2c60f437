package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sourceplane/tmplstudio/internal/model"
)

// Query scopes a template read
type Query struct {
	AccountID          string
	OrgID              string
	ProjectID          string
	TemplateIdentifier string
	RepoName           string
	Branch             string
	LoadFromCache      bool
}

// YAMLResponse is the body returned for one template version
type YAMLResponse struct {
	YAML                  string                       `json:"yaml"`
	Name                  string                       `json:"name"`
	Identifier            string                       `json:"identifier"`
	VersionLabel          string                       `json:"versionLabel"`
	Description           string                       `json:"description,omitempty"`
	Tags                  map[string]string            `json:"tags,omitempty"`
	Icon                  string                       `json:"icon,omitempty"`
	OrgIdentifier         string                       `json:"orgIdentifier,omitempty"`
	ProjectIdentifier     string                       `json:"projectIdentifier,omitempty"`
	ChildType             string                       `json:"childType,omitempty"`
	StableTemplate        bool                         `json:"stableTemplate"`
	StoreType             string                       `json:"storeType,omitempty"`
	ConnectorRef          string                       `json:"connectorRef,omitempty"`
	GitDetails            *model.GitDetails            `json:"gitDetails,omitempty"`
	EntityValidityDetails *model.EntityValidityDetails `json:"entityValidityDetails,omitempty"`
	CacheResponseMetadata *model.CacheResponseMetadata `json:"cacheResponseMetadata,omitempty"`
}

// Metadata extracts the descriptive fields of the response
func (r *YAMLResponse) Metadata() model.Metadata {
	return model.Metadata{
		Name:              r.Name,
		Identifier:        r.Identifier,
		VersionLabel:      r.VersionLabel,
		Description:       r.Description,
		Tags:              r.Tags,
		Icon:              r.Icon,
		OrgIdentifier:     r.OrgIdentifier,
		ProjectIdentifier: r.ProjectIdentifier,
	}
}

// Client is the remote template read API.
// GetYAML with an empty versionLabel returns the stable version.
type Client interface {
	ListVersions(ctx context.Context, q Query) ([]model.VersionSummary, error)
	GetYAML(ctx context.Context, q Query, versionLabel string) (*YAMLResponse, error)
}

// Error codes reported by the template service
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInvalidYAML    = "INVALID_YAML"
	CodeHint           = "HINT"
	CodeNotFound       = "RESOURCE_NOT_FOUND"
	CodeSCMPrefix      = "SCM_"
)

// Error is a failed call to the template service
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("template service error %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("template service error %d: %s", e.Status, e.Message)
}

// Recoverable reports whether the error describes a content problem the
// studio can still render around (bad request, SCM failure, schema hint)
func (e *Error) Recoverable() bool {
	switch {
	case e.Status == http.StatusBadRequest:
		return true
	case e.Code == CodeInvalidRequest, e.Code == CodeInvalidYAML, e.Code == CodeHint:
		return true
	case strings.HasPrefix(e.Code, CodeSCMPrefix):
		return true
	}
	return false
}

// IsRecoverable reports whether err wraps a recoverable *Error
func IsRecoverable(err error) bool {
	var remoteErr *Error
	if errors.As(err, &remoteErr) {
		return remoteErr.Recoverable()
	}
	return false
}
