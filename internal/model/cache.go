package model

import (
	"strings"
)

// NewTemplateIdentifier marks a template that has not been saved yet
const NewTemplateIdentifier = "new_template"

// Identity addresses one editing session's template
type Identity struct {
	AccountID          string `yaml:"accountId" json:"accountId"`
	OrgID              string `yaml:"orgId,omitempty" json:"orgId,omitempty"`
	ProjectID          string `yaml:"projectId,omitempty" json:"projectId,omitempty"`
	TemplateIdentifier string `yaml:"templateIdentifier" json:"templateIdentifier"`
	VersionLabel       string `yaml:"versionLabel,omitempty" json:"versionLabel,omitempty"`
	RepoName           string `yaml:"repoName,omitempty" json:"repoName,omitempty"`
	Branch             string `yaml:"branch,omitempty" json:"branch,omitempty"`
}

// IsNew reports whether the identity points at an unsaved template
func (id Identity) IsNew() bool {
	return id.TemplateIdentifier == NewTemplateIdentifier
}

// CacheKey is the composite key of the versioned cache entry
func (id Identity) CacheKey() string {
	return strings.Join([]string{
		id.AccountID,
		id.OrgID,
		id.ProjectID,
		id.TemplateIdentifier,
		id.VersionLabel,
		id.RepoName,
		id.Branch,
	}, "_")
}

// DraftKey is the key of the unsaved-template placeholder for the same git coordinates
func (id Identity) DraftKey() string {
	draft := id
	draft.TemplateIdentifier = NewTemplateIdentifier
	draft.VersionLabel = ""
	return draft.CacheKey()
}

// WithGit returns a copy of the identity moved to other git coordinates
func (id Identity) WithGit(repoName, branch string) Identity {
	id.RepoName = repoName
	id.Branch = branch
	return id
}

// CacheEntry is the persisted snapshot of an editing session
type CacheEntry struct {
	Identifier               string                 `json:"identifier"`
	Template                 Document               `json:"template"`
	TemplateMetadata         Metadata               `json:"templateMetadata"`
	OriginalTemplate         Document               `json:"originalTemplate"`
	OriginalTemplateMetadata Metadata               `json:"originalTemplateMetadata"`
	Versions                 []VersionSummary       `json:"versions,omitempty"`
	StableVersion            string                 `json:"stableVersion,omitempty"`
	LastPublishedVersion     string                 `json:"lastPublishedVersion,omitempty"`
	IsUpdated                bool                   `json:"isUpdated"`
	IsUpdatedMetadata        bool                   `json:"isUpdatedMetadata"`
	GitDetails               GitDetails             `json:"gitDetails"`
	StoreMetadata            StoreMetadata          `json:"storeMetadata"`
	EntityValidityDetails    EntityValidityDetails  `json:"entityValidityDetails"`
	CacheResponseMetadata    *CacheResponseMetadata `json:"cacheResponseMetadata,omitempty"`
	TemplateYAML             string                 `json:"templateYaml,omitempty"`
}

// Clone returns a deep copy of the entry
func (e *CacheEntry) Clone() *CacheEntry {
	if e == nil {
		return nil
	}
	out := *e
	out.Template = e.Template.Clone()
	out.OriginalTemplate = e.OriginalTemplate.Clone()
	out.TemplateMetadata = e.TemplateMetadata.Clone()
	out.OriginalTemplateMetadata = e.OriginalTemplateMetadata.Clone()
	if e.Versions != nil {
		out.Versions = append([]VersionSummary(nil), e.Versions...)
	}
	if e.EntityValidityDetails.ErrorMessages != nil {
		out.EntityValidityDetails.ErrorMessages = append([]string(nil), e.EntityValidityDetails.ErrorMessages...)
	}
	if e.CacheResponseMetadata != nil {
		crm := *e.CacheResponseMetadata
		out.CacheResponseMetadata = &crm
	}
	return &out
}
