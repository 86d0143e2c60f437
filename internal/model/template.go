package model

import (
	"encoding/json"
	"strings"
)

// Template entity (child) types
const (
	TemplateTypeStep             = "Step"
	TemplateTypeStage            = "Stage"
	TemplateTypePipeline         = "Pipeline"
	TemplateTypeStepGroup        = "StepGroup"
	TemplateTypeCustomDeployment = "CustomDeployment"
)

// DocumentVersion is the structural version of v1 template documents
const DocumentVersion = 1

// DocumentKind is the kind carried by every template document
const DocumentKind = "template"

// Document is a versioned template body: {version, kind, spec}.
// spec.type discriminates the template's child type.
type Document struct {
	Version int                    `yaml:"version" json:"version"`
	Kind    string                 `yaml:"kind" json:"kind"`
	Spec    map[string]interface{} `yaml:"spec" json:"spec"`
}

// DefaultDocument returns the minimal valid document for a child type
func DefaultDocument(childType string) Document {
	if childType == "" {
		childType = TemplateTypeStep
	}
	return Document{
		Version: DocumentVersion,
		Kind:    DocumentKind,
		Spec: map[string]interface{}{
			"type": childType,
			"spec": map[string]interface{}{},
		},
	}
}

// Type returns spec.type, or "" when it is absent
func (d Document) Type() string {
	if d.Spec == nil {
		return ""
	}
	t, _ := d.Spec["type"].(string)
	return t
}

// IsZero reports whether the document carries no content at all
func (d Document) IsZero() bool {
	return d.Version == 0 && d.Kind == "" && len(d.Spec) == 0
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	return Document{
		Version: d.Version,
		Kind:    d.Kind,
		Spec:    cloneMap(d.Spec),
	}
}

// Lookup returns the value at a dotted path inside spec (e.g. "spec.timeout")
func (d Document) Lookup(path string) (interface{}, bool) {
	var current interface{} = d.Spec
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set assigns a value at a dotted path inside spec, creating maps on the way
func (d *Document) Set(path string, value interface{}) {
	if d.Spec == nil {
		d.Spec = make(map[string]interface{})
	}
	parts := strings.Split(path, ".")
	current := d.Spec
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

// Metadata holds the descriptive fields of a template
type Metadata struct {
	Name              string            `yaml:"name" json:"name"`
	Identifier        string            `yaml:"identifier" json:"identifier"`
	VersionLabel      string            `yaml:"versionLabel" json:"versionLabel"`
	Description       string            `yaml:"description,omitempty" json:"description,omitempty"`
	Tags              map[string]string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Icon              string            `yaml:"icon,omitempty" json:"icon,omitempty"`
	OrgIdentifier     string            `yaml:"orgIdentifier,omitempty" json:"orgIdentifier,omitempty"`
	ProjectIdentifier string            `yaml:"projectIdentifier,omitempty" json:"projectIdentifier,omitempty"`
}

// Clone returns a deep copy of the metadata
func (m Metadata) Clone() Metadata {
	out := m
	if m.Tags != nil {
		out.Tags = make(map[string]string, len(m.Tags))
		for k, v := range m.Tags {
			out.Tags[k] = v
		}
	}
	return out
}

// Store types
const (
	StoreTypeInline = "INLINE"
	StoreTypeRemote = "REMOTE"
)

// GitDetails locates a template backed by a file in a git repository
type GitDetails struct {
	RepoIdentifier string `yaml:"repoIdentifier,omitempty" json:"repoIdentifier,omitempty"`
	RepoName       string `yaml:"repoName,omitempty" json:"repoName,omitempty"`
	Branch         string `yaml:"branch,omitempty" json:"branch,omitempty"`
	FilePath       string `yaml:"filePath,omitempty" json:"filePath,omitempty"`
	RootFolder     string `yaml:"rootFolder,omitempty" json:"rootFolder,omitempty"`
	CommitID       string `yaml:"commitId,omitempty" json:"commitId,omitempty"`
	ObjectID       string `yaml:"objectId,omitempty" json:"objectId,omitempty"`
	FileURL        string `yaml:"fileUrl,omitempty" json:"fileUrl,omitempty"`
	RepoURL        string `yaml:"repoUrl,omitempty" json:"repoUrl,omitempty"`
}

// StoreMetadata describes where the template's source of truth lives
type StoreMetadata struct {
	StoreType    string `yaml:"storeType,omitempty" json:"storeType,omitempty"` // INLINE, REMOTE
	ConnectorRef string `yaml:"connectorRef,omitempty" json:"connectorRef,omitempty"`
	RepoName     string `yaml:"repoName,omitempty" json:"repoName,omitempty"`
	Branch       string `yaml:"branch,omitempty" json:"branch,omitempty"`
	FilePath     string `yaml:"filePath,omitempty" json:"filePath,omitempty"`
}

// EntityValidityDetails reports whether the stored YAML is a usable template
type EntityValidityDetails struct {
	Valid         bool     `yaml:"valid" json:"valid"`
	InvalidYAML   string   `yaml:"invalidYaml,omitempty" json:"invalidYaml,omitempty"`
	ErrorMessages []string `yaml:"errorMessages,omitempty" json:"errorMessages,omitempty"`
}

// Cache states reported by the remote for git-backed entities
const (
	CacheStateValid   = "VALID_CACHE"
	CacheStateStale   = "STALE_CACHE"
	CacheStateUnknown = "UNKNOWN"
)

// CacheResponseMetadata describes the remote's own git cache for a response
type CacheResponseMetadata struct {
	CacheState    string `yaml:"cacheState,omitempty" json:"cacheState,omitempty"`
	TTLLeft       int64  `yaml:"ttlLeft,omitempty" json:"ttlLeft,omitempty"`
	LastUpdatedAt int64  `yaml:"lastUpdatedAt,omitempty" json:"lastUpdatedAt,omitempty"`
	IsSyncEnabled bool   `yaml:"isSyncEnabled,omitempty" json:"isSyncEnabled,omitempty"`
}

// VersionSummary is one entry of a template's version list
type VersionSummary struct {
	VersionLabel       string      `yaml:"versionLabel" json:"versionLabel"`
	Name               string      `yaml:"name,omitempty" json:"name,omitempty"`
	StableTemplate     bool        `yaml:"stableTemplate" json:"stableTemplate"`
	CreatedAt          int64       `yaml:"createdAt,omitempty" json:"createdAt,omitempty"`
	LastUpdatedAt      int64       `yaml:"lastUpdatedAt,omitempty" json:"lastUpdatedAt,omitempty"`
	ChildType          string      `yaml:"childType,omitempty" json:"childType,omitempty"`
	TemplateEntityType string      `yaml:"templateEntityType,omitempty" json:"templateEntityType,omitempty"`
	GitDetails         *GitDetails `yaml:"gitDetails,omitempty" json:"gitDetails,omitempty"`
	StoreType          string      `yaml:"storeType,omitempty" json:"storeType,omitempty"`
	ConnectorRef       string      `yaml:"connectorRef,omitempty" json:"connectorRef,omitempty"`
	YAML               string      `yaml:"yaml,omitempty" json:"yaml,omitempty"`
}

// StableVersion returns the label of the version flagged stable, or ""
func StableVersion(versions []VersionSummary) string {
	for _, v := range versions {
		if v.StableTemplate {
			return v.VersionLabel
		}
	}
	return ""
}

// LastPublishedVersion returns the label of the most recently created version
func LastPublishedVersion(versions []VersionSummary) string {
	var latest *VersionSummary
	for i := range versions {
		if latest == nil || versions[i].CreatedAt > latest.CreatedAt {
			latest = &versions[i]
		}
	}
	if latest == nil {
		return ""
	}
	return latest.VersionLabel
}

// FindVersion selects the version matching label, falling back to the stable one
func FindVersion(versions []VersionSummary, label string) (VersionSummary, bool) {
	if label != "" {
		for _, v := range versions {
			if v.VersionLabel == label {
				return v, true
			}
		}
	}
	for _, v := range versions {
		if v.StableTemplate {
			return v, true
		}
	}
	return VersionSummary{}, false
}

// cloneMap deep-copies a YAML/JSON-shaped map
func cloneMap(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return cloneMap(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case map[interface{}]interface{}:
		// yaml.v3 only yields these for non-string keys; fall back to JSON
		data, err := json.Marshal(stringifyKeys(val))
		if err != nil {
			return val
		}
		var out interface{}
		if err := json.Unmarshal(data, &out); err != nil {
			return val
		}
		return out
	default:
		return val
	}
}

func stringifyKeys(in map[interface{}]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		key, ok := k.(string)
		if !ok {
			data, _ := json.Marshal(k)
			key = string(data)
		}
		if nested, ok := v.(map[interface{}]interface{}); ok {
			out[key] = stringifyKeys(nested)
		} else {
			out[key] = v
		}
	}
	return out
}
