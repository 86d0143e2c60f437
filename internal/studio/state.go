package studio

import (
	"github.com/sourceplane/tmplstudio/internal/model"
)

// ErrDBNotInitialized is reported when a fetch runs before the cache is ready
const ErrDBNotInitialized = "DB is not initialized"

// TemplateView is UI-only view state carried for consumers
type TemplateView struct {
	IsYAMLEditable bool   `json:"isYamlEditable" yaml:"isYamlEditable"`
	IsDrawerOpened bool   `json:"isDrawerOpened" yaml:"isDrawerOpened"`
	DrawerType     string `json:"drawerType,omitempty" yaml:"drawerType,omitempty"`
	Mode           string `json:"mode,omitempty" yaml:"mode,omitempty"` // VISUAL, YAML
}

// YAMLHandler gives the session access to a consumer's YAML editor
type YAMLHandler interface {
	LatestYAML() string
	Errors() map[string][]string
}

// FetchError is a recoverable remote error attached to a partially rendered template
type FetchError struct {
	Status  int    `json:"status,omitempty" yaml:"status,omitempty"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// IsZero reports whether no error is attached
func (e FetchError) IsZero() bool {
	return e == FetchError{}
}

// State is the live snapshot of one editing session
type State struct {
	Identity                 model.Identity              `json:"identity" yaml:"identity"`
	TemplateIdentifier       string                      `json:"templateIdentifier" yaml:"templateIdentifier"`
	Template                 model.Document              `json:"template" yaml:"template"`
	OriginalTemplate         model.Document              `json:"originalTemplate" yaml:"originalTemplate"`
	TemplateMetadata         model.Metadata              `json:"templateMetadata" yaml:"templateMetadata"`
	OriginalTemplateMetadata model.Metadata              `json:"originalTemplateMetadata" yaml:"originalTemplateMetadata"`
	TemplateYAML             string                      `json:"templateYaml,omitempty" yaml:"templateYaml,omitempty"`
	Versions                 []model.VersionSummary      `json:"versions,omitempty" yaml:"versions,omitempty"`
	StableVersion            string                      `json:"stableVersion,omitempty" yaml:"stableVersion,omitempty"`
	LastPublishedVersion     string                      `json:"lastPublishedVersion,omitempty" yaml:"lastPublishedVersion,omitempty"`
	GitDetails               model.GitDetails            `json:"gitDetails" yaml:"gitDetails"`
	StoreMetadata            model.StoreMetadata         `json:"storeMetadata" yaml:"storeMetadata"`
	EntityValidityDetails    model.EntityValidityDetails `json:"entityValidityDetails" yaml:"entityValidityDetails"`
	CacheResponseMetadata    model.CacheResponseMetadata `json:"cacheResponseMetadata" yaml:"cacheResponseMetadata"`

	IsUpdated           bool `json:"isUpdated" yaml:"isUpdated"`
	IsUpdatedMetadata   bool `json:"isUpdatedMetadata" yaml:"isUpdatedMetadata"`
	IsBETemplateUpdated bool `json:"isBETemplateUpdated" yaml:"isBETemplateUpdated"`

	IsLoading                bool `json:"isLoading" yaml:"isLoading"`
	IsIntermittentLoading    bool `json:"isIntermittentLoading" yaml:"isIntermittentLoading"`
	IsInitialized            bool `json:"isInitialized" yaml:"isInitialized"`
	IsDBInitialized          bool `json:"isDBInitialized" yaml:"isDBInitialized"`
	IsDBInitializationFailed bool `json:"isDBInitializationFailed" yaml:"isDBInitializationFailed"`

	TemplateView      TemplateView `json:"templateView" yaml:"templateView"`
	YAMLHandler       YAMLHandler  `json:"-" yaml:"-"`
	TemplateYAMLError string       `json:"templateYamlError,omitempty" yaml:"templateYamlError,omitempty"`
	RemoteFetchError  FetchError   `json:"remoteFetchError,omitempty" yaml:"remoteFetchError,omitempty"`
	ErrorMessage      string       `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty"`
}

// InitialState is the state of a freshly mounted session
func InitialState() State {
	return State{
		IsLoading: true,
		Template:  model.DefaultDocument(model.TemplateTypeStep),
	}
}

// Clone returns a deep copy that callers may modify freely
func (s State) Clone() State {
	out := s
	out.Template = s.Template.Clone()
	out.OriginalTemplate = s.OriginalTemplate.Clone()
	out.TemplateMetadata = s.TemplateMetadata.Clone()
	out.OriginalTemplateMetadata = s.OriginalTemplateMetadata.Clone()
	if s.Versions != nil {
		out.Versions = append([]model.VersionSummary(nil), s.Versions...)
	}
	if s.EntityValidityDetails.ErrorMessages != nil {
		out.EntityValidityDetails.ErrorMessages = append([]string(nil), s.EntityValidityDetails.ErrorMessages...)
	}
	return out
}

// StatePatch is the response carried by an action. Nil fields are left untouched.
type StatePatch struct {
	Identity                 *model.Identity
	TemplateIdentifier       *string
	Template                 *model.Document
	OriginalTemplate         *model.Document
	TemplateMetadata         *model.Metadata
	OriginalTemplateMetadata *model.Metadata
	TemplateYAML             *string
	Versions                 *[]model.VersionSummary
	StableVersion            *string
	LastPublishedVersion     *string
	GitDetails               *model.GitDetails
	StoreMetadata            *model.StoreMetadata
	EntityValidityDetails    *model.EntityValidityDetails
	CacheResponseMetadata    *model.CacheResponseMetadata

	IsUpdated           *bool
	IsUpdatedMetadata   *bool
	IsBETemplateUpdated *bool

	IsLoading             *bool
	IsIntermittentLoading *bool
	IsInitialized         *bool

	TemplateView      *TemplateView
	YAMLHandler       YAMLHandler
	TemplateYAMLError *string
	RemoteFetchError  *FetchError
	ErrorMessage      *string
}

func ptr[T any](v T) *T {
	return &v
}

// merge shallow-merges every set field of p into s
func merge(s State, p StatePatch) State {
	if p.Identity != nil {
		s.Identity = *p.Identity
	}
	if p.TemplateIdentifier != nil {
		s.TemplateIdentifier = *p.TemplateIdentifier
	}
	if p.Template != nil {
		s.Template = *p.Template
	}
	if p.OriginalTemplate != nil {
		s.OriginalTemplate = *p.OriginalTemplate
	}
	if p.TemplateMetadata != nil {
		s.TemplateMetadata = *p.TemplateMetadata
	}
	if p.OriginalTemplateMetadata != nil {
		s.OriginalTemplateMetadata = *p.OriginalTemplateMetadata
	}
	if p.TemplateYAML != nil {
		s.TemplateYAML = *p.TemplateYAML
	}
	if p.Versions != nil {
		s.Versions = *p.Versions
	}
	if p.StableVersion != nil {
		s.StableVersion = *p.StableVersion
	}
	if p.LastPublishedVersion != nil {
		s.LastPublishedVersion = *p.LastPublishedVersion
	}
	if p.GitDetails != nil {
		s.GitDetails = *p.GitDetails
	}
	if p.StoreMetadata != nil {
		s.StoreMetadata = *p.StoreMetadata
	}
	if p.EntityValidityDetails != nil {
		s.EntityValidityDetails = *p.EntityValidityDetails
	}
	if p.CacheResponseMetadata != nil {
		s.CacheResponseMetadata = *p.CacheResponseMetadata
	}
	if p.IsUpdated != nil {
		s.IsUpdated = *p.IsUpdated
	}
	if p.IsUpdatedMetadata != nil {
		s.IsUpdatedMetadata = *p.IsUpdatedMetadata
	}
	if p.IsBETemplateUpdated != nil {
		s.IsBETemplateUpdated = *p.IsBETemplateUpdated
	}
	if p.IsLoading != nil {
		s.IsLoading = *p.IsLoading
	}
	if p.IsIntermittentLoading != nil {
		s.IsIntermittentLoading = *p.IsIntermittentLoading
	}
	if p.IsInitialized != nil {
		s.IsInitialized = *p.IsInitialized
	}
	if p.TemplateView != nil {
		s.TemplateView = *p.TemplateView
	}
	if p.YAMLHandler != nil {
		s.YAMLHandler = p.YAMLHandler
	}
	if p.TemplateYAMLError != nil {
		s.TemplateYAMLError = *p.TemplateYAMLError
	}
	if p.RemoteFetchError != nil {
		s.RemoteFetchError = *p.RemoteFetchError
	}
	if p.ErrorMessage != nil {
		s.ErrorMessage = *p.ErrorMessage
	}
	return s
}

// entryPatch builds the full state slice for a cache entry
func entryPatch(id model.Identity, entry *model.CacheEntry) StatePatch {
	crm := model.CacheResponseMetadata{}
	if entry.CacheResponseMetadata != nil {
		crm = *entry.CacheResponseMetadata
	}
	versions := entry.Versions
	return StatePatch{
		Identity:                 &id,
		TemplateIdentifier:       ptr(id.TemplateIdentifier),
		Template:                 ptr(entry.Template.Clone()),
		OriginalTemplate:         ptr(entry.OriginalTemplate.Clone()),
		TemplateMetadata:         ptr(entry.TemplateMetadata.Clone()),
		OriginalTemplateMetadata: ptr(entry.OriginalTemplateMetadata.Clone()),
		TemplateYAML:             ptr(entry.TemplateYAML),
		Versions:                 &versions,
		StableVersion:            ptr(entry.StableVersion),
		LastPublishedVersion:     ptr(entry.LastPublishedVersion),
		GitDetails:               ptr(entry.GitDetails),
		StoreMetadata:            ptr(entry.StoreMetadata),
		EntityValidityDetails:    ptr(entry.EntityValidityDetails),
		CacheResponseMetadata:    &crm,
		IsUpdated:                ptr(entry.IsUpdated),
		IsUpdatedMetadata:        ptr(entry.IsUpdatedMetadata),
		TemplateYAMLError:        ptr(""),
		RemoteFetchError:         &FetchError{},
		ErrorMessage:             ptr(""),
	}
}

// entryFromState rebuilds a cache entry from the live state
func entryFromState(key string, s State) *model.CacheEntry {
	entry := &model.CacheEntry{
		Identifier:               key,
		Template:                 s.Template.Clone(),
		TemplateMetadata:         s.TemplateMetadata.Clone(),
		OriginalTemplate:         s.OriginalTemplate.Clone(),
		OriginalTemplateMetadata: s.OriginalTemplateMetadata.Clone(),
		Versions:                 append([]model.VersionSummary(nil), s.Versions...),
		StableVersion:            s.StableVersion,
		LastPublishedVersion:     s.LastPublishedVersion,
		IsUpdated:                s.IsUpdated,
		IsUpdatedMetadata:        s.IsUpdatedMetadata,
		GitDetails:               s.GitDetails,
		StoreMetadata:            s.StoreMetadata,
		EntityValidityDetails:    s.EntityValidityDetails,
		TemplateYAML:             s.TemplateYAML,
	}
	if s.CacheResponseMetadata != (model.CacheResponseMetadata{}) {
		crm := s.CacheResponseMetadata
		entry.CacheResponseMetadata = &crm
	}
	return entry
}
