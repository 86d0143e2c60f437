package studio

import (
	"context"

	"github.com/sourceplane/tmplstudio/internal/cache"
	"github.com/sourceplane/tmplstudio/internal/model"
	"github.com/sourceplane/tmplstudio/internal/remote"
	"github.com/sourceplane/tmplstudio/internal/schema"
	"go.uber.org/zap"
)

// Dispatch applies an action to the session state
type Dispatch func(Action)

// GetState returns the current state snapshot
type GetState func() State

// Thunk is an asynchronous coordinator. It reports every outcome through
// dispatch and never returns an error to its caller.
type Thunk func(ctx context.Context, dispatch Dispatch, getState GetState)

// Deps are the collaborators thunks call. A nil Cache means the cache
// layer is not initialized yet.
type Deps struct {
	Cache     cache.Store
	Remote    remote.Client
	Validator *schema.Validator
	Locks     *cache.KeyedMutex
	Logger    *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// lock serializes read-modify-write on key; without shared locks it is a no-op
func (d Deps) lock(key string) func() {
	if d.Locks == nil {
		return func() {}
	}
	return d.Locks.Lock(key)
}

func (d Deps) lockPair(a, b string) func() {
	if d.Locks == nil {
		return func() {}
	}
	return d.Locks.LockPair(a, b)
}

// FetchParams identifies the template to fetch
type FetchParams struct {
	AccountID          string
	OrgID              string
	ProjectID          string
	TemplateIdentifier string
	VersionLabel       string
	GitDetails         model.GitDetails
	TemplateType       string // child type used for default documents
}

// FetchOptions are transient per-fetch switches
type FetchOptions struct {
	ForceFetch    bool // ignore an existing cache entry and call the remote
	ForceUpdate   bool // overwrite the cached document with the fetched one
	LoadFromCache bool // let the remote serve from its own git cache
	RepoName      string
	Branch        string
}

// identity resolves the cache identity; option coordinates win over git details
func (p FetchParams) identity(opts FetchOptions) model.Identity {
	repo := opts.RepoName
	if repo == "" {
		repo = p.GitDetails.RepoName
	}
	branch := opts.Branch
	if branch == "" {
		branch = p.GitDetails.Branch
	}
	id := model.Identity{
		AccountID:          p.AccountID,
		OrgID:              p.OrgID,
		ProjectID:          p.ProjectID,
		TemplateIdentifier: p.TemplateIdentifier,
		VersionLabel:       p.VersionLabel,
		RepoName:           repo,
		Branch:             branch,
	}
	// a draft has one slot per git coordinates whatever label it is given
	if id.IsNew() {
		id.VersionLabel = ""
	}
	return id
}

func (p FetchParams) query(id model.Identity, opts FetchOptions) remote.Query {
	return remote.Query{
		AccountID:          id.AccountID,
		OrgID:              id.OrgID,
		ProjectID:          id.ProjectID,
		TemplateIdentifier: id.TemplateIdentifier,
		RepoName:           id.RepoName,
		Branch:             id.Branch,
		LoadFromCache:      opts.LoadFromCache,
	}
}
