package studio

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sourceplane/tmplstudio/internal/cache"
	"github.com/sourceplane/tmplstudio/internal/model"
	"github.com/sourceplane/tmplstudio/internal/remote"
	"github.com/sourceplane/tmplstudio/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchTemplateWithoutCache(t *testing.T) {
	client := newFakeRemote()
	h := newHarness()

	state := h.run(context.Background(), FetchTemplate(testDeps(nil, client), testParams, FetchOptions{}))

	assert.Equal(t, ErrDBNotInitialized, state.ErrorMessage)
	assert.False(t, state.IsLoading)
	assert.False(t, state.IsInitialized)
	assert.Equal(t, 0, client.callCount())
}

func TestFetchTemplateStoresBaseline(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	client := newFakeRemote()
	deps := testDeps(store, client)
	deps.Validator = schema.MustNewValidator()
	h := newHarness()

	state := h.run(ctx, FetchTemplate(deps, testParams, FetchOptions{}))

	assert.True(t, state.IsInitialized)
	assert.False(t, state.IsLoading)
	assert.Empty(t, state.ErrorMessage)
	assert.Equal(t, model.TemplateTypeStage, state.Template.Type())
	assert.False(t, CompareTemplates(state.Template, state.OriginalTemplate))
	assert.False(t, state.IsUpdated)
	assert.Equal(t, "v1", state.StableVersion)
	assert.Equal(t, "v2", state.LastPublishedVersion)
	assert.Equal(t, "Deploy", state.TemplateMetadata.Name)
	assert.True(t, state.EntityValidityDetails.Valid)
	assert.Len(t, state.Versions, 2)
	assert.Equal(t, []ActionType{ActionFetching, ActionSuccess, ActionInitialize}, h.log)

	entry, err := store.Get(ctx, state.Identity.CacheKey())
	require.NoError(t, err)
	require.NotNil(t, entry)
	if diff := cmp.Diff(state.Template, entry.Template); diff != "" {
		t.Errorf("cached template mismatch (-state +cache):\n%s", diff)
	}
}

func TestFetchTemplateServesCacheWithoutRemote(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	client := newFakeRemote()
	deps := testDeps(store, client)

	newHarness().run(ctx, FetchTemplate(deps, testParams, FetchOptions{}))
	calls := client.callCount()

	state := newHarness().run(ctx, FetchTemplate(deps, testParams, FetchOptions{}))
	assert.Equal(t, calls, client.callCount())
	assert.True(t, state.IsInitialized)
	assert.Equal(t, model.TemplateTypeStage, state.Template.Type())
}

func TestFetchNewTemplateNeverCallsRemote(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	client := newFakeRemote()
	deps := testDeps(store, client)

	params := testParams
	params.TemplateIdentifier = model.NewTemplateIdentifier
	params.VersionLabel = ""
	params.TemplateType = model.TemplateTypePipeline

	state := newHarness().run(ctx, FetchTemplate(deps, params, FetchOptions{ForceFetch: true}))

	assert.Equal(t, 0, client.callCount())
	assert.True(t, state.IsInitialized)
	assert.Equal(t, model.DefaultDocument(model.TemplateTypePipeline), state.Template)

	entry, err := store.Get(ctx, state.Identity.DraftKey())
	require.NoError(t, err)
	require.NotNil(t, entry)

	// The draft is served again, including local edits
	edited := entry.Template.Clone()
	edited.Set("spec.description", "draft")
	entry.Template = edited
	require.NoError(t, store.Put(ctx, entry))

	state = newHarness().run(ctx, FetchTemplate(deps, params, FetchOptions{}))
	assert.Equal(t, 0, client.callCount())
	got, ok := state.Template.Lookup("spec.description")
	require.True(t, ok)
	assert.Equal(t, "draft", got)
}

func TestFetchTemplateMalformedYAML(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	client := newFakeRemote()
	client.setYAML("v1", "template:\n  invalid: [")
	h := newHarness()

	state := h.run(ctx, FetchTemplate(testDeps(store, client), testParams, FetchOptions{}))

	assert.True(t, state.IsInitialized)
	assert.Empty(t, state.ErrorMessage)
	assert.Equal(t, model.DefaultDocument(model.TemplateTypeStage), state.Template)
	assert.False(t, state.EntityValidityDetails.Valid)
	assert.Equal(t, "template:\n  invalid: [", state.EntityValidityDetails.InvalidYAML)
	assert.NotEmpty(t, state.TemplateYAMLError)
}

func TestFetchTemplateSchemaViolationKeepsDocument(t *testing.T) {
	client := newFakeRemote()
	client.setYAML("v1", "version: 1\nkind: template\nspec:\n  spec: {}\n")
	deps := testDeps(cache.NewMemoryStore(), client)
	deps.Validator = schema.MustNewValidator()

	state := newHarness().run(context.Background(), FetchTemplate(deps, testParams, FetchOptions{}))

	assert.True(t, state.IsInitialized)
	assert.False(t, state.EntityValidityDetails.Valid)
	assert.NotEmpty(t, state.EntityValidityDetails.ErrorMessages)
	assert.Empty(t, state.TemplateYAMLError)
	assert.Equal(t, "", state.Template.Type())
}

func TestFetchTemplateReconcilesLocalEdits(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	client := newFakeRemote()
	deps := testDeps(store, client)
	h := newHarness()

	h.run(ctx, FetchTemplate(deps, testParams, FetchOptions{}))

	edited := h.getState().Template.Clone()
	edited.Set("spec.timeout", "5m")
	state := h.run(ctx, UpdateTemplate(deps, Replace(edited)))
	require.True(t, state.IsUpdated)

	// Someone publishes a change to v1
	client.setYAML("v1", "version: 1\nkind: template\nspec:\n  type: Stage\n  spec:\n    timeout: 30m\n")

	state = h.run(ctx, FetchTemplate(deps, testParams, FetchOptions{ForceFetch: true}))
	timeout, _ := state.Template.Lookup("spec.timeout")
	assert.Equal(t, "5m", timeout)
	assert.True(t, state.IsUpdated)
	assert.True(t, state.IsBETemplateUpdated)

	state = h.run(ctx, FetchTemplate(deps, testParams, FetchOptions{ForceFetch: true, ForceUpdate: true}))
	timeout, _ = state.Template.Lookup("spec.timeout")
	assert.Equal(t, "30m", timeout)
	assert.False(t, state.IsUpdated)
	assert.False(t, state.IsBETemplateUpdated)

	entry, err := store.Get(ctx, state.Identity.CacheKey())
	require.NoError(t, err)
	assert.False(t, CompareTemplates(entry.OriginalTemplate, entry.Template))
}

func TestFetchTemplateRecoverableError(t *testing.T) {
	client := newFakeRemote()
	client.yamlErr = &remote.Error{Status: 400, Code: "SCM_BAD_REQUEST", Message: "branch not found"}
	store := cache.NewMemoryStore()

	state := newHarness().run(context.Background(), FetchTemplate(testDeps(store, client), testParams, FetchOptions{}))

	assert.True(t, state.IsInitialized)
	assert.Empty(t, state.ErrorMessage)
	assert.Equal(t, FetchError{Status: 400, Code: "SCM_BAD_REQUEST", Message: "branch not found"}, state.RemoteFetchError)
	timeout, ok := state.Template.Lookup("spec.timeout")
	require.True(t, ok)
	assert.Equal(t, "10m", timeout)
	assert.Len(t, state.Versions, 2)

	// Partial renders are not persisted
	entry, err := store.Get(context.Background(), state.Identity.CacheKey())
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestFetchTemplateGenericError(t *testing.T) {
	client := newFakeRemote()
	client.listErr = errors.New("connection refused")
	h := newHarness()

	state := h.run(context.Background(), FetchTemplate(testDeps(cache.NewMemoryStore(), client), testParams, FetchOptions{}))

	assert.Contains(t, state.ErrorMessage, "connection refused")
	assert.False(t, state.IsLoading)
	assert.False(t, state.IsInitialized)
	assert.Equal(t, []ActionType{ActionFetching, ActionError}, h.log)
}

func TestFetchTemplateCancelledIsSilent(t *testing.T) {
	client := newFakeRemote()
	client.getYAML = func(ctx context.Context, versionLabel string) (*remote.YAMLResponse, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := newHarness()

	state := h.run(ctx, FetchTemplate(testDeps(cache.NewMemoryStore(), client), testParams, FetchOptions{}))

	assert.Equal(t, []ActionType{ActionFetching}, h.log)
	assert.Empty(t, state.ErrorMessage)
	assert.True(t, state.IsLoading)
}

func TestRapidForceFetchKeepsLatest(t *testing.T) {
	store := cache.NewMemoryStore()
	client := newFakeRemote()
	deps := testDeps(store, client)

	started := make(chan struct{})
	release := make(chan struct{})
	client.getYAML = func(ctx context.Context, versionLabel string) (*remote.YAMLResponse, error) {
		close(started)
		<-release
		return &remote.YAMLResponse{YAML: stageV1YAML, VersionLabel: "v1", Identifier: "deploy"}, nil
	}

	first, cancelFirst := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		newHarness().run(first, FetchTemplate(deps, testParams, FetchOptions{ForceFetch: true}))
	}()

	<-started
	cancelFirst()

	client.mu.Lock()
	client.getYAML = nil
	client.yaml["v1"] = stageV2YAML
	client.mu.Unlock()

	state := newHarness().run(context.Background(), FetchTemplate(deps, testParams, FetchOptions{ForceFetch: true}))
	close(release)
	<-done

	entry, err := store.Get(context.Background(), state.Identity.CacheKey())
	require.NoError(t, err)
	require.NotNil(t, entry)
	timeout, _ := entry.Template.Lookup("spec.timeout")
	assert.Equal(t, "20m", timeout)
}

func TestFetchTemplateUsesOptionCoordinates(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	params := testParams
	params.GitDetails = model.GitDetails{RepoName: "templates", Branch: "main"}

	state := newHarness().run(ctx, FetchTemplate(testDeps(store, newFakeRemote()), params, FetchOptions{Branch: "feature"}))

	assert.Equal(t, "feature", state.Identity.Branch)
	assert.Equal(t, "templates", state.Identity.RepoName)
	assert.Equal(t, []string{"acc_org_proj_deploy_v1_templates_feature"}, store.Keys())
}
