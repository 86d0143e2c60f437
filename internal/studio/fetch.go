package studio

import (
	"context"
	"errors"

	"github.com/sourceplane/tmplstudio/internal/model"
	"github.com/sourceplane/tmplstudio/internal/remote"
	"github.com/sourceplane/tmplstudio/internal/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// remoteResult is what one round-trip to the template service produced
type remoteResult struct {
	versions []model.VersionSummary
	yaml     *remote.YAMLResponse
}

// FetchTemplate loads a template into the session, reconciling the remote
// copy with any locally cached edits.
func FetchTemplate(deps Deps, params FetchParams, opts FetchOptions) Thunk {
	return func(ctx context.Context, dispatch Dispatch, getState GetState) {
		id := params.identity(opts)
		key := id.CacheKey()
		log := deps.logger().With(
			zap.String("template", id.TemplateIdentifier),
			zap.String("version", id.VersionLabel),
			zap.String("key", key),
		)

		if deps.Cache == nil {
			log.Debug("Fetch requested before cache initialization")
			dispatch(Success(StatePatch{ErrorMessage: ptr(ErrDBNotInitialized)}))
			return
		}

		dispatch(Fetching())

		cached, err := deps.Cache.Get(ctx, key)
		if err != nil {
			log.Warn("Cache read failed, continuing without cached entry", zap.Error(err))
			cached = nil
		}

		if id.IsNew() {
			fetchNewTemplate(ctx, deps, log, params, id, cached, dispatch)
			return
		}

		if cached != nil && !opts.ForceFetch {
			log.Debug("Serving template from cache")
			dispatch(Success(entryPatch(id, cached)))
			dispatch(Initialize())
			return
		}

		result, err := fetchRemote(ctx, deps, params.query(id, opts), id.VersionLabel)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				log.Debug("Fetch aborted", zap.Error(err))
				return
			}
			if remote.IsRecoverable(err) {
				log.Warn("Recoverable fetch error, rendering partial template", zap.Error(err))
				dispatch(Success(partialPatch(deps, params, id, result, err)))
				dispatch(Initialize())
				return
			}
			log.Error("Failed to fetch template", zap.Error(err))
			dispatch(Error(StatePatch{ErrorMessage: ptr(err.Error())}))
			return
		}

		fresh := buildEntry(deps, params, key, id, result)

		unlock := deps.lock(key)
		// Re-read under the lock so edits made during the fetch are kept
		current, err := deps.Cache.Get(ctx, key)
		if err != nil {
			log.Warn("Cache re-read failed", zap.Error(err))
			current = cached
		}

		entry := fresh
		beUpdated := false
		if current != nil && !opts.ForceUpdate {
			entry = reconcile(current, fresh)
			beUpdated = CompareTemplates(current.OriginalTemplate, fresh.Template)
		}

		if ctx.Err() != nil {
			unlock()
			log.Debug("Fetch aborted before cache write")
			return
		}
		if err := deps.Cache.Put(ctx, entry); err != nil {
			log.Warn("Failed to persist fetched template", zap.Error(err))
		}
		unlock()

		patch := entryPatch(id, entry)
		patch.IsBETemplateUpdated = &beUpdated
		if !entry.EntityValidityDetails.Valid && entry.EntityValidityDetails.InvalidYAML != "" {
			patch.TemplateYAMLError = ptr("template yaml could not be parsed")
		}
		dispatch(Success(patch))
		dispatch(Initialize())
	}
}

// fetchNewTemplate resolves an unsaved template without touching the remote
func fetchNewTemplate(ctx context.Context, deps Deps, log *zap.Logger, params FetchParams, id model.Identity, cached *model.CacheEntry, dispatch Dispatch) {
	if cached != nil {
		dispatch(Success(entryPatch(id, cached)))
		dispatch(Initialize())
		return
	}

	doc := model.DefaultDocument(params.TemplateType)
	meta := model.Metadata{
		Identifier:        model.NewTemplateIdentifier,
		VersionLabel:      params.VersionLabel,
		OrgIdentifier:     id.OrgID,
		ProjectIdentifier: id.ProjectID,
	}
	storeType := model.StoreTypeInline
	if params.GitDetails.RepoName != "" {
		storeType = model.StoreTypeRemote
	}
	entry := &model.CacheEntry{
		Identifier:               id.CacheKey(),
		Template:                 doc,
		OriginalTemplate:         doc.Clone(),
		TemplateMetadata:         meta,
		OriginalTemplateMetadata: meta.Clone(),
		GitDetails:               params.GitDetails,
		StoreMetadata: model.StoreMetadata{
			StoreType: storeType,
			RepoName:  id.RepoName,
			Branch:    id.Branch,
			FilePath:  params.GitDetails.FilePath,
		},
		EntityValidityDetails: model.EntityValidityDetails{Valid: true},
		TemplateYAML:          MarshalTemplateYAML(doc),
	}

	unlock := deps.lock(entry.Identifier)
	if err := deps.Cache.Put(ctx, entry); err != nil {
		log.Warn("Failed to persist new template draft", zap.Error(err))
	}
	unlock()

	dispatch(Success(entryPatch(id, entry)))
	dispatch(Initialize())
}

// fetchRemote lists versions and reads the YAML concurrently. A list
// failure cancels the YAML read; a YAML failure is returned with the list.
func fetchRemote(ctx context.Context, deps Deps, q remote.Query, versionLabel string) (*remoteResult, error) {
	if deps.Remote == nil {
		return nil, errors.New("no remote template client configured")
	}

	result := &remoteResult{}
	var yamlErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		versions, err := deps.Remote.ListVersions(gctx, q)
		if err != nil {
			return err
		}
		result.versions = versions
		return nil
	})
	g.Go(func() error {
		resp, err := deps.Remote.GetYAML(gctx, q, versionLabel)
		if err != nil {
			yamlErr = err
			return nil
		}
		result.yaml = resp
		return nil
	})

	if err := g.Wait(); err != nil {
		return result, err
	}
	if yamlErr != nil {
		return result, yamlErr
	}
	return result, nil
}

// childTypeFor picks the best-known child type for default documents
func childTypeFor(params FetchParams, version model.VersionSummary, resp *remote.YAMLResponse) string {
	if params.TemplateType != "" {
		return params.TemplateType
	}
	if resp != nil && resp.ChildType != "" {
		return resp.ChildType
	}
	if version.ChildType != "" {
		return version.ChildType
	}
	return model.TemplateTypeStep
}

// parseAndValidate decodes raw YAML and checks it against the template schema
func parseAndValidate(deps Deps, raw, childType string) (model.Document, model.EntityValidityDetails) {
	doc, err := ParseTemplateYAML(raw, childType)
	if err != nil {
		return doc, model.EntityValidityDetails{
			Valid:         false,
			InvalidYAML:   raw,
			ErrorMessages: []string{err.Error()},
		}
	}

	validity := model.EntityValidityDetails{Valid: true}
	if deps.Validator != nil {
		if err := deps.Validator.ValidateTemplate(doc); err != nil {
			validity.Valid = false
			validity.ErrorMessages = schema.Messages(err)
		}
	}
	return doc, validity
}

// buildEntry turns a successful remote result into a fresh cache baseline
func buildEntry(deps Deps, params FetchParams, key string, id model.Identity, result *remoteResult) *model.CacheEntry {
	resp := result.yaml
	if resp == nil {
		resp = &remote.YAMLResponse{}
	}
	version, _ := model.FindVersion(result.versions, id.VersionLabel)

	doc, validity := parseAndValidate(deps, resp.YAML, childTypeFor(params, version, resp))
	if resp.EntityValidityDetails != nil && !resp.EntityValidityDetails.Valid {
		validity = *resp.EntityValidityDetails
	}

	meta := resp.Metadata()
	if meta.VersionLabel == "" {
		meta.VersionLabel = version.VersionLabel
	}
	if meta.Identifier == "" {
		meta.Identifier = id.TemplateIdentifier
	}

	gitDetails := params.GitDetails
	switch {
	case resp.GitDetails != nil:
		gitDetails = *resp.GitDetails
	case version.GitDetails != nil:
		gitDetails = *version.GitDetails
	}

	storeType := resp.StoreType
	if storeType == "" {
		storeType = version.StoreType
	}
	connectorRef := resp.ConnectorRef
	if connectorRef == "" {
		connectorRef = version.ConnectorRef
	}

	return &model.CacheEntry{
		Identifier:               key,
		Template:                 doc,
		OriginalTemplate:         doc.Clone(),
		TemplateMetadata:         meta,
		OriginalTemplateMetadata: meta.Clone(),
		Versions:                 result.versions,
		StableVersion:            model.StableVersion(result.versions),
		LastPublishedVersion:     model.LastPublishedVersion(result.versions),
		GitDetails:               gitDetails,
		StoreMetadata: model.StoreMetadata{
			StoreType:    storeType,
			ConnectorRef: connectorRef,
			RepoName:     gitDetails.RepoName,
			Branch:       gitDetails.Branch,
			FilePath:     gitDetails.FilePath,
		},
		EntityValidityDetails: validity,
		CacheResponseMetadata: resp.CacheResponseMetadata,
		TemplateYAML:          resp.YAML,
	}
}

// reconcile keeps the cached document and dirty flags while refreshing
// everything the remote is authoritative for
func reconcile(cached, fresh *model.CacheEntry) *model.CacheEntry {
	out := cached.Clone()
	out.Versions = fresh.Versions
	out.StableVersion = fresh.StableVersion
	out.LastPublishedVersion = fresh.LastPublishedVersion
	out.GitDetails = fresh.GitDetails
	out.StoreMetadata = fresh.StoreMetadata
	out.EntityValidityDetails = fresh.EntityValidityDetails
	out.CacheResponseMetadata = fresh.CacheResponseMetadata
	return out
}

// partialPatch renders the best-known template after a recoverable error
func partialPatch(deps Deps, params FetchParams, id model.Identity, result *remoteResult, err error) StatePatch {
	var versions []model.VersionSummary
	if result != nil {
		versions = result.versions
	}
	version, found := model.FindVersion(versions, id.VersionLabel)
	childType := childTypeFor(params, version, nil)

	doc := model.DefaultDocument(childType)
	validity := model.EntityValidityDetails{Valid: false}
	if found && version.YAML != "" {
		doc, validity = parseAndValidate(deps, version.YAML, childType)
	}
	validity.ErrorMessages = append(validity.ErrorMessages, err.Error())

	meta := model.Metadata{
		Name:              version.Name,
		Identifier:        id.TemplateIdentifier,
		VersionLabel:      version.VersionLabel,
		OrgIdentifier:     id.OrgID,
		ProjectIdentifier: id.ProjectID,
	}
	if meta.VersionLabel == "" {
		meta.VersionLabel = id.VersionLabel
	}

	fetchErr := FetchError{Message: err.Error()}
	var remoteErr *remote.Error
	if errors.As(err, &remoteErr) {
		fetchErr = FetchError{Status: remoteErr.Status, Code: remoteErr.Code, Message: remoteErr.Message}
	}

	gitDetails := params.GitDetails
	if version.GitDetails != nil {
		gitDetails = *version.GitDetails
	}

	return StatePatch{
		Identity:                 &id,
		TemplateIdentifier:       ptr(id.TemplateIdentifier),
		Template:                 ptr(doc),
		OriginalTemplate:         ptr(doc.Clone()),
		TemplateMetadata:         ptr(meta),
		OriginalTemplateMetadata: ptr(meta.Clone()),
		TemplateYAML:             ptr(version.YAML),
		Versions:                 &versions,
		StableVersion:            ptr(model.StableVersion(versions)),
		LastPublishedVersion:     ptr(model.LastPublishedVersion(versions)),
		GitDetails:               &gitDetails,
		EntityValidityDetails:    &validity,
		IsUpdated:                ptr(false),
		IsUpdatedMetadata:        ptr(false),
		RemoteFetchError:         &fetchErr,
		ErrorMessage:             ptr(""),
	}
}
