package studio

import (
	"context"

	"github.com/sourceplane/tmplstudio/internal/model"
	"go.uber.org/zap"
)

// TemplateUpdate is either a replacement document or a transform of the
// cached document. Build one with Replace or Transform.
type TemplateUpdate struct {
	replace   *model.Document
	transform func(model.Document) model.Document
}

// Replace sets the template to doc
func Replace(doc model.Document) TemplateUpdate {
	d := doc.Clone()
	return TemplateUpdate{replace: &d}
}

// Transform derives the template from the freshly read cached document.
// fn receives a private copy and may modify it in place.
func Transform(fn func(model.Document) model.Document) TemplateUpdate {
	return TemplateUpdate{transform: fn}
}

func (u TemplateUpdate) apply(current model.Document) model.Document {
	if u.transform != nil {
		return u.transform(current.Clone())
	}
	if u.replace != nil {
		return u.replace.Clone()
	}
	return current
}

// MetadataUpdate is the metadata counterpart of TemplateUpdate
type MetadataUpdate struct {
	replace   *model.Metadata
	transform func(model.Metadata) model.Metadata
}

// ReplaceMetadata sets the metadata to meta
func ReplaceMetadata(meta model.Metadata) MetadataUpdate {
	m := meta.Clone()
	return MetadataUpdate{replace: &m}
}

// TransformMetadata derives metadata from the freshly read cached metadata
func TransformMetadata(fn func(model.Metadata) model.Metadata) MetadataUpdate {
	return MetadataUpdate{transform: fn}
}

func (u MetadataUpdate) apply(current model.Metadata) model.Metadata {
	if u.transform != nil {
		return u.transform(current.Clone())
	}
	if u.replace != nil {
		return u.replace.Clone()
	}
	return current
}

// loadForWrite reads the entry for key, falling back to the live state.
// Callers hold the key lock.
func loadForWrite(ctx context.Context, deps Deps, log *zap.Logger, key string, state State) *model.CacheEntry {
	entry, err := deps.Cache.Get(ctx, key)
	if err != nil {
		log.Warn("Cache read failed, using in-memory state", zap.Error(err))
	}
	if entry == nil {
		entry = entryFromState(key, state)
	}
	return entry
}

// UpdateTemplate applies update to the session template and persists it
func UpdateTemplate(deps Deps, update TemplateUpdate) Thunk {
	return func(ctx context.Context, dispatch Dispatch, getState GetState) {
		state := getState()
		key := state.Identity.CacheKey()
		log := deps.logger().With(zap.String("key", key))

		if deps.Cache == nil {
			doc := update.apply(state.Template)
			dispatch(UpdateTemplateAction(StatePatch{
				Template:     ptr(doc),
				TemplateYAML: ptr(MarshalTemplateYAML(doc)),
				IsUpdated:    ptr(CompareTemplates(state.OriginalTemplate, doc)),
			}))
			return
		}

		unlock := deps.lock(key)
		entry := loadForWrite(ctx, deps, log, key, state)

		doc := update.apply(entry.Template)
		entry.Template = doc.Clone()
		entry.IsUpdated = CompareTemplates(entry.OriginalTemplate, doc)
		entry.TemplateYAML = MarshalTemplateYAML(doc)

		errMessage := ""
		if err := deps.Cache.Put(ctx, entry); err != nil {
			log.Warn("Failed to persist template update", zap.Error(err))
			errMessage = err.Error()
		}
		unlock()

		log.Debug("Template updated", zap.Bool("isUpdated", entry.IsUpdated))
		dispatch(Success(StatePatch{
			Template:     ptr(doc),
			TemplateYAML: ptr(entry.TemplateYAML),
			IsUpdated:    ptr(entry.IsUpdated),
			ErrorMessage: ptr(errMessage),
		}))
	}
}

// UpdateTemplateMetadata applies update to the metadata slice and persists it
func UpdateTemplateMetadata(deps Deps, update MetadataUpdate) Thunk {
	return func(ctx context.Context, dispatch Dispatch, getState GetState) {
		state := getState()
		key := state.Identity.CacheKey()
		log := deps.logger().With(zap.String("key", key))

		if deps.Cache == nil {
			meta := update.apply(state.TemplateMetadata)
			dispatch(UpdateTemplateAction(StatePatch{
				TemplateMetadata:  ptr(meta),
				IsUpdatedMetadata: ptr(CompareMetadata(state.OriginalTemplateMetadata, meta)),
			}))
			return
		}

		unlock := deps.lock(key)
		entry := loadForWrite(ctx, deps, log, key, state)

		meta := update.apply(entry.TemplateMetadata)
		entry.TemplateMetadata = meta.Clone()
		entry.IsUpdatedMetadata = CompareMetadata(entry.OriginalTemplateMetadata, meta)

		errMessage := ""
		if err := deps.Cache.Put(ctx, entry); err != nil {
			log.Warn("Failed to persist metadata update", zap.Error(err))
			errMessage = err.Error()
		}
		unlock()

		dispatch(Success(StatePatch{
			TemplateMetadata:  ptr(meta),
			IsUpdatedMetadata: ptr(entry.IsUpdatedMetadata),
			ErrorMessage:      ptr(errMessage),
		}))
	}
}

// moveSession re-keys the session's cache entry under new git coordinates
func moveSession(ctx context.Context, deps Deps, dispatch Dispatch, state State, newID model.Identity, mutate func(*model.CacheEntry)) {
	oldKey := state.Identity.CacheKey()
	newKey := newID.CacheKey()
	log := deps.logger().With(zap.String("from", oldKey), zap.String("to", newKey))

	if deps.Cache == nil {
		entry := entryFromState(newKey, state)
		mutate(entry)
		dispatch(Success(StatePatch{
			Identity:      &newID,
			GitDetails:    ptr(entry.GitDetails),
			StoreMetadata: ptr(entry.StoreMetadata),
		}))
		return
	}

	unlock := deps.lockPair(oldKey, newKey)
	entry := loadForWrite(ctx, deps, log, oldKey, state)
	if err := deps.Cache.Delete(ctx, oldKey); err != nil {
		log.Warn("Failed to invalidate previous cache entry", zap.Error(err))
	}

	entry.Identifier = newKey
	mutate(entry)

	errMessage := ""
	if err := deps.Cache.Put(ctx, entry); err != nil {
		log.Warn("Failed to persist moved cache entry", zap.Error(err))
		errMessage = err.Error()
	}
	unlock()

	log.Debug("Session moved to new git coordinates")
	dispatch(Success(StatePatch{
		Identity:      &newID,
		GitDetails:    ptr(entry.GitDetails),
		StoreMetadata: ptr(entry.StoreMetadata),
		ErrorMessage:  ptr(errMessage),
	}))
}

// UpdateGitDetails moves the editing session to other git coordinates
func UpdateGitDetails(deps Deps, gitDetails model.GitDetails) Thunk {
	return func(ctx context.Context, dispatch Dispatch, getState GetState) {
		state := getState()
		newID := state.Identity.WithGit(gitDetails.RepoName, gitDetails.Branch)
		moveSession(ctx, deps, dispatch, state, newID, func(entry *model.CacheEntry) {
			entry.GitDetails = gitDetails
			if entry.StoreMetadata.StoreType == model.StoreTypeRemote {
				entry.StoreMetadata.RepoName = gitDetails.RepoName
				entry.StoreMetadata.Branch = gitDetails.Branch
				entry.StoreMetadata.FilePath = gitDetails.FilePath
			}
		})
	}
}

// UpdateStoreMetadata changes where the template is stored and re-keys the session
func UpdateStoreMetadata(deps Deps, storeMetadata model.StoreMetadata) Thunk {
	return func(ctx context.Context, dispatch Dispatch, getState GetState) {
		state := getState()
		newID := state.Identity.WithGit(storeMetadata.RepoName, storeMetadata.Branch)
		moveSession(ctx, deps, dispatch, state, newID, func(entry *model.CacheEntry) {
			entry.StoreMetadata = storeMetadata
			if storeMetadata.StoreType == model.StoreTypeRemote {
				entry.GitDetails.RepoName = storeMetadata.RepoName
				entry.GitDetails.Branch = storeMetadata.Branch
				entry.GitDetails.FilePath = storeMetadata.FilePath
			}
		})
	}
}

// DeleteTemplateCache removes the versioned entry and the unsaved-template
// draft for the same git coordinates. A non-nil gitDetails overrides the
// session's coordinates.
func DeleteTemplateCache(deps Deps, gitDetails *model.GitDetails) Thunk {
	return func(ctx context.Context, dispatch Dispatch, getState GetState) {
		id := getState().Identity
		if gitDetails != nil {
			id = id.WithGit(gitDetails.RepoName, gitDetails.Branch)
		}
		log := deps.logger().With(zap.String("template", id.TemplateIdentifier))

		if deps.Cache == nil {
			log.Debug("Cache not initialized, nothing to delete")
			return
		}

		for _, key := range []string{id.CacheKey(), id.DraftKey()} {
			unlock := deps.lock(key)
			if err := deps.Cache.Delete(ctx, key); err != nil {
				log.Warn("Failed to delete cache entry", zap.String("key", key), zap.Error(err))
			}
			unlock()
		}
	}
}
