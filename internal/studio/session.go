package studio

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sourceplane/tmplstudio/internal/cache"
	"github.com/sourceplane/tmplstudio/internal/model"
	"github.com/sourceplane/tmplstudio/internal/remote"
	"github.com/sourceplane/tmplstudio/internal/schema"
	"go.uber.org/zap"
)

// RouteParams identify the template a session is editing
type RouteParams struct {
	AccountID          string
	OrgID              string
	ProjectID          string
	TemplateIdentifier string
	VersionLabel       string
	TemplateType       string
	GitDetails         model.GitDetails
}

func (p RouteParams) fetchParams() FetchParams {
	return FetchParams{
		AccountID:          p.AccountID,
		OrgID:              p.OrgID,
		ProjectID:          p.ProjectID,
		TemplateIdentifier: p.TemplateIdentifier,
		VersionLabel:       p.VersionLabel,
		GitDetails:         p.GitDetails,
		TemplateType:       p.TemplateType,
	}
}

// sameTarget reports whether q addresses the same template, version and git coordinates
func (p RouteParams) sameTarget(q RouteParams) bool {
	return p.AccountID == q.AccountID &&
		p.OrgID == q.OrgID &&
		p.ProjectID == q.ProjectID &&
		p.TemplateIdentifier == q.TemplateIdentifier &&
		p.VersionLabel == q.VersionLabel &&
		p.GitDetails.RepoName == q.GitDetails.RepoName &&
		p.GitDetails.Branch == q.GitDetails.Branch
}

// Options configure a Session
type Options struct {
	Remote    remote.Client
	Validator *schema.Validator
	Logger    *zap.Logger
	Locks     *cache.KeyedMutex

	// Cache is caller-owned. Leave nil and call ConnectCache to let the
	// session open and own one.
	Cache cache.Store
}

// Session owns the state of one template editing session and is the only
// way consumers read or change it.
type Session struct {
	id     string
	logger *zap.Logger

	mu        sync.Mutex // guards params, deps, ownsCache, navCancel
	params    RouteParams
	deps      Deps
	ownsCache bool
	navCancel context.CancelFunc
	nav       sync.WaitGroup

	dispatchMu sync.Mutex // serializes reduce + notify
	stateMu    sync.RWMutex
	state      State

	subsMu  sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// NewSession creates a session for params. No I/O happens until a fetch runs.
func NewSession(params RouteParams, opts Options) *Session {
	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("session", id))

	locks := opts.Locks
	if locks == nil {
		locks = cache.NewKeyedMutex()
	}

	return &Session{
		id:     id,
		logger: logger,
		params: params,
		deps: Deps{
			Cache:     opts.Cache,
			Remote:    opts.Remote,
			Validator: opts.Validator,
			Locks:     locks,
			Logger:    logger,
		},
		state: InitialState(),
		subs:  make(map[int]func(State)),
	}
}

// ID returns the session id used in log fields
func (s *Session) ID() string {
	return s.id
}

// Params returns the current route params
func (s *Session) Params() RouteParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// State returns a snapshot of the session state
func (s *Session) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers fn to receive every new snapshot. Subscribers run on
// the dispatching goroutine and must not call Dispatch themselves.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Dispatch applies an action and notifies subscribers
func (s *Session) Dispatch(action Action) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.stateMu.Lock()
	s.state = Reduce(s.state, action)
	snapshot := s.state.Clone()
	s.stateMu.Unlock()

	s.subsMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Run executes a thunk against this session
func (s *Session) Run(ctx context.Context, thunk Thunk) {
	thunk(ctx, s.Dispatch, s.State)
}

func (s *Session) currentDeps() Deps {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deps
}

// FetchTemplate loads the session's template
func (s *Session) FetchTemplate(ctx context.Context, opts FetchOptions) {
	s.mu.Lock()
	params := s.params
	deps := s.deps
	s.mu.Unlock()
	s.Run(ctx, FetchTemplate(deps, params.fetchParams(), opts))
}

func (s *Session) UpdateTemplate(ctx context.Context, update TemplateUpdate) {
	s.Run(ctx, UpdateTemplate(s.currentDeps(), update))
}

func (s *Session) UpdateTemplateMetadata(ctx context.Context, update MetadataUpdate) {
	s.Run(ctx, UpdateTemplateMetadata(s.currentDeps(), update))
}

// UpdateGitDetails moves the session to other git coordinates. Later
// fetches use the new coordinates.
func (s *Session) UpdateGitDetails(ctx context.Context, gitDetails model.GitDetails) {
	s.Run(ctx, UpdateGitDetails(s.currentDeps(), gitDetails))
	s.mu.Lock()
	s.params.GitDetails = gitDetails
	s.mu.Unlock()
}

// UpdateStoreMetadata changes where the template is stored
func (s *Session) UpdateStoreMetadata(ctx context.Context, storeMetadata model.StoreMetadata) {
	s.Run(ctx, UpdateStoreMetadata(s.currentDeps(), storeMetadata))
	s.mu.Lock()
	s.params.GitDetails = s.State().GitDetails
	s.mu.Unlock()
}

// DeleteTemplateCache discards cached edits for the session's template
func (s *Session) DeleteTemplateCache(ctx context.Context, gitDetails *model.GitDetails) {
	s.Run(ctx, DeleteTemplateCache(s.currentDeps(), gitDetails))
}

func (s *Session) SetYAMLHandler(handler YAMLHandler) {
	s.Dispatch(SetYAMLHandler(handler))
}

func (s *Session) SetIntermittentLoading(loading bool) {
	s.Dispatch(IntermittentLoading(loading))
}

func (s *Session) UpdateTemplateView(view TemplateView) {
	s.Dispatch(UpdateTemplateView(view))
}

// Navigate points the session at params. When the target changed (or nothing
// was fetched yet) it aborts any in-flight navigation fetch and starts a new
// one in the background; Wait blocks until it finishes.
func (s *Session) Navigate(ctx context.Context, params RouteParams) bool {
	s.mu.Lock()
	if s.navCancel != nil && s.params.sameTarget(params) {
		s.mu.Unlock()
		return false
	}
	if s.navCancel != nil {
		s.navCancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	s.navCancel = cancel
	s.params = params
	deps := s.deps
	s.mu.Unlock()

	s.logger.Debug("Navigating",
		zap.String("template", params.TemplateIdentifier),
		zap.String("version", params.VersionLabel),
		zap.String("branch", params.GitDetails.Branch),
	)

	s.nav.Add(1)
	go func() {
		defer s.nav.Done()
		s.Run(fetchCtx, FetchTemplate(deps, params.fetchParams(), FetchOptions{}))
	}()
	return true
}

// Wait blocks until background navigation fetches finish
func (s *Session) Wait() {
	s.nav.Wait()
}

// ConnectCache opens the cache layer. On failure the session keeps running
// in degraded mode and the error is returned; on success the template is
// fetched again through the cache with opts.
func (s *Session) ConnectCache(ctx context.Context, open func(context.Context) (cache.Store, error), opts FetchOptions) error {
	s.Dispatch(Loading())

	store, err := open(ctx)
	if err != nil {
		s.logger.Warn("Template cache unavailable, continuing without it", zap.Error(err))
		s.Dispatch(DBInitializationFail())
		return fmt.Errorf("failed to open template cache: %w", err)
	}

	s.mu.Lock()
	previous, ownedPrevious := s.deps.Cache, s.ownsCache
	s.deps.Cache = store
	s.ownsCache = true
	s.mu.Unlock()

	if ownedPrevious && previous != nil {
		if err := previous.Close(); err != nil {
			s.logger.Warn("Failed to close previous template cache", zap.Error(err))
		}
	}

	s.Dispatch(DBInitialize())

	if s.Params().TemplateIdentifier != "" {
		s.FetchTemplate(ctx, opts)
	}
	return nil
}

// Close aborts navigation, waits for it and closes a session-owned cache
func (s *Session) Close() error {
	s.mu.Lock()
	if s.navCancel != nil {
		s.navCancel()
	}
	s.mu.Unlock()

	s.nav.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ownsCache && s.deps.Cache != nil {
		s.ownsCache = false
		if err := s.deps.Cache.Close(); err != nil {
			return fmt.Errorf("failed to close template cache: %w", err)
		}
	}
	return nil
}
