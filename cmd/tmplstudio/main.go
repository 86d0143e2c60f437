package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sourceplane/tmplstudio/internal/cache"
	"github.com/sourceplane/tmplstudio/internal/config"
	"github.com/sourceplane/tmplstudio/internal/logging"
	"github.com/sourceplane/tmplstudio/internal/model"
	"github.com/sourceplane/tmplstudio/internal/remote"
	"github.com/sourceplane/tmplstudio/internal/schema"
	"github.com/sourceplane/tmplstudio/internal/studio"
	"go.uber.org/zap"
)

// app bundles what every session-backed command needs
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	validator *schema.Validator
	session   *studio.Session
}

func (a *app) Close() {
	if a.session != nil {
		if err := a.session.Close(); err != nil {
			a.logger.Warn("Failed to close session", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// loadConfig reads the config file and applies command-line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if accountID != "" {
		cfg.Scope.Account = accountID
	}
	if orgID != "" {
		cfg.Scope.Org = orgID
	}
	if projectID != "" {
		cfg.Scope.Project = projectID
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if noCache {
		cfg.Cache.Disabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newRemote(cfg *config.Config) (remote.Client, error) {
	switch cfg.Remote.Kind {
	case config.RemoteHTTP:
		timeout, err := cfg.Timeout()
		if err != nil {
			return nil, err
		}
		return remote.NewHTTPClient(cfg.Remote.BaseURL, cfg.Remote.APIKey, timeout), nil
	case config.RemoteDir:
		return remote.NewDirClient(cfg.Remote.Dir), nil
	default:
		return nil, fmt.Errorf("unsupported remote kind: %s", cfg.Remote.Kind)
	}
}

// openApp loads config and opens a session on identifier with the cache
// connected. A cache that cannot be opened degrades to memory.
func openApp(ctx context.Context, identifier string) (*app, error) {
	return openAppFetching(ctx, identifier, studio.FetchOptions{})
}

// openAppFetching is openApp with the options of the initial fetch
func openAppFetching(ctx context.Context, identifier string, opts studio.FetchOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	client, err := newRemote(cfg)
	if err != nil {
		return nil, err
	}

	validator, err := schema.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to load template schema: %w", err)
	}

	params := studio.RouteParams{
		AccountID:          cfg.Scope.Account,
		OrgID:              cfg.Scope.Org,
		ProjectID:          cfg.Scope.Project,
		TemplateIdentifier: identifier,
		VersionLabel:       versionLabel,
		TemplateType:       templateType,
		GitDetails:         model.GitDetails{RepoName: repoName, Branch: branch},
	}

	session := studio.NewSession(params, studio.Options{
		Remote:    client,
		Validator: validator,
		Logger:    logger,
	})
	a := &app{cfg: cfg, logger: logger, validator: validator, session: session}

	openMemory := func(context.Context) (cache.Store, error) {
		return cache.NewMemoryStore(), nil
	}

	if cfg.Cache.Disabled {
		err = session.ConnectCache(ctx, openMemory, opts)
	} else {
		err = session.ConnectCache(ctx, func(ctx context.Context) (cache.Store, error) {
			store, err := cache.OpenSQLite(ctx, cfg.Cache.Path)
			if err != nil {
				return nil, err
			}
			logger.Debug("Template cache opened", zap.String("path", store.Path()))
			return store, nil
		}, opts)
		if err != nil {
			logger.Warn("Falling back to in-memory cache", zap.Error(err))
			err = session.ConnectCache(ctx, openMemory, opts)
		}
	}
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// checkState turns a failed fetch into a command error
func checkState(state studio.State) error {
	if state.ErrorMessage != "" {
		return fmt.Errorf("%s", state.ErrorMessage)
	}
	if !state.IsInitialized {
		return fmt.Errorf("template %s was not loaded", state.TemplateIdentifier)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
