package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/nap-verifier/internal/config"
	"github.com/jonathan/nap-verifier/internal/db"
	"github.com/jonathan/nap-verifier/internal/fetch"
	"github.com/jonathan/nap-verifier/internal/observability"
	"github.com/jonathan/nap-verifier/internal/retrieval"
	"github.com/jonathan/nap-verifier/internal/types"
	"github.com/jonathan/nap-verifier/internal/verification"
)

// cliOperator is the identity recorded for runs started from the command line.
var cliOperator = types.Caller{
	UserID: uuid.NewSHA1(uuid.NameSpaceURL, []byte("nap-agent:cli")),
	Role:   types.RoleAdmin,
}

// app holds the wired collaborators shared by every command.
type app struct {
	cfg *config.Config
	log *logrus.Logger
	db  *db.DB
	svc *verification.Service
}

func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath, os.Getenv)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// newApp loads configuration, connects to the database and builds the verification service.
func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable or database_url config is required")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	svc, err := newService(ctx, cfg, database, logger)
	if err != nil {
		database.Close()
		return nil, err
	}
	return &app{cfg: cfg, log: logger, db: database, svc: svc}, nil
}

func (a *app) Close() {
	a.db.Close()
}

func newService(ctx context.Context, cfg *config.Config, store verification.Store, logger *logrus.Logger) (*verification.Service, error) {
	searcher, err := newSearcher(ctx, cfg.Search)
	if err != nil {
		return nil, err
	}
	if _, ok := searcher.(retrieval.Unconfigured); ok {
		logger.Warn("search credentials missing; every verification attempt will report a configuration error")
	}

	window, err := cfg.Verify.CacheWindowDuration()
	if err != nil {
		return nil, err
	}

	var pages verification.PageFetcher
	if cfg.Fetch.PageEnrichment() {
		pages = fetch.NewPageFetcher(fetchOptions(cfg.Fetch))
	}

	return verification.NewService(store, searcher, pages, verification.Config{
		Concurrency: cfg.Verify.Concurrency,
		CacheWindow: window,
	}, logger), nil
}

// newSearcher returns the Google searcher, or retrieval.Unconfigured when credentials are absent.
func newSearcher(ctx context.Context, cfg config.SearchConfig) (retrieval.Searcher, error) {
	searcher, err := retrieval.NewGoogleSearcher(ctx, retrieval.GoogleConfig{
		APIKey:          cfg.APIKey,
		CX:              cfg.CX,
		QPS:             cfg.QPS,
		ResultsPerQuery: cfg.ResultsPerQuery,
	})
	if errors.Is(err, retrieval.ErrNotConfigured) {
		return retrieval.Unconfigured{}, nil
	}
	if err != nil {
		return nil, err
	}
	return searcher, nil
}

func fetchOptions(cfg config.FetchConfig) *fetch.Options {
	opts := fetch.DefaultOptions()
	if cfg.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.BrowserTimeoutSeconds > 0 {
		opts.BrowserTimeout = time.Duration(cfg.BrowserTimeoutSeconds) * time.Second
	}
	if cfg.UserAgent != "" {
		opts.UserAgent = cfg.UserAgent
	}
	return opts
}

// parseIDs parses a comma-separated list of UUIDs.
func parseIDs(raw []string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, fmt.Errorf("invalid id %q: %w", part, err)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
