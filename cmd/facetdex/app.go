package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/config"
	"github.com/kailas-cloud/facetdex/internal/db"
	"github.com/kailas-cloud/facetdex/internal/db/elasticsearch"
	"github.com/kailas-cloud/facetdex/internal/db/redis"
	"github.com/kailas-cloud/facetdex/internal/domain/index"
	logpkg "github.com/kailas-cloud/facetdex/internal/logger"
	documentrepo "github.com/kailas-cloud/facetdex/internal/repository/document"
	schemarepo "github.com/kailas-cloud/facetdex/internal/repository/schema"
	searchrepo "github.com/kailas-cloud/facetdex/internal/repository/search"
	healthuc "github.com/kailas-cloud/facetdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/facetdex/internal/usecase/indexing"
	presetuc "github.com/kailas-cloud/facetdex/internal/usecase/preset"
	schemauc "github.com/kailas-cloud/facetdex/internal/usecase/schema"
	searchuc "github.com/kailas-cloud/facetdex/internal/usecase/search"
	"github.com/kailas-cloud/facetdex/internal/version"
)

// app holds the wired services shared by every command.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    db.Store
	resolver index.AliasResolver

	schema   *schemauc.Service
	indexing *indexinguc.Service
	search   *searchuc.Service
	presets  *presetuc.Service
	health   *healthuc.Service
}

// loadConfig reads .env, then the file named by --config or config/{ENV}.yaml.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, "", err
	}
	env := config.GetEnv()

	path, _ := cmd.Flags().GetString(configFlag)
	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, env, nil
}

// newApp connects to the backend and wires repositories and use cases.
func newApp(ctx context.Context, cfg config.Config, env string) (*app, error) {
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Starting facetdex",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Strings("indexes", cfg.Search.Indexes),
		zap.Bool("primary", cfg.Search.Primary),
	)

	store, err := openStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("create database store: %w", err)
	}

	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readiness); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	logger.Info("Database is ready")

	resolver := index.NewAliasResolver(cfg.Search.Environment)
	known := knownFields(cfg.KnownFields)

	schemaSvc := schemauc.New(schemarepo.New(store), resolver, known, cfg.Search.Primary, logger)
	docRepo := documentrepo.New(store).WithDeleteBatch(cfg.Search.DeleteBatchSize)
	searchSvc := searchuc.New(
		searchrepo.New(store, cfg.Search.MaxFacetValues), resolver, cfg.Search.Indexes,
		searchuc.Options{ExpandFacetValues: cfg.Search.ExpandFacetValues}, logger,
	)

	physical := make([]string, len(cfg.Search.Indexes))
	for i, alias := range cfg.Search.Indexes {
		physical[i] = resolver.Resolve(alias)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		resolver: resolver,
		schema:   schemaSvc,
		indexing: indexinguc.New(docRepo, schemaSvc, resolver, known, indexinguc.Options{
			Primary:      cfg.Search.Primary,
			DerivedYears: cfg.Derived.Years,
		}, logger),
		search:  searchSvc,
		presets: presetuc.New(searchSvc, cfg.Search.PresetIndex),
		health:  healthuc.New(store, store, physical),
	}, nil
}

// Close releases the backend connection and flushes logs.
func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}

func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		s, err := redis.NewStore(redis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		return s, nil
	case config.DriverElasticsearch:
		s, err := elasticsearch.NewStore(elasticsearch.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func knownFields(cfg config.KnownFieldsConfig) index.KnownFields {
	includeName := cfg.IncludeName == nil || *cfg.IncludeName
	return index.NewKnownFields(index.KnownFieldsOptions{
		IncludeName: includeName,
		Global:      cfg.Global,
		ByIndex:     cfg.ByIndex,
	})
}
