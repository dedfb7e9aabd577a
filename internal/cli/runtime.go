package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"kbedit/internal/config"
	"kbedit/internal/domain"
	"kbedit/internal/secret"
	"kbedit/internal/service"
	"kbedit/internal/storage"
)

// runtime wires storage and services from the config.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	emitter   service.EventEmitter
	articles  *service.ArticleService
	sessions  *service.SessionService
	retention *service.RetentionService
	closers   []func(context.Context) error
}

func openRuntime(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*runtime, error) {
	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		emitter: service.LogEmitter{Logger: logger},
	}

	delay, err := cfg.Editor.Delay()
	if err != nil {
		return nil, err
	}
	if delay == 0 {
		// A zero SessionConfig delay means the editor default.
		delay = -1
	}
	retention, err := cfg.Revisions.RetentionPeriod()
	if err != nil {
		return nil, err
	}

	articles, revisions, err := rt.openStores(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	rt.articles = service.NewArticleService(articles, revisions, service.ArticleConfig{
		Structured:    cfg.Storage.Structured,
		KeepRevisions: cfg.Revisions.Keep,
	}, rt.emitter, logger)
	rt.sessions = service.NewSessionService(context.WithoutCancel(ctx), rt.articles, service.SessionConfig{
		AutosaveDelay: delay,
		HistoryLimit:  cfg.Editor.HistoryLimit,
	}, rt.emitter, logger)
	rt.retention = service.NewRetentionService(rt.articles, retention, cfg.Revisions.Sweep, rt.emitter, logger)
	return rt, nil
}

func (rt *runtime) openStores(ctx context.Context, sc config.StorageConfig) (domain.ArticleStore, domain.RevisionStore, error) {
	password, err := secret.Resolve(sc.PasswordSecret)
	if err != nil {
		return nil, nil, err
	}

	driver := strings.ToLower(sc.Driver)
	if driver == "mongo" || driver == "mongodb" {
		if sc.DSN == "" {
			return nil, nil, fmt.Errorf("storage.dsn is required for mongo")
		}
		ms, err := storage.OpenMongo(ctx, sc.DSN, sc.Database, password)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open mongo store")
		}
		rt.closers = append(rt.closers, ms.Close)
		rt.logger.Debug("storage opened", zap.String("driver", "mongo"))
		return ms, ms, nil
	}

	dialect, err := storage.ParseDialect(driver)
	if err != nil {
		return nil, nil, err
	}

	var db *storage.DB
	if dialect == storage.DialectSQLite {
		db, err = storage.New(sc.SQLitePath(), sc.DataDir)
	} else {
		dsn := sc.DSN
		if dsn == "" {
			dsn, err = storage.BuildDSN(dialect, storage.ConnParams{
				Host:     sc.Host,
				Port:     sc.Port,
				Database: sc.Database,
				Username: sc.Username,
				SSLMode:  sc.SSLMode,
			}, password)
			if err != nil {
				return nil, nil, err
			}
		}
		db, err = storage.Open(ctx, dialect, dsn)
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open %s store", dialect)
	}
	rt.closers = append(rt.closers, func(context.Context) error { return db.Close() })
	rt.logger.Debug("storage opened", zap.String("driver", string(dialect)))
	return storage.NewArticleStore(db), storage.NewRevisionStore(db), nil
}

// Close flushes open sessions and closes storage.
func (rt *runtime) Close(ctx context.Context) {
	rt.retention.Stop()
	if err := rt.sessions.CloseAll(ctx); err != nil {
		rt.logger.Warn("close sessions", zap.Error(err))
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			rt.logger.Warn("close storage", zap.Error(err))
		}
	}
}
