package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/training-sdk/modules/training/domain"
	"github.com/iota-uz/training-sdk/modules/training/infrastructure/persistence"
	"github.com/iota-uz/training-sdk/modules/training/infrastructure/persistence/memstore"
	"github.com/iota-uz/training-sdk/modules/training/services"
	"github.com/iota-uz/training-sdk/pkg/configuration"
)

const driverMemory = "memory"

type storeHandle struct {
	store  domain.Store
	driver string
	close  func()
}

// openStore connects to the configured database. Without --apply the run goes against an
// empty in-memory store, so nothing outside the process is touched.
func (a *app) openStore(ctx context.Context, apply bool) (*storeHandle, error) {
	if !apply {
		return &storeHandle{store: memstore.New(), driver: driverMemory, close: func() {}}, nil
	}

	switch a.cfg.Database.Driver {
	case configuration.DriverPq:
		db, err := a.openPq(ctx)
		if err != nil {
			return nil, err
		}
		return &storeHandle{
			store:  persistence.NewSQLStore(db),
			driver: configuration.DriverPq,
			close:  func() { _ = db.Close() },
		}, nil
	default:
		pool, err := a.openPool(ctx)
		if err != nil {
			return nil, err
		}
		return &storeHandle{
			store:  persistence.NewPgStore(pool),
			driver: configuration.DriverPgx,
			close:  pool.Close,
		}, nil
	}
}

func (a *app) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(a.cfg.Database.Opts)
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("database config: %w", err))
	}
	if a.cfg.Database.MaxConns > 0 {
		config.MaxConns = a.cfg.Database.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, withCode(exitDB, fmt.Errorf("connect: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, withCode(exitDB, fmt.Errorf("ping: %w", err))
	}
	return pool, nil
}

func (a *app) openPq(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("postgres", a.cfg.Database.Opts)
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("database config: %w", err))
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, withCode(exitDB, fmt.Errorf("ping: %w", err))
	}
	return db, nil
}

// openSQLDB returns a database/sql handle on the configured driver.
func (a *app) openSQLDB(ctx context.Context) (*sql.DB, func(), error) {
	if a.cfg.Database.Driver == configuration.DriverPq {
		db, err := a.openPq(ctx)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	}
	pool, err := a.openPool(ctx)
	if err != nil {
		return nil, nil, err
	}
	db := stdlib.OpenDBFromPool(pool)
	return db, func() {
		_ = db.Close()
		pool.Close()
	}, nil
}

func (a *app) newService(store domain.Store, source string) (*services.ReloadService, error) {
	fields := services.DefaultRegistry()
	if path := a.cfg.Import.AliasesFile; path != "" {
		overrides, err := services.LoadAliasOverrides(path)
		if err != nil {
			return nil, withCode(exitUsage, fmt.Errorf("aliases file: %w", err))
		}
		if err := fields.Apply(overrides); err != nil {
			return nil, withCode(exitUsage, fmt.Errorf("aliases file: %w", err))
		}
	}
	return services.NewReloadService(store, services.Options{
		Logger:              a.cfg.Logger().WithFields(logrus.Fields{"component": "skill-data", "command": source}),
		DefaultPassword:     a.cfg.Import.DefaultPassword,
		BcryptCost:          a.cfg.Import.BcryptCost,
		Fields:              fields,
		MaxRejectionsLogged: a.cfg.Import.MaxRejectionsLogged,
	}), nil
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("open input: %w", err))
	}
	return f, nil
}
