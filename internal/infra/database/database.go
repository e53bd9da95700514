package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sifan077/ShortKey/config"
	"github.com/sifan077/ShortKey/internal/infra/logger"
	infraPostgres "github.com/sifan077/ShortKey/internal/infra/postgres"
	infraSQLite "github.com/sifan077/ShortKey/internal/infra/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Pinger reports whether the backing database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handle bundles the GORM connection with its readiness check and cleanup.
type Handle struct {
	DB     *gorm.DB
	Pinger Pinger
	close  []func()
}

// Close releases every connection opened by Open.
func (h *Handle) Close() {
	for i := len(h.close) - 1; i >= 0; i-- {
		h.close[i]()
	}
}

// Open connects to the configured driver and migrates the given models.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger, models ...interface{}) (*Handle, error) {
	gormCfg := GormConfig(log)

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err = infraSQLite.NewGorm(cfg.Database.SQLitePath, gormCfg)
	default:
		db, err = infraPostgres.NewGorm(cfg.Postgres, gormCfg)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database: retrieve sql db: %w", err)
	}
	h := &Handle{DB: db, Pinger: sqlPinger{db: db}}
	h.close = append(h.close, func() { _ = sqlDB.Close() })

	if err := AutoMigrate(ctx, db, models...); err != nil {
		h.Close()
		return nil, err
	}

	if cfg.Database.Driver == config.DriverPostgres {
		pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			h.Close()
			return nil, err
		}
		h.Pinger = pool
		h.close = append(h.close, pool.Close)
	}

	return h, nil
}

// GormConfig is the shared GORM configuration; SQL warnings go to zap.
func GormConfig(log *zap.Logger) *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.New(zapWriter{log: logger.OrNop(log).Named("gorm").Sugar()}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// AutoMigrate uses GORM to perform schema migrations for the provided models.
func AutoMigrate(ctx context.Context, db *gorm.DB, models ...interface{}) error {
	if db == nil || len(models) == 0 {
		return nil
	}

	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("database: auto migrate: %w", err)
	}

	return nil
}

type zapWriter struct {
	log *zap.SugaredLogger
}

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.Warnf(format, args...)
}

type sqlPinger struct {
	db *gorm.DB
}

func (p sqlPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
