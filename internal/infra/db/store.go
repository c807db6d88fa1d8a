package db

import (
	"context"
	"fmt"
	"time"

	"eventbooking/internal/config"
	"eventbooking/internal/infra/logging"

	"github.com/cenkalti/backoff/v4"
	"github.com/glebarez/sqlite"
	"github.com/hashicorp/go-hclog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Store struct {
	DB       *gorm.DB
	Users    *UserRepository
	Events   *EventRepository
	Bookings *BookingRepository
}

// NewStore opens postgres when POSTGRES_DSN is set and an embedded sqlite
// database otherwise. The first ping is retried with exponential backoff for
// up to DB_CONNECT_MAX_WAIT_SECONDS so the service can start alongside its
// database.
func NewStore(ctx context.Context, cfg config.Config, logger hclog.Logger) (*Store, error) {
	logger = logging.OrNull(logger).Named("db")

	dialector, driver := openDialector(cfg)
	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// One connection keeps every caller on the same in-memory database and
		// serializes writers.
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if err := pingWithBackoff(ctx, gdb, cfg.DBConnectMaxWait(), logger); err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if err := Migrate(gdb); err != nil {
		return nil, err
	}
	logger.Info("store ready", "driver", driver)
	return NewStoreFromDB(gdb), nil
}

func NewStoreFromDB(gdb *gorm.DB) *Store {
	return &Store{
		DB:       gdb,
		Users:    NewUserRepository(gdb),
		Events:   NewEventRepository(gdb),
		Bookings: NewBookingRepository(gdb),
	}
}

func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&UserModel{}, &EventModel{}, &BookingModel{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func openDialector(cfg config.Config) (gorm.Dialector, string) {
	if cfg.PostgresDSN != "" {
		return postgres.Open(cfg.PostgresDSN), "postgres"
	}
	path := cfg.SQLitePath
	if path == "" {
		path = config.Default().SQLitePath
	}
	return sqlite.Open(path), "sqlite"
}

func pingWithBackoff(ctx context.Context, gdb *gorm.DB, maxWait time.Duration, logger hclog.Logger) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxWait
	if maxWait <= 0 {
		return sqlDB.PingContext(ctx)
	}
	return backoff.RetryNotify(
		func() error { return sqlDB.PingContext(ctx) },
		backoff.WithContext(policy, ctx),
		func(err error, wait time.Duration) {
			logger.Warn("database not reachable, retrying", "error", err, "wait", wait)
		},
	)
}
