package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mtgstone/config"
	"mtgstone/logger"
	"mtgstone/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrCardNotFound     = errors.New("card not found")
	ErrUsernameTaken    = errors.New("username taken")
	ErrEmailTaken       = errors.New("email taken")
	ErrCardNameTaken    = errors.New("card name taken")
	ErrCardNameRequired = errors.New("card name required")
	ErrAlreadyOwned     = errors.New("card already in library")
	ErrNotOwned         = errors.New("card not in library")
	ErrTimeout          = errors.New("store operation timed out")
)

const defaultTimeout = 5 * time.Second

// Store is the handle every request goes through. Each operation runs in a
// single transaction bounded by the store timeout.
type Store struct {
	DB      *gorm.DB
	timeout time.Duration
}

type Options struct {
	GormLogLevel string
	Timeout      time.Duration
}

func Open(cfg config.DatabaseConfig, opts Options) (*Store, error) {
	gormLogger, levelErr := newGormLogger(opts.GormLogLevel)
	if levelErr != nil {
		logger.Error("invalid gorm log level", "value", opts.GormLogLevel, "error", levelErr)
	}

	gdb, err := gorm.Open(dialector(cfg.DSN), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("access connection pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	if err := gdb.AutoMigrate(&models.User{}, &models.Card{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{DB: gdb, timeout: timeout}, nil
}

func dialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "postgres://"),
		strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host="):
		return postgres.Open(dsn)
	default:
		return sqlite.Open(sqliteDSN(dsn))
	}
}

// sqliteDSN accepts the SQLAlchemy-style "sqlite:///path" form and turns on
// foreign keys.
func sqliteDSN(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "sqlite:///")
	if strings.Contains(dsn, "_foreign_keys=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return s.wrap(ctx, "ping", err)
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) wrap(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
