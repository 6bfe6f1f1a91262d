package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type options struct {
	log         zerolog.Logger
	maxOpen     int
	maxIdle     int
	slowQuery   time.Duration
	logLevelSQL logger.LogLevel
}

type Option func(*options)

// WithLogger routes gorm's query log into l.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

func WithPool(maxOpen, maxIdle int) Option {
	return func(o *options) { o.maxOpen, o.maxIdle = maxOpen, maxIdle }
}

// zerologWriter adapts zerolog to gorm's logger.Writer.
type zerologWriter struct{ l zerolog.Logger }

func (w zerologWriter) Printf(format string, args ...interface{}) {
	w.l.Debug().Msgf(format, args...)
}

func newGormLogger(o options) logger.Interface {
	return logger.New(zerologWriter{l: o.log}, logger.Config{
		SlowThreshold:             o.slowQuery,
		LogLevel:                  o.logLevelSQL,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// OpenGormWithDialector opens gorm on any dialector, applies pool settings
// and pings once.
func OpenGormWithDialector(dial gorm.Dialector, opts ...Option) (*gorm.DB, error) {
	o := options{
		log:         zerolog.Nop(),
		maxOpen:     30,
		maxIdle:     10,
		slowQuery:   200 * time.Millisecond,
		logLevelSQL: logger.Warn,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log.GetLevel() <= zerolog.DebugLevel {
		o.logLevelSQL = logger.Info
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:               newGormLogger(o),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.maxOpen)
	sqlDB.SetMaxIdleConns(o.maxIdle)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	o.log.Info().Str("dialect", dial.Name()).Msg("gorm: connected")
	return db, nil
}

func OpenMySQL(dsn string, opts ...Option) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn), opts...)
}

// OpenSQLite opens a file (or ":memory:") database. SQLite serialises writers,
// so the pool is pinned to one connection.
func OpenSQLite(path string, opts ...Option) (*gorm.DB, error) {
	opts = append(opts, WithPool(1, 1))
	return OpenGormWithDialector(sqlite.Open(path), opts...)
}

// Open dispatches on driver: "mysql" takes a DSN, "sqlite" a file path.
func Open(driver, dsn string, opts ...Option) (*gorm.DB, error) {
	switch driver {
	case DriverMySQL:
		return OpenMySQL(dsn, opts...)
	case DriverSQLite:
		return OpenSQLite(dsn, opts...)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}
