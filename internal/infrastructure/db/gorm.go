package db

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type options struct {
	log      *logrus.Logger
	level    logger.LogLevel
	maxOpen  int
	maxIdle  int
	lifetime time.Duration
}

type Option func(*options)

// WithLogger routes gorm's SQL log through l at the given level
// ("silent", "error", "warn" or "info").
func WithLogger(l *logrus.Logger, level string) Option {
	return func(o *options) {
		o.log = l
		o.level = LogLevel(level)
	}
}

func WithMaxOpenConns(n int) Option { return func(o *options) { o.maxOpen = n } }

func LogLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// OpenGorm connects to MySQL.
func OpenGorm(dsn string, opts ...Option) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn), opts...)
}

// OpenSQLite opens (or creates) the local ledger file. SQLite allows a single
// writer, so the pool is capped at one connection.
func OpenSQLite(path string, opts ...Option) (*gorm.DB, error) {
	return OpenGormWithDialector(sqlite.Open(path), append([]Option{WithMaxOpenConns(1)}, opts...)...)
}

func OpenGormWithDialector(dial gorm.Dialector, opts ...Option) (*gorm.DB, error) {
	o := options{
		level:    logger.Warn,
		maxOpen:  30,
		maxIdle:  10,
		lifetime: 30 * time.Minute,
	}
	for _, fn := range opts {
		fn(&o)
	}

	cfg := &gorm.Config{DisableAutomaticPing: true}
	if o.log != nil {
		cfg.Logger = logger.New(o.log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  o.level,
			IgnoreRecordNotFoundError: true,
		})
	} else {
		cfg.Logger = logger.Default.LogMode(o.level)
	}

	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.maxOpen)
	sqlDB.SetMaxIdleConns(min(o.maxIdle, o.maxOpen))
	sqlDB.SetConnMaxLifetime(o.lifetime)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	if o.log != nil {
		o.log.WithField("dialect", dial.Name()).Info("gorm: connected")
	}
	return db, nil
}
