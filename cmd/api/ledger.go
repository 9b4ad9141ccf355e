package main

import (
	"context"
	"fmt"

	"privylend-backend/internal/adapter/ledger/daml"
	"privylend-backend/internal/adapter/ledger/store"
	"privylend-backend/internal/adapter/repository/mysql"
	"privylend-backend/internal/config"
	"privylend-backend/internal/domain/ledger"
	"privylend-backend/internal/domain/lifecycle"
	"privylend-backend/internal/domain/uow"
	"privylend-backend/internal/infrastructure/db"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// openGateway builds the ledger backend for cfg.LedgerMode. The returned
// closer releases whatever the backend holds.
func openGateway(ctx context.Context, cfg *config.Config, engine *lifecycle.Engine, logger *logrus.Logger) (ledger.Gateway, func(), error) {
	log := logger.WithField("ledger_mode", cfg.LedgerMode)

	if cfg.LedgerMode == config.ModeDaml {
		c := daml.New(daml.Config{
			BaseURL:    cfg.LedgerURL,
			Token:      cfg.LedgerToken,
			Timeout:    cfg.LedgerTimeout,
			StrictTags: cfg.LedgerStrictTags,
		}, log)
		if cfg.Seed {
			log.Warn("seeding is not supported against a remote ledger; ignoring --seed")
		}
		return c, func() {}, nil
	}

	opts := []db.Option{db.WithLogger(logger, cfg.GormLogLevel)}
	var (
		gdb *gorm.DB
		err error
	)
	switch cfg.LedgerMode {
	case config.ModeMySQL:
		if gdb, err = db.OpenGorm(cfg.MySQLDSN(), opts...); err == nil {
			err = mysql.AutoMigrate(gdb)
		}
	default:
		if gdb, err = db.OpenSQLite(cfg.SQLitePath, opts...); err == nil {
			err = mysql.AutoMigrateSQLite(gdb)
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.LedgerMode, err)
	}
	closer := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	repos := uow.Repos{
		Collateral: mysql.NewCollateralRepository(gdb),
		Loans:      mysql.NewLoanRepository(gdb),
		Pools:      mysql.NewPoolRepository(gdb),
	}
	gw := store.New(mysql.NewGormUoW(gdb), repos, engine, store.WithLogger(log))
	if cfg.Seed {
		if err := gw.Seed(ctx, cfg.SeedParty); err != nil {
			closer()
			return nil, nil, fmt.Errorf("seed: %w", err)
		}
	}
	return gw, closer, nil
}
