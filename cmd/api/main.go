package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpadp "privylend-backend/internal/adapter/http"
	"privylend-backend/internal/adapter/middleware"
	"privylend-backend/internal/config"
	"privylend-backend/internal/domain/lifecycle"
	"privylend-backend/internal/infrastructure/cache"
	"privylend-backend/internal/infrastructure/logging"
	"privylend-backend/internal/infrastructure/metrics"
	"privylend-backend/internal/usecase/lending"
	"privylend-backend/internal/usecase/snapshot"

	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"
)

type flags struct {
	envFiles   []string
	port       string
	ledgerMode string
	seed       bool
	seedParty  string
}

func parseFlags(args []string) (flags, *pflag.FlagSet, error) {
	var f flags
	fs := pflag.NewFlagSet("privylend-api", pflag.ContinueOnError)
	fs.StringSliceVar(&f.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
	fs.StringVarP(&f.port, "port", "p", "", "listen port (overrides APP_PORT)")
	fs.StringVar(&f.ledgerMode, "ledger", "", "ledger backend: local, mysql or daml (overrides LEDGER_MODE)")
	fs.BoolVar(&f.seed, "seed", false, "load the default dataset into an empty store")
	fs.StringVar(&f.seedParty, "seed-party", "", "party that owns the seeded dataset (overrides SEED_PARTY)")
	return f, fs, fs.Parse(args)
}

func (f flags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("port") {
		cfg.AppPort = f.port
	}
	if fs.Changed("ledger") {
		cfg.LedgerMode = strings.ToLower(f.ledgerMode)
	}
	if fs.Changed("seed") {
		cfg.Seed = f.seed
	}
	if fs.Changed("seed-party") {
		cfg.SeedParty = f.seedParty
	}
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "privylend-api:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	f, fs, err := parseFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(f.envFiles...)
	if err != nil {
		return err
	}
	f.apply(fs, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	log := logrus.NewEntry(logger).WithField("service", "privylend-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := lifecycle.New(cfg.Protocol)
	m := metrics.New()

	gw, closeGateway, err := openGateway(ctx, cfg, engine, logger)
	if err != nil {
		return err
	}
	defer closeGateway()

	rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()
	snapshots := cache.NewSnapshotCache(rdb, cfg.SnapshotTTL)

	uc := lending.NewUsecase(metrics.InstrumentGateway(gw, m), engine,
		lending.WithSnapshots(snapshots),
		lending.WithRecorder(m),
		lending.WithLogger(log.WithField("component", "lending")),
	)

	sched := snapshot.NewScheduler(uc, snapshots, log)
	if err := sched.Start(cfg.SnapshotRefreshSpec); err != nil {
		return err
	}
	defer func() { <-sched.Stop().Done() }()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(emw.Recover(), emw.RequestID())
	e.Use(middleware.RequestLogger(log.WithField("component", "http")))
	e.Use(m.Middleware())
	if cfg.RateLimitRPS > 0 {
		e.Use(emw.RateLimiter(emw.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimitRPS))))
	}

	idem := middleware.IdempotencyWithConfig(middleware.IdempotencyConfig{
		Store: rdb,
		TTL:   time.Duration(cfg.IdempTTLSecs) * time.Second,
		Log:   log.WithField("component", "idempotency"),
	})
	httpadp.Register(e, httpadp.NewHandler(uc, log.WithField("component", "http")), idem, m.Handler())

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.AppPort
		log.WithFields(logrus.Fields{"addr": addr, "ledger_mode": cfg.LedgerMode}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
