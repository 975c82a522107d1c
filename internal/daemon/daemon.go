// Package daemon wires configuration, storage and services into a running
// back office.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/votecast/backoffice/internal/api"
	"github.com/votecast/backoffice/internal/app/ledger"
	"github.com/votecast/backoffice/internal/app/scheme"
	"github.com/votecast/backoffice/internal/app/withdrawal"
	"github.com/votecast/backoffice/internal/infra/lock"
	"github.com/votecast/backoffice/internal/infra/sqlite"
)

// Daemon holds the wired services of one process.
type Daemon struct {
	Config      Config
	Logger      *slog.Logger
	DB          *sqlite.DB
	Schemes     *scheme.Registry
	Ledger      *ledger.Service
	Balances    *ledger.BalanceCalculator
	Withdrawals *withdrawal.Machine

	closers []func() error
}

// New opens storage and builds every service from cfg.
func New(cfg Config, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = NewLogger(os.Stderr, cfg.Log)
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sqlite.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	d := &Daemon{Config: cfg, Logger: logger, DB: db}
	d.closers = append(d.closers, db.Close)

	var schemeCfg scheme.Config
	pct, err := cfg.Schemes.Fallback()
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("fallback scheme: %w", err)
	}
	if pct != nil {
		if schemeCfg.Fallback, err = scheme.FallbackScheme(*pct); err != nil {
			d.Close()
			return nil, err
		}
		logger.Warn("fallback commission scheme enabled", "admin_percentage", pct.String())
	}

	locker, err := d.newLocker()
	if err != nil {
		d.Close()
		return nil, err
	}

	d.Schemes = scheme.New(db, schemeCfg, logger)
	d.Ledger = ledger.NewService(db, d.Schemes, logger)
	d.Balances = ledger.NewBalanceCalculator(d.Ledger, db)
	d.Withdrawals = withdrawal.New(db, d.Balances, locker, withdrawal.NewLogGateway(logger),
		withdrawal.Config{CommissionRate: cfg.Fees.CommissionRate}, logger)

	logger.Info("daemon ready",
		"data_dir", cfg.Storage.DataDir,
		"lock_backend", cfg.Lock.Backend,
		"commission_rate", cfg.Fees.CommissionRate.String())
	return d, nil
}

func (d *Daemon) newLocker() (lock.Locker, error) {
	if d.Config.Lock.Backend != "redis" {
		return lock.NewLocal(), nil
	}
	client, err := lock.Connect(d.Config.Lock.RedisURL)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	d.closers = append(d.closers, client.Close)
	return lock.NewRedis(client, d.Config.Lock.Prefix, d.Config.Lock.Duration(), d.Logger), nil
}

// Close releases storage and lock connections.
func (d *Daemon) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// Handler returns the admin API handler.
func (d *Daemon) Handler() http.Handler {
	srv := api.NewServer(api.Services{
		Schemes:     d.Schemes,
		Ledger:      d.Ledger,
		Balances:    d.Balances,
		Withdrawals: d.Withdrawals,
		Catalog:     d.DB,
		Health:      d.DB,
	}, d.Logger)
	srv.SetRequestTimeout(d.Config.API.Timeout())
	if d.Config.Metrics.Enabled {
		srv.EnableMetrics(d.Config.Metrics.Path)
	}
	return srv.Handler()
}

// Serve runs the API until ctx is cancelled, then shuts down gracefully.
func (d *Daemon) Serve(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              d.Config.API.Addr(),
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		d.Logger.Info("api listening", "addr", httpSrv.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	d.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
