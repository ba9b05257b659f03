package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/heartmarshall/notesync-backend/internal/config"
)

// NewPool creates a PostgreSQL connection pool from DatabaseConfig, pings it
// so a bad DSN fails at startup, and exports its stats to the default
// Prometheus registry.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	params := poolCfg.ConnConfig.RuntimeParams
	if cfg.ApplicationName != "" {
		params["application_name"] = cfg.ApplicationName
	}
	if cfg.StatementTimeout > 0 {
		params["statement_timeout"] = strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := prometheus.Register(newPoolCollector(pool)); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			pool.Close()
			return nil, fmt.Errorf("register pool metrics: %w", err)
		}
	}

	return pool, nil
}

var (
	poolAcquiredDesc = prometheus.NewDesc("notesync_db_pool_acquired_conns",
		"Connections currently checked out of the pool.", nil, nil)
	poolIdleDesc = prometheus.NewDesc("notesync_db_pool_idle_conns",
		"Idle connections in the pool.", nil, nil)
	poolTotalDesc = prometheus.NewDesc("notesync_db_pool_total_conns",
		"Total connections owned by the pool.", nil, nil)
	poolWaitDesc = prometheus.NewDesc("notesync_db_pool_empty_acquire_total",
		"Acquires that had to wait for a connection.", nil, nil)
)

type poolCollector struct {
	pool *pgxpool.Pool
}

func newPoolCollector(pool *pgxpool.Pool) poolCollector {
	return poolCollector{pool: pool}
}

func (c poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolAcquiredDesc
	ch <- poolIdleDesc
	ch <- poolTotalDesc
	ch <- poolWaitDesc
}

func (c poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stat()
	ch <- prometheus.MustNewConstMetric(poolAcquiredDesc, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(poolIdleDesc, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(poolTotalDesc, prometheus.GaugeValue, float64(s.TotalConns()))
	ch <- prometheus.MustNewConstMetric(poolWaitDesc, prometheus.CounterValue, float64(s.EmptyAcquireCount()))
}
