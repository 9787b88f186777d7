package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/treasury-audit/internal/compare"
	"github.com/sells-group/treasury-audit/internal/config"
	"github.com/sells-group/treasury-audit/internal/fetch"
	"github.com/sells-group/treasury-audit/internal/model"
	"github.com/sells-group/treasury-audit/internal/reconcile"
	"github.com/sells-group/treasury-audit/internal/registry"
	"github.com/sells-group/treasury-audit/internal/staleness"
	"github.com/sells-group/treasury-audit/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "treasury-audit.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initRegistry loads the source table override file when configured,
// otherwise uses the built-in table.
func initRegistry() (*registry.Registry, error) {
	if cfg.Registry.Path == "" {
		return registry.Default(), nil
	}
	return registry.Load(cfg.Registry.Path)
}

func initReconciler() (*reconcile.Reconciler, error) {
	reg, err := initRegistry()
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewHTTP(fetch.HTTPOptions{
		UserAgent:       cfg.Fetch.UserAgent,
		Timeout:         time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:      cfg.Fetch.MaxRetries,
		RequestsPerHost: rate.Limit(cfg.Fetch.RequestsPerHost),
		MaxPayloadBytes: cfg.Fetch.MaxPayloadBytes,
	})

	return reconcile.New(reg, fetcher, reconcile.Options{
		Thresholds: compare.Thresholds{
			Warning:      cfg.Audit.WarningThreshold,
			Error:        cfg.Audit.ErrorThreshold,
			EpsilonFloor: compare.DefaultThresholds().EpsilonFloor,
		},
		Staleness:              stalenessPolicy(cfg.Audit),
		MaxConcurrentCompanies: cfg.Audit.MaxConcurrentCompanies,
	}), nil
}

func stalenessPolicy(audit config.AuditConfig) staleness.Policy {
	p := staleness.Policy{
		DefaultMaxAgeDays: audit.StalenessDays,
		PerKind:           make(map[model.MetricKind]int, len(audit.StalenessPerKind)),
	}
	if p.DefaultMaxAgeDays <= 0 {
		p.DefaultMaxAgeDays = staleness.DefaultMaxAgeDays
	}
	for kind, days := range audit.StalenessPerKind {
		p.PerKind[model.MetricKind(kind)] = days
	}
	return p
}
