package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/jobintel/jobintel-cli/internal/enrich"
	"github.com/jobintel/jobintel-cli/internal/model"
	"github.com/jobintel/jobintel-cli/internal/store"
	"github.com/jobintel/jobintel-cli/pkg/greenhouse"
	"github.com/jobintel/jobintel-cli/pkg/lever"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "jobintel.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initClients builds the two ATS clients. Each gets its own rate limiter
// since the hosts are throttled independently.
func initClients() (greenhouse.Client, lever.Client) {
	hc := &http.Client{Timeout: time.Duration(cfg.HTTP.TimeoutSecs) * time.Second}

	burst := int(cfg.HTTP.RatePerSec)
	if burst < 1 {
		burst = 1
	}

	gh := greenhouse.NewClient(
		greenhouse.WithHTTPClient(hc),
		greenhouse.WithUserAgent(cfg.HTTP.UserAgent),
		greenhouse.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.HTTP.RatePerSec), burst)),
		greenhouse.WithMaxRetries(cfg.HTTP.MaxRetries),
	)
	lv := lever.NewClient(
		lever.WithHTTPClient(hc),
		lever.WithUserAgent(cfg.HTTP.UserAgent),
		lever.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.HTTP.RatePerSec), burst)),
		lever.WithMaxRetries(cfg.HTTP.MaxRetries),
	)
	return gh, lv
}

// initEnricher loads the configured taxonomy seed files; empty or missing
// files fall back to the built-in taxonomies.
func initEnricher() (*enrich.Enricher, error) {
	roles, err := enrich.LoadRoleTaxonomy(cfg.Enrich.RoleFamilyFile)
	if err != nil {
		return nil, err
	}
	skills, err := enrich.LoadSkillGroups(cfg.Enrich.SkillsFile)
	if err != nil {
		return nil, err
	}
	industries, err := enrich.LoadIndustries(cfg.Enrich.IndustryFile)
	if err != nil {
		return nil, err
	}
	return enrich.NewEnricher(roles, skills, industries), nil
}

// parseRunDate resolves a --run-date flag value, defaulting to today (UTC).
func parseRunDate(value string) (time.Time, error) {
	if value == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := model.ParseRunDate(value)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "parse run date %q", value)
	}
	return d, nil
}

// limitSeeds truncates the seed list when a positive cap is given.
func limitSeeds(seeds []model.CompanySeed, max int) []model.CompanySeed {
	if max > 0 && len(seeds) > max {
		return seeds[:max]
	}
	return seeds
}
