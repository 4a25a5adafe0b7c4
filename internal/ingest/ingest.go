// Package ingest pulls raw postings from each seed company's ATS board and
// snapshots them under the raw data directory, one envelope per company per
// run date. Boards are fetched concurrently; a failing company is counted
// and skipped so one bad seed cannot abort a run.
package ingest

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jobintel/jobintel-cli/internal/model"
	"github.com/jobintel/jobintel-cli/pkg/greenhouse"
	"github.com/jobintel/jobintel-cli/pkg/lever"
)

// Stats summarizes one ingestion run.
type Stats struct {
	RunDate            string `json:"run_date"`
	CompaniesProcessed int    `json:"companies_processed"`
	CompaniesFailed    int    `json:"companies_failed"`
	TotalJobs          int    `json:"total_jobs"`
	GreenhouseJobs     int    `json:"greenhouse_jobs"`
	LeverJobs          int    `json:"lever_jobs"`
}

// Runner fetches postings for seed companies and writes raw snapshots.
type Runner struct {
	greenhouse  greenhouse.Client
	lever       lever.Client
	raw         *RawStore
	concurrency int
	now         func() time.Time
}

// NewRunner creates an ingestion runner. Concurrency bounds the number of
// companies fetched in parallel.
func NewRunner(gh greenhouse.Client, lv lever.Client, raw *RawStore, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		greenhouse:  gh,
		lever:       lv,
		raw:         raw,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Run fetches every seed company's board and snapshots the postings for the
// run date. Per-company failures are logged and counted, not propagated.
func (r *Runner) Run(ctx context.Context, seeds []model.CompanySeed, runDate time.Time) (*Stats, error) {
	zap.L().Info("starting ingestion",
		zap.String("run_date", model.FormatRunDate(runDate)),
		zap.Int("companies", len(seeds)),
		zap.Int("concurrency", r.concurrency))

	var processed, failed, ghJobs, lvJobs atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, seed := range seeds {
		seed := seed
		g.Go(func() error {
			log := zap.L().With(
				zap.String("company", seed.CompanyName),
				zap.String("source", string(seed.ATSType)))

			n, err := r.fetchCompany(gctx, seed, runDate)
			if err != nil {
				failed.Add(1)
				log.Error("company ingestion failed", zap.Error(err))
				return nil
			}

			processed.Add(1)
			switch seed.ATSType {
			case model.SourceGreenhouse:
				ghJobs.Add(int64(n))
			case model.SourceLever:
				lvJobs.Add(int64(n))
			}
			log.Info("company ingested", zap.Int("jobs", n))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "ingest: run")
	}

	stats := &Stats{
		RunDate:            model.FormatRunDate(runDate),
		CompaniesProcessed: int(processed.Load()),
		CompaniesFailed:    int(failed.Load()),
		TotalJobs:          int(ghJobs.Load() + lvJobs.Load()),
		GreenhouseJobs:     int(ghJobs.Load()),
		LeverJobs:          int(lvJobs.Load()),
	}

	zap.L().Info("ingestion complete",
		zap.Int("companies_processed", stats.CompaniesProcessed),
		zap.Int("companies_failed", stats.CompaniesFailed),
		zap.Int("total_jobs", stats.TotalJobs))

	return stats, nil
}

// fetchCompany resolves the board identifier, pulls the postings, and writes
// the raw envelope. Boards with zero postings are skipped, not persisted.
func (r *Runner) fetchCompany(ctx context.Context, seed model.CompanySeed, runDate time.Time) (int, error) {
	identifier, err := ResolveIdentifier(seed)
	if err != nil {
		return 0, err
	}

	var raws []json.RawMessage
	switch seed.ATSType {
	case model.SourceGreenhouse:
		resp, err := r.greenhouse.ListJobs(ctx, identifier)
		if err != nil {
			return 0, err
		}
		raws = resp.Jobs
	case model.SourceLever:
		raws, err = r.lever.ListPostings(ctx, identifier)
		if err != nil {
			return 0, err
		}
	default:
		return 0, eris.Errorf("ingest: unsupported ats type %q for %s", seed.ATSType, seed.CompanyName)
	}

	if len(raws) == 0 {
		zap.L().Debug("no postings on board",
			zap.String("company", seed.CompanyName),
			zap.String("identifier", identifier))
		return 0, nil
	}

	env := Envelope{
		CompanyName: seed.CompanyName,
		Source:      seed.ATSType,
		Identifier:  identifier,
		ExtractedAt: r.now().UTC(),
		JobCount:    len(raws),
		Jobs:        raws,
	}
	if _, err := r.raw.Write(env, runDate); err != nil {
		return 0, err
	}

	return len(raws), nil
}

// ResolveIdentifier returns the board token (Greenhouse) or site slug
// (Lever) for a seed, preferring the explicit identifier column over URL
// detection.
func ResolveIdentifier(seed model.CompanySeed) (string, error) {
	if seed.Identifier != "" {
		return seed.Identifier, nil
	}

	switch seed.ATSType {
	case model.SourceGreenhouse:
		if token := greenhouse.DetectBoardToken(seed.CareersURL); token != "" {
			return token, nil
		}
		return "", eris.Errorf("ingest: no greenhouse board token in %q", seed.CareersURL)
	case model.SourceLever:
		if site := lever.DetectSite(seed.CareersURL); site != "" {
			return site, nil
		}
		return "", eris.Errorf("ingest: no lever site in %q", seed.CareersURL)
	}

	return "", eris.Errorf("ingest: unsupported ats type %q", seed.ATSType)
}
