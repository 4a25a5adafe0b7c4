// Package discovery finds Greenhouse and Lever boards for companies that
// are not yet seeded with an explicit careers URL. Strategies run in
// decreasing confidence order: URL pattern detection on known links,
// careers-page anchor scanning, then board-slug probing.
package discovery

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jobintel/jobintel-cli/internal/model"
	"github.com/jobintel/jobintel-cli/pkg/greenhouse"
	"github.com/jobintel/jobintel-cli/pkg/lever"
)

// Confidence assigned per discovery method. A direct ATS URL is near
// certain; a slug probe can hit an unrelated tenant with a similar name.
const (
	confidenceURLPattern     = 0.95
	confidenceCareersScan    = 0.90
	confidenceSubdomainProbe = 0.85
)

const (
	defaultGreenhouseBoards = "https://boards.greenhouse.io"
	defaultLeverBoards      = "https://jobs.lever.co"
)

// Discoverer probes company domains and careers pages for hosted ATS
// boards.
type Discoverer struct {
	greenhouse  greenhouse.Client
	lever       lever.Client
	http        *http.Client
	userAgent   string
	ghBase      string
	lvBase      string
	concurrency int
	now         func() time.Time
}

// Option configures the Discoverer.
type Option func(*Discoverer)

// WithHTTPClient sets the HTTP client used for probing and page scans.
func WithHTTPClient(hc *http.Client) Option {
	return func(d *Discoverer) {
		d.http = hc
	}
}

// WithUserAgent sets the User-Agent header sent with probe requests.
func WithUserAgent(ua string) Option {
	return func(d *Discoverer) {
		d.userAgent = ua
	}
}

// WithBoardBases overrides the hosted board base URLs (for testing).
func WithBoardBases(greenhouseBase, leverBase string) Option {
	return func(d *Discoverer) {
		d.ghBase = greenhouseBase
		d.lvBase = leverBase
	}
}

// WithConcurrency bounds the number of companies probed in parallel.
func WithConcurrency(n int) Option {
	return func(d *Discoverer) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// New creates a Discoverer. The ATS clients are used for board
// verification.
func New(gh greenhouse.Client, lv lever.Client, opts ...Option) *Discoverer {
	d := &Discoverer{
		greenhouse: gh,
		lever:      lv,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		userAgent:   "jobintel/1.0",
		ghBase:      defaultGreenhouseBoards,
		lvBase:      defaultLeverBoards,
		concurrency: 5,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FromURL detects an ATS board directly from a URL, or returns nil when
// the URL is not a hosted board. The company name is derived from the
// board slug since nothing better is known at this point.
func (d *Discoverer) FromURL(rawURL string) *model.DiscoveredCompany {
	if token := greenhouse.DetectBoardToken(rawURL); token != "" {
		return &model.DiscoveredCompany{
			CompanyName:  titleize(token),
			ATS:          model.SourceGreenhouse,
			Identifier:   token,
			CareersURL:   rawURL,
			Method:       model.MethodURLPattern,
			Confidence:   confidenceURLPattern,
			DiscoveredAt: d.now().UTC(),
		}
	}

	if site := lever.DetectSite(rawURL); site != "" {
		return &model.DiscoveredCompany{
			CompanyName:  titleize(site),
			ATS:          model.SourceLever,
			Identifier:   site,
			CareersURL:   rawURL,
			Method:       model.MethodURLPattern,
			Confidence:   confidenceURLPattern,
			DiscoveredAt: d.now().UTC(),
		}
	}

	return nil
}

// Verify reports whether a discovered board actually returns postings. An
// empty or unreachable board does not verify.
func (d *Discoverer) Verify(ctx context.Context, ats model.Source, identifier string) bool {
	switch ats {
	case model.SourceGreenhouse:
		resp, err := d.greenhouse.ListJobs(ctx, identifier)
		if err != nil {
			zap.L().Debug("board verification failed",
				zap.String("ats", string(ats)),
				zap.String("identifier", identifier),
				zap.Error(err))
			return false
		}
		return len(resp.Jobs) > 0

	case model.SourceLever:
		postings, err := d.lever.ListPostings(ctx, identifier)
		if err != nil {
			zap.L().Debug("board verification failed",
				zap.String("ats", string(ats)),
				zap.String("identifier", identifier),
				zap.Error(err))
			return false
		}
		return len(postings) > 0
	}

	return false
}

// Discover runs the per-domain strategies for one company in decreasing
// confidence order until one finds a board. Returns nil when nothing was
// found.
func (d *Discoverer) Discover(ctx context.Context, domain, companyName string) (*model.DiscoveredCompany, error) {
	found, err := d.ScanCareersPage(ctx, domain, companyName)
	if err != nil {
		return nil, err
	}
	if found == nil {
		found, err = d.ProbeDomain(ctx, domain, companyName)
		if err != nil {
			return nil, err
		}
	}
	return found, nil
}

// DiscoverBatch runs discovery for every seed entry. Known careers URLs
// are classified by pattern alone; domains are scanned and probed
// concurrently, and verified against the live board when verify is set.
// Per-company failures are logged and skipped.
func (d *Discoverer) DiscoverBatch(ctx context.Context, seeds *Seeds, verify bool) ([]model.DiscoveredCompany, error) {
	zap.L().Info("starting discovery",
		zap.Int("domains", len(seeds.Domains)),
		zap.Int("known_urls", len(seeds.KnownCareersURLs)),
		zap.Bool("verify", verify))

	results := make([]*model.DiscoveredCompany, len(seeds.Domains))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i, seed := range seeds.Domains {
		i, seed := i, seed
		g.Go(func() error {
			found, err := d.Discover(gctx, seed.Domain, seed.CompanyName)
			if err != nil {
				zap.L().Warn("discovery failed",
					zap.String("company", seed.CompanyName),
					zap.String("domain", seed.Domain),
					zap.Error(err))
				return nil
			}
			if found == nil {
				return nil
			}

			if verify {
				if !d.Verify(gctx, found.ATS, found.Identifier) {
					zap.L().Debug("dropping unverified board",
						zap.String("company", found.CompanyName),
						zap.String("identifier", found.Identifier))
					return nil
				}
				found.Verified = true
			}

			results[i] = found
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var discovered []model.DiscoveredCompany
	for _, r := range results {
		if r != nil {
			discovered = append(discovered, *r)
		}
	}

	// Known careers URLs were curated by hand; pattern detection alone is
	// enough and no live verification is applied.
	for _, rawURL := range seeds.KnownCareersURLs {
		if found := d.FromURL(rawURL); found != nil {
			discovered = append(discovered, *found)
		}
	}

	zap.L().Info("discovery complete",
		zap.Int("discovered", len(discovered)),
		zap.Int("domains", len(seeds.Domains)),
		zap.Int("known_urls", len(seeds.KnownCareersURLs)))

	return discovered, nil
}
