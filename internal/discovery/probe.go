package discovery

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jobintel/jobintel-cli/internal/model"
)

var schemePat = regexp.MustCompile(`^https?://`)

// ProbeDomain tries the common board slugs derived from a company's domain
// and name against the hosted ATS bases. The first slug answering 200 wins.
// Returns nil when no candidate responds.
func (d *Discoverer) ProbeDomain(ctx context.Context, domain, companyName string) (*model.DiscoveredCompany, error) {
	domain = cleanDomain(domain)

	name := strings.ToLower(strings.TrimSpace(companyName))
	noSpaces := strings.ReplaceAll(name, " ", "")
	hyphens := strings.ReplaceAll(name, " ", "-")
	noDots := strings.ReplaceAll(domain, ".", "")

	type candidate struct {
		url  string
		ats  model.Source
		slug string
	}
	candidates := []candidate{
		{d.ghBase + "/" + noDots, model.SourceGreenhouse, noDots},
		{d.ghBase + "/" + noSpaces, model.SourceGreenhouse, noSpaces},
		{d.lvBase + "/" + noDots, model.SourceLever, noDots},
		{d.lvBase + "/" + noSpaces, model.SourceLever, noSpaces},
		{d.lvBase + "/" + hyphens, model.SourceLever, hyphens},
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, cand := range candidates {
		if cand.slug == "" {
			continue
		}
		if _, ok := seen[cand.url]; ok {
			continue
		}
		seen[cand.url] = struct{}{}

		ok, err := d.probe(ctx, cand.url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Debug("probe failed", zap.String("url", cand.url), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		zap.L().Info("discovered board by probe",
			zap.String("company", companyName),
			zap.String("ats", string(cand.ats)),
			zap.String("url", cand.url))

		return &model.DiscoveredCompany{
			CompanyName:  companyName,
			Domain:       domain,
			ATS:          cand.ats,
			Identifier:   cand.slug,
			CareersURL:   cand.url,
			Method:       model.MethodSubdomainProbe,
			Confidence:   confidenceSubdomainProbe,
			DiscoveredAt: d.now().UTC(),
		}, nil
	}

	return nil, nil
}

// probe issues a GET and reports whether the URL answered 200. Hosted
// boards reject HEAD, so a full GET it is; the body is drained and dropped.
func (d *Discoverer) probe(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK, nil
}

// cleanDomain lowercases a domain and strips any scheme and trailing slash.
func cleanDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = schemePat.ReplaceAllString(domain, "")
	return strings.TrimRight(domain, "/")
}

// titleize turns a board slug like "acme-co" into "Acme Co". The caser is
// per-call because cases.Caser carries state and is not goroutine safe.
func titleize(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})
	return cases.Title(language.AmericanEnglish).String(strings.Join(words, " "))
}
