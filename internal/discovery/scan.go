package discovery

import (
	"context"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jobintel/jobintel-cli/internal/model"
)

// careersPaths are the site paths tried when scanning for a careers page.
var careersPaths = []string{
	"/careers",
	"/jobs",
	"/careers/jobs",
	"/about/careers",
	"/company/careers",
	"/join-us",
}

// ScanCareersPage fetches likely careers pages on the company site and
// scans anchor hrefs for links into a hosted ATS board. Returns nil when
// no page links to one.
func (d *Discoverer) ScanCareersPage(ctx context.Context, domain, companyName string) (*model.DiscoveredCompany, error) {
	base := strings.TrimRight(strings.TrimSpace(domain), "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	for _, path := range careersPaths {
		pageURL := base + path

		found, err := d.scanPage(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Debug("careers page scan failed", zap.String("url", pageURL), zap.Error(err))
			continue
		}
		if found == nil {
			continue
		}

		found.CompanyName = companyName
		found.Domain = cleanDomain(domain)
		found.Method = model.MethodCareersScan
		found.Confidence = confidenceCareersScan

		zap.L().Info("discovered board on careers page",
			zap.String("company", companyName),
			zap.String("ats", string(found.ATS)),
			zap.String("page", pageURL))

		return found, nil
	}

	return nil, nil
}

// scanPage fetches one page and returns the first ATS board linked from it.
func (d *Discoverer) scanPage(ctx context.Context, pageURL string) (*model.DiscoveredCompany, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	var found *model.DiscoveredCompany
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		if hit := d.FromURL(href); hit != nil {
			found = hit
			return false
		}
		return true
	})

	return found, nil
}
