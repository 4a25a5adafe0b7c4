package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jobintel/jobintel-cli/internal/model"
)

// LoadSeeds reads the company seed CSV that drives ingestion. Rows without
// a usable company name or ATS type are skipped with a warning rather than
// failing the whole file.
func LoadSeeds(path string) ([]model.CompanySeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open seed file %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	dec, err := csvutil.NewDecoder(r)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read seed header %s", path)
	}

	var seeds []model.CompanySeed
	for {
		var seed model.CompanySeed
		if err := dec.Decode(&seed); errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "ingest: parse seed file %s", path)
		}

		seed.CompanyName = strings.TrimSpace(seed.CompanyName)
		seed.Identifier = strings.TrimSpace(seed.Identifier)
		if seed.CompanyName == "" {
			continue
		}
		if !seed.ATSType.Valid() {
			zap.L().Warn("skipping seed with unsupported ats type",
				zap.String("company", seed.CompanyName),
				zap.String("ats_type", string(seed.ATSType)))
			continue
		}

		seeds = append(seeds, seed)
	}

	zap.L().Info("loaded company seeds",
		zap.Int("count", len(seeds)),
		zap.String("path", path))

	return seeds, nil
}
