package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/jobintel/jobintel-cli/internal/identity"
	"github.com/jobintel/jobintel-cli/internal/model"
)

// envelopeFile is the snapshot filename inside each company directory.
const envelopeFile = "jobs.json"

// Envelope is the on-disk snapshot of one company's postings for one run.
// Jobs carry the source payloads verbatim; interpretation happens at build
// time so a canonicalizer fix can replay old snapshots.
type Envelope struct {
	CompanyName string            `json:"company_name"`
	Source      model.Source      `json:"source"`
	Identifier  string            `json:"identifier"`
	ExtractedAt time.Time         `json:"extracted_at"`
	JobCount    int               `json:"job_count"`
	Jobs        []json.RawMessage `json:"jobs"`
}

// RawStore reads and writes raw posting envelopes laid out as
// {dir}/{run_date}/{source}/{company_id}/jobs.json.
type RawStore struct {
	dir string
}

// NewRawStore creates a raw snapshot store rooted at dir.
func NewRawStore(dir string) *RawStore {
	return &RawStore{dir: dir}
}

// Write persists one envelope, creating the directory tree as needed, and
// returns the written file path.
func (s *RawStore) Write(env Envelope, runDate time.Time) (string, error) {
	companyID := identity.CompanyID(env.CompanyName, "")
	dir := filepath.Join(s.dir, model.FormatRunDate(runDate), string(env.Source), companyID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "ingest: create %s", dir)
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", eris.Wrapf(err, "ingest: marshal envelope for %s", env.CompanyName)
	}

	path := filepath.Join(dir, envelopeFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "ingest: write %s", path)
	}

	return path, nil
}

// ReadRun loads every envelope for a run date. Envelopes come back in
// lexical (source, company id) order so a rebuild sees the same sequence
// every time.
func (s *RawStore) ReadRun(runDate time.Time) ([]Envelope, error) {
	runDir := filepath.Join(s.dir, model.FormatRunDate(runDate))
	sources, err := os.ReadDir(runDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Errorf("ingest: no raw snapshots for %s (run ingestion first)", model.FormatRunDate(runDate))
		}
		return nil, eris.Wrapf(err, "ingest: read %s", runDir)
	}

	var envelopes []Envelope
	for _, src := range sources {
		if !src.IsDir() {
			continue
		}
		srcDir := filepath.Join(runDir, src.Name())
		companies, err := os.ReadDir(srcDir)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read %s", srcDir)
		}

		for _, company := range companies {
			if !company.IsDir() {
				continue
			}
			path := filepath.Join(srcDir, company.Name(), envelopeFile)
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, eris.Wrapf(err, "ingest: read %s", path)
			}

			var env Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				return nil, eris.Wrapf(err, "ingest: parse %s", path)
			}
			envelopes = append(envelopes, env)
		}
	}

	return envelopes, nil
}
