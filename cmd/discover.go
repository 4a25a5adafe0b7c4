package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobintel/jobintel-cli/internal/discovery"
	"github.com/jobintel/jobintel-cli/internal/export"
)

var (
	discoverSeedFile string
	discoverOut      string
	discoverVerify   bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Probe seed domains for hosted Greenhouse and Lever boards",
	Long:  "Reads a YAML seed file of company domains and known careers URLs, probes the hosted board bases for each, and writes the discovered companies to CSV.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		seedFile := discoverSeedFile
		if seedFile == "" {
			seedFile = cfg.Data.DomainFile
		}

		seeds, err := discovery.LoadSeeds(seedFile)
		if err != nil {
			return err
		}

		verify := discoverVerify
		if !cmd.Flags().Changed("verify") {
			verify = cfg.Discovery.Verify
		}

		gh, lv := initClients()
		d := discovery.New(gh, lv,
			discovery.WithHTTPClient(&http.Client{
				Timeout: time.Duration(cfg.Discovery.TimeoutSecs) * time.Second,
			}),
			discovery.WithUserAgent(cfg.HTTP.UserAgent),
			discovery.WithConcurrency(cfg.Ingest.MaxConcurrentCompanies),
		)

		companies, err := d.DiscoverBatch(ctx, seeds, verify)
		if err != nil {
			return eris.Wrap(err, "discover")
		}

		if len(companies) == 0 {
			fmt.Fprintln(os.Stderr, "No companies discovered.")
			return nil
		}

		out := discoverOut
		if out == "" {
			out = filepath.Join(cfg.Data.ExportDir, "discovered_companies.csv")
		}
		if err := export.WriteDiscoveredCSV(out, companies); err != nil {
			return err
		}

		zap.L().Info("discovery complete",
			zap.Int("companies", len(companies)),
			zap.String("out", out))
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverSeedFile, "seed-file", "", "discovery seeds YAML (default from config)")
	discoverCmd.Flags().StringVar(&discoverOut, "out", "", "output CSV path (default {export_dir}/discovered_companies.csv)")
	discoverCmd.Flags().BoolVar(&discoverVerify, "verify", true, "verify boards by fetching sample postings")
	rootCmd.AddCommand(discoverCmd)
}
