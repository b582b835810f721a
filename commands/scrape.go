package commands

import (
	"github.com/spf13/cobra"

	"immoweb-scraper/scraper/immoweb"
)

// newScraper opens the configured fetcher. The caller closes it.
func (a *app) newScraper() (*immoweb.Scraper, immoweb.Fetcher, error) {
	fetcher, err := immoweb.NewFetcher(a.cfg, a.logger)
	if err != nil {
		return nil, nil, err
	}
	return immoweb.New(a.cfg, fetcher, a.logger), fetcher, nil
}

func newHarvestCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Collects listing links from the search pages into the links file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			s, fetcher, err := a.newScraper()
			if err != nil {
				return err
			}
			defer fetcher.Close()

			_, err = s.Harvest(cmd.Context())
			return err
		},
	}
}

func newExtractCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Extracts one record per harvested link into the raw property file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			s, fetcher, err := a.newScraper()
			if err != nil {
				return err
			}
			defer fetcher.Close()

			_, err = s.Extract(cmd.Context())
			return err
		},
	}
}

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Harvests, extracts, cleans and reports in one go.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			log := a.logger
			log.Info("=== Immoweb scraper starting ===")
			log.Info("Config: %d searches | pages %d-%d | pool %d | fetch mode %s",
				len(a.cfg.SearchURLs), a.cfg.StartPage, a.cfg.EndPage, a.cfg.PoolSize, a.cfg.FetchMode)

			s, fetcher, err := a.newScraper()
			if err != nil {
				return err
			}
			res, err := s.Run(cmd.Context())
			fetcher.Close()
			if err != nil {
				return err
			}
			if len(res.Records) == 0 {
				log.Warn("No records were extracted")
			}

			if err := a.clean(cmd.Context()); err != nil {
				return err
			}
			return a.report(cmd.OutOrStdout())
		},
	}
}
