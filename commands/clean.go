package commands

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"immoweb-scraper/scraper/immoweb"
	"immoweb-scraper/services"
	"immoweb-scraper/storage"
	"immoweb-scraper/utils"
)

func newCleanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Cleans the raw property file into the cleaned dataset.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			return a.clean(cmd.Context())
		},
	}
}

func newReportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Prints summary statistics of the cleaned dataset.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			return a.report(cmd.OutOrStdout())
		},
	}
}

func (a *app) clean(ctx context.Context) error {
	cfg, log := a.cfg, a.logger

	labels := immoweb.NewSaleClassifier(immoweb.RulesFromFlags(cfg.SaleFlags), cfg.SaleDefaultLabel).Labels()
	cc, err := services.CleanerConfigFrom(cfg, labels)
	if err != nil {
		return err
	}
	pipeline := services.NewPipeline(services.NewCleaner(cc, log), log)

	var pg *storage.PostgresWriter
	if cfg.PostgresDSN != "" {
		pg, err = storage.NewPostgresWriter(ctx, cfg.PostgresDSN, &utils.RetryConfig{
			MaxAttempts: cfg.DBConnectAttempts,
			BaseDelay:   2 * time.Second,
			Logger:      log,
		})
		if err != nil {
			return err
		}
		defer pg.Close()
		pipeline.AddSink(a.runID, pg)
	}

	stats, err := pipeline.Run(cfg.RawOutputPath(), cfg.CleanedOutputPath())
	if err != nil {
		return err
	}
	log.Info("Cleaned dataset: %d of %d rows kept → %s", stats.Written, stats.Loaded, cfg.CleanedOutputPath())

	if pg != nil {
		n, err := pg.Count(a.runID)
		if err != nil {
			log.Error("Failed to read back stored properties: %v", err)
		} else {
			log.Info("%d properties stored in PostgreSQL (table: properties)", n)
		}
	}
	return nil
}

func (a *app) report(w io.Writer) error {
	t, err := storage.LoadTable(a.cfg.CleanedOutputPath(), storage.DefaultLoadOptions())
	if err != nil {
		return err
	}
	svc := services.NewInsightService(a.logger)
	svc.Print(w, svc.Generate(t))
	return nil
}
