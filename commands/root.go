package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"immoweb-scraper/config"
	"immoweb-scraper/utils"
)

// app is the state a subcommand runs with, built from the environment and
// the command line.
type app struct {
	cfg    *config.Config
	logger *utils.Logger
	runID  string
}

// options holds the persistent flags of one command tree.
type options struct {
	envFile    string
	dataDir    string
	startPage  int
	endPage    int
	poolSize   int
	fetchMode  string
	phaseDelay time.Duration
	logLevel   string
	logJSON    bool
}

// newRootCmd builds the command tree with its own flag state.
func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "immoweb-scraper",
		Short: "immoweb-scraper harvests immoweb.be listings and cleans them into a dataset.",
		Long: `immoweb-scraper collects listing links from the immoweb.be search pages,
extracts one record per listing into a CSV file and cleans that file into
a deduplicated dataset. Settings come from the environment or a .env file;
flags override them.`,
		SilenceUsage: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.envFile, "env-file", ".env", "Environment file to load before reading settings.")
	f.StringVar(&opts.dataDir, "data-dir", "", "Directory for the links, raw and cleaned files (DATA_DIR).")
	f.IntVar(&opts.startPage, "start-page", 0, "First search page to harvest (START_PAGE).")
	f.IntVar(&opts.endPage, "end-page", 0, "Last search page to harvest (END_PAGE).")
	f.IntVar(&opts.poolSize, "pool-size", 0, "Number of concurrent fetches (POOL_SIZE).")
	f.StringVar(&opts.fetchMode, "fetch-mode", "", "static or browser (FETCH_MODE).")
	f.DurationVar(&opts.phaseDelay, "phase-delay", 0, "Pause between harvesting and extraction (PHASE_DELAY).")
	f.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (LOG_LEVEL).")
	f.BoolVar(&opts.logJSON, "log-json", false, "Write logs as JSON (LOG_JSON).")

	root.AddCommand(
		newHarvestCmd(opts),
		newExtractCmd(opts),
		newRunCmd(opts),
		newCleanCmd(opts),
		newReportCmd(opts),
	)
	return root
}

func setup(cmd *cobra.Command, opts *options) (*app, error) {
	cfg := config.Load(opts.envFile)
	opts.apply(cmd, cfg)

	logger := utils.NewLoggerWithOptions(utils.LoggerOptions{
		Level:   utils.ParseLevel(cfg.LogLevel),
		JSON:    cfg.LogJSON,
		NoColor: cfg.NoColor,
	})

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}

	runID := uuid.NewString()
	a := &app{
		cfg:    cfg,
		logger: logger.With("run_id", runID),
		runID:  runID,
	}
	a.logger.Debug("[setup] Data directory %s, %d pages per search, pool size %d",
		cfg.DataDir, cfg.PageCount(), cfg.PoolSize)
	return a, nil
}

// apply overrides cfg with the flags set on the command line.
func (o *options) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = o.dataDir
	}
	if flags.Changed("start-page") {
		cfg.StartPage = o.startPage
	}
	if flags.Changed("end-page") {
		cfg.EndPage = o.endPage
	}
	if flags.Changed("pool-size") {
		cfg.PoolSize = o.poolSize
	}
	if flags.Changed("fetch-mode") {
		cfg.FetchMode = o.fetchMode
	}
	if flags.Changed("phase-delay") {
		cfg.PhaseDelay = o.phaseDelay
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-json") {
		cfg.LogJSON = o.logJSON
	}
}

// Execute runs the command selected by the process arguments.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
