package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"mediascan/internal/cache"
	"mediascan/internal/config"
	"mediascan/internal/progress"
	"mediascan/internal/scan"
	"mediascan/internal/store"
)

// scanOptions holds CLI flags for the scan command.
type scanOptions struct {
	workers      int
	batchSize    int
	dbPath       string
	incremental  bool
	format       string
	outputPath   string
	noHash       bool
	noRecursive  bool
	maxDepth     int
	thresholdStr string
	progress     bool
	noBar        bool
	cacheFile    string
	allFiles     bool
	logLevel     string
}

// newScanCmd creates the scan subcommand.
func newScanCmd() *cobra.Command {
	opts := &scanOptions{
		batchSize:    config.DefaultBatchSize,
		dbPath:       "mediascan.db",
		format:       "json",
		maxDepth:     config.DefaultMaxDepth,
		thresholdStr: "100MiB",
		logLevel:     "warn",
	}

	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan directories for media files",
		Long: `Walks the given directories, classifies media files by extension and
fingerprints their content. Results are written to stdout and persisted to a
SQLite database for change tracking.

With --incremental a scan diffs against the previous run: unchanged files are
never re-read, and files that disappeared are reported as deleted.

Use --progress to stream machine-readable NDJSON progress events on stderr.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runScan(args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Number of parallel workers (0 = one per CPU)")
	cmd.Flags().IntVarP(&opts.batchSize, "batch-size", "b", opts.batchSize, "Records per database transaction")
	cmd.Flags().StringVarP(&opts.dbPath, "db", "d", opts.dbPath, "Path to the scan database (empty disables persistence)")
	cmd.Flags().BoolVarP(&opts.incremental, "incremental", "i", false, "Diff against the previous scan and track deletions")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "Output format: json, ndjson or compact")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write results to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.noHash, "no-hash", false, "Skip content fingerprinting")
	cmd.Flags().BoolVar(&opts.noRecursive, "no-recursive", false, "Do not descend into subdirectories")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", opts.maxDepth, "Maximum recursion depth (roots are depth 0)")
	cmd.Flags().StringVar(&opts.thresholdStr, "large-file-threshold", opts.thresholdStr, "Size above which files get a partial digest (e.g., 100MiB)")
	cmd.Flags().BoolVarP(&opts.progress, "progress", "p", false, "Stream NDJSON progress events on stderr")
	cmd.Flags().BoolVar(&opts.noBar, "no-bar", false, "Disable the interactive progress bar")
	cmd.Flags().StringVar(&opts.cacheFile, "cache-file", "", "Path to digest cache file (enables caching)")
	cmd.Flags().BoolVar(&opts.allFiles, "all-files", false, "Include files that are not recognized media")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level: trace, debug, info, warn, error")

	return cmd
}

// runScan builds the configuration, opens the durable stores and executes one
// scan run.
func runScan(paths []string, opts *scanOptions) error {
	if err := setupLogging(opts.logLevel); err != nil {
		return err
	}

	threshold, err := parseSize(opts.thresholdStr)
	if err != nil {
		return fmt.Errorf("invalid --large-file-threshold: %w", err)
	}

	cfg := config.Default()
	cfg.Roots = paths
	cfg.Workers = opts.workers
	cfg.BatchSize = opts.batchSize
	cfg.ComputeHash = !opts.noHash
	cfg.Recursive = !opts.noRecursive
	cfg.MaxDepth = opts.maxDepth
	cfg.IncludeUnknown = opts.allFiles
	cfg.LargeFileThreshold = threshold
	cfg.DBPath = opts.dbPath
	cfg.CacheFile = opts.cacheFile
	if err := cfg.Validate(); err != nil {
		return err
	}

	var db *store.Store
	if cfg.DBPath != "" {
		if db, err = store.Open(cfg.DBPath); err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer func() { _ = db.Close() }()
	}

	digests, err := cache.Open(cfg.CacheFile)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer func() { _ = digests.Close() }()

	var reporter *progress.Reporter
	if opts.progress {
		reporter = progress.NewReporter(os.Stderr, cfg.ProgressInterval)
	}
	// The bar and the event stream share stderr; never run both
	bar := progress.NewBar(!opts.noBar && !opts.progress)

	res, err := scan.Run(context.Background(), scan.Options{
		Config:      cfg,
		Store:       db,
		Digests:     digests,
		Reporter:    reporter,
		Bar:         bar,
		Incremental: opts.incremental,
	})
	if err != nil {
		return err
	}

	out := os.Stdout
	if opts.outputPath != "" {
		if out, err = os.Create(opts.outputPath); err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() { _ = out.Close() }()
	}
	if err := writeResult(out, res, opts.format); err != nil {
		return err
	}

	log.Info().
		Uint64("files", res.TotalFiles).
		Uint64("dirs", res.TotalDirs).
		Uint64("new", res.NewFiles).
		Uint64("modified", res.ModifiedFiles).
		Uint64("deleted", res.DeletedFiles).
		Int("errors", res.ErrorCount).
		Str("elapsed", fmt.Sprintf("%dms", res.DurationMS)).
		Msg("scan complete")
	return nil
}

// setupLogging configures the global zerolog logger for console output.
func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)
	return nil
}
