package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ngrash/go-javazic/internal/config"
	"github.com/ngrash/go-javazic/internal/logging"
	"github.com/ngrash/go-javazic/tzc"
	"github.com/ngrash/go-javazic/tzdata"
	"github.com/ngrash/go-javazic/tzdb/ianadist"
)

// flags are the command line settings. Set flags override the configuration file.
type flags struct {
	configPath string
	outputDir  string
	verbose    bool
	version    string
	namesFile  string
	startYear  int
	endYear    int
	singleYear int
	workers    int
	archive    string
	fetch      bool
	logLevel   string
}

// run executes the command and returns the exit status.
func run(args []string, client *ianadist.Client) int {
	var logger *slog.Logger
	cmd := newRootCmd(os.Stderr, client, &logger)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		if logger == nil {
			logger = logging.New(os.Stderr, logging.LevelFatal)
		}
		logging.Fatal(logger, "javazic failed", "err", err)
		return 1
	}
	return 0
}

// newRootCmd returns the javazic command. The logger it creates is stored in *logger.
func newRootCmd(stderr io.Writer, client *ianadist.Client, logger **slog.Logger) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "javazic [flags] [source files...]",
		Short: "Compile tzdata sources into zone files",
		Long: `javazic reads IANA tzdata source files and writes one binary zone file per
zone plus a ZoneInfoMappings file that groups all zones by their raw offset.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd, args)
			if err != nil {
				return err
			}
			level, err := logging.ParseLevel(cfg.Logging.Level)
			if err != nil {
				return err
			}
			*logger = logging.New(stderr, level)
			return compile(cmd.Context(), cfg, client, *logger)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	fs.StringVarP(&f.outputDir, "dir", "d", "zi", "output directory")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log progress")
	fs.StringVarP(&f.version, "tzdata-version", "V", "", "tzdata version written to the mappings file")
	fs.StringVarP(&f.namesFile, "names", "f", "", "file listing the zones to compile")
	fs.IntVarP(&f.startYear, "start", "s", tzc.DefaultStartYear, "first year of transitions")
	fs.IntVarP(&f.endYear, "end", "e", tzc.DefaultEndYear, "last year of transitions")
	fs.IntVarP(&f.singleYear, "single-year", "S", 0, "reduce every zone to the rules of one year")
	fs.IntVarP(&f.workers, "workers", "j", 1, "zones resolved concurrently")
	fs.StringVar(&f.archive, "archive", "", "read sources from a tzdata release archive")
	fs.BoolVar(&f.fetch, "fetch", false, "download the latest tzdata release")
	fs.StringVarP(&f.logLevel, "log-level", "l", "", "trace, debug, info, warning, error or fatal")
	return cmd
}

// config merges the configuration file, the set flags and the positional arguments.
func (f *flags) config(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(f.configPath); err != nil {
			return nil, err
		}
	}
	changed := cmd.Flags().Changed
	if changed("dir") {
		cfg.OutputDir = f.outputDir
	}
	if changed("tzdata-version") {
		cfg.Version = f.version
	}
	if changed("names") {
		cfg.ZoneNamesFile = f.namesFile
	}
	if changed("start") {
		cfg.StartYear = f.startYear
	}
	if changed("end") {
		cfg.EndYear = f.endYear
	}
	if changed("single-year") {
		cfg.SingleYear = f.singleYear
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("archive") {
		cfg.Archive = f.archive
	}
	if changed("fetch") {
		cfg.Fetch = f.fetch
	}
	if len(args) > 0 {
		cfg.Sources = args
	}
	switch {
	case changed("log-level"):
		cfg.Logging.Level = f.logLevel
	case f.verbose:
		cfg.Logging.Level = "info"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func compile(ctx context.Context, cfg *config.Config, client *ianadist.Client, logger *slog.Logger) error {
	files, version, err := readSources(ctx, cfg, client, logger)
	if err != nil {
		return err
	}
	if cfg.Version == "" {
		cfg.Version = version
	}

	var targets []string
	if cfg.ZoneNamesFile != "" {
		r, err := os.Open(cfg.ZoneNamesFile)
		if err != nil {
			return err
		}
		defer r.Close()
		if targets, err = tzdata.ReadZoneNames(r, logger); err != nil {
			return fmt.Errorf("%s: %w", cfg.ZoneNamesFile, err)
		}
	}

	result, err := tzc.Compile(ctx, files, tzc.Options{
		StartYear:  cfg.StartYear,
		EndYear:    cfg.EndYear,
		SingleYear: cfg.SingleYear,
		Targets:    targets,
		Version:    cfg.Version,
		Workers:    cfg.Workers,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	if err := result.Write(cfg.OutputDir); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("wrote zone files", "dir", cfg.OutputDir, "zones", len(result.Zones), "version", cfg.Version)
	return nil
}

// readSources parses the configured input. version is the version of a release, if any.
func readSources(ctx context.Context, cfg *config.Config, client *ianadist.Client, logger *slog.Logger) (files []*tzdata.File, version string, err error) {
	var release *ianadist.Release
	switch {
	case cfg.Fetch:
		logger.Info("downloading latest tzdata release")
		if release, _, err = client.Latest(ctx, ""); err != nil {
			return nil, "", err
		}
	case cfg.Archive != "":
		r, err := os.Open(cfg.Archive)
		if err != nil {
			return nil, "", err
		}
		defer r.Close()
		if release, err = ianadist.ReadArchive(r); err != nil {
			return nil, "", fmt.Errorf("%s: %w", cfg.Archive, err)
		}
	default:
		for _, path := range cfg.Sources {
			logger.Debug("parsing", "file", path)
			f, err := tzdata.ParseFile(path)
			if err != nil {
				return nil, "", err
			}
			files = append(files, f)
		}
		return files, "", nil
	}
	logger.Info("read tzdata release", "version", release.Version, "files", len(release.Files))
	files, err = release.Parse()
	return files, release.Version, err
}
