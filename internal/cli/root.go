// Package cli wires the scan engine to the command line: flag parsing,
// config merging, logger construction, and the out-of-band status dump.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"epubgrep/internal/config"
	"epubgrep/internal/logging"
	"epubgrep/internal/output"
	"epubgrep/internal/scan"
	"epubgrep/internal/search"
	"epubgrep/internal/walk"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// NewRootCommand creates the epubgrep root command.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epubgrep [flags] <pattern> <path>...",
		Short: "Grep for a regex in epub files",
		Long: `epubgrep searches the text content of epub files for a regular expression
and reports per-file match counts, optionally with context previews.

Directories are searched recursively. Files over the size budget (compressed
or uncompressed) are skipped without being opened. While a scan is running,
SIGQUIT (ctrl-\) prints a progress snapshot without interrupting it.

Configuration is loaded from .epubgrep.yaml if present; flags override it.

Examples:
  epubgrep 'Moby.?Dick' ~/books
  epubgrep -i -n 3 whale ~/books            # case-insensitive, at least 3 matches
  epubgrep --previews 2 --lead 40 --lag 40 whale ~/books
  epubgrep --size-max 50M whale big-books/
  epubgrep --randomize --seed 7 whale ~/books`,
		Version:      Version,
		Args:         cobra.MinimumNArgs(2),
		SilenceUsage: true,
		RunE:         run,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .epubgrep.yaml)")
	cmd.Flags().BoolP("ignore-case", "i", false, "Case-insensitive matching")
	cmd.Flags().UintP("min-matches", "n", 1, "Minimum number of matches per file")
	cmd.Flags().String("size-max", "10M", "Maximum file size, compressed and uncompressed (suffixes K, M, G)")
	cmd.Flags().Uint("workers", 0, "Scan worker count (0 = one per CPU)")
	cmd.Flags().Bool("randomize", false, "Process candidates in randomized order")
	cmd.Flags().Uint64("seed", 0, "Seed for --randomize (same seed, same order)")
	cmd.Flags().UintP("previews", "p", 0, "Context previews per file (0 = counts only)")
	cmd.Flags().Uint("lead", 30, "Preview context characters before a match")
	cmd.Flags().Uint("lag", 30, "Preview context characters after a match")
	cmd.Flags().StringSlice("include", nil, "Glob patterns for files found under directories")
	cmd.Flags().Bool("no-color", false, "Disable colored output")
	cmd.Flags().BoolP("verbose", "v", false, "Show effective options and debug detail")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	pattern, roots := args[0], args[1:]
	log := logging.New(cmd.ErrOrStderr(), opts.Verbose)

	// Pattern compilation failure is fatal before any file is scanned.
	engine, err := search.Compile(pattern, opts.IgnoreCase, opts.Lead, opts.Lag, opts.MaxPreviews)
	if err != nil {
		return err
	}

	log.Debug().
		Str("pattern", pattern).
		Str("size_max", opts.SizeMax).
		Uint("min_matches", opts.MinMatches).
		Bool("ignore_case", opts.IgnoreCase).
		Int("workers", opts.WorkerCount()).
		Msg("starting scan")

	candidates, err := walk.Discover(roots, opts.Include, log)
	if err != nil {
		return err
	}

	state := scan.NewState()
	sched := &scan.Scheduler{
		Engine:     engine,
		Filter:     scan.NewFilter(opts.SizeBudget(), nil),
		State:      state,
		Log:        log,
		Workers:    opts.WorkerCount(),
		MinMatches: int(opts.MinMatches),
		Randomize:  opts.Randomize,
		Seed:       opts.Seed,
		EntryLimit: opts.SizeBudget(),
	}

	renderer := output.NewRenderer(cmd.OutOrStdout(), opts.NoColor)
	statusRenderer := output.NewRenderer(cmd.ErrOrStderr(), opts.NoColor)

	// The status dump reads a snapshot; it never pauses or cancels workers.
	stop := notifyStatus(state, statusRenderer.Status)
	defer stop()

	results, fileErrs := sched.Run(context.Background(), candidates)

	for _, res := range results {
		renderer.Result(res)
	}
	if len(fileErrs) > 0 {
		log.Warn().Int("failed", len(fileErrs)).Msg("some files could not be scanned")
	}
	return nil
}

// loadOptions merges the config file with the flags; changed flags win.
func loadOptions(cmd *cobra.Command) (config.Options, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var opts config.Options
	var err error
	if configPath != "" {
		opts, err = config.Load(configPath, true)
	} else {
		opts, err = config.LoadFromDir(".")
	}
	if err != nil {
		return opts, err
	}

	flags := cmd.Flags()
	if flags.Changed("ignore-case") {
		opts.IgnoreCase, _ = flags.GetBool("ignore-case")
	}
	if flags.Changed("min-matches") {
		opts.MinMatches, _ = flags.GetUint("min-matches")
	}
	if flags.Changed("size-max") {
		opts.SizeMax, _ = flags.GetString("size-max")
	}
	if flags.Changed("workers") {
		opts.Workers, _ = flags.GetUint("workers")
	}
	if flags.Changed("randomize") {
		opts.Randomize, _ = flags.GetBool("randomize")
	}
	if flags.Changed("seed") {
		opts.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("previews") {
		opts.MaxPreviews, _ = flags.GetUint("previews")
	}
	if flags.Changed("lead") {
		opts.Lead, _ = flags.GetUint("lead")
	}
	if flags.Changed("lag") {
		opts.Lag, _ = flags.GetUint("lag")
	}
	if flags.Changed("include") {
		opts.Include, _ = flags.GetStringSlice("include")
	}
	if flags.Changed("no-color") {
		opts.NoColor, _ = flags.GetBool("no-color")
	}
	if flags.Changed("verbose") {
		opts.Verbose, _ = flags.GetBool("verbose")
	}

	return opts, nil
}
