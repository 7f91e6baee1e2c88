package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"strobe/internal/config"
	"strobe/internal/driver"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] <design.yaml|dir>",
	Short: "Schedule a design",
	Long: "Load a design file (or every design under a directory), build its netlist,\n" +
		"and schedule it into statically generated evaluation procedures.",
	Args: cobra.ExactArgs(1),
	RunE: buildExecution,
}

func init() {
	buildCmd.Flags().Uint32("converge-limit", 0, "convergence loop iteration limit (0: from strobe.toml)")
	buildCmd.Flags().Uint64("split-threshold", 0, "split generated procedures above this node count")
	buildCmd.Flags().Bool("protect-ids", false, "keep design identifiers out of generated debug code")
	buildCmd.Flags().Bool("x-initial-edge", false, "count the first evaluation as an edge")
	buildCmd.Flags().Bool("stats", false, "collect and print scheduling measurements")
	buildCmd.Flags().Bool("timings", false, "print per-phase timing reports")
	buildCmd.Flags().Bool("no-cache", false, "ignore and do not update the summary cache")
	buildCmd.Flags().Int("jobs", 0, "parallel design builds (0: GOMAXPROCS)")
	buildCmd.Flags().String("ui", "auto", "progress view for directory builds (auto|on|off)")
	buildCmd.Flags().Bool("dump", false, "print the scheduled netlist IR")
	buildCmd.Flags().String("format", "pretty", "diagnostic output format (pretty|json)")
	buildCmd.Flags().String("paths", "auto", "path display mode (auto|absolute|relative|basename)")
}

func buildExecution(cmd *cobra.Command, args []string) error {
	target := args[0]
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("failed to stat %q: %w", target, err)
	}

	opts, err := buildOptions(cmd, target)
	if err != nil {
		return err
	}
	printer, err := newOutcomePrinter(cmd)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		out, err := driver.Build(target, opts)
		if err != nil {
			return err
		}
		printer.print(out)
		if out.Bag.HasErrors() {
			return fmt.Errorf("build failed: %s", target)
		}
		return nil
	}

	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}

	files, err := driver.ListDesignFiles(target)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no design files under %q", target)
	}

	var results []driver.DirOutcome
	if shouldUseTUI(uiModeValue) {
		results, err = runBatchWithUI(cmd.Context(), "strobe build", files, opts, jobs)
	} else {
		results, err = driver.BuildFiles(cmd.Context(), files, opts, jobs)
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", res.Path, res.Err)
			failed++
			continue
		}
		printer.print(res.Outcome)
		if res.Outcome.Bag.HasErrors() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("build failed: %d of %d designs", failed, len(results))
	}
	return nil
}

// buildOptions merges the nearest strobe.toml with flag overrides and opens
// the summary cache.
func buildOptions(cmd *cobra.Command, target string) (driver.Options, error) {
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return driver.Options{}, err
	}
	var cfg config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		startDir := target
		if info, statErr := os.Stat(target); statErr == nil && !info.IsDir() {
			startDir = filepath.Dir(target)
		}
		cfg, err = config.Discover(startDir)
	}
	if err != nil {
		return driver.Options{}, err
	}
	cfg = cfg.Apply(flagOverrides(cmd))

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return driver.Options{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	opts := driver.Options{Config: cfg, MaxDiagnostics: maxDiagnostics}

	// Commands without a --no-cache flag never use the cache.
	noCache := true
	if cmd.Flags().Lookup("no-cache") != nil {
		noCache, err = cmd.Flags().GetBool("no-cache")
		if err != nil {
			return driver.Options{}, err
		}
	}
	if !noCache {
		cache, err := driver.OpenSummaryCache("strobe")
		if err != nil {
			// A broken cache dir must not block builds.
			fmt.Fprintf(os.Stderr, "warning: summary cache unavailable: %v\n", err)
		} else {
			opts.Cache = cache
		}
	}
	return opts, nil
}

// flagOverrides picks up only the flags the user actually set, so file and
// default values survive.
func flagOverrides(cmd *cobra.Command) config.Overrides {
	var o config.Overrides
	flags := cmd.Flags()
	if flags.Changed("converge-limit") {
		if v, err := flags.GetUint32("converge-limit"); err == nil {
			o.ConvergeLimit = &v
		}
	}
	if flags.Changed("split-threshold") {
		if v, err := flags.GetUint64("split-threshold"); err == nil {
			o.SplitThreshold = &v
		}
	}
	if flags.Changed("protect-ids") {
		if v, err := flags.GetBool("protect-ids"); err == nil {
			o.ProtectIds = &v
		}
	}
	if flags.Changed("x-initial-edge") {
		if v, err := flags.GetBool("x-initial-edge"); err == nil {
			o.XInitialEdge = &v
		}
	}
	if flags.Changed("stats") {
		if v, err := flags.GetBool("stats"); err == nil {
			o.Stats = &v
		}
	}
	if flags.Changed("timings") {
		if v, err := flags.GetBool("timings"); err == nil {
			o.Timings = &v
		}
	}
	return o
}
