// Package main implements the strobe CLI.
package main

import (
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"strobe/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "strobe",
	Short: "Hardware design scheduler",
	Long:  `Strobe turns event-driven hardware designs into statically scheduled evaluation procedures`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return setupGlobals(cmd)
	},
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(triggersCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("config", "", "strobe.toml path (default: nearest above the design)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupGlobals(cmd *cobra.Command) error {
	colorValue, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	switch colorValue {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func useColor(cmd *cobra.Command) bool {
	colorValue, err := cmd.Flags().GetString("color")
	if err != nil {
		return false
	}
	switch colorValue {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}
