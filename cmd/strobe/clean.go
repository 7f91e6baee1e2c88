package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strobe/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the strobe summary cache",
	Long:  "Remove every cached schedule summary. Useful after artifact format changes.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(_ *cobra.Command, _ []string) error {
	cache, err := driver.OpenSummaryCache("strobe")
	if err != nil {
		return fmt.Errorf("failed to open summary cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop summary cache: %w", err)
	}
	_, _ = fmt.Fprintln(os.Stdout, "summary cache cleared")
	return nil
}
