package main

import (
	"fmt"
	"io"

	"strobe/internal/observ"
)

func printTimingReport(out io.Writer, path string, report *observ.Report) {
	if out == nil || report == nil || len(report.Phases) == 0 {
		return
	}
	fmt.Fprintf(out, "timings %s:\n", path)
	for _, p := range report.Phases {
		if p.Note != "" {
			fmt.Fprintf(out, "  %-20s %7.2f ms  // %s\n", p.Name, p.DurationMS, p.Note)
			continue
		}
		fmt.Fprintf(out, "  %-20s %7.2f ms\n", p.Name, p.DurationMS)
	}
	fmt.Fprintf(out, "  %-20s %7.2f ms\n", "total", report.TotalMS)
}
