package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strobe/internal/diagfmt"
	"strobe/internal/driver"
	"strobe/internal/ir"
)

// outcomePrinter renders one build outcome: diagnostics first, then the
// summary line and any requested extras (stats, IR dump, timings).
type outcomePrinter struct {
	format   string
	pathMode diagfmt.PathMode
	color    bool
	dump     bool
}

func newOutcomePrinter(cmd *cobra.Command) (*outcomePrinter, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}
	if format != "pretty" && format != "json" {
		return nil, fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	paths, err := cmd.Flags().GetString("paths")
	if err != nil {
		return nil, err
	}
	dump := false
	if cmd.Flags().Lookup("dump") != nil {
		if dump, err = cmd.Flags().GetBool("dump"); err != nil {
			return nil, err
		}
	}
	return &outcomePrinter{
		format:   format,
		pathMode: diagfmt.ParsePathMode(paths),
		color:    useColor(cmd),
		dump:     dump,
	}, nil
}

func (p *outcomePrinter) print(out *driver.Outcome) {
	p.printDiagnostics(out)

	switch {
	case out.Bag.HasErrors():
		fmt.Fprintf(os.Stdout, "failed  %s\n", out.Path)
	case out.CacheHit:
		fmt.Fprintf(os.Stdout, "cached  %s: %q, %d procedures\n",
			out.Path, out.Summary.Design, len(out.Summary.Funcs))
	default:
		fmt.Fprintf(os.Stdout, "scheduled %s: %q, %d procedures\n",
			out.Path, out.Summary.Design, len(out.Summary.Funcs))
	}

	if out.Summary != nil && len(out.Summary.Measures) > 0 {
		for _, m := range out.Summary.Measures {
			fmt.Fprintf(os.Stdout, "  %-32s %d\n", m.Name, m.Value)
		}
	}
	if p.dump && out.Netlist != nil {
		fmt.Fprint(os.Stdout, ir.DumpString(out.Netlist))
	}
	if out.Timing != nil {
		printTimingReport(os.Stdout, out.Path, out.Timing)
	}
}

func (p *outcomePrinter) printDiagnostics(out *driver.Outcome) {
	if out.Bag == nil || out.Bag.Len() == 0 {
		return
	}
	out.Bag.Sort()
	if p.format == "json" {
		if err := diagfmt.JSON(os.Stderr, out.Bag, out.FileSet, diagfmt.JSONOpts{
			PathMode:     p.pathMode,
			IncludeNotes: true,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to render diagnostics: %v\n", err)
		}
		return
	}
	diagfmt.Pretty(os.Stderr, out.Bag, out.FileSet, diagfmt.PrettyOpts{
		Color:      p.color,
		PathMode:   p.pathMode,
		ShowNotes:  true,
		ShowSource: true,
	})
}
