package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"strobe/internal/diag"
	"strobe/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.FgBlue)
	caretColor   = color.New(color.FgGreen, color.Bold)
)

// Pretty renders diagnostics in a human-readable form. It walks bag.Items()
// (call bag.Sort() first for stable output) and prints for each diagnostic:
//
//	<path>:<line>:<col>: <severity> <CODE>: <message>
//	    <source line>
//	    ^~~~
//	  note: <note message>
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil || fs == nil {
		return
	}
	for _, d := range bag.Items() {
		printDiagnostic(w, &d, fs, opts)
	}
}

func printDiagnostic(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	loc := formatLocation(d.Primary, fs, opts.PathMode)
	sev := severityText(d.Severity, opts.Color)
	fmt.Fprintf(w, "%s: %s %s: %s\n", loc, sev, d.Code.ID(), d.Message)

	if opts.ShowSource {
		printSourceLine(w, d.Primary, fs, opts.Color)
	}

	if opts.ShowNotes {
		for _, note := range d.Notes {
			nloc := formatLocation(note.Span, fs, opts.PathMode)
			label := "note"
			if opts.Color {
				label = noteColor.Sprint(label)
			}
			fmt.Fprintf(w, "  %s: %s: %s\n", label, nloc, note.Msg)
		}
	}
}

func formatLocation(span source.Span, fs *source.FileSet, mode PathMode) string {
	f := fs.Get(span.File)
	start, _ := fs.Resolve(span)

	var path string
	switch mode {
	case PathModeAbsolute:
		path = f.FormatPath("absolute", "")
	case PathModeRelative:
		path = f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		path = f.FormatPath("basename", "")
	default:
		path = f.FormatPath("auto", "")
	}
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}

func printSourceLine(w io.Writer, span source.Span, fs *source.FileSet, colored bool) {
	f := fs.Get(span.File)
	start, end := fs.Resolve(span)

	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "    %s\n", line)

	// Caret under the span start, tildes to the span end (clamped to the line).
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		width = int(end.Col - start.Col)
	}
	if max := len(line) - int(start.Col) + 1; width > max && max > 0 {
		width = max
	}
	marker := "^" + strings.Repeat("~", width-1)
	if colored {
		marker = caretColor.Sprint(marker)
	}
	fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", int(start.Col)-1), marker)
}

func severityText(sev diag.Severity, colored bool) string {
	var label string
	var c *color.Color
	switch sev {
	case diag.SevError:
		label, c = "error", errorColor
	case diag.SevWarning:
		label, c = "warning", warningColor
	default:
		label, c = "info", infoColor
	}
	if colored {
		return c.Sprint(label)
	}
	return label
}
