package driver

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fortio.org/safecast"
	log "github.com/sirupsen/logrus"

	"strobe/internal/config"
	"strobe/internal/design"
	"strobe/internal/diag"
	"strobe/internal/ir"
	"strobe/internal/observ"
	"strobe/internal/sched"
	"strobe/internal/source"
)

// defaultMaxDiagnostics bounds the bag when options leave it unset.
const defaultMaxDiagnostics = 256

// Options configures a design build.
type Options struct {
	// Config supplies scheduling and output policies, usually from
	// strobe.toml plus flag overrides.
	Config config.Config
	// MaxDiagnostics caps the diagnostic bag; zero means the default.
	MaxDiagnostics int
	// Cache reuses schedule summaries across runs; nil disables reuse.
	Cache *SummaryCache
	// Progress receives stage events; nil disables them.
	Progress ProgressSink
}

// Outcome is everything one design build produced. Design problems are
// diagnostics in Bag, not errors; Build returns an error only when no
// outcome could be produced at all.
type Outcome struct {
	Path    string
	Design  string
	FileSet *source.FileSet
	Bag     *diag.Bag
	Doc     *design.Document
	// Netlist is nil when loading failed or the summary came from cache.
	Netlist *ir.Netlist
	// Result is set only when scheduling ran in this process.
	Result  *sched.Result
	Summary *design.Summary
	// Timing is set when Config.Output.Timings is on.
	Timing   *observ.Report
	CacheHit bool
}

// Build runs the pipeline for one design file: load and decode, lower to a
// netlist, schedule, and summarize. YAML designs carry the human-written
// form; ".mpd" files carry the msgpack document a front end emitted.
func Build(path string, opts Options) (*Outcome, error) {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = defaultMaxDiagnostics
	}
	var timer *observ.Timer
	if opts.Config.Output.Timings {
		timer = observ.NewTimer()
	}
	started := time.Now()

	fs := source.NewFileSet()
	bag := diag.NewBag(opts.MaxDiagnostics)
	reporter := &diag.BagReporter{Bag: bag}
	out := &Outcome{Path: path, FileSet: fs, Bag: bag}

	emit(opts.Progress, path, StageLoad, StatusWorking, nil, 0)
	loadIdx := timer.Begin("load_design")
	id, err := fs.Load(path)
	if err != nil {
		timer.End(loadIdx, "")
		emit(opts.Progress, path, StageLoad, StatusError, err, time.Since(started))
		return nil, fmt.Errorf("driver: read %s: %w", path, err)
	}
	file := fs.Get(id)
	span := source.Span{File: id, Start: 0, End: uint32(len(file.Content))}

	doc, err := decodeDesign(file)
	if err != nil {
		diag.ReportError(reporter, diag.DsgParseError, span, err.Error()).Emit()
		timer.End(loadIdx, "")
		finishTiming(out, timer)
		emit(opts.Progress, path, StageLoad, StatusError, err, time.Since(started))
		return out, nil
	}
	out.Doc = doc
	out.Design = doc.Name
	timer.End(loadIdx, fmt.Sprintf("blocks=%d", len(doc.Blocks)))

	key := summaryKey(design.Digest(file.Hash), opts.Config)
	if sum, ok, err := opts.Cache.Get(key); err == nil && ok {
		log.Debugf("driver: %s: schedule summary reused from cache", path)
		out.Summary = sum
		out.CacheHit = true
		finishTiming(out, timer)
		emit(opts.Progress, path, StageLoad, StatusCached, nil, time.Since(started))
		return out, nil
	}

	emit(opts.Progress, path, StageSchedule, StatusWorking, nil, 0)
	buildIdx := timer.Begin("build_netlist")
	n, err := design.Build(doc, reporter, span)
	if err != nil {
		timer.End(buildIdx, "")
		finishTiming(out, timer)
		emit(opts.Progress, path, StageSchedule, StatusError, err, time.Since(started))
		return out, nil
	}
	out.Netlist = n
	timer.End(buildIdx, fmt.Sprintf("vars=%d", len(n.Vars())))

	schedIdx := timer.Begin("schedule")
	res, err := sched.Schedule(n, sched.Deps{Reporter: reporter}, opts.Config.SchedConfig())
	if err != nil {
		diag.ReportError(reporter, diag.SchInternal, span, err.Error()).Emit()
		timer.End(schedIdx, "")
		finishTiming(out, timer)
		emit(opts.Progress, path, StageSchedule, StatusError, err, time.Since(started))
		return out, nil
	}
	out.Result = res
	timer.End(schedIdx, fmt.Sprintf("funcs=%d", len(n.Funcs())))
	log.Debugf("driver: %s: scheduled %q into %d procedures", path, doc.Name, len(n.Funcs()))

	if bag.HasErrors() {
		finishTiming(out, timer)
		emit(opts.Progress, path, StageSchedule, StatusError, nil, time.Since(started))
		return out, nil
	}

	out.Summary = summarize(doc.Name, key, n, res)
	if err := opts.Cache.Put(key, out.Summary); err != nil {
		log.Debugf("driver: %s: cache write failed: %v", path, err)
	}
	finishTiming(out, timer)
	emit(opts.Progress, path, StageSchedule, StatusDone, nil, time.Since(started))
	return out, nil
}

// decodeDesign picks the document codec by extension.
func decodeDesign(file *source.File) (*design.Document, error) {
	if strings.EqualFold(filepath.Ext(file.Path), ".mpd") {
		return design.DecodeDocument(bytes.NewReader(file.Content))
	}
	return design.Parse(file.Content)
}

// summaryKey combines the design content digest with the schedule-relevant
// configuration so either change invalidates cached summaries.
func summaryKey(content design.Digest, cfg config.Config) design.Digest {
	return design.Combine(content, design.HashBytes([]byte(cfg.CacheKey())))
}

func summarize(name string, key design.Digest, n *ir.Netlist, res *sched.Result) *design.Summary {
	s := &design.Summary{
		Design:  name,
		Key:     key,
		Eval:    n.Func(res.Eval).Name,
		EvalNBA: n.Func(res.EvalNBA).Name,
	}
	for _, f := range n.Funcs() {
		s.Funcs = append(s.Funcs, f.Name)
	}
	sort.Strings(s.Funcs)
	for _, rt := range res.Triggers {
		s.Triggers = append(s.Triggers, design.TriggerTable{
			Tag:   rt.Tag,
			Descs: append([]string(nil), rt.Descs...),
		})
	}
	if res.Stats != nil {
		for _, sz := range res.Stats.Sizes {
			s.Measures = append(s.Measures, design.Measure{Name: sz.Name, Value: sz.Nodes})
		}
		funcs, err := safecast.Conv[uint64](res.Stats.Funcs)
		if err != nil {
			panic(fmt.Errorf("stats funcs overflow: %w", err))
		}
		vars, err := safecast.Conv[uint64](res.Stats.Vars)
		if err != nil {
			panic(fmt.Errorf("stats vars overflow: %w", err))
		}
		s.Measures = append(s.Measures,
			design.Measure{Name: "procedures", Value: funcs},
			design.Measure{Name: "variables", Value: vars})
	}
	return s
}

func finishTiming(out *Outcome, timer *observ.Timer) {
	if timer == nil {
		return
	}
	report := timer.Report()
	out.Timing = &report
	appendTimingDiagnostic(out.Bag, timingPayload{
		Kind:    "design",
		Path:    out.Path,
		TotalMS: report.TotalMS,
		Phases:  report.Phases,
	})
}
