package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/celltrack/pkg/cache"
	"github.com/matzehuels/celltrack/pkg/core/experiment"
	"github.com/matzehuels/celltrack/pkg/errors"
	"github.com/matzehuels/celltrack/pkg/io"
	"github.com/matzehuels/celltrack/pkg/observability"
	"github.com/matzehuels/celltrack/pkg/render/lineagetree"
)

// Runner executes pipeline steps with caching. It holds no results, so
// one Runner can serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means [cache.DefaultKeyer] and a nil logger the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Result is the outcome of [Runner.Analyze].
type Result struct {
	Report   *Report
	DataHash string
	CacheHit bool
	Duration time.Duration
}

// Load decodes a data file. source names it in logs and hooks.
func (r *Runner) Load(ctx context.Context, source string, data []byte, opts ...io.ReadOption) (*experiment.Experiment, error) {
	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, source)
	exp, err := io.ReadJSON(bytes.NewReader(data), opts...)
	if err != nil {
		observability.Pipeline().OnLoadComplete(ctx, source, 0, 0, time.Since(start), err)
		return nil, fmt.Errorf("load %s: %w", source, err)
	}
	observability.Pipeline().OnLoadComplete(ctx, source, exp.Positions.Len(), exp.Links.LinkCount(), time.Since(start), nil)
	r.Logger.Debug("loaded experiment",
		"source", source,
		"positions", exp.Positions.Len(),
		"links", exp.Links.LinkCount(),
		"duration", time.Since(start))
	if exp.Name == "" {
		exp.Name = source
	}
	return exp, nil
}

// Analyze loads the data file and computes its report, using the cache
// when possible.
func (r *Runner) Analyze(ctx context.Context, source string, data []byte, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	result := &Result{DataHash: cache.Hash(data)}

	exp, err := r.Load(ctx, source, data)
	if err != nil {
		return nil, err
	}
	opts.Apply(exp)
	key := r.Keyer.ReportKey(result.DataHash, opts.reportKeyOpts(exp))

	if !opts.Refresh {
		if cached, hit := r.cachedReport(ctx, key); hit {
			result.Report, result.CacheHit = cached, true
			result.Duration = time.Since(start)
			return result, nil
		}
	}

	report, err := r.AnalyzeExperiment(ctx, exp, opts)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(report); err == nil {
		if err := r.Cache.Set(ctx, key, encoded, TTLReport); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "report", len(encoded))
		}
	}
	result.Report = report
	result.Duration = time.Since(start)
	return result, nil
}

// AnalyzeExperiment computes the report of an already loaded experiment,
// without caching.
func (r *Runner) AnalyzeExperiment(ctx context.Context, exp *experiment.Experiment, opts Options) (*Report, error) {
	start := time.Now()
	observability.Pipeline().OnAnalyzeStart(ctx, exp.Name)
	report, err := Analyze(exp, opts)
	observability.Pipeline().OnAnalyzeComplete(ctx, exp.Name, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("analyzed experiment",
		"name", exp.Name,
		"divisions", report.Divisions,
		"lineages", report.Lineages,
		"duration", time.Since(start))
	return report, nil
}

func (r *Runner) cachedReport(ctx context.Context, key string) (*Report, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "error", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, "report")
		return nil, false
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "report")
	return &report, true
}

// RenderTree renders the lineage tree of the data file in opts.Format,
// using the cache when possible. hit reports whether it came from the
// cache.
func (r *Runner) RenderTree(ctx context.Context, source string, data []byte, opts TreeOptions) (out []byte, hit bool, err error) {
	if opts.Format == "" {
		opts.Format = FormatSVG
	}
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, false, err
	}
	key := r.Keyer.TreeKey(cache.Hash(data), opts.treeKeyOpts())
	if !opts.Refresh {
		if cached, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, "tree")
			return cached, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "tree")
	}

	exp, err := r.Load(ctx, source, data)
	if err != nil {
		return nil, false, err
	}
	out, err = r.RenderExperimentTree(ctx, exp, opts)
	if err != nil {
		return nil, false, err
	}
	if err := r.Cache.Set(ctx, key, out, TTLTree); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "tree", len(out))
	}
	return out, false, nil
}

// RenderExperimentTree renders the lineage tree of exp without caching.
// Tracks are ordered by x position, which changes the track order of exp.
func (r *Runner) RenderExperimentTree(ctx context.Context, exp *experiment.Experiment, opts TreeOptions) ([]byte, error) {
	if opts.Format == "" {
		opts.Format = FormatSVG
	}
	if err := ValidateFormat(opts.Format); err != nil {
		return nil, err
	}
	if !exp.Links.HasLinks() {
		return nil, errors.New(errors.ErrCodeNoLinks, "experiment %q has no links to draw", exp.Name)
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Format)
	exp.Links.SortTracksByX()
	dot := lineagetree.ToDOT(exp.Links, opts.Options)

	var out []byte
	var err error
	switch opts.Format {
	case FormatDOT:
		out = []byte(dot)
	case FormatSVG:
		out, err = lineagetree.RenderSVG(dot)
	case FormatPNG:
		out, err = lineagetree.RenderPNG(dot)
	}
	observability.Pipeline().OnRenderComplete(ctx, opts.Format, len(out), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", opts.Format, err)
	}
	r.Logger.Debug("rendered lineage tree", "format", opts.Format, "bytes", len(out), "duration", time.Since(start))
	return out, nil
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
