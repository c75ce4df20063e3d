package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/platepack/pkg/cache"
	"github.com/matzehuels/platepack/pkg/observability"
	"github.com/matzehuels/platepack/pkg/packing"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, batch mode and the HTTP API all go through it.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
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
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete solve → verify → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, inst *packing.Instance, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}

	result := &Result{
		Instance:     inst,
		InstanceHash: cache.Hash(inst.Fingerprint()),
		Stats:        Stats{Circuits: inst.N},
	}

	// Stage 1: Solve
	solveStart := time.Now()
	out, hit, err := r.SolveWithCacheInfo(ctx, inst, opts)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}
	result.Outcome = out
	result.Stats.SolveTime = time.Since(solveStart)
	result.Stats.Iterations = out.Iterations
	result.CacheInfo.SolveHit = hit

	r.Logger.Info("solved instance",
		"circuits", inst.N,
		"strategy", out.Strategy,
		"status", out.Status,
		"length", out.Length(),
		"duration", result.Stats.SolveTime)

	// Stage 2: Verify
	if out.Solution != nil {
		if err := packing.Verify(inst, out.Solution); err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, inst, out, opts)
	observability.Solve().OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// SolveWithCacheInfo solves inst, reusing a cached outcome when one exists.
// Only proven verdicts (Optimal, Infeasible) are written to the cache.
func (r *Runner) SolveWithCacheInfo(ctx context.Context, inst *packing.Instance, opts Options) (*packing.Outcome, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForSolve(); err != nil {
		return nil, false, err
	}
	hooks := observability.Solve()
	cacheHooks := observability.Cache()

	cacheKey := r.Keyer.OutcomeKey(cache.Hash(inst.Fingerprint()), opts.OutcomeKeyOpts())

	// Try cache first (unless refresh requested). Debug dumps describe the
	// encoding, so a cached outcome cannot produce them.
	dumping := opts.DumpVars != nil || opts.DumpPB != nil
	if !opts.Refresh && !dumping {
		if out, ok := r.cachedOutcome(ctx, cacheKey); ok {
			cacheHooks.OnCacheHit(ctx, "outcome")
			r.Logger.Debug("outcome from cache", "key", cacheKey)
			return out, true, nil
		}
		cacheHooks.OnCacheMiss(ctx, "outcome")
	}

	progress := monotonic(func(imp packing.Improvement) {
		hooks.OnImprovement(ctx, imp.Strategy, imp.Iteration, imp.Length, imp.Elapsed)
		r.Logger.Debug("improved", "strategy", imp.Strategy, "iteration", imp.Iteration, "length", imp.Length)
		if opts.Progress != nil {
			opts.Progress(imp)
		}
	})
	strat, err := NewStrategy(opts, progress)
	if err != nil {
		return nil, false, err
	}

	hooks.OnSolveStart(ctx, strat.Name(), inst.N)
	start := time.Now()
	out, err := strat.Solve(ctx, inst)
	if err != nil {
		hooks.OnSolveComplete(ctx, strat.Name(), "", 0, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnSolveComplete(ctx, out.Strategy, out.Status.String(), out.Length(), out.Elapsed, nil)

	if cacheable(out) {
		if data, err := json.Marshal(out); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLOutcome); err != nil {
				r.Logger.Warn("cache write failed", "error", err)
			} else {
				cacheHooks.OnCacheSet(ctx, "outcome", len(data))
			}
		}
	}
	return out, false, nil
}

// cachedOutcome reads a proven outcome from the cache. Entries that do not
// decode are deleted and count as misses.
func (r *Runner) cachedOutcome(ctx context.Context, key string) (*packing.Outcome, bool) {
	var out packing.Outcome
	data, hit, err := r.Cache.Get(ctx, key)
	if err == nil && hit {
		if jerr := json.Unmarshal(data, &out); jerr != nil {
			err = fmt.Errorf("%w: %v", cache.ErrCorrupt, jerr)
			_ = r.Cache.Delete(ctx, key)
		}
	}
	switch {
	case errors.Is(err, cache.ErrCorrupt):
		r.Logger.Debug("discarded cache entry", "key", key, "error", err)
		return nil, false
	case err != nil:
		r.Logger.Warn("cache read failed", "error", err)
		return nil, false
	case !hit || !cacheable(&out):
		return nil, false
	}
	return &out, true
}

// Solve is a convenience wrapper that calls SolveWithCacheInfo and discards the cache hit info.
func (r *Runner) Solve(ctx context.Context, inst *packing.Instance, opts Options) (*packing.Outcome, error) {
	out, _, err := r.SolveWithCacheInfo(ctx, inst, opts)
	return out, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, inst *packing.Instance, out *packing.Outcome, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	cacheHooks := observability.Cache()

	// elapsed time does not round-trip exactly through JSON
	keyed := *out
	keyed.Elapsed = 0
	outcomeData, err := json.Marshal(keyed)
	if err != nil {
		return nil, false, fmt.Errorf("serialize outcome for cache key: %w", err)
	}
	var keyData bytes.Buffer
	keyData.Write(inst.Fingerprint())
	keyData.Write(outcomeData)
	cacheKeyHash := cache.Hash(keyData.Bytes())

	// Try to get all formats from cache
	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(cacheKeyHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, cacheKey)
		if err != nil || !hit {
			cacheHooks.OnCacheMiss(ctx, "artifact")
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		cacheHooks.OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}

	rendered, err := Render(inst, out, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(cacheKeyHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			cacheHooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, inst *packing.Instance, out *packing.Outcome, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, inst, out, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func cacheable(out *packing.Outcome) bool {
	return out.Status == packing.Optimal || out.Status == packing.Infeasible
}
