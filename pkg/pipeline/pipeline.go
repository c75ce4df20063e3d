// Package pipeline runs a packing instance end to end.
//
// The same stages back the CLI, the batch command and the HTTP API, so all
// entry points share defaults, cache keys and validation:
//
//  1. Solve: pick a strategy (boolean, arith or portfolio) and run it under
//     the time budget, or reuse a cached proven outcome
//  2. Verify: re-check any returned packing against the instance
//  3. Render: produce the requested artifacts (txt, json, svg, ascii, blocks, dot, neato)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, inst, pipeline.Options{
//	    Strategy: "arith",
//	    Formats:  []string{"txt", "svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Outcome.Status, result.Outcome.Length())
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/platepack/pkg/arith"
	"github.com/matzehuels/platepack/pkg/boolean"
	"github.com/matzehuels/platepack/pkg/cache"
	"github.com/matzehuels/platepack/pkg/errors"
	"github.com/matzehuels/platepack/pkg/packing"
	"github.com/matzehuels/platepack/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Batch
// =============================================================================

const (
	// DefaultTimeoutMS is the solve budget in milliseconds (5 minutes).
	DefaultTimeoutMS = 300000

	// DefaultStrategy is the strategy used when none is named.
	DefaultStrategy = boolean.Name

	// DefaultDomain is the coordinate domain of the arithmetic strategy.
	DefaultDomain = string(arith.DomainPerCircuit)

	// DefaultStyle is the SVG style.
	DefaultStyle = render.StyleSimple

	// DefaultScale is the SVG pixel size of one unit cell.
	DefaultScale = render.DefaultScale
)

// StrategyPortfolio races the boolean and arithmetic strategies.
const StrategyPortfolio = "portfolio"

// Strategies lists the accepted strategy names.
var Strategies = []string{boolean.Name, arith.Name, StrategyPortfolio}

// Format constants for output artifacts.
const (
	FormatText   = "txt"
	FormatJSON   = "json"
	FormatSVG    = "svg"
	FormatASCII  = "ascii"
	FormatBlocks = "blocks"
	FormatDOT    = "dot"   // Graphviz source with pinned circuit boxes
	FormatNeato  = "neato" // SVG laid out by Graphviz neato
)

// DefaultFormats is the artifact set produced when none is requested.
var DefaultFormats = []string{FormatText}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText:   true,
	FormatJSON:   true,
	FormatSVG:    true,
	FormatASCII:  true,
	FormatBlocks: true,
	FormatDOT:    true,
	FormatNeato:  true,
}

// NeedsSolution reports whether a format can only be produced from a packing.
func NeedsSolution(format string) bool {
	switch format {
	case FormatSVG, FormatASCII, FormatBlocks, FormatDOT, FormatNeato:
		return true
	}
	return false
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Solve options
	Strategy   string `json:"strategy,omitempty"`
	TimeoutMS  int    `json:"timeout_ms,omitempty"`
	Domain     string `json:"domain,omitempty"`
	MagW       int    `json:"mag_w,omitempty"`
	NoSymmetry bool   `json:"no_symmetry,omitempty"`
	Refresh    bool   `json:"refresh,omitempty"` // ignore cached outcomes

	// Render options
	Formats []string `json:"formats,omitempty"`
	Style   string   `json:"style,omitempty"`
	Scale   int      `json:"scale,omitempty"`
	Labels  bool     `json:"labels,omitempty"`
	Grid    bool     `json:"grid,omitempty"`
	Color   bool     `json:"color,omitempty"` // ANSI colours in ascii output

	// Runtime options (not serialized)
	Logger   *log.Logger          `json:"-"`
	Progress packing.ProgressFunc `json:"-"`
	DumpVars io.Writer            `json:"-"`
	DumpPB   io.Writer            `json:"-"`
	// Detached is told about engine searches still running after the
	// budget ran out; the channel closes when the search exits.
	Detached func(exited <-chan struct{}) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Instance is the solved instance.
	Instance *packing.Instance

	// InstanceHash is the content hash of the instance.
	InstanceHash string

	// Outcome is the verdict of the strategy.
	Outcome *packing.Outcome

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Circuits   int
	Iterations int
	SolveTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SolveHit  bool // Whether the outcome came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: txt, json, svg, ascii, blocks, dot, neato)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStrategy checks that a strategy name is valid.
func ValidateStrategy(name string) error {
	for _, s := range Strategies {
		if name == s {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidStrategy, "invalid strategy: %q (must be one of: boolean, arith, portfolio)", name)
}

// =============================================================================
// Options Methods
// =============================================================================

// Overlay returns o with the non-zero fields of over applied on top.
// Boolean flags are ORed. The result is unvalidated.
func (o Options) Overlay(over Options) Options {
	out := o
	out.validated = false
	if over.Strategy != "" {
		out.Strategy = over.Strategy
	}
	if over.TimeoutMS != 0 {
		out.TimeoutMS = over.TimeoutMS
	}
	if over.Domain != "" {
		out.Domain = over.Domain
	}
	if over.MagW != 0 {
		out.MagW = over.MagW
	}
	if len(over.Formats) > 0 {
		out.Formats = over.Formats
	}
	if over.Style != "" {
		out.Style = over.Style
	}
	if over.Scale != 0 {
		out.Scale = over.Scale
	}
	out.NoSymmetry = out.NoSymmetry || over.NoSymmetry
	out.Refresh = out.Refresh || over.Refresh
	out.Labels = out.Labels || over.Labels
	out.Grid = out.Grid || over.Grid
	out.Color = out.Color || over.Color
	if over.Logger != nil {
		out.Logger = over.Logger
	}
	if over.Progress != nil {
		out.Progress = over.Progress
	}
	if over.DumpVars != nil {
		out.DumpVars = over.DumpVars
	}
	if over.DumpPB != nil {
		out.DumpPB = over.DumpPB
	}
	if over.Detached != nil {
		out.Detached = over.Detached
	}
	return out
}

// ValidateAndSetDefaults checks every field and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForSolve(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForSolve validates and sets defaults for the solve stage.
func (o *Options) ValidateForSolve() error {
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	if err := ValidateStrategy(o.Strategy); err != nil {
		return err
	}
	if o.TimeoutMS == 0 {
		o.TimeoutMS = DefaultTimeoutMS
	}
	if err := errors.ValidateDuration("timeout", o.Budget()); err != nil {
		return err
	}
	if o.Domain == "" {
		o.Domain = DefaultDomain
	}
	if err := errors.ValidateOneOf("domain", o.Domain, arith.Domains...); err != nil {
		return err
	}
	if o.MagW < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "mag_w must not be negative, got %d", o.MagW)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForRender validates and sets defaults for the render stage.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = append([]string(nil), DefaultFormats...)
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if err := errors.ValidateOneOf("style", o.Style, render.StyleNames...); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidStyle, err, "invalid style")
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if err := errors.ValidatePositive("scale", o.Scale); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// Budget returns the time budget as a duration.
func (o *Options) Budget() time.Duration {
	return time.Duration(o.TimeoutMS) * time.Millisecond
}

// OutcomeKeyOpts returns cache key options for the solve stage.
func (o *Options) OutcomeKeyOpts() cache.OutcomeKeyOpts {
	k := cache.OutcomeKeyOpts{
		Strategy: o.Strategy,
		Symmetry: !o.NoSymmetry,
	}
	if o.Strategy != boolean.Name {
		k.Domain = o.Domain
		k.MagW = o.MagW
	}
	return k
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatSVG:
		k.Style, k.Scale, k.Labels, k.Grid = o.Style, o.Scale, o.Labels, o.Grid
	case FormatBlocks:
		k.Style, k.Scale = o.Style, o.Scale
	case FormatASCII:
		k.Color = o.Color
	}
	return k
}
