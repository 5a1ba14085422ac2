// Package pipeline runs chart layouts for the CLI and the HTTP server.
//
// Both entry points share one set of defaults and one cache policy through
// this package:
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, chart, pipeline.Options{Focus: "anna"})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Layout.Diagnostics.Valid)
//
// [Runner.ExecuteBatch] lays out one chart for several focus persons in
// parallel, and [Runner.Preview] renders a layout with Graphviz.
//
// # Configuration
//
// [Options] zero values mean "use the default". [LoadConfigFile] reads the
// same options from a TOML file; CLI flags that are set win over the file.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/kinchart/pkg/cache"
	"github.com/matzehuels/kinchart/pkg/core/layout"
	kerrors "github.com/matzehuels/kinchart/pkg/errors"
	"github.com/matzehuels/kinchart/pkg/graph"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultConcurrency bounds parallel layouts in a batch.
	DefaultConcurrency = 4

	// MaxConcurrency caps user-supplied concurrency.
	MaxConcurrency = 64
)

// Preview formats.
const (
	FormatSVG = "svg"
	FormatDOT = "dot"
)

// DefaultPreviewFormat is the default preview output.
const DefaultPreviewFormat = FormatSVG

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a layout run. It is decoded from HTTP request bodies
// and from the [layout] table of config files.
type Options struct {
	Focus string `json:"focus,omitempty" toml:"focus"`

	CardWidth      float64 `json:"card_width,omitempty" toml:"card_width" validate:"gte=0"`
	CardHeight     float64 `json:"card_height,omitempty" toml:"card_height" validate:"gte=0"`
	HorizontalGap  float64 `json:"horizontal_gap,omitempty" toml:"horizontal_gap" validate:"gte=0"`
	PartnerGap     float64 `json:"partner_gap,omitempty" toml:"partner_gap" validate:"gte=0"`
	VerticalGap    float64 `json:"vertical_gap,omitempty" toml:"vertical_gap" validate:"gte=0"`
	ElbowClearance float64 `json:"elbow_clearance,omitempty" toml:"elbow_clearance" validate:"gte=0"`
	LaneSpacing    float64 `json:"lane_spacing,omitempty" toml:"lane_spacing" validate:"gte=0"`
	Tolerance      float64 `json:"tolerance,omitempty" toml:"tolerance" validate:"gte=0"`
	MaxPasses      int     `json:"max_passes,omitempty" toml:"max_passes" validate:"gte=0,lte=1000"`
	Strict         bool    `json:"strict,omitempty" toml:"strict"`

	// Batch
	Concurrency int `json:"concurrency,omitempty" toml:"concurrency" validate:"gte=0,lte=64"`

	// Preview
	PreviewFormat string `json:"preview_format,omitempty" toml:"preview_format" validate:"omitempty,oneof=svg dot"`
	ShowIDs       bool   `json:"show_ids,omitempty" toml:"show_ids"`
	Junctions     bool   `json:"junctions,omitempty" toml:"junctions"`

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty" toml:"-"`

	Logger *log.Logger `json:"-" toml:"-" validate:"-"`

	validated bool
}

// Result is the outcome of one layout run.
type Result struct {
	// ID is derived from the cache key, so equal inputs get equal IDs.
	ID        string
	ChartHash string
	Layout    graph.Layout
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains timing and size information.
type Stats struct {
	Persons    int
	Unions     int
	LayoutTime time.Duration
}

// CacheInfo records whether the layout came from the cache.
type CacheInfo struct {
	LayoutHit bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and validates the options. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLayoutDefaults()
	o.SetPreviewDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// Validate checks field ranges and the resulting layout geometry.
func (o *Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInvalidConfig, err, "invalid options")
	}
	return o.LayoutConfig().Validate()
}

// SetLayoutDefaults fills zero geometry fields from the layout defaults.
func (o *Options) SetLayoutDefaults() {
	d := layout.DefaultConfig()
	setDefault(&o.CardWidth, d.CardWidth)
	setDefault(&o.CardHeight, d.CardHeight)
	setDefault(&o.HorizontalGap, d.HorizontalGap)
	setDefault(&o.PartnerGap, d.PartnerGap)
	setDefault(&o.VerticalGap, d.VerticalGap)
	setDefault(&o.ElbowClearance, d.ElbowClearance)
	setDefault(&o.LaneSpacing, d.LaneSpacing)
	setDefault(&o.Tolerance, d.Tolerance)
	if o.MaxPasses == 0 {
		o.MaxPasses = d.MaxPasses
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// SetPreviewDefaults sets default values for preview rendering.
func (o *Options) SetPreviewDefaults() {
	if o.PreviewFormat == "" {
		o.PreviewFormat = DefaultPreviewFormat
	}
}

func setDefault(v *float64, d float64) {
	if *v == 0 {
		*v = d
	}
}

// Overlay copies every non-zero field of other onto o. Booleans can only
// be switched on.
func (o *Options) Overlay(other Options) {
	if other.Focus != "" {
		o.Focus = other.Focus
	}
	overlay(&o.CardWidth, other.CardWidth)
	overlay(&o.CardHeight, other.CardHeight)
	overlay(&o.HorizontalGap, other.HorizontalGap)
	overlay(&o.PartnerGap, other.PartnerGap)
	overlay(&o.VerticalGap, other.VerticalGap)
	overlay(&o.ElbowClearance, other.ElbowClearance)
	overlay(&o.LaneSpacing, other.LaneSpacing)
	overlay(&o.Tolerance, other.Tolerance)
	if other.MaxPasses != 0 {
		o.MaxPasses = other.MaxPasses
	}
	if other.Concurrency != 0 {
		o.Concurrency = other.Concurrency
	}
	if other.PreviewFormat != "" {
		o.PreviewFormat = other.PreviewFormat
	}
	if other.Logger != nil {
		o.Logger = other.Logger
	}
	o.Strict = o.Strict || other.Strict
	o.ShowIDs = o.ShowIDs || other.ShowIDs
	o.Junctions = o.Junctions || other.Junctions
	o.Refresh = o.Refresh || other.Refresh
	o.validated = false
}

func overlay(v *float64, x float64) {
	if x != 0 {
		*v = x
	}
}

// LayoutConfig converts the options to a layout configuration. Call
// SetLayoutDefaults first; zero fields are passed through unchanged.
func (o *Options) LayoutConfig() layout.Config {
	return layout.Config{
		CardWidth:      o.CardWidth,
		CardHeight:     o.CardHeight,
		HorizontalGap:  o.HorizontalGap,
		PartnerGap:     o.PartnerGap,
		VerticalGap:    o.VerticalGap,
		ElbowClearance: o.ElbowClearance,
		LaneSpacing:    o.LaneSpacing,
		Tolerance:      o.Tolerance,
		MaxPasses:      o.MaxPasses,
		Strict:         o.Strict,
	}
}

// LayoutKeyOpts returns the cache key options for a layout with the given
// focus.
func (o *Options) LayoutKeyOpts(focus string) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Focus:          focus,
		CardWidth:      o.CardWidth,
		CardHeight:     o.CardHeight,
		HorizontalGap:  o.HorizontalGap,
		PartnerGap:     o.PartnerGap,
		VerticalGap:    o.VerticalGap,
		ElbowClearance: o.ElbowClearance,
		LaneSpacing:    o.LaneSpacing,
		Tolerance:      o.Tolerance,
		MaxPasses:      o.MaxPasses,
		Strict:         o.Strict,
	}
}

// PreviewKeyOpts returns the cache key options for a preview.
func (o *Options) PreviewKeyOpts() cache.PreviewKeyOpts {
	return cache.PreviewKeyOpts{
		Format:    o.PreviewFormat,
		ShowIDs:   o.ShowIDs,
		Junctions: o.Junctions,
	}
}
