package layout

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	kerrors "github.com/matzehuels/kinchart/pkg/errors"
)

// Default geometry, in pixels.
const (
	DefaultCardWidth      = 120.0
	DefaultCardHeight     = 56.0
	DefaultHorizontalGap  = 24.0
	DefaultPartnerGap     = 16.0
	DefaultVerticalGap    = 64.0
	DefaultElbowClearance = 14.0
	DefaultLaneSpacing    = 6.0
	DefaultTolerance      = 0.5
	DefaultMaxPasses      = 30
)

// Config holds the geometric constants a layout run reads.
type Config struct {
	CardWidth      float64 `json:"card_width"`
	CardHeight     float64 `json:"card_height"`
	HorizontalGap  float64 `json:"horizontal_gap"`  // minimum spacing between unrelated cards
	PartnerGap     float64 `json:"partner_gap"`     // spacing between the two cards of a couple
	VerticalGap    float64 `json:"vertical_gap"`    // spacing between generation bands
	ElbowClearance float64 `json:"elbow_clearance"` // minimum distance of a bus elbow from foreign verticals
	LaneSpacing    float64 `json:"lane_spacing"`
	Tolerance      float64 `json:"tolerance"`
	MaxPasses      int     `json:"max_passes"`

	// Strict turns invariant breaches (moving a locked block, non-finite
	// coordinates) into errors instead of skipped shifts.
	Strict bool `json:"strict,omitempty"`
}

// DefaultConfig returns the default geometry.
func DefaultConfig() Config {
	return Config{
		CardWidth:      DefaultCardWidth,
		CardHeight:     DefaultCardHeight,
		HorizontalGap:  DefaultHorizontalGap,
		PartnerGap:     DefaultPartnerGap,
		VerticalGap:    DefaultVerticalGap,
		ElbowClearance: DefaultElbowClearance,
		LaneSpacing:    DefaultLaneSpacing,
		Tolerance:      DefaultTolerance,
		MaxPasses:      DefaultMaxPasses,
	}
}

// Validate reports the first unusable value.
func (c Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"card width", c.CardWidth},
		{"card height", c.CardHeight},
		{"tolerance", c.Tolerance},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return kerrors.New(kerrors.ErrCodeInvalidConfig, "%s must be positive, got %v", p.name, p.v)
		}
	}
	nonNegative := []struct {
		name string
		v    float64
	}{
		{"horizontal gap", c.HorizontalGap},
		{"partner gap", c.PartnerGap},
		{"vertical gap", c.VerticalGap},
		{"elbow clearance", c.ElbowClearance},
		{"lane spacing", c.LaneSpacing},
	}
	for _, p := range nonNegative {
		if !(p.v >= 0) || math.IsInf(p.v, 0) {
			return kerrors.New(kerrors.ErrCodeInvalidConfig, "%s must not be negative, got %v", p.name, p.v)
		}
	}
	if c.MaxPasses < 1 {
		return kerrors.New(kerrors.ErrCodeInvalidConfig, "max passes must be at least 1, got %d", c.MaxPasses)
	}
	return nil
}

// Option configures a Compute call.
type Option func(*options)

type options struct {
	cfg    Config
	logger *log.Logger
}

// WithConfig replaces the default geometry.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger routes solver progress to logger at debug level.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStrict enables or disables strict mode on top of the configured
// geometry.
func WithStrict(strict bool) Option {
	return func(o *options) { o.cfg.Strict = strict }
}

func newOptions(opts []Option) options {
	o := options{cfg: DefaultConfig(), logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
