// Package cache stores computed layouts and previews between runs.
//
// # Backends
//
// [FileCache] keeps one file per entry under a directory and is what the
// CLI uses. [RedisCache] shares entries between server instances.
// [NullCache] stores nothing and is used when caching is disabled.
//
// # Keys
//
// A [Keyer] derives keys from the content hash of the input chart and the
// options that influence the result, so any change to either misses the
// cache. [ScopedKeyer] prefixes keys to separate namespaces that share one
// backend.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry kind.
const (
	TTLLayout  = 7 * 24 * time.Hour
	TTLPreview = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
//
// Get reports a miss with ok == false and a nil error. A ttl of zero means
// the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts lists everything besides the chart that changes a layout.
type LayoutKeyOpts struct {
	Focus          string  `json:"focus"`
	CardWidth      float64 `json:"card_width"`
	CardHeight     float64 `json:"card_height"`
	HorizontalGap  float64 `json:"horizontal_gap"`
	PartnerGap     float64 `json:"partner_gap"`
	VerticalGap    float64 `json:"vertical_gap"`
	ElbowClearance float64 `json:"elbow_clearance"`
	LaneSpacing    float64 `json:"lane_spacing"`
	Tolerance      float64 `json:"tolerance"`
	MaxPasses      int     `json:"max_passes"`
	Strict         bool    `json:"strict"`
}

// PreviewKeyOpts lists the options that change a rendered preview.
type PreviewKeyOpts struct {
	Format    string `json:"format"`
	ShowIDs   bool   `json:"show_ids"`
	Junctions bool   `json:"junctions"`
}

// Keyer generates cache keys.
type Keyer interface {
	// LayoutKey keys a computed layout by chart content hash and options.
	LayoutKey(chartHash string, opts LayoutKeyOpts) string

	// PreviewKey keys a rendered preview by layout content hash and options.
	PreviewKey(layoutHash string, opts PreviewKeyOpts) string
}

// DefaultKeyer hashes the options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(chartHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", chartHash, opts)
}

// PreviewKey returns "preview:<sha256>".
func (DefaultKeyer) PreviewKey(layoutHash string, opts PreviewKeyOpts) string {
	return hashKey("preview", layoutHash, opts)
}
