package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/kinchart/pkg/cache"
	"github.com/matzehuels/kinchart/pkg/core/render/preview"
	kerrors "github.com/matzehuels/kinchart/pkg/errors"
	"github.com/matzehuels/kinchart/pkg/graph"
	"github.com/matzehuels/kinchart/pkg/observability"
)

// Preview renders a layout as Graphviz DOT or SVG, as selected by
// opts.PreviewFormat. The boolean reports a cache hit.
func (r *Runner) Preview(ctx context.Context, l graph.Layout, opts Options) ([]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	data, err := graph.MarshalLayout(l)
	if err != nil {
		return nil, false, kerrors.Wrap(kerrors.ErrCodeInternal, err, "hash layout")
	}
	key := r.Keyer.PreviewKey(cache.Hash(data), opts.PreviewKeyOpts())
	if !opts.Refresh {
		if out, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "preview")
			return out, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "preview")
	}

	observability.Layout().OnPreviewStart(ctx, opts.PreviewFormat)
	start := time.Now()
	out, err := RenderPreview(ctx, l, opts)
	observability.Layout().OnPreviewComplete(ctx, opts.PreviewFormat, len(out), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	opts.Logger.Debug("rendered preview", "format", opts.PreviewFormat, "bytes", len(out))

	r.storeBytes(ctx, "preview", key, out)
	return out, false, nil
}

// RenderPreview renders a layout without caching.
func RenderPreview(ctx context.Context, l graph.Layout, opts Options) ([]byte, error) {
	opts.SetPreviewDefaults()
	dot := preview.ToDOT(l, preview.Options{ShowIDs: opts.ShowIDs, Junctions: opts.Junctions})
	switch opts.PreviewFormat {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		svg, err := preview.RenderSVG(ctx, dot)
		if err != nil {
			return nil, kerrors.Wrap(kerrors.ErrCodeInternal, err, "render preview")
		}
		return svg, nil
	default:
		return nil, kerrors.New(kerrors.ErrCodeInvalidConfig, "unsupported preview format %q (want svg or dot)", opts.PreviewFormat)
	}
}
