package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/kinchart/pkg/cache"
	kerrors "github.com/matzehuels/kinchart/pkg/errors"
	"github.com/matzehuels/kinchart/pkg/graph"
	"github.com/matzehuels/kinchart/pkg/observability"
)

// layoutNamespace seeds the name-based layout IDs.
var layoutNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/matzehuels/kinchart/layout"))

// Runner executes layouts with caching. It holds no per-run state, so one
// Runner can serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL applies to every entry the runner writes.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// means [cache.DefaultKeyer].
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
		TTL:    cache.TTLLayout,
	}
}

// Execute lays out the chart around opts.Focus (or the chart's default
// focus), reading and writing the cache unless opts.Refresh is set.
func (r *Runner) Execute(ctx context.Context, c graph.Chart, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	focus, err := ResolveFocus(c, opts.Focus)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeTimeout, err, "layout %s", focus)
	}

	data, err := graph.MarshalChart(c)
	if err != nil {
		return nil, fmt.Errorf("hash chart: %w", err)
	}
	res := &Result{ChartHash: cache.Hash(data)}
	key := r.Keyer.LayoutKey(res.ChartHash, opts.LayoutKeyOpts(focus))
	res.ID = LayoutID(key)

	if !opts.Refresh {
		if l, ok := r.cachedLayout(ctx, key); ok {
			l.ID = res.ID
			res.Layout = l
			res.CacheInfo.LayoutHit = true
			res.Stats.Persons = l.Diagnostics.Persons
			res.Stats.Unions = l.Diagnostics.Unions
			opts.Logger.Debug("layout cache hit", "focus", focus, "id", res.ID)
			return res, nil
		}
	}

	observability.Layout().OnLayoutStart(ctx, focus, len(c.Persons))
	start := time.Now()
	lr, err := ComputeLayout(c, focus, opts)
	res.Stats.LayoutTime = time.Since(start)
	if err != nil {
		observability.Layout().OnLayoutComplete(ctx, focus, false, res.Stats.LayoutTime, err)
		return nil, err
	}

	l := lr.Export()
	l.ID = res.ID
	res.Layout = l
	res.Stats.Persons = l.Diagnostics.Persons
	res.Stats.Unions = l.Diagnostics.Unions
	observability.Layout().OnLayoutComplete(ctx, focus, l.Diagnostics.Valid, res.Stats.LayoutTime, nil)

	opts.Logger.Info("computed layout",
		"focus", focus,
		"persons", l.Diagnostics.Persons,
		"duration", res.Stats.LayoutTime)
	if !l.Diagnostics.Valid {
		opts.Logger.Warn("layout has violations",
			"focus", focus,
			"max_violation", l.Diagnostics.MaxViolation,
			"errors", len(l.Diagnostics.Errors))
	}

	r.store(ctx, "layout", key, l)
	return res, nil
}

// ExecuteBatch lays out one chart for each focus, running at most
// opts.Concurrency layouts at a time. Results are in focus order. The
// first failure cancels the remaining layouts.
func (r *Runner) ExecuteBatch(ctx context.Context, c graph.Chart, focuses []string, opts Options) ([]*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if len(focuses) == 0 {
		return nil, kerrors.New(kerrors.ErrCodeInvalidInput, "batch needs at least one focus person")
	}

	results := make([]*Result, len(focuses))
	errg, gctx := errgroup.WithContext(ctx)
	errg.SetLimit(opts.Concurrency)
	for i, focus := range focuses {
		errg.Go(func() error {
			o := opts
			o.Focus = focus
			res, err := r.Execute(gctx, c, o)
			if err != nil {
				return fmt.Errorf("focus %s: %w", focus, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, err
	}

	hits := 0
	for _, res := range results {
		if res.CacheInfo.LayoutHit {
			hits++
		}
	}
	opts.Logger.Info("computed batch", "layouts", len(results), "cached", hits)
	return results, nil
}

// LayoutID derives a stable UUID from a cache key.
func LayoutID(key string) string {
	return uuid.NewSHA1(layoutNamespace, []byte(key)).String()
}

func (r *Runner) cachedLayout(ctx context.Context, key string) (graph.Layout, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Debug("cache read failed", "key", key, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return graph.Layout{}, false
	}
	l, err := graph.DecodeLayout(data)
	if err != nil {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return graph.Layout{}, false
	}
	observability.Cache().OnCacheHit(ctx, "layout")
	return l, true
}

func (r *Runner) store(ctx context.Context, keyType, key string, l graph.Layout) {
	data, err := graph.EncodeLayout(l)
	if err != nil {
		r.Logger.Debug("encode layout for cache", "err", err)
		return
	}
	r.storeBytes(ctx, keyType, key, data)
}

func (r *Runner) storeBytes(ctx context.Context, keyType, key string, data []byte) {
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
