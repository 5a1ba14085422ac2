package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/kinchart/pkg/pipeline"
)

// watchDebounce collapses the burst of events editors produce on save.
const watchDebounce = 100 * time.Millisecond

// watchLayout lays out input once, then again after each change to it,
// until ctx is done. Layout errors are reported and watching continues.
func (c *CLI) watchLayout(ctx context.Context, runner *pipeline.Runner, input, output string, opts pipeline.Options) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors often replace the file instead of
	// writing it, which drops a watch on the file itself.
	abs, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	rerun := func() {
		if err := c.runLayout(ctx, runner, input, output, opts); err != nil && ctx.Err() == nil {
			printError("%v", err)
		}
	}
	rerun()
	printInfo("Watching %s (ctrl+c to stop)", input)

	// Only the first run honors --refresh. Later runs are keyed by the
	// changed chart content anyway.
	opts.Refresh = false

	timer := time.NewTimer(0)
	<-timer.C
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isChartChange(ev, abs) {
				continue
			}
			c.Logger.Debug("chart changed", "op", ev.Op.String())
			timer.Reset(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				timer.Reset(watchDebounce)
				continue
			}
			c.Logger.Warn("watch error", "err", err)
		case <-timer.C:
			rerun()
		}
	}
}

// isChartChange reports whether ev touches the watched chart in a way that
// can change its content. Permission-only changes are ignored.
func isChartChange(ev fsnotify.Event, chartPath string) bool {
	if filepath.Clean(ev.Name) != chartPath {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
