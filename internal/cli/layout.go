package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kinchart/pkg/graph"
	"github.com/matzehuels/kinchart/pkg/pipeline"
)

// layoutFlags are the flags shared by layout, batch and pick.
type layoutFlags struct {
	opts    pipeline.Options
	noCache bool
}

// addLayoutFlags registers geometry and cache flags. Geometry flags default
// to zero so unset ones fall through to the config file and then to the
// layout defaults.
func addLayoutFlags(cmd *cobra.Command, f *layoutFlags) {
	fl := cmd.Flags()
	fl.Float64Var(&f.opts.CardWidth, "card-width", 0, "card width in px (default 120)")
	fl.Float64Var(&f.opts.CardHeight, "card-height", 0, "card height in px (default 56)")
	fl.Float64Var(&f.opts.HorizontalGap, "hgap", 0, "gap between unrelated cards in px")
	fl.Float64Var(&f.opts.PartnerGap, "partner-gap", 0, "gap between partners in px")
	fl.Float64Var(&f.opts.VerticalGap, "vgap", 0, "gap between generations in px")
	fl.IntVar(&f.opts.MaxPasses, "max-passes", 0, "solver pass limit")
	fl.BoolVar(&f.opts.Strict, "strict", false, "fail when a layout invariant is broken")
	fl.BoolVar(&f.opts.Refresh, "refresh", false, "recompute even if the layout is cached")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable the layout cache")
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "layout <chart>",
		Short: "Compute a chart layout around a focus person",
		Long: `Compute a chart layout around a focus person.

The chart is a JSON or YAML file of persons and partnerships. The focus is
taken from --focus, or from the chart's "focus" field. The output is a
layout.json with card positions, routed connections and diagnostics.

With --watch the layout is recomputed whenever the chart file changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, fc, err := c.loadConfig(flags.opts)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), fc.Cache, flags.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			out := output
			if out == "" {
				out = defaultLayoutPath(args[0])
			}
			if watch {
				return c.watchLayout(cmd.Context(), runner, args[0], out, opts)
			}
			return c.runLayout(cmd.Context(), runner, args[0], out, opts)
		},
	}

	cmd.Flags().StringVarP(&flags.opts.Focus, "focus", "f", "", "focus person ID")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "recompute when the chart changes")
	addLayoutFlags(cmd, &flags)

	return cmd
}

// runLayout reads the chart, lays it out and writes the result.
func (c *CLI) runLayout(ctx context.Context, runner *pipeline.Runner, input, output string, opts pipeline.Options) error {
	chart, err := graph.ReadChartFile(input)
	if err != nil {
		return fmt.Errorf("load chart %s: %w", input, err)
	}

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	res, err := runner.Execute(ctx, chart, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if err := graph.WriteLayoutFile(res.Layout, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Laid out %s around %s", filepath.Base(input), StyleFocus.Render(res.Layout.Focus))
	printFile(output)
	printStats(res.Stats.Persons, res.Stats.Unions, res.CacheInfo.LayoutHit)
	printDiagnostics(res.Layout.Diagnostics, c.Logger.GetLevel() <= LogDebug)
	return nil
}

// defaultLayoutPath maps "family.yaml" to "family.layout.json".
func defaultLayoutPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
}
