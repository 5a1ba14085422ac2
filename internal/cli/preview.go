package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kinchart/pkg/graph"
	"github.com/matzehuels/kinchart/pkg/pipeline"
)

const layoutSuffix = ".layout.json"

// previewCommand creates the preview command.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "preview <chart|layout.json>",
		Short: "Render a layout with Graphviz for inspection",
		Long: `Render a layout with Graphviz for inspection.

Cards are pinned at their computed positions and drawn with the neato
engine, so the preview shows exactly what the layout computed. Inputs ending
in .layout.json are rendered as is; charts are laid out first.`,
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
			return c.runPreview(cmd.Context(), runner, args[0], output, opts)
		},
	}

	cmd.Flags().StringVarP(&flags.opts.Focus, "focus", "f", "", "focus person ID (charts only)")
	cmd.Flags().StringVarP(&flags.opts.PreviewFormat, "format", "F", "", "output format: svg (default), dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().BoolVar(&flags.opts.ShowIDs, "show-ids", false, "print person IDs and generations on cards")
	cmd.Flags().BoolVar(&flags.opts.Junctions, "junctions", false, "draw union junction points")
	addLayoutFlags(cmd, &flags)

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, runner *pipeline.Runner, input, output string, opts pipeline.Options) error {
	l, err := c.loadOrComputeLayout(ctx, runner, input, opts)
	if err != nil {
		return err
	}

	opts.SetPreviewDefaults()
	out, hit, err := runner.Preview(ctx, l, opts)
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}

	if output == "" {
		base := strings.TrimSuffix(input, layoutSuffix)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		output = base + "." + opts.PreviewFormat
	}
	if err := os.WriteFile(output, out, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Rendered %s preview", strings.ToUpper(opts.PreviewFormat))
	printFile(output)
	printStats(l.Diagnostics.Persons, l.Diagnostics.Unions, hit)
	return nil
}

// loadOrComputeLayout reads a layout file, or lays out a chart file.
func (c *CLI) loadOrComputeLayout(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options) (graph.Layout, error) {
	if strings.HasSuffix(input, layoutSuffix) {
		l, err := graph.ReadLayoutFile(input)
		if err != nil {
			return graph.Layout{}, fmt.Errorf("load layout %s: %w", input, err)
		}
		return l, nil
	}

	chart, err := graph.ReadChartFile(input)
	if err != nil {
		return graph.Layout{}, fmt.Errorf("load chart %s: %w", input, err)
	}
	res, err := runner.Execute(ctx, chart, opts)
	if err != nil {
		return graph.Layout{}, err
	}
	c.Logger.Debug("laid out chart for preview", "focus", res.Layout.Focus, "cached", res.CacheInfo.LayoutHit)
	return res.Layout, nil
}
