package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kinchart/pkg/graph"
	"github.com/matzehuels/kinchart/pkg/pipeline"
)

// batchCommand creates the batch command.
func (c *CLI) batchCommand() *cobra.Command {
	var (
		flags   layoutFlags
		focuses []string
		all     bool
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "batch <chart>",
		Short: "Lay out one chart around several focus persons",
		Long: `Lay out one chart around several focus persons.

Each focus gets its own <focus>.layout.json in the output directory. Layouts
run concurrently (see --concurrency); the first failure stops the batch.`,
		Example: `  kinchart batch family.yaml --focus anna,ben,carl -d out/
  kinchart batch family.yaml --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chart, err := graph.ReadChartFile(args[0])
			if err != nil {
				return fmt.Errorf("load chart %s: %w", args[0], err)
			}
			if all {
				focuses = personIDs(chart)
			}
			if len(focuses) == 0 {
				return fmt.Errorf("no focus persons: use --focus or --all")
			}
			opts, fc, err := c.loadConfig(flags.opts)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), fc.Cache, flags.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()
			return c.runBatch(cmd.Context(), runner, chart, focuses, outDir, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&focuses, "focus", "f", nil, "comma-separated focus person IDs")
	cmd.Flags().BoolVar(&all, "all", false, "lay out around every person in the chart")
	cmd.Flags().StringVarP(&outDir, "dir", "d", ".", "output directory")
	cmd.Flags().IntVarP(&flags.opts.Concurrency, "concurrency", "j", 0, fmt.Sprintf("parallel layouts (default %d)", pipeline.DefaultConcurrency))
	addLayoutFlags(cmd, &flags)

	return cmd
}

func (c *CLI) runBatch(ctx context.Context, runner *pipeline.Runner, chart graph.Chart, focuses []string, outDir string, opts pipeline.Options) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Laying out %d charts...", len(focuses)))
	spinner.Start()

	results, err := runner.ExecuteBatch(ctx, chart, focuses, opts)
	if err != nil {
		spinner.StopWithError("Batch failed")
		return err
	}
	spinner.Stop()

	var hits, invalid int
	for _, res := range results {
		path := filepath.Join(outDir, fileSafe(res.Layout.Focus)+".layout.json")
		if err := graph.WriteLayoutFile(res.Layout, path); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
		if res.CacheInfo.LayoutHit {
			hits++
		}
		if !res.Layout.Diagnostics.Valid {
			invalid++
			printWarning("%s: max violation %.2fpx", res.Layout.Focus, res.Layout.Diagnostics.MaxViolation)
		}
	}

	printSuccess("Laid out %d focus persons", len(results))
	printDetail("%d from cache · %d with violations", hits, invalid)
	prog.done(fmt.Sprintf("Batch of %d", len(results)))
	return nil
}

func personIDs(c graph.Chart) []string {
	ids := make([]string, 0, len(c.Persons))
	for _, p := range c.Persons {
		if c.View == nil || c.View.Persons == nil || slices.Contains(c.View.Persons, p.ID) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// fileSafe replaces path separators so a person ID can be used as a file
// name.
func fileSafe(id string) string {
	return strings.NewReplacer("/", "_", `\`, "_", ":", "_").Replace(id)
}
