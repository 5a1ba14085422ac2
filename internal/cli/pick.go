package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kinchart/pkg/graph"
)

// pickCommand creates the pick command.
func (c *CLI) pickCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "pick <chart>",
		Short: "Choose a focus person interactively, then lay out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chart, err := graph.ReadChartFile(args[0])
			if err != nil {
				return fmt.Errorf("load chart %s: %w", args[0], err)
			}
			if len(chart.Persons) == 0 {
				return fmt.Errorf("chart %s has no persons", args[0])
			}

			final, err := tea.NewProgram(NewPersonListModel(chart), tea.WithContext(cmd.Context())).Run()
			if err != nil {
				return fmt.Errorf("picker: %w", err)
			}
			selected := final.(PersonListModel).Selected
			if selected == nil {
				printInfo("No person selected")
				return nil
			}

			flags.opts.Focus = selected.ID
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
			if err := c.runLayout(cmd.Context(), runner, args[0], out, opts); err != nil {
				return err
			}
			printNextStep("Preview", "kinchart preview "+out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	addLayoutFlags(cmd, &flags)
	return cmd
}
