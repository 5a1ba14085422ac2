package pipeline

import (
	"github.com/matzehuels/kinchart/pkg/core/family"
	"github.com/matzehuels/kinchart/pkg/core/layout"
	kerrors "github.com/matzehuels/kinchart/pkg/errors"
	"github.com/matzehuels/kinchart/pkg/graph"
)

// ResolveFocus picks the focus person: the explicit one, else the chart's
// default. The focus must have a person record in the chart.
func ResolveFocus(c graph.Chart, explicit string) (string, error) {
	focus := explicit
	if focus == "" {
		focus = c.Focus
	}
	if focus == "" {
		return "", kerrors.New(kerrors.ErrCodeInvalidInput, "no focus person: set one with --focus or in the chart")
	}
	if !c.HasPerson(focus) {
		return "", kerrors.New(kerrors.ErrCodeFocusNotFound, "focus person %q is not in the chart", focus)
	}
	return focus, nil
}

// ComputeLayout converts a chart to the family model and lays it out
// around focus. It does no caching; use [Runner.Execute] for that.
//
// In strict mode a layout invariant breach returns an error along with the
// partial result.
func ComputeLayout(c graph.Chart, focus string, opts Options) (*layout.Result, error) {
	opts.SetLayoutDefaults()
	g, sel, err := graph.ToFamily(c)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "load chart")
	}
	m := family.BuildModel(g, sel)
	opts.Logger.Debug("built family model",
		"persons", len(m.Persons()),
		"unions", m.UnionCount(),
		"skipped", len(m.Skipped()))

	return layout.Compute(m, focus,
		layout.WithConfig(opts.LayoutConfig()),
		layout.WithLogger(opts.Logger),
	)
}
