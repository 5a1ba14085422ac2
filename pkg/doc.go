// Package pkg provides the libraries behind kinchart, a genealogical chart
// layout engine.
//
// # Overview
//
// kinchart places a family around one focus person: ancestors fan out
// above, descendants hang below, and every couple is centered over its
// children. The pkg directory is organized into:
//
//  1. [core] - Domain logic (family model, layout solver, line routing, preview)
//  2. [graph] - Chart input and layout output formats (JSON, YAML, msgpack)
//  3. [pipeline] - Orchestration (chart → model → layout → preview) with caching
//  4. [cache], [errors], [observability], [buildinfo] - Infrastructure
//
// # Architecture
//
//	Chart file (JSON/YAML)
//	         ↓
//	    [graph] package (decode + validate)
//	         ↓
//	    [core/family] package (graph + unions in view)
//	         ↓
//	    [core/layout] package (generations, blocks, solver)
//	         ↓
//	    [core/route] package (stems, buses, drops, spouse lines)
//	         ↓
//	    layout.json, or SVG/DOT via [core/render/preview]
//
// # Quick Start
//
//	chart, _ := graph.ReadChartFile("family.yaml")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, err := runner.Execute(ctx, chart, pipeline.Options{Focus: "carl"})
//	if err != nil {
//	    return err
//	}
//	_ = graph.WriteLayoutFile(res.Layout, "family.layout.json")
//
// Without the pipeline, the core can be driven directly:
//
//	g := family.New()
//	// g.AddPerson(...), g.AddPartnership(...)
//	m := family.BuildModel(g, family.All())
//	r, err := layout.Compute(m, "carl", layout.WithStrict(true))
//
// [core]: https://pkg.go.dev/github.com/matzehuels/kinchart/pkg/core
// [core/family]: https://pkg.go.dev/github.com/matzehuels/kinchart/pkg/core/family
// [core/layout]: https://pkg.go.dev/github.com/matzehuels/kinchart/pkg/core/layout
// [core/route]: https://pkg.go.dev/github.com/matzehuels/kinchart/pkg/core/route
// [core/render/preview]: https://pkg.go.dev/github.com/matzehuels/kinchart/pkg/core/render/preview
// [graph]: https://pkg.go.dev/github.com/matzehuels/kinchart/pkg/graph
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/kinchart/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/kinchart/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/kinchart/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/kinchart/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/kinchart/pkg/buildinfo
package pkg
