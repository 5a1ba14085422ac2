// Package preview draws a computed family chart layout with Graphviz.
//
// # Overview
//
// The preview is a debugging aid: it takes the pixel positions of a
// [graph.Layout] and pins every card at its computed coordinates, so the
// picture shows exactly what the solver produced. Lines are drawn straight
// from each partner to a junction at the top of the union's stem and from
// there to every child; the routed buses themselves are not reproduced.
//
// # Usage
//
//	dot := preview.ToDOT(l, preview.Options{ShowIDs: true})
//	svg, err := preview.RenderSVG(ctx, dot)
//
// # DOT Format
//
// The generated DOT uses the neato engine with inputscale=72, so the pos
// attribute of every node is given in points and marked fixed ("x,y!").
// Y is negated because Graphviz grows upward.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package preview
