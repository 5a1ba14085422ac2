package preview

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kinchart/pkg/graph"
)

// Options configures preview rendering.
type Options struct {
	// ShowIDs adds the person ID and generation under each card's name.
	ShowIDs bool

	// Junctions draws the union junction points. When false, partners are
	// joined to their children directly.
	Junctions bool
}

// Side fill colors.
const (
	fillHusband = "lightblue"
	fillWife    = "mistyrose"
	fillBoth    = "white"
	fillFocus   = "gold"
)

// ToDOT converts a layout to Graphviz DOT with every card pinned at its
// computed position. The result can be rendered with [RenderSVG].
func ToDOT(l graph.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fillcolor=%s, fontsize=11, fixedsize=true, width=%s, height=%s];\n",
		fillBoth, inches(l.CardWidth), inches(l.CardHeight))
	buf.WriteString("  edge [dir=none, color=\"#555555\"];\n")
	buf.WriteString("\n")

	for _, p := range l.Positions {
		cx := p.X + l.CardWidth/2
		cy := p.Y + l.CardHeight/2
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(p, opts.ShowIDs)),
			fmt.Sprintf("pos=%q", pin(cx, cy)),
		}
		if fill := fillFor(p, l.Focus); fill != fillBoth {
			attrs = append(attrs, "fillcolor="+fill)
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", p.PersonID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range l.Connections {
		partners := partnersOf(l, c.UnionID)
		if !opts.Junctions {
			for _, from := range partners {
				for _, d := range c.Drops {
					fmt.Fprintf(&buf, "  %q -> %q;\n", from, d.PersonID)
				}
			}
			continue
		}
		j := junctionID(c.UnionID)
		fmt.Fprintf(&buf, "  %q [shape=point, width=0.05, height=0.05, label=\"\", pos=%q];\n",
			j, pin(c.Stem.X1, c.Stem.Y2))
		for _, from := range partners {
			fmt.Fprintf(&buf, "  %q -> %q;\n", from, j)
		}
		for _, d := range c.Drops {
			fmt.Fprintf(&buf, "  %q -> %q;\n", j, d.PersonID)
		}
	}
	for _, s := range l.SpouseLines {
		partners := partnersOf(l, s.UnionID)
		if len(partners) == 2 {
			fmt.Fprintf(&buf, "  %q -> %q [style=bold];\n", partners[0], partners[1])
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(p graph.Position, showIDs bool) string {
	name := p.Name
	if name == "" {
		name = p.PersonID
	}
	if !showIDs {
		return name
	}
	return fmt.Sprintf("%s\n%s (gen %d)", name, p.PersonID, p.Generation)
}

func fillFor(p graph.Position, focus string) string {
	switch {
	case p.PersonID == focus:
		return fillFocus
	case p.Side == graph.SideHusband:
		return fillHusband
	case p.Side == graph.SideWife:
		return fillWife
	default:
		return fillBoth
	}
}

// partnersOf returns the persons placed as partners of a union, left to
// right.
func partnersOf(l graph.Layout, unionID string) []string {
	var ps []graph.Position
	for _, p := range l.Positions {
		if p.UnionID == unionID {
			ps = append(ps, p)
		}
	}
	slices.SortFunc(ps, func(a, b graph.Position) int { return cmp.Compare(a.X, b.X) })
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.PersonID
	}
	return out
}

func junctionID(unionID string) string { return "u:" + unionID }

func pin(x, y float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64) + "," + strconv.FormatFloat(-y, 'f', -1, 64) + "!"
}

func inches(px float64) string {
	return strconv.FormatFloat(px/72, 'f', 3, 64)
}

// RenderSVG renders DOT produced by [ToDOT] to SVG with the neato engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg element with one
// that scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
