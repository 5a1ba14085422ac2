package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/kinchart/pkg/core/family"
	"github.com/matzehuels/kinchart/pkg/core/route"
	"github.com/matzehuels/kinchart/pkg/graph"
)

// Position places one person card. X and Y are the card's top-left
// corner.
type Position struct {
	PersonID   string
	X, Y       float64
	Generation int
	Side       Side
	UnionID    string
}

// Diagnostics reports how a layout run went.
type Diagnostics struct {
	Persons       int
	Unions        int
	Blocks        int
	Branches      int
	MinGeneration int
	MaxGeneration int

	NearPasses    int
	NearConverged bool
	NearMaxShift  float64
	FarCouples    int
	SkippedShifts int

	MaxViolation float64
	Valid        bool
	Errors       []string
	Skipped      []string // partnerships that could not become unions
	Unplaced     []string // persons in view without a card
}

// Result is a computed layout.
type Result struct {
	Focus       string
	Config      Config
	Generations *Generations

	Positions   []Position
	Connections []route.Connection
	SpouseLines []route.SpouseLine
	Violations  []route.Violation

	Blocks   []*Block
	Branches []*Branch

	Diagnostics Diagnostics

	model *family.Model
	index map[string]int
}

// Compute lays out the chart around the focus person.
//
// A focus that is not in view returns an empty, non-nil Result together
// with an ErrCodeFocusNotFound error. In strict mode an invariant breach
// returns an ErrCodeInvariant error along with the partial Result.
// Geometric problems that cannot be solved are not errors: they are
// reported through Diagnostics.Valid, Errors and MaxViolation.
func Compute(m *family.Model, focus string, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	res := &Result{Focus: focus, Config: o.cfg, model: m, index: make(map[string]int)}
	res.Diagnostics.Skipped = m.Skipped()

	gens, err := AssignGenerations(m, focus)
	res.Generations = gens
	if err != nil {
		res.Diagnostics.Errors = append(res.Diagnostics.Errors, err.Error())
		return res, err
	}

	a := newArena(o.cfg, m, gens, o.logger)
	if err := a.buildBlocks(focus); err != nil {
		res.Diagnostics.Errors = append(res.Diagnostics.Errors, err.Error())
		return res, err
	}
	a.measure()
	a.buildBranches()
	a.placeInitial()
	near := a.solveNear()
	far := a.solveFar()
	a.normalize()
	a.updateCorridors()

	res.fill(a, near, far)
	o.logger.Debug("layout computed",
		"focus", focus,
		"blocks", len(a.Blocks),
		"near_passes", near.passes,
		"converged", near.converged,
		"valid", res.Diagnostics.Valid,
		"max_violation", res.Diagnostics.MaxViolation,
	)
	if a.err != nil {
		res.Diagnostics.Errors = append(res.Diagnostics.Errors, a.err.Error())
		res.Diagnostics.Valid = false
		return res, a.err
	}
	return res, nil
}

// normalize moves the chart so the leftmost card starts at X=0.
func (a *Arena) normalize() {
	left := math.Inf(1)
	for _, b := range a.Blocks {
		left = min(left, b.X)
	}
	if math.IsInf(left, 0) || math.IsNaN(left) {
		return
	}
	for _, b := range a.Blocks {
		b.X -= left
	}
}

// y returns the top of the cards of a generation.
func (a *Arena) y(gen int) float64 {
	return float64(gen-a.minGen) * (a.cfg.CardHeight + a.cfg.VerticalGap)
}

func (r *Result) fill(a *Arena, near nearStats, far farStats) {
	cfg := a.cfg
	in := route.Input{}
	for _, b := range a.Blocks {
		for k, id := range b.Union.Partners() {
			p := Position{
				PersonID:   id,
				X:          b.CardLeft(k),
				Y:          a.y(b.Gen),
				Generation: b.Gen,
				Side:       b.Side,
				UnionID:    b.Union.ID,
			}
			r.Positions = append(r.Positions, p)
			in.Cards = append(in.Cards, route.Card{PersonID: id, X: p.X, Y: p.Y})
		}
		if len(b.Union.Children) == 0 {
			continue
		}
		fam := route.Family{ID: b.Union.ID, Partners: b.Union.Partners(), Children: b.Union.Children}
		if c, ok := a.corridor(b.ID); ok && a.ownsChildren(b) {
			fam.Corridor = &route.Corridor{Lo: c.lo, Hi: c.hi}
		}
		in.Families = append(in.Families, fam)
	}
	slices.SortFunc(r.Positions, func(x, y Position) int { return cmp.Compare(x.PersonID, y.PersonID) })
	for i, p := range r.Positions {
		r.index[p.PersonID] = i
	}

	routed := route.Route(in, route.Config{
		CardWidth:      cfg.CardWidth,
		CardHeight:     cfg.CardHeight,
		LaneSpacing:    cfg.LaneSpacing,
		ElbowClearance: cfg.ElbowClearance,
		Tolerance:      cfg.Tolerance,
	})
	r.Connections = routed.Connections
	r.SpouseLines = routed.SpouseLines
	r.Violations = routed.Violations
	r.Blocks = a.Blocks
	r.Branches = a.Branches

	rep := a.validate(routed.Violations)
	d := &r.Diagnostics
	d.Persons = len(r.Positions)
	d.Unions = a.model.UnionCount()
	d.Blocks = len(a.Blocks)
	d.Branches = len(a.Branches)
	d.MinGeneration = a.minGen
	d.MaxGeneration = a.maxGen
	d.NearPasses = near.passes
	d.NearConverged = near.converged
	d.NearMaxShift = near.maxShift
	d.FarCouples = far.couples
	d.SkippedShifts = a.skipped
	d.MaxViolation = rep.maxViolation
	d.Errors = append(d.Errors, rep.errors...)
	d.Valid = len(rep.errors) == 0
	d.Unplaced = a.unplaced()
}

// ownsChildren reports whether every placed child of b sits in a block
// that b owns, so the children lie inside b's branch.
func (a *Arena) ownsChildren(b *Block) bool {
	for _, c := range b.Union.Children {
		cu, ok := a.model.UnionOf(c)
		if !ok {
			continue
		}
		id, ok := a.byUnion[cu.ID]
		if !ok {
			continue
		}
		if a.Blocks[id].Parent != b.ID || !slices.Contains(b.Down, id) {
			return false
		}
	}
	return true
}

// Position returns the position of a person.
func (r *Result) Position(personID string) (Position, bool) {
	i, ok := r.index[personID]
	if !ok {
		return Position{}, false
	}
	return r.Positions[i], true
}

// Width returns the horizontal extent of all cards.
func (r *Result) Width() float64 {
	w := 0.0
	for _, p := range r.Positions {
		w = max(w, p.X+r.Config.CardWidth)
	}
	return w
}

// Height returns the vertical extent of all cards.
func (r *Result) Height() float64 {
	if len(r.Positions) == 0 {
		return 0
	}
	h := 0.0
	for _, p := range r.Positions {
		h = max(h, p.Y+r.Config.CardHeight)
	}
	return h
}

// Export converts the result to the serialization format.
func (r *Result) Export() graph.Layout {
	out := graph.Layout{
		Focus:      r.Focus,
		Width:      r.Width(),
		Height:     r.Height(),
		CardWidth:  r.Config.CardWidth,
		CardHeight: r.Config.CardHeight,
		Positions:  make([]graph.Position, 0, len(r.Positions)),
	}

	gens := make(map[string]int)
	for _, p := range r.Positions {
		pos := graph.Position{
			PersonID:   p.PersonID,
			X:          p.X,
			Y:          p.Y,
			Generation: p.Generation,
			Side:       p.Side.String(),
			UnionID:    p.UnionID,
		}
		if r.model != nil {
			if person, ok := r.model.Person(p.PersonID); ok {
				pos.Name = person.Name
			}
		}
		out.Positions = append(out.Positions, pos)
		gens[p.UnionID] = p.Generation
	}

	for _, c := range r.Connections {
		conn := graph.Connection{
			UnionID:    c.FamilyID,
			Generation: gens[c.FamilyID],
			Lane:       c.Lane,
			Stem:       exportSegment(c.Stem),
			Bus:        exportSegment(c.Bus),
		}
		if c.Connector != nil {
			s := exportSegment(*c.Connector)
			conn.Connector = &s
		}
		for _, d := range c.Drops {
			conn.Drops = append(conn.Drops, graph.Drop{PersonID: d.PersonID, Segment: exportSegment(d.Segment)})
		}
		out.Connections = append(out.Connections, conn)
	}
	for _, s := range r.SpouseLines {
		out.SpouseLines = append(out.SpouseLines, graph.SpouseLine{UnionID: s.FamilyID, Segment: exportSegment(s.Segment)})
	}

	for _, b := range r.Blocks {
		out.Blocks = append(out.Blocks, graph.Block{
			ID:         b.ID,
			UnionID:    b.Union.ID,
			Generation: b.Gen,
			Side:       b.Side.String(),
			Parent:     b.Parent,
			Direct:     b.Direct,
			X:          b.X,
			Width:      b.Width,
			Envelope:   b.Envelope,
		})
	}
	for _, br := range r.Branches {
		gb := graph.Branch{ID: br.ID, UnionID: r.Blocks[br.Child].Union.ID, Lo: br.Lo, Hi: br.Hi}
		if br.Parent >= 0 {
			gb.Parent = r.Branches[br.Parent].ID
		}
		out.Branches = append(out.Branches, gb)
	}

	d := r.Diagnostics
	out.Diagnostics = graph.Diagnostics{
		Persons:       d.Persons,
		Unions:        d.Unions,
		Blocks:        d.Blocks,
		Branches:      d.Branches,
		MinGeneration: d.MinGeneration,
		MaxGeneration: d.MaxGeneration,
		NearPasses:    d.NearPasses,
		NearConverged: d.NearConverged,
		NearMaxShift:  d.NearMaxShift,
		FarCouples:    d.FarCouples,
		SkippedShifts: d.SkippedShifts,
		MaxViolation:  d.MaxViolation,
		Valid:         d.Valid,
		Errors:        d.Errors,
		Skipped:       d.Skipped,
		Unplaced:      d.Unplaced,
	}
	return out
}

func exportSegment(s route.Segment) graph.Segment {
	return graph.Segment{X1: s.X1, Y1: s.Y1, X2: s.X2, Y2: s.Y2}
}
