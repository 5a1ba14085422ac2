package layout

import (
	"math"
	"slices"
)

// nearStats summarizes a Phase A run.
type nearStats struct {
	passes    int
	converged bool
	maxShift  float64
}

// solveNear settles generations -1 and below the focus: no overlaps,
// parents centered over children, sibling clusters in order and compact,
// cousins clear of the focus family. Passes repeat until no block moves by
// more than the tolerance or MaxPasses is reached; a final sweep then
// removes any remaining overlap and the blocks are locked.
func (a *Arena) solveNear() nearStats {
	a.phase = phaseNear
	var st nearStats
	for st.passes < a.cfg.MaxPasses {
		st.passes++
		moved := a.resolveOverlaps()
		moved = max(moved, a.recenter())
		moved = max(moved, a.enforceBranchOrder())
		moved = max(moved, a.separateCousins())
		moved = max(moved, a.compactClusters())
		moved = max(moved, a.enforceFocusBarrier())
		st.maxShift = moved
		a.logger.Debug("near pass", "pass", st.passes, "max_shift", moved)
		if moved < a.cfg.Tolerance {
			st.converged = true
			break
		}
	}
	a.resolveOverlaps()
	for _, b := range a.Blocks {
		if b.Gen >= -1 {
			b.Locked = true
		}
	}
	return st
}

// pivot returns the index in row of the block overlap resolution works
// outwards from: the leftmost direct-line or focus-family block.
func (a *Arena) pivot(row []int) int {
	for i, id := range row {
		if a.Blocks[id].Direct || a.inFocus[id] {
			return i
		}
	}
	return 0
}

// resolveOverlaps sweeps every generation outwards from its pivot. Blocks
// right of the pivot push their subtree right, blocks left of it push
// theirs left. Rows are processed from the top so deeper rows see the
// final position of their parents.
func (a *Arena) resolveOverlaps() float64 {
	gap := a.cfg.HorizontalGap
	moved := 0.0
	for gen := -1; gen <= a.maxGen; gen++ {
		row := a.row(gen)
		if len(row) < 2 {
			continue
		}
		p := a.pivot(row)
		edge := a.Blocks[row[p]].Right()
		for _, id := range row[p+1:] {
			b := a.Blocks[id]
			if need := edge + gap - b.X; need > eps && a.shift(a.subtree(id), need) {
				moved = max(moved, need)
			}
			edge = max(edge, b.Right())
		}
		edge = a.Blocks[row[p]].X
		for i := p - 1; i >= 0; i-- {
			b := a.Blocks[row[i]]
			if need := b.Right() + gap - edge; need > eps && a.shift(a.subtree(row[i]), -need) {
				moved = max(moved, need)
			}
			edge = min(edge, b.X)
		}
	}
	return moved
}

func (a *Arena) isFocusParent(id int) bool {
	f := a.Blocks[a.Focus]
	return id == f.Up[0] || id == f.Up[1]
}

// recenter moves every parent block, deepest first, to the center of its
// children. Only the parent block moves.
func (a *Arena) recenter() float64 {
	moved := 0.0
	for gen := a.maxGen; gen >= -1; gen-- {
		for _, id := range a.byGen[gen] {
			b := a.Blocks[id]
			if len(b.Down) == 0 || a.isFocusParent(id) {
				continue
			}
			s, _ := a.childSpan(b)
			dx := (s.lo+s.hi)/2 - b.Center()
			if math.Abs(dx) > eps && a.shift([]int{id}, dx) {
				moved = max(moved, math.Abs(dx))
			}
		}
	}
	return max(moved, a.enforceFocusBarrier())
}

// farReserve describes the ancestor tree that will sit above a parent
// block of the focus once the far phase runs, relative to the block's X.
type farReserve struct {
	husbandCard float64 // largest direct-line card left edge
	wifeCard    float64 // smallest direct-line card right edge
	contour     map[int]span
}

// reserve lays out the tree above b the way the far phase will and
// measures it relative to b.X.
func (a *Arena) reserve(b *Block) farReserve {
	for _, id := range slices.Backward(a.lineOrder(b.ID)) {
		a.growFar(a.Blocks[id])
	}
	group := append([]int{b.ID}, a.ancestorTree(b)...)
	r := farReserve{contour: make(map[int]span)}
	hc, _ := a.lastCardLeft(group)
	wc, _ := a.firstCardRight(group)
	r.husbandCard = hc - b.X
	r.wifeCard = wc - b.X
	for gen, s := range a.contour(group) {
		r.contour[gen] = span{s.lo - b.X, s.hi - b.X}
	}
	return r
}

// lineOrder returns root and the direct-line blocks it created, directly
// or transitively, in breadth-first order.
func (a *Arena) lineOrder(root int) []int {
	order := []int{root}
	for i := 0; i < len(order); i++ {
		d := a.Blocks[order[i]]
		for k := range d.Up {
			if v, ok := a.claimed(d, k); ok {
				order = append(order, v.ID)
			}
		}
	}
	return order
}

// enforceFocusBarrier centers the parent blocks of the focus over it,
// clamped so the far phase can keep every card of the husband's ancestry
// left of the husband's center and every card of the wife's ancestry right
// of the wife's center. When the two ancestries would collide the
// remaining deficit is split between both sides.
func (a *Arena) enforceFocusBarrier() float64 {
	f := a.Blocks[a.Focus]
	var target [2]float64
	var blocks [2]*Block
	for k := range f.Up {
		v, ok := a.claimed(f, k)
		if !ok {
			continue
		}
		blocks[k] = v
		s, _ := a.childSpan(v)
		target[k] = (s.lo+s.hi)/2 - v.CoupleWidth/2
	}

	if a.bothClaimed(f) {
		pa, pb := blocks[0], blocks[1]
		ra, rb := a.reserve(pa), a.reserve(pb)
		target[0] = min(target[0], f.CardCenter(0)-ra.husbandCard)
		target[1] = max(target[1], f.CardCenter(1)-rb.wifeCard)
		need := math.Inf(-1)
		for gen, l := range ra.contour {
			if r, ok := rb.contour[gen]; ok {
				need = max(need, l.hi+a.cfg.HorizontalGap-r.lo)
			}
		}
		if gap := target[1] - target[0]; gap < need {
			d := need - gap
			target[0] -= d / 2
			target[1] += d / 2
		}
	}

	moved := 0.0
	for k, v := range blocks {
		if v == nil {
			continue
		}
		dx := target[k] - v.X
		if math.Abs(dx) > eps && a.shift([]int{v.ID}, dx) {
			moved = max(moved, math.Abs(dx))
		}
	}
	return moved
}

// fork is a block with two or more Down entries whose sibling clusters the
// near phase keeps ordered.
type fork struct {
	block    *Block
	clusters [][]int
	direct   int
}

// nearForks returns the forks at generation -2 and below the focus,
// deepest first.
func (a *Arena) nearForks() []fork {
	var out []fork
	for gen := a.maxGen; gen >= -2; gen-- {
		for _, id := range a.byGen[gen] {
			b := a.Blocks[id]
			if len(a.forks[id]) < 2 {
				continue
			}
			fk := fork{block: b, direct: a.directIndex(b)}
			for _, bi := range a.forks[id] {
				fk.clusters = append(fk.clusters, a.subtree(a.Branches[bi].Child))
			}
			out = append(out, fk)
		}
	}
	return out
}

// enforceBranchOrder keeps the subtree extents of sibling clusters in
// Down order with a gap between them. Clusters left of the direct-line
// entry are pushed left, the others right; the direct-line cluster itself
// never moves.
func (a *Arena) enforceBranchOrder() float64 {
	gap := a.cfg.HorizontalGap
	moved := 0.0
	for _, fk := range a.nearForks() {
		ext := make([]span, len(fk.clusters))
		for i, cl := range fk.clusters {
			ext[i] = a.extent(cl)
		}
		if fk.direct >= 0 {
			for i := fk.direct - 1; i >= 0; i-- {
				bound := math.Inf(1)
				for j := i + 1; j <= fk.direct; j++ {
					bound = min(bound, ext[j].lo-gap)
				}
				if need := ext[i].hi - bound; need > eps && a.shift(fk.clusters[i], -need) {
					ext[i] = span{ext[i].lo - need, ext[i].hi - need}
					moved = max(moved, need)
				}
			}
		}
		for j := max(fk.direct+1, 1); j < len(ext); j++ {
			bound := math.Inf(-1)
			for i := 0; i < j; i++ {
				bound = max(bound, ext[i].hi+gap)
			}
			if need := bound - ext[j].lo; need > eps && a.shift(fk.clusters[j], need) {
				ext[j] = span{ext[j].lo + need, ext[j].hi + need}
				moved = max(moved, need)
			}
		}
	}
	return moved
}

// focusSpan returns the extent, at generation 0 and below, of the sibling
// clusters under the focus's parents.
func (a *Arena) focusSpan() span {
	f := a.Blocks[a.Focus]
	var own []int
	for _, p := range f.Up {
		if p < 0 {
			continue
		}
		for _, c := range a.Blocks[p].Down {
			if c == f.ID || a.Blocks[c].Parent == p {
				own = append(own, a.subtree(c)...)
			}
		}
	}
	if len(own) == 0 {
		own = a.subtree(f.ID)
	}
	return a.extentFrom(own, 0)
}

// cousin is a cluster headed by an aunt or uncle of the focus.
type cousin struct {
	ids  []int
	left bool
}

// cousins returns the non-direct clusters under the focus's grandparents
// and the side of the focus family each belongs on.
func (a *Arena) cousins(s span) []cousin {
	f := a.Blocks[a.Focus]
	var out []cousin
	seen := make(map[int]bool)
	for _, p := range f.Up {
		if p < 0 {
			continue
		}
		for _, g := range a.Blocks[p].Up {
			if g < 0 || seen[g] {
				continue
			}
			seen[g] = true
			gb := a.Blocks[g]
			d := a.directIndex(gb)
			for i, c := range gb.Down {
				cb := a.Blocks[c]
				if i == d || cb.Direct || cb.Parent != g {
					continue
				}
				ids := a.subtree(c)
				ext := a.extentFrom(ids, 0)
				if !ext.ok() {
					continue
				}
				left := i < d
				if d < 0 {
					left = ext.lo+ext.hi < s.lo+s.hi
				}
				out = append(out, cousin{ids: ids, left: left})
			}
		}
	}
	return out
}

// separateCousins keeps the descendants of aunts and uncles clear of the
// focus's own generation.
func (a *Arena) separateCousins() float64 {
	s := a.focusSpan()
	if !s.ok() {
		return 0
	}
	gap := a.cfg.HorizontalGap
	moved := 0.0
	for _, c := range a.cousins(s) {
		ext := a.extentFrom(c.ids, 0)
		if c.left {
			if need := ext.hi + gap - s.lo; need > eps && a.shift(c.ids, -need) {
				moved = max(moved, need)
			}
		} else if need := s.hi + gap - ext.lo; need > eps && a.shift(c.ids, need) {
			moved = max(moved, need)
		}
	}
	return moved
}

// rowSlack returns how far a group can move in direction dir (+1 right,
// -1 left) before one of its blocks comes within the gap of another block
// of the same generation.
func (a *Arena) rowSlack(ids []int, dir float64) float64 {
	gap := a.cfg.HorizontalGap
	in := setOf(ids)
	slack := math.Inf(1)
	for _, id := range ids {
		p := a.Blocks[id]
		for _, oid := range a.byGen[p.Gen] {
			if in[oid] {
				continue
			}
			o := a.Blocks[oid]
			if dir > 0 && o.X >= p.X {
				slack = min(slack, o.X-gap-p.Right())
			}
			if dir < 0 && o.X <= p.X {
				slack = min(slack, p.X-gap-o.Right())
			}
		}
	}
	return slack
}

// cousinSlack bounds the movement of a cousin cluster towards the focus
// family.
func (a *Arena) cousinSlack(ids []int, dir float64, s span) float64 {
	if !s.ok() {
		return math.Inf(1)
	}
	ext := a.extentFrom(ids, 0)
	if !ext.ok() {
		return math.Inf(1)
	}
	gap := a.cfg.HorizontalGap
	if dir > 0 && ext.hi <= s.lo {
		return s.lo - gap - ext.hi
	}
	if dir < 0 && ext.lo >= s.hi {
		return ext.lo - (s.hi + gap)
	}
	return math.Inf(1)
}

// compactClusters pulls sibling clusters towards the direct-line cluster
// of their fork, or towards the first cluster when there is none, as far
// as branch order, same-generation collisions and cousin separation allow.
func (a *Arena) compactClusters() float64 {
	gap := a.cfg.HorizontalGap
	tol := a.cfg.Tolerance
	s := a.focusSpan()
	cousin := make(map[int]bool)
	for _, c := range a.cousins(s) {
		cousin[c.ids[0]] = true
	}
	moved := 0.0
	for _, fk := range a.nearForks() {
		ext := make([]span, len(fk.clusters))
		for i, cl := range fk.clusters {
			ext[i] = a.extent(cl)
		}
		move := func(i int, dir float64, bound float64) {
			cl := fk.clusters[i]
			slack := min(bound, a.rowSlack(cl, dir))
			if cousin[cl[0]] {
				slack = min(slack, a.cousinSlack(cl, dir, s))
			}
			if slack > tol && !math.IsInf(slack, 1) && a.shift(cl, dir*slack) {
				ext[i] = span{ext[i].lo + dir*slack, ext[i].hi + dir*slack}
				moved = max(moved, slack)
			}
		}
		if fk.direct >= 0 {
			for i := fk.direct - 1; i >= 0; i-- {
				bound := math.Inf(1)
				for j := i + 1; j <= fk.direct; j++ {
					bound = min(bound, ext[j].lo-gap-ext[i].hi)
				}
				move(i, 1, bound)
			}
		}
		for j := max(fk.direct+1, 1); j < len(ext); j++ {
			bound := math.Inf(1)
			for i := 0; i < j; i++ {
				bound = min(bound, ext[j].lo-(ext[i].hi+gap))
			}
			move(j, -1, bound)
		}
	}
	return moved
}
