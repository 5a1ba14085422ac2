package layout

import (
	"cmp"
	"math"
	"slices"
)

// farGroup is one half of an ancestor couple's tree: the parent block of
// partner k of d, everything above it and the siblings fanned beside d.
type farGroup struct {
	d    *Block
	k    int
	part []int
}

// farStats summarizes a Phase B run.
type farStats struct {
	couples int
	groups  []farGroup
}

// solveFar places generations -2 and above. Each direct-line couple,
// farthest first, gets its two parent trees placed so the husband's tree
// ends at the husband's card and the wife's tree starts at the wife's
// card, then separated per generation. The focus's two ancestries are
// separated last, and every half is finally pulled back towards its
// couple as far as collisions and the barriers allow.
func (a *Arena) solveFar() farStats {
	a.phase = phaseFar
	var st farStats
	for _, id := range slices.Backward(a.directs) {
		d := a.Blocks[id]
		if d.Gen > -1 {
			continue
		}
		groups := a.growFar(d)
		st.groups = append(st.groups, groups...)
		if len(groups) > 0 {
			st.couples++
		}
	}
	st.groups = append(st.groups, a.settleRoot()...)
	a.compactFar(st.groups)
	a.logger.Debug("far phase", "couples", st.couples, "groups", len(st.groups), "skipped_shifts", a.skipped)
	return st
}

// growFar places the parent trees of d relative to d.
func (a *Arena) growFar(d *Block) []farGroup {
	var parts [2][]int
	var colls [2][]int
	for k := range d.Up {
		v, ok := a.claimed(d, k)
		if !ok {
			continue
		}
		if d.Gen <= -2 {
			colls[k] = a.fanCollateral(v, d)
		}
		tree := append([]int{v.ID}, a.ancestorTree(v)...)
		if s, ok := a.childSpan(v); ok {
			a.shift(tree, (s.lo+s.hi)/2-v.Center())
		}
		parts[k] = append(tree, colls[k]...)
	}
	if !a.bothClaimed(d) {
		return nil
	}
	a.touch(d, 0, parts[0], colls[0])
	a.touch(d, 1, parts[1], colls[1])
	a.separatePair(parts[0], parts[1])
	a.enforceBarrier(d, parts)
	return []farGroup{{d: d, k: 0, part: parts[0]}, {d: d, k: 1, part: parts[1]}}
}

// fanCollateral places the siblings of d beside it, left of d for entries
// before d in v.Down and right of it for the rest. Siblings this far up
// carry no descendants.
func (a *Arena) fanCollateral(v, d *Block) []int {
	gap := a.cfg.HorizontalGap
	idx := slices.Index(v.Down, d.ID)
	if idx < 0 {
		return nil
	}
	var out []int
	x := d.X - gap
	for i := idx - 1; i >= 0; i-- {
		s := a.Blocks[v.Down[i]]
		a.shift([]int{s.ID}, x-s.CoupleWidth-s.X)
		x = s.X - gap
		out = append(out, s.ID)
	}
	x = d.Right() + gap
	for _, c := range v.Down[idx+1:] {
		s := a.Blocks[c]
		a.shift([]int{s.ID}, x-s.X)
		x = s.Right() + gap
		out = append(out, s.ID)
	}
	return out
}

// touch moves one half so that its deeper generations end at the
// husband's card right edge (k=0) or start at the wife's card left edge
// (k=1), without overlapping the siblings fanned beside d.
func (a *Arena) touch(d *Block, k int, part, coll []int) {
	var deep []int
	for _, id := range part {
		if a.Blocks[id].Gen < d.Gen {
			deep = append(deep, id)
		}
	}
	ext := a.extent(deep)
	if !ext.ok() {
		return
	}
	gap := a.cfg.HorizontalGap
	var dx float64
	if k == 0 {
		dx = d.CardRight(0) - ext.hi
		if c := a.extent(coll); c.ok() {
			dx = min(dx, d.X-gap-c.hi)
		}
	} else {
		dx = d.CardLeft(1) - ext.lo
		if c := a.extent(coll); c.ok() {
			dx = max(dx, d.Right()+gap-c.lo)
		}
	}
	if math.Abs(dx) > eps {
		a.shift(part, dx)
	}
}

// separatePair pushes two groups apart, half each, until every shared
// generation has the gap between them.
func (a *Arena) separatePair(left, right []int) {
	right = without(right, setOf(left))
	lc, rc := a.contour(left), a.contour(right)
	need := math.Inf(-1)
	for gen, l := range lc {
		if r, ok := rc[gen]; ok {
			need = max(need, l.hi+a.cfg.HorizontalGap-r.lo)
		}
	}
	if need > eps {
		a.shift(left, -need/2)
		a.shift(right, need/2)
	}
}

// enforceBarrier shifts a half outwards when one of its direct-line cards
// crosses the center of the corresponding partner of d.
func (a *Arena) enforceBarrier(d *Block, parts [2][]int) {
	if c, ok := a.lastCardLeft(parts[0]); ok {
		if over := c - d.CardCenter(0); over > eps {
			a.shift(parts[0], -over)
		}
	}
	if c, ok := a.firstCardRight(parts[1]); ok {
		if over := d.CardCenter(1) - c; over > eps {
			a.shift(parts[1], over)
		}
	}
}

// settleRoot separates the two ancestries of the focus couple and applies
// the focus barrier to them.
func (a *Arena) settleRoot() []farGroup {
	f := a.Blocks[a.Focus]
	if !a.bothClaimed(f) {
		return nil
	}
	pa, pb := a.Blocks[f.Up[0]], a.Blocks[f.Up[1]]
	parts := [2][]int{a.ancestorTree(pa), a.ancestorTree(pb)}
	if len(parts[0]) > 0 && len(parts[1]) > 0 {
		a.separatePair(parts[0], parts[1])
	}
	a.enforceBarrier(f, parts)
	var out []farGroup
	for k, part := range parts {
		if len(part) > 0 {
			out = append(out, farGroup{d: f, k: k, part: part})
		}
	}
	return out
}

// compactFar pulls every half towards its couple, nearest couples first:
// husband halves move right, wife halves left.
func (a *Arena) compactFar(groups []farGroup) {
	slices.SortStableFunc(groups, func(x, y farGroup) int { return cmp.Compare(y.d.Gen, x.d.Gen) })
	for _, g := range groups {
		dir := 1.0
		if g.k == 1 {
			dir = -1
		}
		slack := min(a.rowSlack(g.part, dir), a.barrierSlack(g.part, dir))
		if slack > a.cfg.Tolerance && !math.IsInf(slack, 1) {
			a.shift(g.part, dir*slack)
		}
	}
}

// lineage returns the direct-line blocks reachable upwards from id through
// claimed links, including id.
func (a *Arena) lineage(id int) []int {
	if id < 0 {
		return nil
	}
	var out []int
	seen := make(map[int]bool)
	stack := []int{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		if b := a.Blocks[cur]; b.Direct {
			out = append(out, cur)
			stack = append(stack, a.claimedUp(b)...)
		}
	}
	return out
}

// barrierSlack returns how far a group can move in direction dir before a
// direct-line card in it crosses the center of a couple partner it
// descends to. Couples inside the group move with it and are ignored.
func (a *Arena) barrierSlack(ids []int, dir float64) float64 {
	in := setOf(ids)
	slack := math.Inf(1)
	for _, did := range a.directs {
		d := a.Blocks[did]
		if in[did] || !a.bothClaimed(d) {
			continue
		}
		if dir > 0 {
			side := a.intersect(a.lineage(d.Up[0]), in)
			if c, ok := a.lastCardLeft(side); ok {
				slack = min(slack, d.CardCenter(0)-c)
			}
		} else {
			side := a.intersect(a.lineage(d.Up[1]), in)
			if c, ok := a.firstCardRight(side); ok {
				slack = min(slack, c-d.CardCenter(1))
			}
		}
	}
	return slack
}

func (a *Arena) intersect(ids []int, in map[int]bool) []int {
	var out []int
	for _, id := range ids {
		if in[id] {
			out = append(out, id)
		}
	}
	return out
}
