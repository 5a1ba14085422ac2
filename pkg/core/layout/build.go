package layout

import (
	"slices"

	kerrors "github.com/matzehuels/kinchart/pkg/errors"
)

// buildBlocks creates the focus block, its descendants, the direct-line
// ancestors and their sibling blocks.
//
// Descendant blocks are created depth-first, ancestor blocks breadth-first
// so that a union reachable along several lines is created at its nearest
// generation and only referenced afterwards.
func (a *Arena) buildBlocks(focus string) error {
	fu, ok := a.model.UnionOf(focus)
	if !ok {
		return kerrors.New(kerrors.ErrCodeFocusNotFound, "focus person %q is not in view", focus)
	}
	f := a.newBlock(fu, 0, SideBoth, -1)
	f.Direct = true
	a.Focus = f.ID
	a.growDescendants(f.ID)

	a.directs = []int{f.ID}
	for i := 0; i < len(a.directs); i++ {
		d := a.Blocks[a.directs[i]]
		for k, p := range d.Union.Partners() {
			pu, ok := a.model.ParentUnion(p)
			if !ok {
				continue
			}
			if id, ok := a.byUnion[pu.ID]; ok {
				if a.Blocks[id].Gen == d.Gen-1 {
					d.Up[k] = id
				}
				continue
			}
			if gen, ok := a.gens.Union[pu.ID]; ok && gen != d.Gen-1 {
				continue
			}
			v := a.newBlock(pu, d.Gen-1, ancestorSide(d, k), -1)
			v.Direct = true
			v.DirectChild = d.ID
			d.Up[k] = v.ID
			if d.Parent < 0 {
				d.Parent = v.ID
			}
			a.attachSiblings(v, d, k, p)
			a.directs = append(a.directs, v.ID)
		}
	}
	a.index()
	return nil
}

// ancestorSide returns the side of the parent block of partner k of d.
func ancestorSide(d *Block, k int) Side {
	switch {
	case d.Side != SideBoth:
		return d.Side
	case d.Union.Single():
		return SideBoth
	case k == 0:
		return SideHusband
	default:
		return SideWife
	}
}

// attachSiblings fills v.Down with d and sibling blocks for the other
// children of v.
//
// For a couple the siblings of partner A go left of d and those of partner
// B right, so each couple's two ancestries stay on their own half. The
// parents of a focus couple whose two ancestries are both drawn are the
// exception: there the husband's side fans left and the wife's side right
// for both partners, so aunts, uncles and their descendants never land
// between the two ancestries. A single d keeps birth order.
func (a *Arena) attachSiblings(v, d *Block, k int, person string) {
	var sibs []int
	split := 0
	for _, c := range v.Union.Children {
		if c == person {
			split = len(sibs)
			continue
		}
		cu, ok := a.model.UnionOf(c)
		if !ok {
			continue
		}
		if _, ok := a.byUnion[cu.ID]; ok {
			continue
		}
		if gen, ok := a.gens.Union[cu.ID]; !ok || gen != d.Gen {
			continue
		}
		s := a.newBlock(cu, d.Gen, v.Side, v.ID)
		sibs = append(sibs, s.ID)
		if s.Gen >= -1 {
			a.growDescendants(s.ID)
		}
	}
	switch {
	case d.Union.Single():
		v.Down = slices.Concat(sibs[:split], []int{d.ID}, sibs[split:])
	case a.fansLeft(v, d, k):
		v.Down = append(sibs, d.ID)
	default:
		v.Down = append([]int{d.ID}, sibs...)
	}
}

// fansLeft reports whether the siblings of partner k of d go left of d.
func (a *Arena) fansLeft(v, d *Block, k int) bool {
	if d.Gen == -1 && v.Side != SideBoth && a.twoSided() {
		return v.Side == SideHusband
	}
	return k == 0
}

// twoSided reports whether both partners of the focus have a parent block.
func (a *Arena) twoSided() bool {
	f := a.Blocks[a.Focus]
	return f.Up[0] >= 0 && f.Up[1] >= 0 && f.Up[0] != f.Up[1]
}

// growDescendants creates blocks for the descendants of root.
func (a *Arena) growDescendants(root int) {
	stack := []int{root}
	for len(stack) > 0 {
		b := a.Blocks[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		for _, c := range b.Union.Children {
			cu, ok := a.model.UnionOf(c)
			if !ok {
				continue
			}
			if _, ok := a.byUnion[cu.ID]; ok {
				continue
			}
			if gen, ok := a.gens.Union[cu.ID]; !ok || gen != b.Gen+1 {
				continue
			}
			child := a.newBlock(cu, b.Gen+1, b.Side, b.ID)
			b.Down = append(b.Down, child.ID)
			stack = append(stack, child.ID)
		}
	}
}

// unplaced returns the persons in view that belong to no block.
func (a *Arena) unplaced() []string {
	var out []string
	for _, id := range a.model.Persons() {
		u, ok := a.model.UnionOf(id)
		if !ok {
			out = append(out, id)
			continue
		}
		if _, ok := a.byUnion[u.ID]; !ok {
			out = append(out, id)
		}
	}
	return out
}
