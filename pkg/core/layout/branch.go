package layout

import "fmt"

// Branch is the subtree under one child of a block with two or more
// children. Branches nest: Parent is the enclosing branch.
type Branch struct {
	ID     string
	Fork   int // block whose children fork
	Child  int // block heading the branch
	Parent int // enclosing branch index, -1 at top level

	// Lo and Hi bound the cards of the branch's rigid subtree. Connectors
	// drawn for unions inside the branch stay within them.
	Lo, Hi float64
}

// buildBranches creates a branch per Down entry of every block with two or
// more entries and records the innermost branch of each block. Only owned
// entries are descended into, so every block is visited once.
func (a *Arena) buildBranches() {
	type item struct{ block, branch int }
	var stack []item
	for i := len(a.Blocks) - 1; i >= 0; i-- {
		if a.Blocks[i].Parent < 0 {
			stack = append(stack, item{i, -1})
		}
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.branch >= 0 {
			a.branchOf[it.block] = it.branch
		}
		b := a.Blocks[it.block]
		if len(b.Down) < 2 {
			for _, c := range b.Down {
				if a.Blocks[c].Parent == b.ID {
					stack = append(stack, item{c, it.branch})
				}
			}
			continue
		}
		first := len(a.Branches)
		for i, c := range b.Down {
			a.Branches = append(a.Branches, &Branch{
				ID:     fmt.Sprintf("b:%s/%d", b.Union.ID, i),
				Fork:   b.ID,
				Child:  c,
				Parent: it.branch,
			})
			a.forks[b.ID] = append(a.forks[b.ID], first+i)
		}
		for i := len(b.Down) - 1; i >= 0; i-- {
			if c := b.Down[i]; a.Blocks[c].Parent == b.ID {
				stack = append(stack, item{c, first + i})
			}
		}
	}
	a.updateCorridors()
}

// updateCorridors recomputes branch bounds from current positions.
func (a *Arena) updateCorridors() {
	for _, br := range a.Branches {
		s := a.extent(a.subtree(br.Child))
		br.Lo, br.Hi = s.lo, s.hi
	}
}

// corridor returns the bounds of the innermost branch containing b.
func (a *Arena) corridor(b int) (span, bool) {
	idx, ok := a.branchOf[b]
	if !ok {
		return span{}, false
	}
	br := a.Branches[idx]
	return span{br.Lo, br.Hi}, true
}
