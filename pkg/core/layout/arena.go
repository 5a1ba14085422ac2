package layout

import (
	"math"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kinchart/pkg/core/family"
	kerrors "github.com/matzehuels/kinchart/pkg/errors"
)

// eps is the geometric slack below which a correction is not applied.
const eps = 1e-6

type phase int

const (
	phaseInit phase = iota
	phaseNear
	phaseFar
)

func (p phase) String() string {
	switch p {
	case phaseNear:
		return "near"
	case phaseFar:
		return "far"
	default:
		return "init"
	}
}

// Arena holds every block of one layout run. Blocks refer to each other by
// index; nothing outside the arena keeps pointers into it.
type Arena struct {
	cfg    Config
	model  *family.Model
	gens   *Generations
	logger *log.Logger

	Blocks   []*Block
	Branches []*Branch
	Focus    int

	byUnion  map[string]int
	byGen    map[int][]int
	branchOf map[int]int   // innermost branch containing a block
	forks    map[int][]int // branch indexes of a block's Down entries
	directs  []int         // direct-line blocks in breadth-first order from the focus
	inFocus  map[int]bool  // the focus block and its descendants
	minGen   int
	maxGen   int

	phase   phase
	skipped int
	err     error
}

func newArena(cfg Config, m *family.Model, gens *Generations, logger *log.Logger) *Arena {
	return &Arena{
		cfg:      cfg,
		model:    m,
		gens:     gens,
		logger:   logger,
		Focus:    -1,
		byUnion:  make(map[string]int),
		byGen:    make(map[int][]int),
		branchOf: make(map[int]int),
		forks:    make(map[int][]int),
		inFocus:  make(map[int]bool),
	}
}

func (a *Arena) newBlock(u *family.Union, gen int, side Side, parent int) *Block {
	b := &Block{
		ID:          len(a.Blocks),
		Union:       u,
		Gen:         gen,
		Side:        side,
		Parent:      parent,
		Up:          [2]int{-1, -1},
		DirectChild: -1,
		cardWidth:   a.cfg.CardWidth,
		pitch:       a.cfg.CardWidth + a.cfg.PartnerGap,
	}
	a.Blocks = append(a.Blocks, b)
	a.byUnion[u.ID] = b.ID
	return b
}

// index fills the per-generation rows and the generation range once the
// block set is final.
func (a *Arena) index() {
	a.minGen, a.maxGen = 0, 0
	for _, b := range a.Blocks {
		a.byGen[b.Gen] = append(a.byGen[b.Gen], b.ID)
		a.minGen = min(a.minGen, b.Gen)
		a.maxGen = max(a.maxGen, b.Gen)
	}
	if a.Focus >= 0 {
		for _, id := range a.subtree(a.Focus) {
			a.inFocus[id] = true
		}
	}
}

// row returns the blocks of a generation ordered by X, then ID.
func (a *Arena) row(gen int) []int {
	row := slices.Clone(a.byGen[gen])
	slices.SortStableFunc(row, func(x, y int) int {
		bx, by := a.Blocks[x], a.Blocks[y]
		switch {
		case bx.X < by.X:
			return -1
		case bx.X > by.X:
			return 1
		}
		return x - y
	})
	return row
}

// subtree returns a block and every block it owns, in preorder.
func (a *Arena) subtree(id int) []int {
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
		out = append(out, cur)
		b := a.Blocks[cur]
		for i := len(b.Down) - 1; i >= 0; i-- {
			if c := b.Down[i]; a.Blocks[c].Parent == cur {
				stack = append(stack, c)
			}
		}
	}
	return out
}

// ancestorTree returns the blocks at generation -2 and above reachable
// from b through claimed Up links, together with the sibling blocks of
// each. A block shared by two lines (pedigree collapse) is only reached
// through the line that claimed it.
func (a *Arena) ancestorTree(b *Block) []int {
	var out []int
	seen := make(map[int]bool)
	stack := a.claimedUp(b)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		v := a.Blocks[cur]
		if v.Gen <= -2 {
			out = append(out, cur)
		}
		for _, c := range v.Down {
			cb := a.Blocks[c]
			if c != v.DirectChild && cb.Parent == cur && cb.Gen <= -2 && !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
		stack = append(stack, a.claimedUp(v)...)
	}
	return out
}

// claimedUp returns the parent blocks b created, partner B's first.
func (a *Arena) claimedUp(b *Block) []int {
	var out []int
	for k := len(b.Up) - 1; k >= 0; k-- {
		if v, ok := a.claimed(b, k); ok {
			out = append(out, v.ID)
		}
	}
	return out
}

// claimed returns the parent block of d in slot k when d created it.
func (a *Arena) claimed(d *Block, k int) (*Block, bool) {
	if d.Up[k] < 0 {
		return nil, false
	}
	v := a.Blocks[d.Up[k]]
	return v, v.DirectChild == d.ID
}

// bothClaimed reports whether d created the parent blocks of both partners.
func (a *Arena) bothClaimed(d *Block) bool {
	_, ok0 := a.claimed(d, 0)
	_, ok1 := a.claimed(d, 1)
	return ok0 && ok1 && d.Up[0] != d.Up[1]
}

// shift moves a rigid group of blocks by dx. A group containing a locked
// block is not moved; in strict mode the attempt is recorded as an error.
func (a *Arena) shift(ids []int, dx float64) bool {
	if len(ids) == 0 || dx == 0 {
		return false
	}
	if math.IsNaN(dx) || math.IsInf(dx, 0) {
		a.fail("non-finite shift of block %d during %s phase", ids[0], a.phase)
		return false
	}
	for _, id := range ids {
		if a.Blocks[id].Locked {
			if a.cfg.Strict {
				a.fail("%s phase moved locked block %d (union %s)", a.phase, id, a.Blocks[id].Union.ID)
			}
			a.skipped++
			return false
		}
	}
	for _, id := range ids {
		a.Blocks[id].X += dx
	}
	return true
}

func (a *Arena) fail(format string, args ...any) {
	if a.err == nil {
		a.err = kerrors.New(kerrors.ErrCodeInvariant, format, args...)
	}
}

type span struct{ lo, hi float64 }

func emptySpan() span { return span{math.Inf(1), math.Inf(-1)} }

func (s span) ok() bool { return s.lo <= s.hi }

func (s span) add(lo, hi float64) span { return span{min(s.lo, lo), max(s.hi, hi)} }

// extent returns the card extent of a group of blocks.
func (a *Arena) extent(ids []int) span {
	s := emptySpan()
	for _, id := range ids {
		b := a.Blocks[id]
		s = s.add(b.X, b.Right())
	}
	return s
}

// extentFrom returns the card extent of the blocks at generation gen or
// deeper.
func (a *Arena) extentFrom(ids []int, gen int) span {
	s := emptySpan()
	for _, id := range ids {
		if b := a.Blocks[id]; b.Gen >= gen {
			s = s.add(b.X, b.Right())
		}
	}
	return s
}

// contour returns the per-generation card extent of a group.
func (a *Arena) contour(ids []int) map[int]span {
	c := make(map[int]span)
	for _, id := range ids {
		b := a.Blocks[id]
		s, ok := c[b.Gen]
		if !ok {
			s = emptySpan()
		}
		c[b.Gen] = s.add(b.X, b.Right())
	}
	return c
}

// lastCardLeft returns the largest left edge of any direct-line card in
// the group.
func (a *Arena) lastCardLeft(ids []int) (float64, bool) {
	best, found := math.Inf(-1), false
	for _, id := range ids {
		if b := a.Blocks[id]; b.Direct {
			best, found = max(best, b.CardLeft(b.LastCard())), true
		}
	}
	return best, found
}

// firstCardRight returns the smallest right edge of any direct-line card in
// the group.
func (a *Arena) firstCardRight(ids []int) (float64, bool) {
	best, found := math.Inf(1), false
	for _, id := range ids {
		if b := a.Blocks[id]; b.Direct {
			best, found = min(best, b.CardRight(0)), true
		}
	}
	return best, found
}

// childBounds returns the horizontal bounds a parent block centers over for
// one child: the partner card that descends from the parent for direct-line
// children, the whole couple otherwise.
func (a *Arena) childBounds(parent, child *Block) (float64, float64) {
	if parent.Direct && child.Direct && child.Couple() {
		if k := child.UpSlot(parent.ID); k >= 0 {
			return child.CardLeft(k), child.CardRight(k)
		}
	}
	return child.X, child.Right()
}

// childSpan returns the bounds a block centers over.
func (a *Arena) childSpan(b *Block) (span, bool) {
	s := emptySpan()
	for _, c := range b.Down {
		lo, hi := a.childBounds(b, a.Blocks[c])
		s = s.add(lo, hi)
	}
	return s, len(b.Down) > 0
}

// directIndex returns the position of the direct-line entry in b.Down, or
// -1.
func (a *Arena) directIndex(b *Block) int {
	for i, c := range b.Down {
		if a.Blocks[c].Direct {
			return i
		}
	}
	return -1
}

func setOf(ids []int) map[int]bool {
	s := make(map[int]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func without(ids []int, drop map[int]bool) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !drop[id] {
			out = append(out, id)
		}
	}
	return out
}
