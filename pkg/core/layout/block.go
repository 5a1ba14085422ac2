package layout

import (
	"github.com/matzehuels/kinchart/pkg/core/family"
	"github.com/matzehuels/kinchart/pkg/graph"
)

// Side says which parental line of the focus a block belongs to.
type Side int

const (
	// SideBoth marks the focus block and its descendants.
	SideBoth Side = iota
	// SideHusband marks the line above the left partner.
	SideHusband
	// SideWife marks the line above the right partner.
	SideWife
)

func (s Side) String() string {
	switch s {
	case SideHusband:
		return graph.SideHusband
	case SideWife:
		return graph.SideWife
	default:
		return graph.SideBoth
	}
}

// Block is the placement unit for one union in view.
//
// A block owns the blocks listed in Down whose Parent is this block; a
// block and everything it owns form a rigid subtree that only ever moves
// by uniform shifts. Down may also list one block owned elsewhere: the
// direct-line child of an ancestor block that is claimed by its other
// parent.
type Block struct {
	ID     int
	Union  *family.Union
	Gen    int
	Side   Side
	Parent int    // owning block, -1 for roots
	Down   []int  // child blocks in left-to-right order
	Up     [2]int // parent blocks of partner A and partner B, -1 if absent

	// Direct marks the focus block and its direct-line ancestors.
	Direct bool
	// DirectChild is the direct-line block an ancestor block was created
	// for, -1 otherwise.
	DirectChild int

	CoupleWidth   float64
	ChildrenWidth float64
	Width         float64
	Envelope      float64

	// X is the left edge of the first card.
	X      float64
	Locked bool

	cardWidth float64
	pitch     float64 // distance between the left edges of the two cards
}

// Cards returns the number of partner cards, 1 or 2.
func (b *Block) Cards() int {
	if b.Union.Single() {
		return 1
	}
	return 2
}

// Couple reports whether the block has two partner cards.
func (b *Block) Couple() bool { return !b.Union.Single() }

// CardLeft returns the left edge of partner card k.
func (b *Block) CardLeft(k int) float64 { return b.X + float64(k)*b.pitch }

// CardRight returns the right edge of partner card k.
func (b *Block) CardRight(k int) float64 { return b.CardLeft(k) + b.cardWidth }

// CardCenter returns the center of partner card k.
func (b *Block) CardCenter(k int) float64 { return b.CardLeft(k) + b.cardWidth/2 }

// LastCard returns the index of the rightmost card.
func (b *Block) LastCard() int { return b.Cards() - 1 }

// Center returns the couple center.
func (b *Block) Center() float64 { return b.X + b.CoupleWidth/2 }

// Right returns the right edge of the last card.
func (b *Block) Right() float64 { return b.X + b.CoupleWidth }

// UpSlot returns the partner slot whose parent block is id, or -1.
func (b *Block) UpSlot(id int) int {
	for k, u := range b.Up {
		if u >= 0 && u == id {
			return k
		}
	}
	return -1
}
