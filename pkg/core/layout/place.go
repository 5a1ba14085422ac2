package layout

// placeDescendants lays out a block and everything it owns inside a slot
// of the block's envelope width starting at left. Children are slotted
// side by side, then every parent is centered over its children, deepest
// first.
func (a *Arena) placeDescendants(root int, left float64) {
	gap := a.cfg.HorizontalGap
	order := a.subtree(root)
	slot := map[int]float64{root: left}
	for _, id := range order {
		b := a.Blocks[id]
		sl := slot[id]
		b.X = sl + (b.Envelope-b.CoupleWidth)/2
		x := sl + (b.Envelope-b.ChildrenWidth)/2
		for _, c := range b.Down {
			cb := a.Blocks[c]
			if cb.Parent == id {
				slot[c] = x
			}
			x += cb.Width + gap
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		a.centerOverChildren(a.Blocks[order[i]])
	}
}

func (a *Arena) centerOverChildren(b *Block) {
	if s, ok := a.childSpan(b); ok {
		b.X = (s.lo+s.hi)/2 - b.CoupleWidth/2
	}
}

// placeInitial centers the focus subtree on X=0, then walks the direct
// line upwards fanning sibling subtrees out beside each direct child and
// centering each ancestor block over its children.
func (a *Arena) placeInitial() {
	f := a.Blocks[a.Focus]
	a.placeDescendants(f.ID, -f.Envelope/2)
	a.shift(a.subtree(f.ID), -f.Center())
	a.placeAncestors()
}

func (a *Arena) placeAncestors() {
	placed := setOf(a.subtree(a.Focus))
	for _, did := range a.directs {
		d := a.Blocks[did]
		for k := range d.Up {
			v, ok := a.claimed(d, k)
			if !ok || placed[v.ID] {
				continue
			}
			a.fanSiblings(v, d, placed)
			a.centerOverChildren(v)
			placed[v.ID] = true
		}
	}
}

// fanSiblings places the sibling subtrees of d under v. Entries before d
// in v.Down are placed leftwards nearest first, entries after it
// rightwards. Near the focus the fan starts beyond everything already
// placed at d's generation and below, so sibling descendants never land
// on top of the focus family.
func (a *Arena) fanSiblings(v, d *Block, placed map[int]bool) {
	gap := a.cfg.HorizontalGap
	idx := -1
	for i, c := range v.Down {
		if c == d.ID {
			idx = i
		}
	}
	if idx < 0 {
		return
	}
	bounds := span{d.X, d.Right()}
	if d.Gen >= -1 {
		for id := range placed {
			if b := a.Blocks[id]; b.Gen >= d.Gen {
				bounds = bounds.add(b.X, b.Right())
			}
		}
	}

	x := bounds.lo - gap
	for i := idx - 1; i >= 0; i-- {
		s := a.Blocks[v.Down[i]]
		a.placeDescendants(s.ID, x-s.Envelope)
		for _, id := range a.subtree(s.ID) {
			placed[id] = true
		}
		x -= s.Envelope + gap
	}
	x = bounds.hi + gap
	for _, c := range v.Down[idx+1:] {
		s := a.Blocks[c]
		a.placeDescendants(s.ID, x)
		for _, id := range a.subtree(s.ID) {
			placed[id] = true
		}
		x += s.Envelope + gap
	}
}
