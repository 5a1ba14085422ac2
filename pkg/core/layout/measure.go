package layout

import "slices"

// measure computes couple, children and subtree widths bottom-up, then the
// envelope of direct-line blocks top-down. A direct block's envelope also
// reserves the room the ancestors it claimed need above it.
func (a *Arena) measure() {
	cfg := a.cfg
	ids := make([]int, len(a.Blocks))
	for i := range ids {
		ids[i] = i
	}
	slices.SortStableFunc(ids, func(x, y int) int { return a.Blocks[y].Gen - a.Blocks[x].Gen })

	for _, id := range ids {
		b := a.Blocks[id]
		b.CoupleWidth = cfg.CardWidth
		if b.Couple() {
			b.CoupleWidth = 2*cfg.CardWidth + cfg.PartnerGap
		}
		b.ChildrenWidth = 0
		for i, c := range b.Down {
			if i > 0 {
				b.ChildrenWidth += cfg.HorizontalGap
			}
			b.ChildrenWidth += a.Blocks[c].Width
		}
		b.Width = max(b.CoupleWidth, b.ChildrenWidth)
		b.Envelope = b.Width
	}

	for i := len(ids) - 1; i >= 0; i-- {
		b := a.Blocks[ids[i]]
		if !b.Direct {
			continue
		}
		up, n := 0.0, 0
		for _, u := range a.claimedUp(b) {
			up += a.Blocks[u].Envelope
			n++
		}
		if n == 2 {
			up += cfg.HorizontalGap
		}
		b.Envelope = max(b.Width, up)
	}
}
