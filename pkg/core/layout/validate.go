package layout

import (
	"fmt"
	"math"

	"github.com/matzehuels/kinchart/pkg/core/route"
)

// report collects validation findings.
type report struct {
	errors       []string
	maxViolation float64
}

func (r *report) add(amount float64, format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
	r.maxViolation = max(r.maxViolation, amount)
}

// validate checks the solved blocks and the routed connectors.
func (a *Arena) validate(violations []route.Violation) report {
	var r report
	tol := a.cfg.Tolerance

	for _, b := range a.Blocks {
		if math.IsNaN(b.X) || math.IsInf(b.X, 0) {
			r.add(0, "block %s has a non-finite position", b.Union.ID)
		}
	}

	for gen := a.minGen; gen <= a.maxGen; gen++ {
		row := a.row(gen)
		for i := 1; i < len(row); i++ {
			prev, cur := a.Blocks[row[i-1]], a.Blocks[row[i]]
			if over := prev.Right() - cur.X; over > tol {
				r.add(over, "generation %d: %s overlaps %s by %.1fpx", gen, prev.Union.ID, cur.Union.ID, over)
			}
		}
	}

	for gen := a.minGen; gen <= a.maxGen; gen++ {
		husband, wife := math.Inf(-1), math.Inf(1)
		for _, id := range a.byGen[gen] {
			switch b := a.Blocks[id]; b.Side {
			case SideHusband:
				husband = max(husband, b.Right())
			case SideWife:
				wife = min(wife, b.X)
			}
		}
		if over := husband - wife; over > tol {
			r.add(over, "generation %d: husband's side reaches %.1fpx into the wife's side", gen, over)
		}
	}

	for _, fk := range a.nearForks() {
		for i := 1; i < len(fk.clusters); i++ {
			prev, cur := a.extent(fk.clusters[i-1]), a.extent(fk.clusters[i])
			if over := prev.hi - cur.lo; over > tol {
				r.add(over, "branches under %s interleave by %.1fpx", fk.block.Union.ID, over)
			}
		}
	}

	for _, did := range a.directs {
		d := a.Blocks[did]
		if !a.bothClaimed(d) {
			continue
		}
		if c, ok := a.lastCardLeft(a.lineage(d.Up[0])); ok {
			if over := c - d.CardCenter(0); over > tol {
				r.add(over, "husband ancestry of %s crosses the husband's center by %.1fpx", d.Union.ID, over)
			}
		}
		if c, ok := a.firstCardRight(a.lineage(d.Up[1])); ok {
			if over := d.CardCenter(1) - c; over > tol {
				r.add(over, "wife ancestry of %s crosses the wife's center by %.1fpx", d.Union.ID, over)
			}
		}
	}

	for _, v := range violations {
		r.add(v.Amount, "routing: %s", v.Error())
	}
	return r
}
