package route

import (
	"fmt"
	"math"
)

// geomEps is the slack below which two coordinates are treated as equal.
const geomEps = 1e-6

// ViolationKind classifies a routing defect.
type ViolationKind string

const (
	KindCrossing   ViolationKind = "crossing"
	KindBusOverlap ViolationKind = "bus-overlap"
	KindMultiLevel ViolationKind = "multi-level"
	KindClearance  ViolationKind = "clearance"
	KindCorridor   ViolationKind = "corridor"
)

// Violation is one routing defect. Amount is its size in pixels.
type Violation struct {
	Kind     ViolationKind
	Families []string
	Amount   float64
}

func (v Violation) Error() string {
	if len(v.Families) == 2 {
		return fmt.Sprintf("%s between %s and %s (%.1fpx)", v.Kind, v.Families[0], v.Families[1], v.Amount)
	}
	return fmt.Sprintf("%s in %s (%.1fpx)", v.Kind, v.Families[0], v.Amount)
}

// Validate checks a set of connections. Pairs are compared in both
// directions; each defect is reported once.
func Validate(conns []Connection, cfg Config) []Violation {
	var out []Violation
	for i, c := range conns {
		out = append(out, selfCheck(c, cfg)...)
		for _, o := range conns[i+1:] {
			out = append(out, conflicts(c, o, cfg)...)
		}
	}
	return out
}

// selfCheck reports defects of a single connection.
func selfCheck(c Connection, cfg Config) []Violation {
	var out []Violation
	for _, h := range c.Horizontals() {
		if d := math.Max(math.Abs(h.Y1-c.Y), math.Abs(h.Y2-c.Y)); d > geomEps {
			out = append(out, Violation{Kind: KindMultiLevel, Families: []string{c.FamilyID}, Amount: d})
		}
	}
	if c.Corridor != nil {
		lo, hi := c.reach()
		if d := math.Max(c.Corridor.Lo-lo, hi-c.Corridor.Hi); d > cfg.Tolerance {
			out = append(out, Violation{Kind: KindCorridor, Families: []string{c.FamilyID}, Amount: d})
		}
	}
	return out
}

// conflicts reports the defects between two connections.
func conflicts(c, o Connection, cfg Config) []Violation {
	var out []Violation
	pair := []string{c.FamilyID, o.FamilyID}

	if math.Abs(c.Y-o.Y) <= geomEps {
		clo, chi := c.reach()
		olo, ohi := o.reach()
		if overlap := min(chi, ohi) - max(clo, olo); overlap > -geomEps && rangesMeet(clo, chi, olo, ohi) {
			out = append(out, Violation{Kind: KindBusOverlap, Families: pair, Amount: max(overlap, 0)})
		}
	}

	if d, ok := crossing(c.Verticals(), o.Horizontals()); ok {
		out = append(out, Violation{Kind: KindCrossing, Families: pair, Amount: d})
	} else if d, ok := crossing(o.Verticals(), c.Horizontals()); ok {
		out = append(out, Violation{Kind: KindCrossing, Families: pair, Amount: d})
	}

	if d, ok := clearance(c, o.Verticals(), cfg); ok {
		out = append(out, Violation{Kind: KindClearance, Families: pair, Amount: d})
	} else if d, ok := clearance(o, c.Verticals(), cfg); ok {
		out = append(out, Violation{Kind: KindClearance, Families: pair, Amount: d})
	}
	return out
}

// rangesMeet reports whether two closed ranges share more than a point,
// or are both single points at the same place.
func rangesMeet(alo, ahi, blo, bhi float64) bool {
	if alo < bhi-geomEps && blo < ahi-geomEps {
		return true
	}
	return math.Abs(alo-ahi) <= geomEps && math.Abs(blo-bhi) <= geomEps && math.Abs(alo-blo) <= geomEps
}

// crossing reports the deepest strict crossing of any vertical with any
// horizontal.
func crossing(vs, hs []Segment) (float64, bool) {
	best, found := 0.0, false
	for _, v := range vs {
		vlo, vhi := v.ys()
		for _, h := range hs {
			hlo, hhi := h.xs()
			x, y := v.X1, h.Y1
			if x > hlo+geomEps && x < hhi-geomEps && y > vlo+geomEps && y < vhi-geomEps {
				best, found = max(best, min(x-hlo, hhi-x)), true
			}
		}
	}
	return best, found
}

// clearance reports the largest shortfall of an elbow of c against a
// foreign vertical passing its level.
func clearance(c Connection, vs []Segment, cfg Config) (float64, bool) {
	best, found := 0.0, false
	for _, x := range c.elbows() {
		for _, v := range vs {
			vlo, vhi := v.ys()
			if c.Y < vlo-geomEps || c.Y > vhi+geomEps {
				continue
			}
			if short := cfg.ElbowClearance - math.Abs(x-v.X1); short > geomEps {
				best, found = max(best, short), true
			}
		}
	}
	return best, found
}
