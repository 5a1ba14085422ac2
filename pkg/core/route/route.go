package route

import (
	"cmp"
	"math"
	"slices"
)

// Default geometry, matching the layout defaults.
const (
	DefaultCardWidth      = 120.0
	DefaultCardHeight     = 56.0
	DefaultLaneSpacing    = 6.0
	DefaultElbowClearance = 14.0
	DefaultTolerance      = 0.5
)

// Config holds the geometry the router reads.
type Config struct {
	CardWidth      float64
	CardHeight     float64
	LaneSpacing    float64
	ElbowClearance float64
	Tolerance      float64
}

// DefaultConfig returns the default router geometry.
func DefaultConfig() Config {
	return Config{
		CardWidth:      DefaultCardWidth,
		CardHeight:     DefaultCardHeight,
		LaneSpacing:    DefaultLaneSpacing,
		ElbowClearance: DefaultElbowClearance,
		Tolerance:      DefaultTolerance,
	}
}

// Card is a placed person card; X and Y are its top-left corner.
type Card struct {
	PersonID string
	X, Y     float64
}

// Corridor bounds the horizontal segments of a connection.
type Corridor struct {
	Lo, Hi float64
}

// Family is a union to connect: partners left to right, and children.
// Persons without a card are ignored.
type Family struct {
	ID       string
	Partners []string
	Children []string
	Corridor *Corridor
}

// Input is everything the router needs.
type Input struct {
	Cards    []Card
	Families []Family
}

// Segment is an axis-aligned line segment.
type Segment struct {
	X1, Y1, X2, Y2 float64
}

// Horizontal reports whether the segment runs along the X axis.
func (s Segment) Horizontal() bool { return s.Y1 == s.Y2 }

func (s Segment) xs() (float64, float64) { return min(s.X1, s.X2), max(s.X1, s.X2) }
func (s Segment) ys() (float64, float64) { return min(s.Y1, s.Y2), max(s.Y1, s.Y2) }

// Drop is the vertical segment from a bus down to one child card.
type Drop struct {
	PersonID string
	Segment
}

// Connection is the routed connector of one family.
type Connection struct {
	FamilyID  string
	Lane      int
	Y         float64 // bus level
	Stem      Segment
	Connector *Segment // nil when the stem meets the bus
	Bus       Segment
	Drops     []Drop
	Corridor  *Corridor
}

// Horizontals returns the bus and, when present, the connector.
func (c Connection) Horizontals() []Segment {
	if c.Connector == nil {
		return []Segment{c.Bus}
	}
	return []Segment{c.Bus, *c.Connector}
}

// Verticals returns the stem and the drops.
func (c Connection) Verticals() []Segment {
	out := make([]Segment, 0, len(c.Drops)+1)
	out = append(out, c.Stem)
	for _, d := range c.Drops {
		out = append(out, d.Segment)
	}
	return out
}

// reach returns the horizontal extent of the bus and connector together.
func (c Connection) reach() (float64, float64) {
	lo, hi := c.Bus.xs()
	if c.Connector != nil {
		clo, chi := c.Connector.xs()
		lo, hi = min(lo, clo), max(hi, chi)
	}
	return lo, hi
}

// elbows returns the points where verticals meet the bus level.
func (c Connection) elbows() []float64 {
	lo, hi := c.reach()
	xs := []float64{c.Stem.X1, lo, hi}
	for _, d := range c.Drops {
		xs = append(xs, d.X1)
	}
	return xs
}

// SpouseLine joins the two cards of a couple.
type SpouseLine struct {
	FamilyID string
	Segment
}

// Output is the routed chart.
type Output struct {
	Connections []Connection
	SpouseLines []SpouseLine
	Violations  []Violation
}

// plan is a family resolved against the card positions, before a lane is
// chosen.
type plan struct {
	fam        Family
	stemX      float64
	stemTop    float64
	children   []Card
	drops      []float64
	bandTop    float64
	bandBottom float64
	lo, hi     float64
}

func newPlan(fam Family, cards map[string]Card, cfg Config) (plan, bool) {
	p := plan{fam: fam, lo: math.Inf(1), hi: math.Inf(-1), bandTop: math.Inf(-1), bandBottom: math.Inf(1)}
	var parents []Card
	for _, id := range fam.Partners {
		if c, ok := cards[id]; ok {
			parents = append(parents, c)
		}
	}
	for _, id := range fam.Children {
		if c, ok := cards[id]; ok {
			p.children = append(p.children, c)
		}
	}
	if len(parents) == 0 || len(p.children) == 0 {
		return p, false
	}
	switch len(parents) {
	case 1:
		p.stemX = parents[0].X + cfg.CardWidth/2
		p.stemTop = parents[0].Y + cfg.CardHeight
	default:
		a, b := parents[0], parents[1]
		p.stemX = (a.X + cfg.CardWidth + b.X) / 2
		p.stemTop = a.Y + cfg.CardHeight/2
	}
	for _, c := range parents {
		p.bandTop = max(p.bandTop, c.Y+cfg.CardHeight)
	}
	for _, c := range p.children {
		x := dropX(c, fam.Corridor, cfg)
		p.drops = append(p.drops, x)
		p.lo, p.hi = min(p.lo, x), max(p.hi, x)
		p.bandBottom = min(p.bandBottom, c.Y)
	}
	return p, true
}

// dropX returns where the drop to a child card meets the bus: the card's
// center, pulled inside the corridor as long as it still lands on the card.
func dropX(c Card, cor *Corridor, cfg Config) float64 {
	x := c.X + cfg.CardWidth/2
	if cor == nil {
		return x
	}
	lo, hi := max(cor.Lo, c.X), min(cor.Hi, c.X+cfg.CardWidth)
	if lo > hi {
		return x
	}
	return min(max(x, lo), hi)
}

// lanes returns the candidate lane offsets: 0, -1, 1, -2, 2 and so on, as
// far as the band leaves one lane spacing of room on either side.
func (p plan) lanes(cfg Config) []int {
	out := []int{0}
	if cfg.LaneSpacing <= 0 {
		return out
	}
	room := (p.bandBottom-p.bandTop)/2 - cfg.LaneSpacing
	for n := 1; float64(n)*cfg.LaneSpacing <= room; n++ {
		out = append(out, -n, n)
	}
	return out
}

func (p plan) connect(lane int, cfg Config) Connection {
	y := (p.bandTop+p.bandBottom)/2 + float64(lane)*cfg.LaneSpacing
	c := Connection{
		FamilyID: p.fam.ID,
		Lane:     lane,
		Y:        y,
		Stem:     Segment{p.stemX, p.stemTop, p.stemX, y},
		Bus:      Segment{p.lo, y, p.hi, y},
		Corridor: p.fam.Corridor,
	}
	switch {
	case p.stemX < p.lo:
		c.Connector = &Segment{p.stemX, y, p.lo, y}
	case p.stemX > p.hi:
		c.Connector = &Segment{p.hi, y, p.stemX, y}
	}
	for i, ch := range p.children {
		x := p.drops[i]
		c.Drops = append(c.Drops, Drop{PersonID: ch.PersonID, Segment: Segment{x, y, x, ch.Y}})
	}
	return c
}

// Route connects every family whose partners and children have cards.
// Families are routed band by band, left to right, each taking the first
// lane that conflicts with nothing routed before it.
func Route(in Input, cfg Config) Output {
	cards := make(map[string]Card, len(in.Cards))
	for _, c := range in.Cards {
		cards[c.PersonID] = c
	}

	var out Output
	var plans []plan
	for _, fam := range in.Families {
		if line, ok := spouseLine(fam, cards, cfg); ok {
			out.SpouseLines = append(out.SpouseLines, line)
		}
		if p, ok := newPlan(fam, cards, cfg); ok {
			plans = append(plans, p)
		}
	}
	slices.SortStableFunc(plans, func(a, b plan) int {
		if c := cmp.Compare(a.bandTop, b.bandTop); c != 0 {
			return c
		}
		if c := cmp.Compare(min(a.lo, a.stemX), min(b.lo, b.stemX)); c != 0 {
			return c
		}
		return cmp.Compare(a.fam.ID, b.fam.ID)
	})

	for _, p := range plans {
		var best Connection
		bestCost := math.MaxInt
		for _, lane := range p.lanes(cfg) {
			c := p.connect(lane, cfg)
			cost := 0
			for _, o := range out.Connections {
				cost += len(conflicts(c, o, cfg))
			}
			if cost < bestCost {
				best, bestCost = c, cost
			}
			if cost == 0 {
				break
			}
		}
		out.Connections = append(out.Connections, best)
	}
	out.Violations = Validate(out.Connections, cfg)
	return out
}

func spouseLine(fam Family, cards map[string]Card, cfg Config) (SpouseLine, bool) {
	if len(fam.Partners) != 2 {
		return SpouseLine{}, false
	}
	a, okA := cards[fam.Partners[0]]
	b, okB := cards[fam.Partners[1]]
	if !okA || !okB {
		return SpouseLine{}, false
	}
	y := a.Y + cfg.CardHeight/2
	return SpouseLine{
		FamilyID: fam.ID,
		Segment:  Segment{a.X + cfg.CardWidth, y, b.X, y},
	}, true
}
