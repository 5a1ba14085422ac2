package family

import (
	"cmp"
	"slices"
)

// SoloPrefix prefixes the IDs of unions synthesized for persons who are not
// a partner in any partnership in view.
const SoloPrefix = "solo:"

// Selection is the set of persons and partnerships in view. A nil set
// selects everything of that kind.
type Selection struct {
	Persons      map[string]bool
	Partnerships map[string]bool
}

// All selects every person and partnership.
func All() Selection { return Selection{} }

// Select builds a selection from ID lists. A nil list selects everything of
// that kind.
func Select(persons, partnerships []string) Selection {
	var s Selection
	if persons != nil {
		s.Persons = make(map[string]bool, len(persons))
		for _, id := range persons {
			s.Persons[id] = true
		}
	}
	if partnerships != nil {
		s.Partnerships = make(map[string]bool, len(partnerships))
		for _, id := range partnerships {
			s.Partnerships[id] = true
		}
	}
	return s
}

// HasPerson reports whether the person is selected.
func (s Selection) HasPerson(id string) bool {
	return s.Persons == nil || s.Persons[id]
}

// HasPartnership reports whether the partnership is selected.
func (s Selection) HasPartnership(id string) bool {
	return s.Partnerships == nil || s.Partnerships[id]
}

// Union is the atomic layout unit: a couple or a single parent together
// with their children in view.
type Union struct {
	ID       string
	PartnerA string
	PartnerB string // empty for a single parent
	Children []string
	Source   string // partnership ID, empty for solo unions
}

// Single reports whether the union has only one partner.
func (u *Union) Single() bool { return u.PartnerB == "" }

// Partners returns the partner IDs in left-to-right order.
func (u *Union) Partners() []string {
	if u.Single() {
		return []string{u.PartnerA}
	}
	return []string{u.PartnerA, u.PartnerB}
}

// Partner returns partner k (0 = A, 1 = B).
func (u *Union) Partner(k int) string {
	if k == 0 {
		return u.PartnerA
	}
	return u.PartnerB
}

// Slot returns 0 or 1 for the partner with the given ID, or -1.
func (u *Union) Slot(personID string) int {
	switch {
	case personID == "":
		return -1
	case personID == u.PartnerA:
		return 0
	case personID == u.PartnerB:
		return 1
	default:
		return -1
	}
}

// Model is a graph reduced to the unions in view.
type Model struct {
	graph       *Graph
	unions      map[string]*Union
	order       []string
	unionOf     map[string]string
	parentUnion map[string]string
	persons     []string
	skipped     []string
}

// BuildModel derives the unions in view from a graph and a selection.
//
// Every selected person is a partner in exactly one union. Partnerships are
// claimed in order of most in-view children, then ID; a partnership whose
// partner was already claimed by an earlier one is skipped and reported by
// [Model.Skipped]. Persons left without a partnership get a solo union.
func BuildModel(g *Graph, sel Selection) *Model {
	m := &Model{
		graph:       g,
		unions:      make(map[string]*Union),
		unionOf:     make(map[string]string),
		parentUnion: make(map[string]string),
	}

	for _, p := range g.Persons() {
		if sel.HasPerson(p.ID) {
			m.persons = append(m.persons, p.ID)
		}
	}
	inView := func(id string) bool {
		_, ok := g.Person(id)
		return ok && sel.HasPerson(id)
	}

	type candidate struct {
		p        *Partnership
		partners []string
		children []string
	}
	var cands []candidate
	for _, p := range g.Partnerships() {
		if !sel.HasPartnership(p.ID) {
			continue
		}
		c := candidate{p: p}
		for _, id := range p.Partners {
			if inView(id) {
				c.partners = append(c.partners, id)
			}
		}
		for _, id := range p.Children {
			if inView(id) && !slices.Contains(c.children, id) {
				c.children = append(c.children, id)
			}
		}
		if len(c.partners) == 0 {
			m.skipped = append(m.skipped, p.ID)
			continue
		}
		cands = append(cands, c)
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		if c := cmp.Compare(len(b.children), len(a.children)); c != 0 {
			return c
		}
		return cmp.Compare(a.p.ID, b.p.ID)
	})

	for _, c := range cands {
		claimed := false
		for _, id := range c.partners {
			if _, ok := m.unionOf[id]; ok {
				claimed = true
			}
		}
		if claimed {
			m.skipped = append(m.skipped, c.p.ID)
			continue
		}
		u := &Union{ID: c.p.ID, Source: c.p.ID, PartnerA: c.partners[0]}
		if len(c.partners) == 2 {
			u.PartnerB = c.partners[1]
			if m.sexOf(u.PartnerA) == SexFemale && m.sexOf(u.PartnerB) == SexMale {
				u.PartnerA, u.PartnerB = u.PartnerB, u.PartnerA
			}
		}
		for _, id := range c.children {
			if _, ok := m.parentUnion[id]; ok || u.Slot(id) >= 0 {
				continue
			}
			m.parentUnion[id] = u.ID
			u.Children = append(u.Children, id)
		}
		m.SortPersons(u.Children)
		m.add(u)
	}

	// Children recorded only through Person.Parents.
	for _, id := range m.persons {
		if _, ok := m.parentUnion[id]; ok {
			continue
		}
		for _, pid := range g.ParentPartnerships(id) {
			if u, ok := m.unions[pid]; ok && u.Slot(id) < 0 {
				m.parentUnion[id] = u.ID
				u.Children = append(u.Children, id)
				m.SortPersons(u.Children)
				break
			}
		}
	}

	for _, id := range m.persons {
		if _, ok := m.unionOf[id]; !ok {
			m.add(&Union{ID: SoloPrefix + id, PartnerA: id})
		}
	}
	return m
}

func (m *Model) add(u *Union) {
	m.unions[u.ID] = u
	m.order = append(m.order, u.ID)
	for _, id := range u.Partners() {
		m.unionOf[id] = u.ID
	}
}

func (m *Model) sexOf(id string) Sex {
	if p, ok := m.graph.Person(id); ok {
		return p.Sex
	}
	return SexUnknown
}

// Graph returns the underlying graph.
func (m *Model) Graph() *Graph { return m.graph }

// Person returns a person in view.
func (m *Model) Person(id string) (*Person, bool) {
	if _, ok := m.unionOf[id]; !ok {
		return nil, false
	}
	return m.graph.Person(id)
}

// Persons returns the IDs of all persons in view, sorted.
func (m *Model) Persons() []string { return slices.Clone(m.persons) }

// Union returns the union with the given ID.
func (m *Model) Union(id string) (*Union, bool) {
	u, ok := m.unions[id]
	return u, ok
}

// Unions returns all unions in creation order.
func (m *Model) Unions() []*Union {
	out := make([]*Union, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.unions[id])
	}
	return out
}

// UnionCount returns the number of unions.
func (m *Model) UnionCount() int { return len(m.order) }

// UnionOf returns the union the person is a partner in.
func (m *Model) UnionOf(personID string) (*Union, bool) {
	id, ok := m.unionOf[personID]
	if !ok {
		return nil, false
	}
	return m.unions[id], true
}

// ParentUnion returns the union the person is a child of.
func (m *Model) ParentUnion(personID string) (*Union, bool) {
	id, ok := m.parentUnion[personID]
	if !ok {
		return nil, false
	}
	return m.unions[id], true
}

// Skipped returns the IDs of partnerships that could not become unions.
func (m *Model) Skipped() []string { return slices.Clone(m.skipped) }

// SortPersons sorts person IDs in place by birth date (unknown last), then
// by ID. This is the only child order the layout uses.
func (m *Model) SortPersons(ids []string) {
	slices.SortStableFunc(ids, func(a, b string) int {
		var da, db Date
		if p, ok := m.graph.Person(a); ok {
			da = p.Birth
		}
		if p, ok := m.graph.Person(b); ok {
			db = p.Birth
		}
		if c := da.Compare(db); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
}
