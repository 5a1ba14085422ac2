package layout

import (
	"slices"

	"github.com/matzehuels/kinchart/pkg/core/family"
	kerrors "github.com/matzehuels/kinchart/pkg/errors"
)

// Generations maps persons and unions to generation numbers relative to
// the focus (0). Ancestors are negative, descendants positive.
type Generations struct {
	Person map[string]int
	Union  map[string]int
	Min    int
	Max    int

	order []string // union IDs in labeling order
}

// Bands groups union IDs by generation, each band sorted.
func (g *Generations) Bands() map[int][]string {
	bands := make(map[int][]string)
	for id, gen := range g.Union {
		bands[gen] = append(bands[gen], id)
	}
	for _, ids := range bands {
		slices.Sort(ids)
	}
	return bands
}

func (g *Generations) label(u *family.Union, gen int) bool {
	if _, ok := g.Union[u.ID]; ok {
		return false
	}
	g.Union[u.ID] = gen
	g.order = append(g.order, u.ID)
	return true
}

// AssignGenerations labels every union reachable from the focus person.
//
// Labeling is breadth-first in two stages: first the direct ancestor and
// descendant lines, then collateral edges. The first label a union receives
// is kept, so a union reachable along several paths (pedigree collapse)
// keeps its direct-line generation.
//
// A focus that is not in view yields an empty result and an
// ErrCodeFocusNotFound error.
func AssignGenerations(m *family.Model, focus string) (*Generations, error) {
	g := &Generations{
		Person: make(map[string]int),
		Union:  make(map[string]int),
	}
	fu, ok := m.UnionOf(focus)
	if !ok {
		return g, kerrors.New(kerrors.ErrCodeFocusNotFound, "focus person %q is not in view", focus)
	}
	g.label(fu, 0)

	for queue := []*family.Union{fu}; len(queue) > 0; queue = queue[1:] {
		u := queue[0]
		for _, p := range u.Partners() {
			if pu, ok := m.ParentUnion(p); ok && g.label(pu, g.Union[u.ID]-1) {
				queue = append(queue, pu)
			}
		}
	}
	for queue := []*family.Union{fu}; len(queue) > 0; queue = queue[1:] {
		u := queue[0]
		for _, c := range u.Children {
			if cu, ok := m.UnionOf(c); ok && g.label(cu, g.Union[u.ID]+1) {
				queue = append(queue, cu)
			}
		}
	}

	// Collateral: every labeled union, in labeling order, labels its
	// neighbours in both directions.
	for i := 0; i < len(g.order); i++ {
		u, _ := m.Union(g.order[i])
		gen := g.Union[u.ID]
		for _, p := range u.Partners() {
			if pu, ok := m.ParentUnion(p); ok {
				g.label(pu, gen-1)
			}
		}
		for _, c := range u.Children {
			if cu, ok := m.UnionOf(c); ok {
				g.label(cu, gen+1)
			}
		}
	}

	for _, id := range g.order {
		u, _ := m.Union(id)
		gen := g.Union[id]
		for _, p := range u.Partners() {
			g.Person[p] = gen
		}
		g.Min = min(g.Min, gen)
		g.Max = max(g.Max, gen)
	}
	return g, nil
}
