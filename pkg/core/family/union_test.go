package family

import (
	"slices"
	"testing"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestBuildModelPartnerOrder(t *testing.T) {
	g := New()
	_ = g.AddPerson(Person{ID: "w", Sex: SexFemale})
	_ = g.AddPerson(Person{ID: "h", Sex: SexMale})
	_ = g.AddPartnership(Partnership{ID: "p", Partners: []string{"w", "h"}})

	m := BuildModel(g, All())
	u, ok := m.Union("p")
	if !ok {
		t.Fatal("Union(p) not found")
	}
	if u.PartnerA != "h" || u.PartnerB != "w" {
		t.Errorf("partners = (%s, %s), want (h, w)", u.PartnerA, u.PartnerB)
	}
	if u.Slot("w") != 1 || u.Slot("h") != 0 || u.Slot("x") != -1 {
		t.Errorf("Slot() mismatch: h=%d w=%d x=%d", u.Slot("h"), u.Slot("w"), u.Slot("x"))
	}
}

func TestBuildModelChildOrder(t *testing.T) {
	g := New()
	_ = g.AddPerson(Person{ID: "mum"})
	_ = g.AddPerson(Person{ID: "c", Birth: mustDate(t, "1990")})
	_ = g.AddPerson(Person{ID: "b", Birth: mustDate(t, "1985-06")})
	_ = g.AddPerson(Person{ID: "a"})
	_ = g.AddPerson(Person{ID: "d", Birth: mustDate(t, "1985-06")})
	_ = g.AddPartnership(Partnership{ID: "p", Partners: []string{"mum"}, Children: []string{"a", "c", "d", "b"}})

	m := BuildModel(g, All())
	u, _ := m.Union("p")
	want := []string{"b", "d", "c", "a"}
	if !slices.Equal(u.Children, want) {
		t.Errorf("Children = %v, want %v", u.Children, want)
	}
	if !u.Single() {
		t.Error("Single() = false, want true")
	}
	for _, id := range want {
		pu, ok := m.ParentUnion(id)
		if !ok || pu.ID != "p" {
			t.Errorf("ParentUnion(%s) = %v, want p", id, pu)
		}
		if cu, ok := m.UnionOf(id); !ok || cu.ID != SoloPrefix+id {
			t.Errorf("UnionOf(%s) = %v, want %s", id, cu, SoloPrefix+id)
		}
	}
}

func TestBuildModelSkipsSecondPartnership(t *testing.T) {
	g := New()
	for _, id := range []string{"h", "w1", "w2", "k1", "k2", "k3"} {
		_ = g.AddPerson(Person{ID: id})
	}
	_ = g.AddPartnership(Partnership{ID: "first", Partners: []string{"h", "w1"}, Children: []string{"k1"}})
	_ = g.AddPartnership(Partnership{ID: "second", Partners: []string{"h", "w2"}, Children: []string{"k2", "k3"}})

	m := BuildModel(g, All())
	if _, ok := m.Union("second"); !ok {
		t.Error("partnership with more children should be claimed first")
	}
	if got := m.Skipped(); !slices.Equal(got, []string{"first"}) {
		t.Errorf("Skipped() = %v, want [first]", got)
	}
	if u, ok := m.UnionOf("w1"); !ok || u.ID != SoloPrefix+"w1" {
		t.Errorf("UnionOf(w1) = %v, want solo union", u)
	}
	if _, ok := m.ParentUnion("k1"); ok {
		t.Error("ParentUnion(k1) should be absent once its partnership is skipped")
	}
}

func TestBuildModelSelection(t *testing.T) {
	g := New()
	for _, id := range []string{"h", "w", "k1", "k2"} {
		_ = g.AddPerson(Person{ID: id})
	}
	_ = g.AddPartnership(Partnership{ID: "p", Partners: []string{"h", "w"}, Children: []string{"k1", "k2", "ghost"}})

	m := BuildModel(g, Select([]string{"h", "k2"}, nil))
	u, ok := m.Union("p")
	if !ok {
		t.Fatal("Union(p) not found")
	}
	if !u.Single() || u.PartnerA != "h" {
		t.Errorf("union partners = %v, want [h]", u.Partners())
	}
	if !slices.Equal(u.Children, []string{"k2"}) {
		t.Errorf("Children = %v, want [k2]", u.Children)
	}
	if _, ok := m.Person("w"); ok {
		t.Error("Person(w) should be out of view")
	}
	if got := m.Persons(); !slices.Equal(got, []string{"h", "k2"}) {
		t.Errorf("Persons() = %v, want [h k2]", got)
	}
}
