package layout_test

import (
	"fmt"

	"github.com/matzehuels/kinchart/pkg/core/family"
	"github.com/matzehuels/kinchart/pkg/core/layout"
)

func ExampleCompute() {
	g := family.New()
	_ = g.AddPerson(family.Person{ID: "p1", Sex: family.SexMale})
	_ = g.AddPerson(family.Person{ID: "p2", Sex: family.SexFemale})
	_ = g.AddPerson(family.Person{ID: "c"})
	_ = g.AddPartnership(family.Partnership{ID: "pp", Partners: []string{"p1", "p2"}, Children: []string{"c"}})

	res, err := layout.Compute(family.BuildModel(g, family.All()), "c")
	if err != nil {
		panic(err)
	}
	for _, p := range res.Positions {
		fmt.Printf("%s x=%.0f y=%.0f gen=%d\n", p.PersonID, p.X, p.Y, p.Generation)
	}
	fmt.Println("Width:", res.Width())
	fmt.Println("Valid:", res.Diagnostics.Valid)
	// Output:
	// c x=68 y=120 gen=0
	// p1 x=0 y=0 gen=-1
	// p2 x=136 y=0 gen=-1
	// Width: 256
	// Valid: true
}

func ExampleResult_Export() {
	g := family.New()
	_ = g.AddPerson(family.Person{ID: "ann", Name: "Ann"})
	res, _ := layout.Compute(family.BuildModel(g, family.All()), "ann")

	l := res.Export()
	p, _ := l.Position("ann")
	fmt.Println(p.Name, p.X, p.Y, p.Side)
	// Output:
	// Ann 0 0 both
}
