// Package family provides the person/partnership graph a chart is laid out
// from.
//
// # Graph
//
// A [Graph] holds [Person] and [Partnership] records. Lookups return
// (value, ok) pairs and dangling references are tolerated: a partnership
// naming an unknown person simply has one partner less in view.
//
//	g := family.New()
//	_ = g.AddPerson(family.Person{ID: "anna", Sex: family.SexFemale})
//	_ = g.AddPerson(family.Person{ID: "ben", Sex: family.SexMale})
//	_ = g.AddPartnership(family.Partnership{ID: "p1", Partners: []string{"anna", "ben"}})
//
// # Unions
//
// Layout does not work on partnerships directly. [BuildModel] reduces a
// graph and a [Selection] to [Union] values: a couple (or a single parent)
// together with its in-view children. Every person in view is a partner in
// exactly one union; persons without a partnership get a synthetic
// single-parent union whose ID carries [SoloPrefix].
//
// When sexes are known the male partner is PartnerA and is drawn on the
// left. Children are always ordered by birth date, then ID, so layouts are
// reproducible for identical input.
package family
