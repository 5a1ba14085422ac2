package graph

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/kinchart/pkg/core/family"
	kerrors "github.com/matzehuels/kinchart/pkg/errors"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Chart file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Side labels used in exported layouts.
const (
	SideBoth    = "both"
	SideHusband = "husband"
	SideWife    = "wife"
)

// =============================================================================
// Chart - Genealogy Input Format
// =============================================================================

// Chart is the canonical serialization format for family chart input.
//
// A chart carries the person and partnership records, an optional selection
// of what is in view, and an optional default focus person:
//
//	{
//	  "focus": "anna",
//	  "persons": [{"id": "anna", "sex": "F", "birth": "1950-04"}],
//	  "partnerships": [{"id": "p1", "partners": ["anna", "ben"], "children": ["carl"]}]
//	}
type Chart struct {
	Focus        string        `json:"focus,omitempty" yaml:"focus,omitempty"`
	Persons      []Person      `json:"persons" yaml:"persons" validate:"required,dive"`
	Partnerships []Partnership `json:"partnerships,omitempty" yaml:"partnerships,omitempty" validate:"dive"`
	View         *View         `json:"view,omitempty" yaml:"view,omitempty"`
}

// Person is a person record in a chart.
type Person struct {
	ID           string   `json:"id" yaml:"id" validate:"required"`
	Name         string   `json:"name,omitempty" yaml:"name,omitempty"`
	Sex          string   `json:"sex,omitempty" yaml:"sex,omitempty" validate:"omitempty,oneof=M F U m f u male female unknown"`
	Birth        string   `json:"birth,omitempty" yaml:"birth,omitempty"`
	Parents      []string `json:"parents,omitempty" yaml:"parents,omitempty" validate:"max=2"`
	Partnerships []string `json:"partnerships,omitempty" yaml:"partnerships,omitempty"`
}

// Partnership is a partnership record in a chart.
type Partnership struct {
	ID       string   `json:"id" yaml:"id" validate:"required"`
	Partners []string `json:"partners" yaml:"partners" validate:"min=1,max=2,dive,required"`
	Children []string `json:"children,omitempty" yaml:"children,omitempty" validate:"dive,required"`
}

// View restricts which persons and partnerships are laid out. A nil list
// includes everything of that kind.
type View struct {
	Persons      []string `json:"persons,omitempty" yaml:"persons,omitempty"`
	Partnerships []string `json:"partnerships,omitempty" yaml:"partnerships,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the chart's structural rules: required IDs, partner
// counts and well-formed dates. It does not check referential integrity;
// dangling references are treated as absent by the layout.
func (c *Chart) Validate() error {
	if err := validate.Struct(c); err != nil {
		return kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "invalid chart")
	}
	for _, p := range c.Persons {
		if err := kerrors.ValidateID(p.ID); err != nil {
			return err
		}
		if _, err := family.ParseDate(p.Birth); err != nil {
			return kerrors.Wrap(kerrors.ErrCodeInvalidInput, err, "person %s", p.ID)
		}
	}
	for _, p := range c.Partnerships {
		if err := kerrors.ValidateID(p.ID); err != nil {
			return err
		}
	}
	return nil
}

// HasPerson reports whether the chart has a person record with the ID.
func (c *Chart) HasPerson(id string) bool {
	return slices.ContainsFunc(c.Persons, func(p Person) bool { return p.ID == id })
}

// ToFamily converts a chart into a family graph and its selection.
// Returns an error for duplicate IDs or malformed records.
func ToFamily(c Chart) (*family.Graph, family.Selection, error) {
	g := family.New()
	for _, p := range c.Persons {
		birth, err := family.ParseDate(p.Birth)
		if err != nil {
			return nil, family.Selection{}, fmt.Errorf("person %s: %w", p.ID, err)
		}
		err = g.AddPerson(family.Person{
			ID:           p.ID,
			Name:         p.Name,
			Sex:          family.ParseSex(p.Sex),
			Birth:        birth,
			Parents:      p.Parents,
			Partnerships: p.Partnerships,
		})
		if err != nil {
			return nil, family.Selection{}, err
		}
	}
	for _, p := range c.Partnerships {
		err := g.AddPartnership(family.Partnership{
			ID:       p.ID,
			Partners: p.Partners,
			Children: p.Children,
		})
		if err != nil {
			return nil, family.Selection{}, err
		}
	}

	sel := family.All()
	if c.View != nil {
		sel = family.Select(c.View.Persons, c.View.Partnerships)
	}
	return g, sel, nil
}

// FromFamily converts a family graph back into a chart. Records are sorted
// by ID for deterministic output.
func FromFamily(g *family.Graph, focus string) Chart {
	c := Chart{Focus: focus}
	for _, p := range g.Persons() {
		c.Persons = append(c.Persons, Person{
			ID:           p.ID,
			Name:         p.Name,
			Sex:          sexString(p.Sex),
			Birth:        p.Birth.String(),
			Parents:      slices.Clone(p.Parents),
			Partnerships: slices.Clone(p.Partnerships),
		})
	}
	for _, p := range g.Partnerships() {
		c.Partnerships = append(c.Partnerships, Partnership{
			ID:       p.ID,
			Partners: slices.Clone(p.Partners),
			Children: slices.Clone(p.Children),
		})
	}
	return c
}

func sexString(s family.Sex) string {
	if s == family.SexUnknown {
		return ""
	}
	return s.String()
}
