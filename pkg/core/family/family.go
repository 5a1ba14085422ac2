package family

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

var (
	// ErrInvalidPersonID is returned by [Graph.AddPerson] when the person ID
	// is empty.
	ErrInvalidPersonID = errors.New("person ID must not be empty")

	// ErrDuplicatePerson is returned by [Graph.AddPerson] when a person with
	// the same ID already exists.
	ErrDuplicatePerson = errors.New("duplicate person ID")

	// ErrInvalidPartnershipID is returned by [Graph.AddPartnership] when the
	// partnership ID is empty.
	ErrInvalidPartnershipID = errors.New("partnership ID must not be empty")

	// ErrDuplicatePartnership is returned by [Graph.AddPartnership] when a
	// partnership with the same ID already exists.
	ErrDuplicatePartnership = errors.New("duplicate partnership ID")

	// ErrTooManyPartners is returned by [Graph.AddPartnership] when a
	// partnership lists no partners or more than two.
	ErrTooManyPartners = errors.New("partnership must have one or two partners")

	// ErrInvalidDate is returned by [ParseDate] for malformed dates.
	ErrInvalidDate = errors.New("invalid date")
)

// Sex is the recorded sex of a person. It only drives which partner of a
// couple is drawn on the left.
type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

// ParseSex maps the common spellings ("M", "male", "F", "female") to a Sex.
// Anything else is SexUnknown.
func ParseSex(s string) Sex {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return SexMale
	case "f", "female":
		return SexFemale
	default:
		return SexUnknown
	}
}

func (s Sex) String() string {
	switch s {
	case SexMale:
		return "M"
	case SexFemale:
		return "F"
	default:
		return "U"
	}
}

// Date is a possibly partial calendar date. Month and Day are zero when
// unknown; the zero Date means the date is unknown altogether.
type Date struct {
	Year, Month, Day int
}

// ParseDate parses "YYYY", "YYYY-MM" or "YYYY-MM-DD". The empty string
// yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	parts := strings.Split(s, "-")
	if len(parts) > 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		nums[i] = n
	}
	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if d.Month > 12 || d.Day > 31 || (d.Month == 0 && d.Day != 0) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// IsZero reports whether the date is unknown.
func (d Date) IsZero() bool { return d == Date{} }

// Compare orders dates chronologically. Unknown dates sort after known ones;
// unknown components sort before known ones within the same year or month.
func (d Date) Compare(o Date) int {
	switch {
	case d.IsZero() && o.IsZero():
		return 0
	case d.IsZero():
		return 1
	case o.IsZero():
		return -1
	}
	if c := cmpInt(d.Year, o.Year); c != 0 {
		return c
	}
	if c := cmpInt(d.Month, o.Month); c != 0 {
		return c
	}
	return cmpInt(d.Day, o.Day)
}

func (d Date) String() string {
	switch {
	case d.IsZero():
		return ""
	case d.Month == 0:
		return fmt.Sprintf("%04d", d.Year)
	case d.Day == 0:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Person is an individual in the family graph.
type Person struct {
	ID    string
	Name  string
	Sex   Sex
	Birth Date

	// Parents lists parent person IDs. It is only consulted when no
	// partnership lists this person as a child.
	Parents []string

	// Partnerships lists partnership IDs this person is a partner in. The
	// graph also derives this from the partnerships themselves.
	Partnerships []string
}

// Partnership records a couple (or a single parent) and their children.
type Partnership struct {
	ID       string
	Partners []string
	Children []string
}

// Graph is the person/partnership record set a layout is computed from.
// References to unknown persons are tolerated and treated as absent.
type Graph struct {
	persons      map[string]*Person
	partnerships map[string]*Partnership
	childOf      map[string][]string
	partnerIn    map[string][]string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		persons:      make(map[string]*Person),
		partnerships: make(map[string]*Partnership),
		childOf:      make(map[string][]string),
		partnerIn:    make(map[string][]string),
	}
}

// AddPerson adds a person to the graph.
//
// Returns ErrInvalidPersonID if the ID is empty or ErrDuplicatePerson if a
// person with that ID exists.
func (g *Graph) AddPerson(p Person) error {
	if p.ID == "" {
		return ErrInvalidPersonID
	}
	if _, ok := g.persons[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePerson, p.ID)
	}
	p.Parents = slices.Clone(p.Parents)
	p.Partnerships = slices.Clone(p.Partnerships)
	g.persons[p.ID] = &p
	for _, pid := range p.Partnerships {
		g.partnerIn[p.ID] = appendUnique(g.partnerIn[p.ID], pid)
	}
	return nil
}

// AddPartnership adds a partnership and indexes its partners and children.
func (g *Graph) AddPartnership(p Partnership) error {
	if p.ID == "" {
		return ErrInvalidPartnershipID
	}
	if _, ok := g.partnerships[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePartnership, p.ID)
	}
	if len(p.Partners) == 0 || len(p.Partners) > 2 {
		return fmt.Errorf("%w: %s", ErrTooManyPartners, p.ID)
	}
	p.Partners = slices.Clone(p.Partners)
	p.Children = slices.Clone(p.Children)
	g.partnerships[p.ID] = &p
	for _, id := range p.Partners {
		g.partnerIn[id] = appendUnique(g.partnerIn[id], p.ID)
	}
	for _, id := range p.Children {
		g.childOf[id] = appendUnique(g.childOf[id], p.ID)
	}
	return nil
}

func appendUnique(s []string, v string) []string {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}

// Person returns the person with the given ID.
func (g *Graph) Person(id string) (*Person, bool) {
	p, ok := g.persons[id]
	return p, ok
}

// Partnership returns the partnership with the given ID.
func (g *Graph) Partnership(id string) (*Partnership, bool) {
	p, ok := g.partnerships[id]
	return p, ok
}

// Persons returns all persons sorted by ID.
func (g *Graph) Persons() []*Person {
	out := make([]*Person, 0, len(g.persons))
	for _, id := range slices.Sorted(maps.Keys(g.persons)) {
		out = append(out, g.persons[id])
	}
	return out
}

// Partnerships returns all partnerships sorted by ID.
func (g *Graph) Partnerships() []*Partnership {
	out := make([]*Partnership, 0, len(g.partnerships))
	for _, id := range slices.Sorted(maps.Keys(g.partnerships)) {
		out = append(out, g.partnerships[id])
	}
	return out
}

// PersonCount returns the number of persons.
func (g *Graph) PersonCount() int { return len(g.persons) }

// PartnershipCount returns the number of partnerships.
func (g *Graph) PartnershipCount() int { return len(g.partnerships) }

// PartnershipsOf returns the sorted IDs of partnerships the person is a
// partner in. Unknown partnership IDs are dropped.
func (g *Graph) PartnershipsOf(personID string) []string {
	var out []string
	for _, id := range g.partnerIn[personID] {
		if _, ok := g.partnerships[id]; ok {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// ParentPartnerships returns the sorted IDs of partnerships listing the
// person as a child. When none do, partnerships whose partners are exactly
// the person's recorded parents are returned instead.
func (g *Graph) ParentPartnerships(personID string) []string {
	out := slices.Clone(g.childOf[personID])
	if len(out) == 0 {
		if p, ok := g.persons[personID]; ok && len(p.Parents) > 0 {
			for _, pp := range g.Partnerships() {
				if sameMembers(pp.Partners, p.Parents) {
					out = append(out, pp.ID)
				}
			}
		}
	}
	slices.Sort(out)
	return out
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, v := range a {
		if !slices.Contains(b, v) {
			return false
		}
	}
	return true
}
