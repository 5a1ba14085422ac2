package family

import (
	"errors"
	"testing"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{"", Date{}, false},
		{"1950", Date{Year: 1950}, false},
		{"1950-04", Date{Year: 1950, Month: 4}, false},
		{"1950-04-17", Date{Year: 1950, Month: 4, Day: 17}, false},
		{" 2001-12-31 ", Date{Year: 2001, Month: 12, Day: 31}, false},
		{"1950-13", Date{}, true},
		{"1950-01-32", Date{}, true},
		{"abc", Date{}, true},
		{"1950-01-02-03", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDate) {
				t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDateCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Date
		want int
	}{
		{"both unknown", Date{}, Date{}, 0},
		{"unknown sorts last", Date{}, Date{Year: 1900}, 1},
		{"known before unknown", Date{Year: 1900}, Date{}, -1},
		{"year", Date{Year: 1900}, Date{Year: 1901}, -1},
		{"month", Date{Year: 1900, Month: 5}, Date{Year: 1900, Month: 3}, 1},
		{"day", Date{Year: 1900, Month: 5, Day: 2}, Date{Year: 1900, Month: 5, Day: 2}, 0},
		{"partial before full", Date{Year: 1900}, Date{Year: 1900, Month: 1}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateString(t *testing.T) {
	tests := []struct {
		d    Date
		want string
	}{
		{Date{}, ""},
		{Date{Year: 812}, "0812"},
		{Date{Year: 1950, Month: 4}, "1950-04"},
		{Date{Year: 1950, Month: 4, Day: 7}, "1950-04-07"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseSex(t *testing.T) {
	tests := map[string]Sex{
		"M": SexMale, "male": SexMale, " F ": SexFemale, "Female": SexFemale,
		"": SexUnknown, "x": SexUnknown,
	}
	for in, want := range tests {
		if got := ParseSex(in); got != want {
			t.Errorf("ParseSex(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGraphAddPerson(t *testing.T) {
	g := New()
	if err := g.AddPerson(Person{ID: "a"}); err != nil {
		t.Fatalf("AddPerson() error: %v", err)
	}
	if err := g.AddPerson(Person{ID: ""}); !errors.Is(err, ErrInvalidPersonID) {
		t.Errorf("AddPerson(empty) error = %v, want ErrInvalidPersonID", err)
	}
	if err := g.AddPerson(Person{ID: "a"}); !errors.Is(err, ErrDuplicatePerson) {
		t.Errorf("AddPerson(dup) error = %v, want ErrDuplicatePerson", err)
	}
	if g.PersonCount() != 1 {
		t.Errorf("PersonCount() = %d, want 1", g.PersonCount())
	}
}

func TestGraphAddPartnership(t *testing.T) {
	tests := []struct {
		name string
		p    Partnership
		want error
	}{
		{"empty id", Partnership{Partners: []string{"a"}}, ErrInvalidPartnershipID},
		{"no partners", Partnership{ID: "p2"}, ErrTooManyPartners},
		{"three partners", Partnership{ID: "p3", Partners: []string{"a", "b", "c"}}, ErrTooManyPartners},
		{"duplicate", Partnership{ID: "p1", Partners: []string{"a"}}, ErrDuplicatePartnership},
	}

	g := New()
	if err := g.AddPartnership(Partnership{ID: "p1", Partners: []string{"a", "b"}, Children: []string{"c"}}); err != nil {
		t.Fatalf("AddPartnership() error: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddPartnership(tt.p); !errors.Is(err, tt.want) {
				t.Errorf("AddPartnership() error = %v, want %v", err, tt.want)
			}
		})
	}

	if got := g.PartnershipsOf("a"); len(got) != 1 || got[0] != "p1" {
		t.Errorf("PartnershipsOf(a) = %v, want [p1]", got)
	}
	if got := g.ParentPartnerships("c"); len(got) != 1 || got[0] != "p1" {
		t.Errorf("ParentPartnerships(c) = %v, want [p1]", got)
	}
}

func TestParentPartnershipsFromParents(t *testing.T) {
	g := New()
	_ = g.AddPerson(Person{ID: "kid", Parents: []string{"mum", "dad"}})
	_ = g.AddPartnership(Partnership{ID: "p1", Partners: []string{"dad", "mum"}})
	_ = g.AddPartnership(Partnership{ID: "p2", Partners: []string{"dad", "other"}})

	got := g.ParentPartnerships("kid")
	if len(got) != 1 || got[0] != "p1" {
		t.Errorf("ParentPartnerships(kid) = %v, want [p1]", got)
	}
}
