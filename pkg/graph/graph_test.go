package graph

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/kinchart/pkg/core/family"
	kerrors "github.com/matzehuels/kinchart/pkg/errors"
)

const sampleYAML = `
focus: carl
persons:
  - {id: anna, name: Anna, sex: F, birth: "1950-04"}
  - {id: ben, name: Ben, sex: M, birth: "1948-11"}
  - {id: carl, name: Carl, sex: M, birth: "1975-02"}
partnerships:
  - {id: p1, partners: [anna, ben], children: [carl]}
`

func TestReadChartYAML(t *testing.T) {
	c, err := ReadChart(strings.NewReader(sampleYAML), FormatYAML)
	if err != nil {
		t.Fatalf("ReadChart() error: %v", err)
	}
	if c.Focus != "carl" {
		t.Errorf("Focus = %q, want carl", c.Focus)
	}
	if len(c.Persons) != 3 {
		t.Errorf("Persons = %d, want 3", len(c.Persons))
	}
	if len(c.Partnerships) != 1 || len(c.Partnerships[0].Partners) != 2 {
		t.Errorf("Partnerships = %+v", c.Partnerships)
	}
	if !c.HasPerson("ben") || c.HasPerson("dora") {
		t.Error("HasPerson() mismatch")
	}
}

func TestReadChartJSON(t *testing.T) {
	data := `{"persons": [{"id": "a"}, {"id": "b"}], "partnerships": [{"id": "p", "partners": ["a"], "children": ["b"]}]}`
	c, err := UnmarshalChart([]byte(data), FormatJSON)
	if err != nil {
		t.Fatalf("UnmarshalChart() error: %v", err)
	}
	if len(c.Persons) != 2 {
		t.Errorf("Persons = %d, want 2", len(c.Persons))
	}
}

func TestReadChartInvalid(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
		code   kerrors.Code
	}{
		{"bad json", `{"persons": [`, FormatJSON, kerrors.ErrCodeInvalidFormat},
		{"missing id", `{"persons": [{"name": "x"}]}`, FormatJSON, kerrors.ErrCodeInvalidInput},
		{"three partners", `{"persons": [{"id": "a"}], "partnerships": [{"id": "p", "partners": ["a", "b", "c"]}]}`, FormatJSON, kerrors.ErrCodeInvalidInput},
		{"no partners", `{"persons": [{"id": "a"}], "partnerships": [{"id": "p", "partners": []}]}`, FormatJSON, kerrors.ErrCodeInvalidInput},
		{"bad date", `{"persons": [{"id": "a", "birth": "19x0"}]}`, FormatJSON, kerrors.ErrCodeInvalidInput},
		{"bad sex", `{"persons": [{"id": "a", "sex": "Q"}]}`, FormatJSON, kerrors.ErrCodeInvalidInput},
		{"control char id", `{"persons": [{"id": "a\u0001"}]}`, FormatJSON, kerrors.ErrCodeInvalidID},
		{"unknown format", `{}`, "toml", kerrors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalChart([]byte(tt.data), tt.format)
			if err == nil {
				t.Fatal("UnmarshalChart() error = nil, want error")
			}
			if got := kerrors.GetCode(err); got != tt.code {
				t.Errorf("GetCode() = %v, want %v (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestToFamily(t *testing.T) {
	c, err := ReadChart(strings.NewReader(sampleYAML), FormatYAML)
	if err != nil {
		t.Fatalf("ReadChart() error: %v", err)
	}
	g, sel, err := ToFamily(c)
	if err != nil {
		t.Fatalf("ToFamily() error: %v", err)
	}
	if g.PersonCount() != 3 || g.PartnershipCount() != 1 {
		t.Errorf("counts = (%d, %d), want (3, 1)", g.PersonCount(), g.PartnershipCount())
	}
	anna, _ := g.Person("anna")
	if anna.Sex != family.SexFemale || anna.Birth != (family.Date{Year: 1950, Month: 4}) {
		t.Errorf("anna = %+v", anna)
	}
	if !sel.HasPerson("anna") {
		t.Error("default selection should include everyone")
	}
}

func TestToFamilyView(t *testing.T) {
	c := Chart{
		Persons: []Person{{ID: "a"}, {ID: "b"}},
		View:    &View{Persons: []string{"a"}},
	}
	_, sel, err := ToFamily(c)
	if err != nil {
		t.Fatalf("ToFamily() error: %v", err)
	}
	if !sel.HasPerson("a") || sel.HasPerson("b") {
		t.Error("view selection not applied")
	}
	if !sel.HasPartnership("anything") {
		t.Error("nil partnership view should select all partnerships")
	}
}

func TestToFamilyDuplicate(t *testing.T) {
	c := Chart{Persons: []Person{{ID: "a"}, {ID: "a"}}}
	if _, _, err := ToFamily(c); err == nil {
		t.Error("ToFamily() error = nil, want duplicate error")
	}
}

func TestChartFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := ReadChart(strings.NewReader(sampleYAML), FormatYAML)
	if err != nil {
		t.Fatalf("ReadChart() error: %v", err)
	}
	g, _, _ := ToFamily(c)
	out := FromFamily(g, "carl")

	for _, name := range []string{"chart.json", "chart.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := WriteChartFile(out, path); err != nil {
				t.Fatalf("WriteChartFile() error: %v", err)
			}
			back, err := ReadChartFile(path)
			if err != nil {
				t.Fatalf("ReadChartFile() error: %v", err)
			}
			if back.Focus != "carl" || len(back.Persons) != 3 {
				t.Errorf("round trip = %+v", back)
			}
			if back.Persons[0].ID != "anna" || back.Persons[0].Sex != "F" || back.Persons[0].Birth != "1950-04" {
				t.Errorf("Persons[0] = %+v", back.Persons[0])
			}
		})
	}
}

func TestReadChartFileNotFound(t *testing.T) {
	_, err := ReadChartFile(filepath.Join(t.TempDir(), "missing.json"))
	if !kerrors.Is(err, kerrors.ErrCodeFileNotFound) {
		t.Errorf("ReadChartFile() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"a.yaml": FormatYAML, "a.YML": FormatYAML, "a.json": FormatJSON, "a": FormatJSON,
	}
	for in, want := range tests {
		if got := FormatFromPath(in); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMarshalChart(t *testing.T) {
	data, err := MarshalChart(Chart{Persons: []Person{{ID: "a"}}})
	if err != nil {
		t.Fatalf("MarshalChart() error: %v", err)
	}
	if !bytes.Contains(data, []byte(`"id": "a"`)) {
		t.Errorf("MarshalChart() = %s", data)
	}
	var buf bytes.Buffer
	if err := WriteChart(Chart{Persons: []Person{{ID: "a"}}}, &buf, FormatYAML); err != nil {
		t.Fatalf("WriteChart() error: %v", err)
	}
	if !strings.Contains(buf.String(), "id: a") {
		t.Errorf("WriteChart(yaml) = %s", buf.String())
	}
}
