package layout

import (
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/kinchart/pkg/core/family"
	kerrors "github.com/matzehuels/kinchart/pkg/errors"
)

func threeGenerations(t *testing.T) *family.Model {
	t.Helper()
	g := family.New()
	for _, p := range []family.Person{
		{ID: "gp", Sex: family.SexMale},
		{ID: "gm", Sex: family.SexFemale},
		{ID: "dad", Sex: family.SexMale, Birth: family.Date{Year: 1950}},
		{ID: "aunt", Sex: family.SexFemale, Birth: family.Date{Year: 1955}},
		{ID: "mom", Sex: family.SexFemale},
		{ID: "me", Sex: family.SexMale, Birth: family.Date{Year: 1980}},
		{ID: "cousin", Birth: family.Date{Year: 1981}},
	} {
		require.NoError(t, g.AddPerson(p))
	}
	for _, p := range []family.Partnership{
		{ID: "top", Partners: []string{"gp", "gm"}, Children: []string{"aunt", "dad"}},
		{ID: "mid", Partners: []string{"mom", "dad"}, Children: []string{"me"}},
		{ID: "side", Partners: []string{"aunt"}, Children: []string{"cousin"}},
	} {
		require.NoError(t, g.AddPartnership(p))
	}
	return family.BuildModel(g, family.All())
}

func testArena(t *testing.T, m *family.Model, focus string, cfg Config) *Arena {
	t.Helper()
	gens, err := AssignGenerations(m, focus)
	require.NoError(t, err)
	a := newArena(cfg, m, gens, log.New(io.Discard))
	require.NoError(t, a.buildBlocks(focus))
	a.measure()
	a.buildBranches()
	return a
}

func TestAssignGenerations(t *testing.T) {
	gens, err := AssignGenerations(threeGenerations(t), "me")
	require.NoError(t, err)

	tests := []struct {
		person string
		want   int
	}{
		{"me", 0},
		{"dad", -1},
		{"mom", -1},
		{"gp", -2},
		{"aunt", -1},
		{"cousin", 0},
	}
	for _, tt := range tests {
		if got := gens.Person[tt.person]; got != tt.want {
			t.Errorf("Person[%s] = %d, want %d", tt.person, got, tt.want)
		}
	}
	assert.Equal(t, -2, gens.Min)
	assert.Equal(t, 0, gens.Max)
	assert.Equal(t, []string{"mid", "side"}, gens.Bands()[-1])
}

func TestAssignGenerationsFocusNotFound(t *testing.T) {
	gens, err := AssignGenerations(threeGenerations(t), "ghost")
	require.Error(t, err)
	assert.Equal(t, kerrors.ErrCodeFocusNotFound, kerrors.GetCode(err))
	require.NotNil(t, gens)
	assert.Empty(t, gens.Union)
}

func TestBuildBlocks(t *testing.T) {
	a := testArena(t, threeGenerations(t), "me", DefaultConfig())

	byUnion := func(id string) *Block {
		t.Helper()
		i, ok := a.byUnion[id]
		require.True(t, ok, "no block for %s", id)
		return a.Blocks[i]
	}
	focus := byUnion("solo:me")
	mid := byUnion("mid")
	top := byUnion("top")
	side := byUnion("side")
	cousin := byUnion("solo:cousin")

	assert.Equal(t, mid.ID, focus.Parent)
	assert.Equal(t, [2]int{mid.ID, -1}, focus.Up)
	assert.Equal(t, SideBoth, mid.Side)

	// dad is partner A of "mid" (mom is listed first but dad is male), so
	// his parents are claimed through slot 0.
	assert.Equal(t, "dad", mid.Union.PartnerA)
	assert.Equal(t, top.ID, mid.Up[0])
	assert.Equal(t, SideHusband, top.Side)
	assert.Equal(t, []int{side.ID, mid.ID}, top.Down, "husband's siblings fan left")
	assert.Equal(t, top.ID, side.Parent)
	assert.Equal(t, []int{cousin.ID}, side.Down, "aunts keep their descendants")
	assert.True(t, top.Direct)
	assert.False(t, side.Direct)
	assert.Equal(t, mid.ID, top.DirectChild)
}

func TestMeasure(t *testing.T) {
	a := testArena(t, threeGenerations(t), "me", DefaultConfig())
	tests := []struct {
		union    string
		width    float64
		envelope float64
	}{
		{"solo:me", 120, 400},
		{"solo:cousin", 120, 120},
		{"side", 120, 120},
		{"mid", 256, 400},
		{"top", 400, 400},
	}
	for _, tt := range tests {
		b := a.Blocks[a.byUnion[tt.union]]
		if b.Width != tt.width {
			t.Errorf("Width(%s) = %v, want %v", tt.union, b.Width, tt.width)
		}
		if b.Envelope != tt.envelope {
			t.Errorf("Envelope(%s) = %v, want %v", tt.union, b.Envelope, tt.envelope)
		}
	}
}

func TestBuildBranches(t *testing.T) {
	a := testArena(t, threeGenerations(t), "me", DefaultConfig())
	require.Len(t, a.Branches, 2)
	assert.Equal(t, "b:top/0", a.Branches[0].ID)
	assert.Equal(t, "b:top/1", a.Branches[1].ID)
	assert.Equal(t, -1, a.Branches[0].Parent)

	cousin := a.byUnion["solo:cousin"]
	focus := a.byUnion["solo:me"]
	assert.Equal(t, 0, a.branchOf[cousin])
	assert.Equal(t, 1, a.branchOf[focus])
}

func TestShiftLockedBlock(t *testing.T) {
	tests := []struct {
		name    string
		strict  bool
		wantErr bool
	}{
		{"lenient skips", false, false},
		{"strict fails", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Strict = tt.strict
			a := testArena(t, threeGenerations(t), "me", cfg)
			a.placeInitial()
			a.solveNear()

			focus := a.Blocks[a.Focus]
			x := focus.X
			moved := a.shift([]int{focus.ID}, 10)

			assert.False(t, moved)
			assert.Equal(t, x, focus.X)
			assert.Equal(t, 1, a.skipped)
			if tt.wantErr {
				require.Error(t, a.err)
				assert.Equal(t, kerrors.ErrCodeInvariant, kerrors.GetCode(a.err))
			} else {
				assert.NoError(t, a.err)
			}
		})
	}
}

func TestShiftNonFinite(t *testing.T) {
	a := testArena(t, threeGenerations(t), "me", DefaultConfig())
	assert.False(t, a.shift([]int{0}, math.Inf(1)))
	require.Error(t, a.err)
}
