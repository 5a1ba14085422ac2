package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// =============================================================================
// Layout - Computed Chart Geometry
// =============================================================================

// Layout is the serialization format for a computed family chart layout.
//
// Coordinates are in pixels with the origin at the top-left: X grows to the
// right and Y grows downward, one band per generation. The internal
// representation lives in pkg/core/layout; use its Result.Export method to
// produce a Layout.
type Layout struct {
	ID     string  `json:"id,omitempty"`
	Focus  string  `json:"focus"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	CardWidth  float64 `json:"card_width"`
	CardHeight float64 `json:"card_height"`

	Positions   []Position   `json:"positions"`
	Connections []Connection `json:"connections,omitempty"`
	SpouseLines []SpouseLine `json:"spouse_lines,omitempty"`

	// Debug structure
	Blocks   []Block  `json:"blocks,omitempty"`
	Branches []Branch `json:"branches,omitempty"`

	Diagnostics Diagnostics `json:"diagnostics"`
}

// Position places one person card.
type Position struct {
	PersonID   string  `json:"person_id"`
	Name       string  `json:"name,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Generation int     `json:"generation"`
	Side       string  `json:"side"`
	UnionID    string  `json:"union_id"`
}

// Segment is a straight line between two points.
type Segment struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Connection is the routed parent-to-children edge of one union: a stem
// from the couple, one horizontal bus level (plus an optional connector on
// the same level) and one drop per child.
type Connection struct {
	UnionID    string   `json:"union_id"`
	Generation int      `json:"generation"`
	Lane       int      `json:"lane"`
	Stem       Segment  `json:"stem"`
	Connector  *Segment `json:"connector,omitempty"`
	Bus        Segment  `json:"bus"`
	Drops      []Drop   `json:"drops"`
}

// Drop is the vertical segment from a bus down to one child card.
type Drop struct {
	PersonID string  `json:"person_id"`
	Segment  Segment `json:"segment"`
}

// SpouseLine joins the two partner cards of a union.
type SpouseLine struct {
	UnionID string  `json:"union_id"`
	Segment Segment `json:"segment"`
}

// Block describes a family block after solving.
type Block struct {
	ID         int     `json:"id"`
	UnionID    string  `json:"union_id"`
	Generation int     `json:"generation"`
	Side       string  `json:"side"`
	Parent     int     `json:"parent"`
	Direct     bool    `json:"direct,omitempty"`
	X          float64 `json:"x"`
	Width      float64 `json:"width"`
	Envelope   float64 `json:"envelope"`
}

// Branch is an X corridor owned by one child's family subtree.
type Branch struct {
	ID      string  `json:"id"`
	UnionID string  `json:"union_id"`
	Parent  string  `json:"parent,omitempty"`
	Lo      float64 `json:"lo"`
	Hi      float64 `json:"hi"`
}

// Diagnostics reports how the layout run went.
type Diagnostics struct {
	Persons       int      `json:"persons"`
	Unions        int      `json:"unions"`
	Blocks        int      `json:"blocks"`
	Branches      int      `json:"branches"`
	MinGeneration int      `json:"min_generation"`
	MaxGeneration int      `json:"max_generation"`
	NearPasses    int      `json:"near_passes"`
	NearConverged bool     `json:"near_converged"`
	NearMaxShift  float64  `json:"near_max_shift"`
	FarCouples    int      `json:"far_couples"`
	SkippedShifts int      `json:"skipped_shifts,omitempty"`
	MaxViolation  float64  `json:"max_violation"`
	Valid         bool     `json:"valid"`
	Errors        []string `json:"errors,omitempty"`
	Skipped       []string `json:"skipped_partnerships,omitempty"`
	Unplaced      []string `json:"unplaced,omitempty"`
}

// Position returns the position of the given person.
func (l *Layout) Position(personID string) (Position, bool) {
	for _, p := range l.Positions {
		if p.PersonID == personID {
			return p, true
		}
	}
	return Position{}, false
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Focus == "" {
		return Layout{}, fmt.Errorf("layout must name its focus person")
	}
	return l, nil
}

// EncodeLayout serializes a Layout to MessagePack, reusing the JSON field
// names. This is the compact form stored in layout caches.
func EncodeLayout(l Layout) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(l); err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeLayout deserializes a MessagePack Layout produced by EncodeLayout.
func DecodeLayout(data []byte) (Layout, error) {
	var l Layout
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&l); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
