// Package route draws the orthogonal connectors of a genealogical chart.
//
// # Overview
//
// Every union with children in view gets one [Connection]: a vertical stem
// from the couple midpoint (or the bottom of a single parent's card) down
// to a horizontal bus, an optional connector when the stem lands outside
// the bus, and one vertical drop per child card. Couples additionally get
// a [SpouseLine] at mid card height.
//
// # Lanes
//
// Buses live in the band between two generations. Each connection picks a
// lane: the band midpoint, then alternating offsets of LaneSpacing above
// and below it. The first lane that neither overlaps another bus on the
// same level, crosses an earlier connection, nor puts an elbow within
// ElbowClearance of a foreign vertical wins. When every lane conflicts the
// least conflicting one is kept and the conflicts are reported.
//
// # Validation
//
// [Validate] checks a finished set of connections for crossings, bus
// overlaps, multi-level connections, clearance and corridor violations.
// [Route] returns its findings in [Output.Violations].
package route
