// Package layout computes the geometry of a genealogical chart around one
// focus person.
//
// # Overview
//
// The chart is built from family blocks: one block per union (a couple or
// a single parent) in view. The focus person's union sits in generation 0,
// ancestors above it in negative generations and descendants below. A
// block and the blocks it owns form a rigid subtree that only ever moves
// as a whole.
//
// # Pipeline
//
// [Compute] runs the stages in order:
//
//  1. [AssignGenerations] labels every reachable union breadth-first.
//  2. The block builder creates the focus block, its descendants, the
//     direct-line ancestors and the siblings beside each of them.
//  3. The measurer computes couple, children and subtree widths, and for
//     direct-line blocks an envelope that reserves room for the ancestors.
//  4. The branch builder records one corridor per child of every fork.
//  5. The initial placer centers the focus family on X=0 and fans sibling
//     subtrees outwards along the direct line.
//  6. The near phase settles generations -1 and below (overlaps, centering,
//     branch order, cousin separation, compaction) and locks them.
//  7. The far phase places generations -2 and above couple by couple so
//     the husband's ancestors stay left of the husband and the wife's
//     right of the wife.
//  8. The router draws the connectors and validation checks the result.
//
// # Diagnostics
//
// Unsolvable geometry is never an error. [Result.Diagnostics] reports
// whether validation passed, the largest violation in pixels and a message
// per problem. In strict mode ([WithStrict]) breaking a solver invariant
// returns an error instead.
package layout
