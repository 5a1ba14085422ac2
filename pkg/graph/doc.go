// Package graph provides serialization types for family charts and their
// computed layouts.
//
// This package defines the canonical wire format for kinchart's data, used
// for chart files, HTTP API bodies, caching and cross-tool interoperability.
//
// # Architecture
//
// The package sits at the serialization boundary between internal
// representations and external formats:
//
//   - [Chart], [Layout]: Serialization types (this package)
//   - pkg/core/family.Graph: Internal person/partnership graph
//   - pkg/core/layout.Result: Internal layout (blocks, branches, positions)
//
// Use [ToFamily]/[FromFamily] and the layout Result.Export method to convert
// between them.
//
// # Chart Serialization
//
// Charts are accepted as JSON or YAML; the format is picked from the file
// extension by [ReadChartFile]:
//
//	persons:
//	  - {id: anna, sex: F, birth: "1950-04"}
//	  - {id: ben, sex: M}
//	partnerships:
//	  - {id: p1, partners: [ben, anna], children: [carl]}
//
// Decoding validates the records with go-playground/validator: IDs are
// required, partnerships have one or two partners, dates are "YYYY",
// "YYYY-MM" or "YYYY-MM-DD".
//
// # Layout Serialization
//
// Layouts are written as indented JSON with [MarshalLayout] and
// [WriteLayoutFile]. Caches store the more compact MessagePack form from
// [EncodeLayout], which reuses the JSON field names.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
