// Package idmap maps external node identifiers to dense internal ids and back.
//
// A Map is built once from the ascending set of external ids. Internal ids
// are the positions in that sequence, so internal id order equals external id
// order. The forward direction (internal to external) is a paged array; the
// backward direction is a sparse paged array over the external id domain that
// reads NotFound for absent ids.
//
// A Filtered map selects a subset of a root Map's nodes and renumbers them
// densely, which is how filtered graph views are built without copying the
// adjacency data.
//
// All lookups are read-only and safe for concurrent use once built.
package idmap
