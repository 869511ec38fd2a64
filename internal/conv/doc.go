// Package conv provides checked integer conversions.
//
// Node ids and sizes are int64 throughout hugegraph while slices are indexed
// by int and on-page headers are uint32. Conversions at those boundaries are
// validated once at construction time; hot paths use direct casts.
package conv
