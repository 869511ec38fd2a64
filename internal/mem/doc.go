// Package mem allocates heap pages aligned to cache lines, so adjacency
// blocks at the start of a page never share a line with foreign data.
package mem
