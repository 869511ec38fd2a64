// Package pool provides pooled cursors for per-node traversal loops.
// Uses sync.Pool so hot loops such as filtered degree counting do not
// allocate a cursor per node.
package pool

import (
	"sync"

	"github.com/hupe1980/hugegraph/adjacency"
)

// Cursors holds one reusable cursor of each kind.
type Cursors struct {
	Adjacency *adjacency.DecompressingCursor
	Filtered  *adjacency.FilteredCursor
}

var cursorPool = sync.Pool{
	New: func() any {
		return &Cursors{
			Adjacency: adjacency.NewDecompressingCursor(),
			Filtered:  &adjacency.FilteredCursor{},
		}
	},
}

// Get retrieves Cursors from the pool.
func Get() *Cursors {
	return cursorPool.Get().(*Cursors)
}

// Put returns c to the pool. The cursors must not be used afterwards.
func Put(c *Cursors) {
	// drop references to the graph's pages
	c.Adjacency.Reset()
	c.Filtered.Init(adjacency.Empty, nil)
	cursorPool.Put(c)
}

// AdjacencyCursor positions the pooled decompressing cursor on node.
func (c *Cursors) AdjacencyCursor(list *adjacency.List, node int64) *adjacency.DecompressingCursor {
	return list.InitCursor(c.Adjacency, node)
}

// FilteredCursor positions the pooled filtered cursor on node.
func (c *Cursors) FilteredCursor(list *adjacency.List, node int64, filter adjacency.NodeFilter) *adjacency.FilteredCursor {
	c.Filtered.Init(c.AdjacencyCursor(list, node), filter)
	return c.Filtered
}
