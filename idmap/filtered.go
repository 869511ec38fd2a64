package idmap

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/hugegraph/internal/errs"
	"github.com/hupe1980/hugegraph/paged"
)

// Filtered renumbers a subset of a root mapping's internal ids densely.
//
// Filtered ids follow root id order: the k-th smallest selected root id gets
// filtered id k. The selection is held in a roaring bitmap, so translating a
// root id uses Rank and translating back uses a dense paged array.
type Filtered struct {
	root     Mapping
	selected *roaring64.Bitmap
	toRoot   *paged.Array[int64]
}

var _ Mapping = (*Filtered)(nil)

// NewFiltered selects the given root internal ids. The bitmap is owned by the
// Filtered afterwards.
func NewFiltered(root Mapping, selected *roaring64.Bitmap, optFns ...Option) (*Filtered, error) {
	if root == nil || selected == nil {
		return nil, fmt.Errorf("%w: idmap: nil root or selection", errs.ErrInvalidInput)
	}
	if !selected.IsEmpty() && selected.Maximum() >= uint64(root.NodeCount()) { //nolint:gosec // NodeCount is non-negative
		return nil, errs.OutOfRange("idmap.NewFiltered", int64(selected.Maximum()), root.NodeCount()) //nolint:gosec // checked above
	}

	o := buildOptions(optFns)
	selected.RunOptimize()

	toRoot, err := paged.New[int64](int64(selected.GetCardinality()), o.pageOpts...) //nolint:gosec // bounded by NodeCount
	if err != nil {
		return nil, err
	}

	var i int64
	it := selected.Iterator()
	for it.HasNext() {
		toRoot.Set(i, int64(it.Next())) //nolint:gosec // bounded by NodeCount
		i++
	}

	return &Filtered{root: root, selected: selected, toRoot: toRoot}, nil
}

// FilterIDs is NewFiltered over a slice of root internal ids in any order.
// Duplicates are ignored; negative ids are rejected.
func FilterIDs(root Mapping, rootIDs []int64, optFns ...Option) (*Filtered, error) {
	bm := roaring64.New()
	for _, id := range rootIDs {
		if id < 0 {
			return nil, fmt.Errorf("%w: idmap: negative node id %d", errs.ErrInvalidInput, id)
		}
		bm.Add(uint64(id))
	}
	return NewFiltered(root, bm, optFns...)
}

// Root returns the mapping this view was selected from.
func (f *Filtered) Root() Mapping { return f.root }

// NodeCount returns the number of selected nodes.
func (f *Filtered) NodeCount() int64 { return f.toRoot.Size() }

// ToRootNodeID translates a filtered id to the root internal id, or NotFound.
func (f *Filtered) ToRootNodeID(filteredID int64) int64 {
	if filteredID < 0 || filteredID >= f.toRoot.Size() {
		return NotFound
	}
	return f.toRoot.Get(filteredID)
}

// ToFilteredNodeID translates a root internal id to its filtered id, or
// NotFound when the node is not selected.
func (f *Filtered) ToFilteredNodeID(rootID int64) int64 {
	if rootID < 0 || !f.selected.Contains(uint64(rootID)) {
		return NotFound
	}
	return int64(f.selected.Rank(uint64(rootID))) - 1 //nolint:gosec // rank <= NodeCount
}

// ContainsRootNodeID reports whether the root internal id is selected.
func (f *Filtered) ContainsRootNodeID(rootID int64) bool {
	return rootID >= 0 && f.selected.Contains(uint64(rootID))
}

// ToMappedNodeID returns the filtered id of an external id, or NotFound.
func (f *Filtered) ToMappedNodeID(externalID int64) int64 {
	rootID := f.root.ToMappedNodeID(externalID)
	if rootID == NotFound {
		return NotFound
	}
	return f.ToFilteredNodeID(rootID)
}

// ToOriginalNodeID returns the external id of a filtered id, or NotFound.
func (f *Filtered) ToOriginalNodeID(filteredID int64) int64 {
	rootID := f.ToRootNodeID(filteredID)
	if rootID == NotFound {
		return NotFound
	}
	return f.root.ToOriginalNodeID(rootID)
}

// Contains reports whether the external id is mapped and selected.
func (f *Filtered) Contains(externalID int64) bool {
	return f.ToMappedNodeID(externalID) != NotFound
}

// SizeOf returns the bytes held by the view, excluding the root.
func (f *Filtered) SizeOf() int64 {
	return f.toRoot.SizeOf() + int64(f.selected.GetSizeInBytes()) //nolint:gosec // small
}
