package plumbing

import "strconv"

// Revision is the position of a record in a revlog. Revisions are dense,
// start at 0 and are assigned in append order.
type Revision int32

const (
	// NullRevision is the parent of root revisions and the revision of
	// NullNode.
	NullRevision Revision = -1
	// WorkingDirectoryRevision is the virtual revision of the working
	// directory. It is never stored in a revlog.
	WorkingDirectoryRevision Revision = 0x7fffffff
)

// IsNull returns true if r is NullRevision.
func (r Revision) IsNull() bool {
	return r == NullRevision
}

func (r Revision) String() string {
	return strconv.Itoa(int(r))
}

// Graph gives access to the parents of revisions. It is the only thing
// ancestry algorithms need from the storage.
type Graph interface {
	// Parents returns both parents of rev, NullRevision standing for an
	// absent parent. It fails with ErrParentOutOfRange when rev is not
	// part of the graph.
	Parents(rev Revision) ([2]Revision, error)
}
