package plumbing

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidRevision is returned for a revision number out of range or
	// a node or prefix that matches nothing.
	ErrInvalidRevision = errors.New("invalid revision")
	// ErrAmbiguousPrefix is returned when a node prefix matches more than
	// one revision.
	ErrAmbiguousPrefix = errors.New("ambiguous prefix")
	// ErrCorrupted is returned on any inconsistency in stored data.
	ErrCorrupted = errors.New("corrupted")
	// ErrUnsupportedVersion is returned for a revlog format version other
	// than the supported one.
	ErrUnsupportedVersion = errors.New("unsupported revlog version")
	// ErrUnknownDataFormat is returned for an unknown compression tag.
	ErrUnknownDataFormat = errors.New("unknown revlog data format")
	// ErrRevisionNotInIndex is returned when a node map references a
	// revision the index does not have.
	ErrRevisionNotInIndex = errors.New("revision not in index")
	// ErrWorkingDirectoryUnsupported is returned when the working directory
	// pseudo revision is requested from storage.
	ErrWorkingDirectoryUnsupported = errors.New("working directory revision unsupported")
	// ErrParentOutOfRange is returned by Graph implementations for unknown
	// revisions.
	ErrParentOutOfRange = errors.New("parent out of range")
)

// CorruptedErrorf formats an error marked as ErrCorrupted.
func CorruptedErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrCorrupted, format, args...)
}

// UnsupportedVersionError builds an error marked as ErrUnsupportedVersion.
func UnsupportedVersionError(version uint16) error {
	return errors.Wrapf(ErrUnsupportedVersion, "version %d", errors.Safe(version))
}

// UnknownDataFormatError builds an error marked as ErrUnknownDataFormat.
func UnknownDataFormatError(format byte) error {
	return errors.Wrapf(ErrUnknownDataFormat, "tag %#x", errors.Safe(format))
}

// InvalidRevisionError builds an error marked as ErrInvalidRevision.
func InvalidRevisionError(rev Revision) error {
	return errors.Wrapf(ErrInvalidRevision, "revision %d", errors.Safe(int32(rev)))
}

// ParentOutOfRangeError builds an error marked as ErrParentOutOfRange.
func ParentOutOfRangeError(rev Revision) error {
	return errors.Wrapf(ErrParentOutOfRange, "revision %d", errors.Safe(int32(rev)))
}

// RevisionNotInIndexError builds an error marked as ErrRevisionNotInIndex.
func RevisionNotInIndexError(rev Revision) error {
	return errors.Wrapf(ErrRevisionNotInIndex, "revision %d", errors.Safe(int32(rev)))
}
