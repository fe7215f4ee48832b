package nodemap

import (
	"bytes"
	"encoding/hex"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/storage/filesystem"
	"github.com/go-hg/go-hg/storage/filesystem/mmap"
	hgbinary "github.com/go-hg/go-hg/utils/binary"
	"github.com/go-hg/go-hg/utils/trace"
)

const (
	// DocketVersion is the only supported docket format version.
	DocketVersion = 1

	// docketHeaderSize covers the fields following the version byte: uid
	// size, tip revision, data length, unused data length and tip node
	// size.
	docketHeaderSize = 1 + 4*8

	docketExt = ".n"
	dataExt   = ".nd"

	// maxUnusedRatio is the share of unused data above which a data file
	// is rewritten instead of appended to.
	maxUnusedRatio = 0.1
)

// Docket is the small file pointing at the current data file of a
// persistent node map.
type Docket struct {
	// UID names the data file.
	UID string
	// TipRev is the last revision in the node map.
	TipRev plumbing.Revision
	// TipNode is the node of TipRev.
	TipNode []byte
	// DataLength is the number of meaningful bytes in the data file.
	DataLength int
	// DataUnused is the number of bytes in masked blocks.
	DataUnused int
}

// NewUID returns a fresh identifier for a data file.
func NewUID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:8])
}

// DocketPath returns the path of the docket of the revlog whose index is at
// indexPath.
func DocketPath(indexPath string) string {
	return strings.TrimSuffix(indexPath, path.Ext(indexPath)) + docketExt
}

// DataPath returns the path of the data file named uid next to the docket
// at docketPath.
func DataPath(docketPath, uid string) string {
	dir, name := path.Split(docketPath)
	prefix, ok := strings.CutSuffix(name, docketExt+".a")
	if !ok {
		prefix = strings.TrimSuffix(name, docketExt)
	}

	return path.Join(dir, prefix+"-"+uid+dataExt)
}

// DecodeDocket parses the content of a docket. The boolean is false when
// the docket has an unsupported version.
func DecodeDocket(b []byte) (*Docket, bool, error) {
	if len(b) == 0 || b[0] != DocketVersion {
		return nil, false, nil
	}

	if len(b)-1 < docketHeaderSize {
		return nil, false, plumbing.CorruptedErrorf("nodemap docket parse error: %d header bytes", len(b)-1)
	}

	r := bytes.NewReader(b[1:])
	uidSize, err := hgbinary.ReadUint8(r)
	if err != nil {
		return nil, false, err
	}

	var tipRev int64
	var dataLength, dataUnused uint64
	if err := hgbinary.Read(r, &tipRev, &dataLength, &dataUnused); err != nil {
		return nil, false, err
	}

	tipNodeSize, err := hgbinary.ReadUint64(r)
	if err != nil {
		return nil, false, err
	}

	if left := uint64(r.Len()); tipNodeSize > left || left-tipNodeSize < uint64(uidSize) {
		return nil, false, plumbing.CorruptedErrorf("nodemap docket parse error: %d bytes left for uid and tip node", r.Len())
	}

	uid := make([]byte, uidSize)
	tipNode := make([]byte, tipNodeSize)
	if _, err := io.ReadFull(r, uid); err != nil {
		return nil, false, err
	}

	if _, err := io.ReadFull(r, tipNode); err != nil {
		return nil, false, err
	}

	if !utf8.Valid(uid) {
		return nil, false, plumbing.CorruptedErrorf("nodemap docket parse error: uid %q", uid)
	}

	return &Docket{
		UID:        string(uid),
		TipRev:     plumbing.Revision(tipRev),
		TipNode:    tipNode,
		DataLength: int(dataLength),
		DataUnused: int(dataUnused),
	}, true, nil
}

// Encode returns the on-disk form of d.
func (d *Docket) Encode() []byte {
	var buf bytes.Buffer
	buf.Grow(1 + docketHeaderSize + len(d.UID) + len(d.TipNode))

	// writes to a bytes.Buffer do not fail
	_ = hgbinary.WriteUint8(&buf, DocketVersion)
	_ = hgbinary.WriteUint8(&buf, uint8(len(d.UID)))
	_ = hgbinary.Write(&buf, int64(d.TipRev), uint64(d.DataLength), uint64(d.DataUnused))
	_ = hgbinary.WriteUint64(&buf, uint64(len(d.TipNode)))
	buf.WriteString(d.UID)
	buf.Write(d.TipNode)
	return buf.Bytes()
}

// ReadDocket loads the docket of the revlog whose index is at indexPath,
// and the content of the data file it points at. It returns a nil Docket
// when there is no usable persisted node map: the repository does not use
// them, or one of the files is missing or outdated. The returned Bytes must
// be closed by the caller.
func ReadDocket(store *filesystem.Storage, indexPath string, reqs filesystem.Requirements) (*Docket, mmap.Bytes, error) {
	if !reqs.Has(filesystem.PersistentNodemapRequirement) {
		return nil, mmap.Bytes{}, nil
	}

	docketPath := DocketPath(indexPath)
	raw, ok, err := store.ReadIfExists(docketPath)
	if err != nil || !ok {
		return nil, mmap.Bytes{}, err
	}

	d, ok, err := DecodeDocket(raw)
	if err != nil {
		return nil, mmap.Bytes{}, errors.Wrapf(err, "reading %s", docketPath)
	}

	if !ok {
		trace.NodeMap.Printf("ignoring docket %s: unsupported version", docketPath)
		return nil, mmap.Bytes{}, nil
	}

	dataPath := DataPath(docketPath, d.UID)
	data, ok, err := store.OpenIfExists(dataPath)
	if err != nil || !ok {
		if !ok && err == nil {
			trace.NodeMap.Printf("ignoring docket %s: missing data file %s", docketPath, dataPath)
		}
		return nil, mmap.Bytes{}, err
	}

	if data.Len() < d.DataLength {
		trace.NodeMap.Printf("ignoring docket %s: data file %s is %d bytes long, %d expected",
			docketPath, dataPath, data.Len(), d.DataLength)
		return nil, mmap.Bytes{}, data.Close()
	}

	return d, data, nil
}

// Persist saves nt, which must hold every revision of idx, as the node map
// of the revlog whose index is at indexPath. d is the docket nt was loaded
// from, nil when nt was built from scratch.
//
// The blocks added since loading are written to the current data file
// right after the DataLength bytes d covers, unless it would then hold too many masked blocks. The data file is
// rewritten from scratch otherwise. The new docket is returned.
func Persist(store *filesystem.Storage, indexPath string, d *Docket, nt *NodeTree, idx FullIndex) (*Docket, error) {
	tip := plumbing.Revision(idx.Len() - 1)
	tipNode, ok := idx.Node(tip)
	if !ok {
		return nil, plumbing.RevisionNotInIndexError(tip)
	}

	docketPath := DocketPath(indexPath)
	readonly, added := nt.IntoReadonlyAndAddedBytes()

	next := &Docket{TipRev: tip, TipNode: tipNode.Bytes()}
	if d != nil && len(readonly) == d.DataLength-d.DataLength%BlockSize {
		next.UID = d.UID
		next.DataLength = d.DataLength + len(added)
		next.DataUnused = d.DataUnused + nt.MaskedReadonlyBlocks()*BlockSize

		if float64(next.DataUnused) < maxUnusedRatio*float64(next.DataLength) {
			if err := store.WriteFrom(DataPath(docketPath, d.UID), int64(d.DataLength), added); err != nil {
				return nil, err
			}

			trace.NodeMap.Printf("appended %d bytes to nodemap %s", len(added), next.UID)
			return next, store.WriteAtomic(docketPath, next.Encode())
		}
	}

	full, err := Build(idx)
	if err != nil {
		return nil, err
	}

	_, data := full.IntoReadonlyAndAddedBytes()
	next.UID = NewUID()
	next.DataLength = len(data)
	next.DataUnused = 0

	if err := store.WriteAtomic(DataPath(docketPath, next.UID), data); err != nil {
		return nil, err
	}

	if err := store.WriteAtomic(docketPath, next.Encode()); err != nil {
		return nil, err
	}

	trace.NodeMap.Printf("wrote nodemap %s, %d bytes", next.UID, len(data))
	if d != nil && d.UID != next.UID {
		return next, store.Remove(DataPath(docketPath, d.UID))
	}

	return next, nil
}
