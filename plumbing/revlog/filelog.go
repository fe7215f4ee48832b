package revlog

import (
	"bytes"

	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/storage/filesystem"
)

var metadataDelimiter = []byte("\x01\n")

// Filelog is the revlog of the contents of a tracked file.
type Filelog struct {
	*Revlog
	path string
}

// FilelogPaths returns the store paths of the index and data files of the
// filelog of path.
func FilelogPaths(path string) (index, data string) {
	return filesystem.EncodePath("data/" + path + indexExt),
		filesystem.EncodePath("data/" + path + dataExt)
}

// OpenFilelog opens the filelog of the tracked file at path.
func OpenFilelog(store *filesystem.Storage, path string, o Options) (*Filelog, error) {
	index, data := FilelogPaths(path)
	rl, err := Open(store, index, data, o)
	if err != nil {
		return nil, err
	}

	return &Filelog{Revlog: rl, path: path}, nil
}

// Path returns the path of the tracked file.
func (f *Filelog) Path() string {
	return f.path
}

// ReadRevision returns the content of the file at rev, without its
// metadata.
func (f *Filelog) ReadRevision(rev plumbing.Revision) ([]byte, error) {
	data, err := f.RevisionData(rev)
	if err != nil {
		return nil, err
	}

	_, content, err := SplitMetadata(data)
	return content, err
}

// ReadNode returns the content of the file revision whose node starts with
// prefix.
func (f *Filelog) ReadNode(prefix plumbing.NodePrefix) ([]byte, error) {
	rev, err := f.NodeRevision(prefix)
	if err != nil {
		return nil, err
	}

	return f.ReadRevision(rev)
}

// SplitMetadata splits a filelog text into its metadata block, such as
// copy information, and the file content. The metadata block is enclosed
// in "\x01\n" delimiters at the start of the text.
func SplitMetadata(data []byte) (meta, content []byte, err error) {
	if !bytes.HasPrefix(data, metadataDelimiter) {
		return nil, data, nil
	}

	rest := data[len(metadataDelimiter):]
	end := bytes.Index(rest, metadataDelimiter)
	if end < 0 {
		return nil, nil, plumbing.CorruptedErrorf("unterminated filelog metadata")
	}

	return rest[:end], rest[end+len(metadataDelimiter):], nil
}
