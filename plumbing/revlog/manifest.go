package revlog

import (
	"bytes"

	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/storage/filesystem"
)

// ManifestPath is the path of the manifest index in a store.
const ManifestPath = "00manifest.i"

// Manifest is the revlog of the file lists of changesets.
type Manifest struct {
	*Revlog
}

// OpenManifest opens the manifest of store.
func OpenManifest(store *filesystem.Storage, o Options) (*Manifest, error) {
	rl, err := Open(store, ManifestPath, "", o)
	if err != nil {
		return nil, err
	}

	return &Manifest{rl}, nil
}

// ReadRevision returns the manifest stored at rev.
func (m *Manifest) ReadRevision(rev plumbing.Revision) (*ManifestEntry, error) {
	data, err := m.RevisionData(rev)
	if err != nil {
		return nil, err
	}

	return &ManifestEntry{Raw: data}, nil
}

// ReadNode returns the manifest whose node starts with prefix.
func (m *Manifest) ReadNode(prefix plumbing.NodePrefix) (*ManifestEntry, error) {
	rev, err := m.NodeRevision(prefix)
	if err != nil {
		return nil, err
	}

	return m.ReadRevision(rev)
}

// ManifestFile is a line of a manifest.
type ManifestFile struct {
	Path string
	// Node is the node of the file revision in its filelog.
	Node plumbing.Node
	// Flags is empty for regular files, "x" for executables and "l" for
	// symbolic links.
	Flags string
}

// ManifestEntry is a manifest: one `path\0<node hex><flags>` line per
// file, sorted by path.
type ManifestEntry struct {
	Raw []byte
}

func (e *ManifestEntry) lines() [][]byte {
	var lines [][]byte
	for _, l := range bytes.Split(e.Raw, []byte{'\n'}) {
		if len(l) > 0 {
			lines = append(lines, l)
		}
	}

	return lines
}

// Files returns the paths of the files of the manifest.
func (e *ManifestEntry) Files() ([]string, error) {
	var files []string
	for _, l := range e.lines() {
		path, _, ok := bytes.Cut(l, []byte{0})
		if !ok {
			return nil, plumbing.CorruptedErrorf("manifest line %q has no separator", l)
		}

		files = append(files, string(path))
	}

	return files, nil
}

// FilesWithNodes returns every file of the manifest with its node.
func (e *ManifestEntry) FilesWithNodes() ([]ManifestFile, error) {
	var files []ManifestFile
	for _, l := range e.lines() {
		f, err := parseManifestLine(l)
		if err != nil {
			return nil, err
		}

		files = append(files, f)
	}

	return files, nil
}

// Find returns the file at path.
func (e *ManifestEntry) Find(path string) (ManifestFile, bool, error) {
	for _, l := range e.lines() {
		if !bytes.HasPrefix(l, []byte(path+"\x00")) {
			continue
		}

		f, err := parseManifestLine(l)
		return f, err == nil, err
	}

	return ManifestFile{}, false, nil
}

func parseManifestLine(l []byte) (ManifestFile, error) {
	path, rest, ok := bytes.Cut(l, []byte{0})
	if !ok || len(rest) < plumbing.NodeHexSize {
		return ManifestFile{}, plumbing.CorruptedErrorf("manifest line %q", l)
	}

	node, err := plumbing.NodeFromHex(string(rest[:plumbing.NodeHexSize]))
	if err != nil {
		return ManifestFile{}, plumbing.CorruptedErrorf("manifest node of %q", path)
	}

	return ManifestFile{
		Path:  string(path),
		Node:  node,
		Flags: string(rest[plumbing.NodeHexSize:]),
	}, nil
}
