package hg

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/plumbing/revlog"
)

// DebugDataKind selects the revlog read by DebugData.
type DebugDataKind int

const (
	DebugDataChangelog DebugDataKind = iota
	DebugDataManifest
)

// String implements fmt.Stringer.
func (k DebugDataKind) String() string {
	switch k {
	case DebugDataChangelog:
		return "changelog"
	case DebugDataManifest:
		return "manifest"
	default:
		return "unknown"
	}
}

// DebugData returns the raw text of the revision rev of the changelog or
// the manifest. rev is a revision number or a node prefix of that revlog.
func (r *Repository) DebugData(kind DebugDataKind, rev string) ([]byte, error) {
	var (
		rl  *revlog.Revlog
		err error
	)

	switch kind {
	case DebugDataChangelog:
		var cl *revlog.Changelog
		cl, err = r.Changelog()
		if cl != nil {
			rl = cl.Revlog
		}
	case DebugDataManifest:
		var m *revlog.Manifest
		m, err = r.Manifest()
		if m != nil {
			rl = m.Revlog
		}
	default:
		return nil, errors.Newf("unknown debug data kind %d", errors.Safe(int(kind)))
	}

	if err != nil {
		return nil, err
	}
	defer rl.Close()

	n, err := ResolveRevNumberOrHexPrefix(rev, rl)
	if err != nil {
		return nil, err
	}

	return rl.RevisionData(n)
}

// manifestAt reads the manifest of the changeset identified by rev.
func (r *Repository) manifestAt(rev string) (plumbing.Node, *revlog.ManifestEntry, error) {
	cl, err := r.Changelog()
	if err != nil {
		return plumbing.Node{}, nil, err
	}
	defer cl.Close()

	crev, err := resolveSingle(rev, cl)
	if err != nil {
		return plumbing.Node{}, nil, err
	}

	node, err := cl.Node(crev)
	if err != nil {
		return plumbing.Node{}, nil, err
	}

	changeset, err := cl.ReadRevision(crev)
	if err != nil {
		return plumbing.Node{}, nil, err
	}

	manifestNode, err := changeset.ManifestNode()
	if err != nil {
		return plumbing.Node{}, nil, err
	}

	if manifestNode.IsNull() {
		return node, &revlog.ManifestEntry{}, nil
	}

	m, err := r.Manifest()
	if err != nil {
		return plumbing.Node{}, nil, err
	}
	defer m.Close()

	entry, err := m.ReadNode(manifestNode.Prefix())
	return node, entry, err
}

// FilesAtRevision returns the paths of the files tracked in the changeset
// identified by rev, sorted.
func (r *Repository) FilesAtRevision(rev string) ([]string, error) {
	_, entry, err := r.manifestAt(rev)
	if err != nil {
		return nil, err
	}

	files, err := entry.Files()
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// CatResult is the content of one file.
type CatResult struct {
	Path string
	Data []byte
}

// CatOutput is the result of Cat.
type CatOutput struct {
	// Node is the node of the changeset the files were read from.
	Node plumbing.Node
	// Results holds the files found, in manifest order.
	Results []CatResult
	// Missing lists the requested files not in the changeset.
	Missing []string
}

// Cat returns the content of files as of the changeset identified by rev.
func (r *Repository) Cat(rev string, files ...string) (*CatOutput, error) {
	node, entry, err := r.manifestAt(rev)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(files))
	for _, f := range files {
		wanted[f] = false
	}

	manifestFiles, err := entry.FilesWithNodes()
	if err != nil {
		return nil, err
	}

	out := &CatOutput{Node: node}
	for _, mf := range manifestFiles {
		if _, ok := wanted[mf.Path]; !ok {
			continue
		}

		data, err := r.readFile(mf)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", mf.Path)
		}

		wanted[mf.Path] = true
		out.Results = append(out.Results, CatResult{Path: mf.Path, Data: data})
	}

	for _, f := range files {
		if !wanted[f] {
			out.Missing = append(out.Missing, f)
		}
	}

	return out, nil
}

func (r *Repository) readFile(mf revlog.ManifestFile) ([]byte, error) {
	fl, err := r.Filelog(mf.Path)
	if err != nil {
		return nil, err
	}
	defer fl.Close()

	return fl.ReadNode(mf.Node.Prefix())
}
