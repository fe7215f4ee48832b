package hg

import (
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/plumbing/revlog"
)

// ErrUnsupportedRevset is returned for revision expressions other than
// revision numbers, node prefixes and "null".
var ErrUnsupportedRevset = errors.New("unsupported revset")

// ResolveSingle returns the changelog revision identified by input: a
// revision number, a node prefix, or "null".
func (r *Repository) ResolveSingle(input string) (plumbing.Revision, error) {
	cl, err := r.Changelog()
	if err != nil {
		return 0, err
	}
	defer cl.Close()

	return resolveSingle(input, cl)
}

func resolveSingle(input string, cl *revlog.Changelog) (plumbing.Revision, error) {
	rev, err := ResolveRevNumberOrHexPrefix(input, cl.Revlog)
	if !errors.Is(err, plumbing.ErrInvalidRevision) {
		return rev, err
	}

	if input == "null" {
		return plumbing.NullRevision, nil
	}

	// a well formed prefix matching nothing
	if _, perr := plumbing.NodePrefixFromHex(input); perr == nil {
		return 0, err
	}

	return 0, errors.Wrapf(ErrUnsupportedRevset, "cannot parse revset %q", input)
}

// ResolveRevNumberOrHexPrefix returns the revision of rl identified by
// input: a revision number of rl, or else a prefix of the node of a single
// revision. It suits revlogs other than the changelog, which have no
// names.
func ResolveRevNumberOrHexPrefix(input string, rl *revlog.Revlog) (plumbing.Revision, error) {
	if n, err := strconv.ParseInt(input, 10, 32); err == nil && n >= 0 && rl.HasRevision(plumbing.Revision(n)) {
		return plumbing.Revision(n), nil
	}

	prefix, err := plumbing.NodePrefixFromHex(input)
	if err != nil {
		return 0, errors.Wrapf(plumbing.ErrInvalidRevision, "%q", input)
	}

	if prefix.IsPrefixOf(plumbing.WorkingDirectoryNode) {
		return 0, plumbing.ErrWorkingDirectoryUnsupported
	}

	return rl.NodeRevision(prefix)
}
