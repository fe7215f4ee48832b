package revlog

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/storage/filesystem"
)

// ChangelogPath is the path of the changelog index in a store.
const ChangelogPath = "00changelog.i"

// Changelog is the revlog of changesets.
type Changelog struct {
	*Revlog
}

// OpenChangelog opens the changelog of store.
func OpenChangelog(store *filesystem.Storage, o Options) (*Changelog, error) {
	rl, err := Open(store, ChangelogPath, "", o)
	if err != nil {
		return nil, err
	}

	return &Changelog{rl}, nil
}

// ReadRevision returns the changeset stored at rev.
func (c *Changelog) ReadRevision(rev plumbing.Revision) (*ChangelogEntry, error) {
	data, err := c.RevisionData(rev)
	if err != nil {
		return nil, err
	}

	return &ChangelogEntry{Raw: data}, nil
}

// ReadNode returns the changeset whose node starts with prefix.
func (c *Changelog) ReadNode(prefix plumbing.NodePrefix) (*ChangelogEntry, error) {
	rev, err := c.NodeRevision(prefix)
	if err != nil {
		return nil, err
	}

	return c.ReadRevision(rev)
}

// ChangelogEntry is a changeset. Its text is made of the manifest node,
// the committer, the date, the changed files, one per line, then an empty
// line and the description.
type ChangelogEntry struct {
	Raw []byte
}

func (e *ChangelogEntry) header() ([]string, []byte) {
	head, desc, _ := bytes.Cut(e.Raw, []byte("\n\n"))
	return strings.Split(string(head), "\n"), desc
}

// ManifestNode returns the node of the manifest of the changeset. It is
// NullNode for the empty changeset of NullRevision.
func (e *ChangelogEntry) ManifestNode() (plumbing.Node, error) {
	if len(e.Raw) == 0 {
		return plumbing.NullNode, nil
	}

	line, _, _ := bytes.Cut(e.Raw, []byte{'\n'})
	n, err := plumbing.NodeFromHex(string(line))
	if err != nil {
		return plumbing.Node{}, plumbing.CorruptedErrorf("changeset manifest node %q", line)
	}

	return n, nil
}

// User returns the committer of the changeset.
func (e *ChangelogEntry) User() string {
	lines, _ := e.header()
	if len(lines) < 2 {
		return ""
	}

	return lines[1]
}

// Date returns the commit date, in the time zone of the committer.
func (e *ChangelogEntry) Date() (time.Time, error) {
	lines, _ := e.header()
	if len(lines) < 3 {
		return time.Time{}, plumbing.CorruptedErrorf("changeset has no date line")
	}

	fields := strings.SplitN(lines[2], " ", 3)
	if len(fields) < 2 {
		return time.Time{}, plumbing.CorruptedErrorf("changeset date %q", lines[2])
	}

	secs, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return time.Time{}, plumbing.CorruptedErrorf("changeset date %q", lines[2])
	}

	// the offset is stored in seconds west of UTC
	offset, err := strconv.Atoi(fields[1])
	if err != nil {
		return time.Time{}, plumbing.CorruptedErrorf("changeset time zone %q", lines[2])
	}

	return time.Unix(int64(secs), 0).In(time.FixedZone("", -offset)), nil
}

// Extra returns the extra fields stored after the date.
func (e *ChangelogEntry) Extra() map[string]string {
	lines, _ := e.header()
	extra := map[string]string{}
	if len(lines) < 3 {
		return extra
	}

	fields := strings.SplitN(lines[2], " ", 3)
	if len(fields) < 3 {
		return extra
	}

	for _, kv := range strings.Split(fields[2], "\x00") {
		k, v, ok := strings.Cut(unescapeExtra(kv), ":")
		if ok {
			extra[k] = v
		}
	}

	return extra
}

var extraUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r", `\0`, "\x00")

func unescapeExtra(s string) string {
	return extraUnescaper.Replace(s)
}

// Files returns the files changed by the changeset.
func (e *ChangelogEntry) Files() []string {
	lines, _ := e.header()
	if len(lines) <= 3 {
		return nil
	}

	var files []string
	for _, l := range lines[3:] {
		if l != "" {
			files = append(files, l)
		}
	}

	return files
}

// Description returns the commit message.
func (e *ChangelogEntry) Description() string {
	_, desc := e.header()
	return string(desc)
}
