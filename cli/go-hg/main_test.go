package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/plumbing/format/nodemap"
	"github.com/go-hg/go-hg/plumbing/revlog"
	"github.com/go-hg/go-hg/storage/filesystem"
)

type testRepo struct {
	root       string
	changesets []plumbing.Node
	manifests  []plumbing.Node
}

func writeRevlog(t *testing.T, store *filesystem.Storage, indexPath string, texts ...string) []plumbing.Node {
	t.Helper()

	w, err := revlog.NewWriter(store, indexPath, revlog.WriterOptions{GeneralDelta: true})
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Close()) }()

	nodes := make([]plumbing.Node, len(texts))
	for i, text := range texts {
		_, nodes[i], err = w.Add([]byte(text), plumbing.Revision(i-1), plumbing.NullRevision, plumbing.Revision(i))
		require.NoError(t, err)
	}

	return nodes
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()

	r := &testRepo{root: t.TempDir()}
	dotHg := filepath.Join(r.root, ".hg")
	require.NoError(t, os.MkdirAll(filepath.Join(dotHg, "store"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dotHg, "requires"), []byte(strings.Join([]string{
		filesystem.RevlogV1Requirement,
		filesystem.StoreRequirement,
		filesystem.FncacheRequirement,
		filesystem.DotencodeRequirement,
		filesystem.GeneralDeltaRequirement,
		filesystem.PersistentNodemapRequirement,
	}, "\n")+"\n"), 0o644))

	store := filesystem.NewStorage(osfs.New(filepath.Join(dotHg, "store")), filesystem.Options{})

	readmeIndex, _ := revlog.FilelogPaths("README")
	readme := writeRevlog(t, store, readmeIndex, "one\n", "one\ntwo\n")

	r.manifests = writeRevlog(t, store, revlog.ManifestPath,
		fmt.Sprintf("README\x00%s\n", readme[0]),
		fmt.Sprintf("README\x00%s\n", readme[1]),
	)

	r.changesets = writeRevlog(t, store, revlog.ChangelogPath,
		fmt.Sprintf("%s\nJane Doe <jane@example.com>\n1700000000 0\nREADME\n\nfirst", r.manifests[0]),
		fmt.Sprintf("%s\nJane Doe <jane@example.com>\n1700000100 0\nREADME\n\nsecond", r.manifests[1]),
	)

	return r
}

// run executes the tool against the repository, returning its outputs.
func (r *testRepo) run(t *testing.T, args ...string) (stdout, stderr string, failed bool, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	a := newApp(&out, &errOut)
	a.root.SetArgs(append([]string{"-R", r.root}, args...))
	err = a.root.Execute()
	return out.String(), errOut.String(), a.failed, err
}

func TestCat(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)

	out, _, failed, err := r.run(t, "cat", "README")
	require.NoError(t, err)
	assert.False(t, failed)
	assert.Equal(t, "one\ntwo\n", out)

	out, _, _, err = r.run(t, "cat", "-r", "0", "README")
	require.NoError(t, err)
	assert.Equal(t, "one\n", out)

	out, _, _, err = r.run(t, "cat", "-r", r.changesets[0].String()[:6], "README")
	require.NoError(t, err)
	assert.Equal(t, "one\n", out)

	out, stderr, failed, err := r.run(t, "cat", "README", "missing")
	require.NoError(t, err)
	assert.True(t, failed)
	assert.Equal(t, "one\ntwo\n", out)
	assert.Equal(t, fmt.Sprintf("missing: no such file in rev %s\n", r.changesets[1].Short()), stderr)

	_, _, _, err = r.run(t, "cat")
	assert.Error(t, err)
}

func TestFiles(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)

	out, _, failed, err := r.run(t, "files")
	require.NoError(t, err)
	assert.False(t, failed)
	assert.Equal(t, "README\n", out)

	out, _, failed, err = r.run(t, "files", "-r", "null")
	require.NoError(t, err)
	assert.True(t, failed)
	assert.Empty(t, out)

	_, _, _, err = r.run(t, "files", "-r", "tip~2")
	assert.Error(t, err)
}

func TestDebugData(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)

	out, _, _, err := r.run(t, "debugdata", "-m", "1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "README\x00"))

	out, _, _, err = r.run(t, "debugdata", "-c", r.changesets[0].String())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\n\nfirst"))

	_, _, _, err = r.run(t, "debugdata", "0")
	assert.Error(t, err)

	_, _, _, err = r.run(t, "debugdata", "-c", "-m", "0")
	assert.Error(t, err)

	_, _, _, err = r.run(t, "debugdata", "-c", "ffff")
	assert.ErrorIs(t, err, plumbing.ErrWorkingDirectoryUnsupported)
}

func TestDebugIndex(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)

	out, _, _, err := r.run(t, "debugindex", "-c")
	require.NoError(t, err)
	assert.Contains(t, out, "LINKREV")
	assert.Contains(t, out, r.changesets[0].Short().String())
	assert.Contains(t, out, r.changesets[1].Short().String())

	out, _, _, err = r.run(t, "debugindex", "README")
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, "\n"), out)

	_, _, _, err = r.run(t, "debugindex")
	assert.Error(t, err)
}

func TestDebugNodemap(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)

	out, _, _, err := r.run(t, "debugnodemap", "dump", "-c")
	require.NoError(t, err)
	assert.Zero(t, len(out)%nodemap.BlockSize)
	assert.NotEmpty(t, out)

	out, _, _, err = r.run(t, "debugnodemap", "create", "-c")
	require.NoError(t, err)
	assert.Contains(t, out, "tip-rev: 1\n")

	_, err = os.Stat(filepath.Join(r.root, ".hg", "store", nodemap.DocketPath(revlog.ChangelogPath)))
	require.NoError(t, err)

	node := r.changesets[1].String()
	out, _, _, err = r.run(t, "debugnodemap", "query", "-c", node)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, node+" 1 "), out)

	out, _, _, err = r.run(t, "debugnodemap", "bench", "-c", "-n", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "nodemap=false lookups=10")
	assert.Contains(t, out, "nodemap=true  lookups=10")

	_, _, _, err = r.run(t, "debugnodemap", "query", "-c", "zz")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)

	out, _, _, err := r.run(t, "verify")
	require.NoError(t, err)
	assert.Equal(t, "checked 6 revisions\n", out)

	out, _, _, err = r.run(t, "verify", "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, "hg_revlog_revisions_read_total")
	assert.Contains(t, out, "hg_revlog_delta_chain_length_count")
}

func TestVerifyCorrupted(t *testing.T) {
	t.Parallel()
	r := newTestRepo(t)

	readmeIndex, _ := revlog.FilelogPaths("README")
	path := filepath.Join(r.root, ".hg", "store", readmeIndex)
	b, err := os.ReadFile(path)
	require.NoError(t, err)

	// the last byte belongs to the text of the second revision
	b[len(b)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, b, 0o644))

	_, _, _, err = r.run(t, "verify")
	assert.ErrorIs(t, err, plumbing.ErrCorrupted)
}

func TestNotARepository(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	a := newApp(&out, &errOut)
	a.root.SetArgs([]string{"-R", t.TempDir(), "files"})
	assert.Error(t, a.root.Execute())
}
