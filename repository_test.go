package hg

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/go-hg/go-hg/config"
	"github.com/go-hg/go-hg/plumbing"
	"github.com/go-hg/go-hg/plumbing/revlog"
	"github.com/go-hg/go-hg/storage/filesystem"
)

var defaultRequires = []string{
	filesystem.RevlogV1Requirement,
	filesystem.StoreRequirement,
	filesystem.FncacheRequirement,
	filesystem.DotencodeRequirement,
	filesystem.GeneralDeltaRequirement,
	filesystem.PersistentNodemapRequirement,
}

// fixture describes the history written by writeHistory: two changesets,
// the first adding README, the second changing it and adding src/main.go.
type fixture struct {
	changesets []plumbing.Node
	manifests  []plumbing.Node
	texts      map[string][]byte
}

type RepositorySuite struct {
	suite.Suite

	fs      billy.Filesystem
	dotHg   billy.Filesystem
	fixture fixture
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.fs = memfs.New()
	s.dotHg = s.chroot(s.fs, "repo/.hg")
	s.writeRequires(s.dotHg, defaultRequires...)
	s.fixture = s.writeHistory(s.chroot(s.dotHg, "store"))
}

func (s *RepositorySuite) chroot(fs billy.Filesystem, path string) billy.Filesystem {
	s.Require().NoError(fs.MkdirAll(path, 0o755))
	sub, err := fs.Chroot(path)
	s.Require().NoError(err)
	return sub
}

func (s *RepositorySuite) writeRequires(fs billy.Filesystem, reqs ...string) {
	s.writeFile(fs, "requires", strings.Join(reqs, "\n")+"\n")
}

func (s *RepositorySuite) writeFile(fs billy.Filesystem, path, content string) {
	s.Require().NoError(util.WriteFile(fs, path, []byte(content), 0o644))
}

func (s *RepositorySuite) add(store *filesystem.Storage, indexPath string, texts ...string) []plumbing.Node {
	w, err := revlog.NewWriter(store, indexPath, revlog.WriterOptions{
		GeneralDelta: true,
		Requirements: filesystem.Requirements{filesystem.PersistentNodemapRequirement: {}},
	})
	s.Require().NoError(err)
	defer func() { s.Require().NoError(w.Close()) }()

	nodes := make([]plumbing.Node, len(texts))
	for i, text := range texts {
		_, nodes[i], err = w.Add([]byte(text), plumbing.Revision(i-1), plumbing.NullRevision, plumbing.Revision(i))
		s.Require().NoError(err)
	}

	_, err = w.UpdateNodemap()
	s.Require().NoError(err)
	return nodes
}

func (s *RepositorySuite) writeHistory(storeFS billy.Filesystem) fixture {
	store := filesystem.NewStorage(storeFS, filesystem.Options{})
	f := fixture{texts: map[string][]byte{
		"README":      []byte("go-hg\n=====\n\nreads Mercurial repositories\n"),
		"src/main.go": []byte("package main\n\nfunc main() {}\n"),
	}}

	readmeIndex, _ := revlog.FilelogPaths("README")
	readme := s.add(store, readmeIndex, "go-hg\n", string(f.texts["README"]))

	mainIndex, _ := revlog.FilelogPaths("src/main.go")
	main := s.add(store, mainIndex, string(f.texts["src/main.go"]))

	f.manifests = s.add(store, revlog.ManifestPath,
		fmt.Sprintf("README\x00%s\n", readme[0]),
		fmt.Sprintf("README\x00%s\nsrc/main.go\x00%sx\n", readme[1], main[0]),
	)

	f.changesets = s.add(store, revlog.ChangelogPath,
		fmt.Sprintf("%s\nJane Doe <jane@example.com>\n1700000000 0\nREADME\n\nfirst", f.manifests[0]),
		fmt.Sprintf("%s\nJane Doe <jane@example.com>\n1700000100 0\nREADME\nsrc/main.go\n\nsecond", f.manifests[1]),
	)

	return f
}

func (s *RepositorySuite) open(o *OpenOptions) *Repository {
	r, err := Open(s.dotHg, o)
	s.Require().NoError(err)
	return r
}

func (s *RepositorySuite) TestOpen() {
	r := s.open(nil)

	s.True(r.Requirements().Has(filesystem.GeneralDeltaRequirement))
	s.Equal(config.DefaultCacheEntries, r.Config().Revlog.CacheEntries)
	s.True(r.Config().Nodemap.Persistent.IsEnabled())

	cl, err := r.Changelog()
	s.Require().NoError(err)
	defer cl.Close()
	s.Equal(2, cl.Len())
	s.NotNil(cl.Nodemap())

	m, err := r.Manifest()
	s.Require().NoError(err)
	defer m.Close()
	s.Equal(2, m.Len())

	fl, err := r.Filelog("README")
	s.Require().NoError(err)
	defer fl.Close()
	s.Equal(2, fl.Len())
}

func (s *RepositorySuite) TestOpenRequirements() {
	for _, reqs := range [][]string{
		append([]string{"exotic-feature"}, defaultRequires...),
		{filesystem.RevlogV1Requirement, filesystem.FncacheRequirement, filesystem.DotencodeRequirement},
		{},
	} {
		s.writeRequires(s.dotHg, reqs...)
		_, err := Open(s.dotHg, nil)
		s.ErrorIs(err, filesystem.ErrUnsupportedRequirement, "%v", reqs)
	}

	s.Require().NoError(s.dotHg.Remove("requires"))
	_, err := Open(s.dotHg, nil)
	s.ErrorIs(err, filesystem.ErrUnsupportedRequirement)
}

func (s *RepositorySuite) TestOpenShareSafe() {
	s.writeRequires(s.dotHg, filesystem.ShareSafeRequirement)
	storeFS := s.chroot(s.dotHg, "store")
	s.writeRequires(storeFS, defaultRequires...)

	r := s.open(nil)
	s.True(r.Requirements().Has(filesystem.ShareSafeRequirement))
	s.True(r.Requirements().Has(filesystem.StoreRequirement))

	s.Require().NoError(storeFS.Remove("requires"))
	_, err := Open(s.dotHg, nil)
	s.ErrorIs(err, filesystem.ErrUnsupportedRequirement)
}

func (s *RepositorySuite) TestOpenShared() {
	share := s.chroot(s.fs, "share/.hg")
	s.writeRequires(share, append([]string{filesystem.SharedRequirement}, defaultRequires...)...)
	s.writeFile(share, "sharedpath", "repo/.hg\n")

	_, err := Open(share, nil)
	s.ErrorIs(err, ErrSharedRootUnset)

	var opened string
	r, err := Open(share, &OpenOptions{SharedRoot: func(p string) (billy.Filesystem, error) {
		opened = p
		return s.fs.Chroot(p)
	}})
	s.Require().NoError(err)
	s.Equal("repo/.hg", opened)

	files, err := r.FilesAtRevision("1")
	s.Require().NoError(err)
	s.Equal([]string{"README", "src/main.go"}, files)
}

func (s *RepositorySuite) TestOpenConfig() {
	s.writeFile(s.dotHg, "hgrc", "[revlog]\ncache-entries = 3\nmmap = no\n[nodemap]\npersistent = no\n")

	r := s.open(nil)
	s.Equal(3, r.Config().Revlog.CacheEntries)
	s.Equal(config.Disabled, r.Config().Revlog.Mmap)
	s.Equal(config.Disabled, r.Config().Nodemap.Persistent)
	s.Equal(config.Enabled, r.Config().Nodemap.Mmap)
	s.Equal("3", r.Config().Raw.GetOption("revlog", "cache-entries"))

	cl, err := r.Changelog()
	s.Require().NoError(err)
	defer cl.Close()
	s.Nil(cl.Nodemap())

	override := config.NewConfig()
	override.Revlog.CacheEntries = -1
	override.Nodemap.Persistent = config.Enabled
	r = s.open(&OpenOptions{Config: override})
	s.Equal(-1, r.Config().Revlog.CacheEntries)
	s.Equal(0, r.revlogOptions().CacheEntries)
	s.True(r.Config().Nodemap.Persistent.IsEnabled())
	s.Equal(config.Disabled, r.Config().Revlog.Mmap)
}

func (s *RepositorySuite) TestOpenBadConfig() {
	s.writeFile(s.dotHg, "hgrc", "[revlog\ncache-entries = 3\n")
	_, err := Open(s.dotHg, nil)
	s.ErrorContains(err, "hgrc")
}

func (s *RepositorySuite) TestPlainOpenNotExists() {
	_, err := PlainOpen(s.T().TempDir(), nil)
	s.ErrorIs(err, ErrRepositoryNotExists)
}

func (s *RepositorySuite) TestMetrics() {
	m := revlog.NewMetrics()
	r := s.open(&OpenOptions{Metrics: m})

	out, err := r.Cat("1", "README")
	s.Require().NoError(err)
	s.Len(out.Results, 1)

	// changeset, manifest and file
	s.Equal(3.0, testutil.ToFloat64(m.RevisionsRead))
}
