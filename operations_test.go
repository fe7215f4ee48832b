package hg

import (
	"fmt"
	"strings"

	"github.com/go-hg/go-hg/plumbing"
)

func (s *RepositorySuite) TestResolveSingle() {
	r := s.open(nil)

	for _, tc := range []struct {
		input string
		rev   plumbing.Revision
		err   error
	}{
		{input: "0", rev: 0},
		{input: "1", rev: 1},
		{input: s.fixture.changesets[1].String(), rev: 1},
		{input: s.fixture.changesets[0].String()[:12], rev: 0},
		{input: "null", rev: plumbing.NullRevision},
		{input: "ffff", err: plumbing.ErrWorkingDirectoryUnsupported},
		{input: plumbing.WorkingDirectoryHex, err: plumbing.ErrWorkingDirectoryUnsupported},
		{input: "tip", err: ErrUnsupportedRevset},
		{input: "-1", err: ErrUnsupportedRevset},
	} {
		rev, err := r.ResolveSingle(tc.input)
		if tc.err != nil {
			s.ErrorIs(err, tc.err, tc.input)
			continue
		}

		s.Require().NoError(err, tc.input)
		s.Equal(tc.rev, rev, tc.input)
	}
}

func (s *RepositorySuite) TestResolveRevNumberOrHexPrefix() {
	r := s.open(nil)
	m, err := r.Manifest()
	s.Require().NoError(err)
	defer m.Close()

	rev, err := ResolveRevNumberOrHexPrefix(s.fixture.manifests[1].String()[:10], m.Revlog)
	s.Require().NoError(err)
	s.Equal(plumbing.Revision(1), rev)

	rev, err = ResolveRevNumberOrHexPrefix("0", m.Revlog)
	s.Require().NoError(err)
	s.Equal(plumbing.Revision(0), rev)

	_, err = ResolveRevNumberOrHexPrefix("null", m.Revlog)
	s.ErrorIs(err, plumbing.ErrInvalidRevision)
}

func (s *RepositorySuite) TestFilesAtRevision() {
	r := s.open(nil)

	files, err := r.FilesAtRevision("0")
	s.Require().NoError(err)
	s.Equal([]string{"README"}, files)

	files, err = r.FilesAtRevision(s.fixture.changesets[1].String()[:8])
	s.Require().NoError(err)
	s.Equal([]string{"README", "src/main.go"}, files)

	files, err = r.FilesAtRevision("null")
	s.Require().NoError(err)
	s.Empty(files)
}

func (s *RepositorySuite) TestCat() {
	r := s.open(nil)

	out, err := r.Cat("1", "src/main.go", "missing", "README")
	s.Require().NoError(err)
	s.Equal(s.fixture.changesets[1], out.Node)
	s.Equal([]CatResult{
		{Path: "README", Data: s.fixture.texts["README"]},
		{Path: "src/main.go", Data: s.fixture.texts["src/main.go"]},
	}, out.Results)
	s.Equal([]string{"missing"}, out.Missing)

	out, err = r.Cat("0", "README", "src/main.go")
	s.Require().NoError(err)
	s.Equal([]CatResult{{Path: "README", Data: []byte("go-hg\n")}}, out.Results)
	s.Equal([]string{"src/main.go"}, out.Missing)

	_, err = r.Cat(strings.Repeat("2", plumbing.NodeHexSize), "README")
	s.ErrorIs(err, plumbing.ErrInvalidRevision)
}

func (s *RepositorySuite) TestDebugData() {
	r := s.open(nil)

	data, err := r.DebugData(DebugDataChangelog, "1")
	s.Require().NoError(err)
	s.True(strings.HasPrefix(string(data), s.fixture.manifests[1].String()+"\n"))
	s.True(strings.HasSuffix(string(data), "\n\nsecond"))

	data, err = r.DebugData(DebugDataManifest, s.fixture.manifests[0].String())
	s.Require().NoError(err)
	s.True(strings.HasPrefix(string(data), "README\x00"))

	_, err = r.DebugData(DebugDataKind(7), "0")
	s.Error(err)

	_, err = r.DebugData(DebugDataManifest, "ffffff")
	s.ErrorIs(err, plumbing.ErrWorkingDirectoryUnsupported)

	s.Equal("manifest", fmt.Sprint(DebugDataManifest))
}
