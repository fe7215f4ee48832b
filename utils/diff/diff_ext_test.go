package diff_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/suite"

	"github.com/go-hg/go-hg/utils/diff"
)

type DiffSuite struct {
	suite.Suite
}

func TestDiffSuite(t *testing.T) {
	suite.Run(t, new(DiffSuite))
}

var roundTrips = [...]struct {
	src, dst string
}{
	{"", ""},
	{"a\n", "a\n"},
	{"", "\n"},
	{"\n", ""},
	{"a", "a\n"},
	{"line 1\nline 2\nline 3\n", "line 1\nline 3\n"},
	{"manifest\x00entry\n", "manifest\x00entry\nnew\x00file\n"},
	{"\xff\xfe binary\n", "\xff\xfd binary\n"},
}

func (s *DiffSuite) TestRoundTrips() {
	for i, t := range roundTrips {
		var src, dst strings.Builder
		for _, d := range diff.Do(t.src, t.dst) {
			if d.Type != diffmatchpatch.DiffInsert {
				src.WriteString(d.Text)
			}

			if d.Type != diffmatchpatch.DiffDelete {
				dst.WriteString(d.Text)
			}
		}

		s.Equal(t.src, src.String(), fmt.Sprintf("subtest %d, bad calculated src", i))
		s.Equal(t.dst, dst.String(), fmt.Sprintf("subtest %d, bad calculated dst", i))
	}
}

func (s *DiffSuite) TestDo() {
	s.Equal([]diffmatchpatch.Diff{
		{Type: diffmatchpatch.DiffInsert, Text: "abc\ncba"},
	}, diff.Do("", "abc\ncba"))

	s.Equal([]diffmatchpatch.Diff{
		{Type: diffmatchpatch.DiffDelete, Text: "abc\ncba"},
	}, diff.Do("abc\ncba", ""))

	s.Equal([]diffmatchpatch.Diff{
		{Type: diffmatchpatch.DiffEqual, Text: "a\n"},
		{Type: diffmatchpatch.DiffDelete, Text: "b\n"},
		{Type: diffmatchpatch.DiffEqual, Text: "c\n"},
	}, diff.Do("a\nb\nc\n", "a\nc\n"))
}
