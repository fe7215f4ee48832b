package mmap

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fs      func(t *testing.T) billy.Filesystem
		content []byte
		useMmap bool
	}{
		{
			name:    "osfs mapped",
			fs:      func(t *testing.T) billy.Filesystem { return osfs.New(t.TempDir(), osfs.WithBoundOS()) },
			content: []byte("revlog bytes"),
			useMmap: true,
		},
		{
			name:    "osfs read",
			fs:      func(t *testing.T) billy.Filesystem { return osfs.New(t.TempDir(), osfs.WithBoundOS()) },
			content: []byte("revlog bytes"),
		},
		{
			name:    "osfs empty file",
			fs:      func(t *testing.T) billy.Filesystem { return osfs.New(t.TempDir(), osfs.WithBoundOS()) },
			content: []byte{},
			useMmap: true,
		},
		{
			name:    "memfs falls back to reading",
			fs:      func(t *testing.T) billy.Filesystem { return memfs.New() },
			content: []byte("in memory"),
			useMmap: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fs := tc.fs(t)
			require.NoError(t, util.WriteFile(fs, "file", tc.content, 0o644))

			f, err := fs.Open("file")
			require.NoError(t, err)

			b, err := Open(f, tc.useMmap)
			require.NoError(t, err)
			assert.Equal(t, len(tc.content), b.Len())
			if len(tc.content) > 0 {
				assert.Equal(t, tc.content, b.Bytes())
			}
			assert.NoError(t, b.Close())
			assert.Nil(t, b.Bytes())
		})
	}
}

func TestOpenNilFile(t *testing.T) {
	t.Parallel()

	_, err := Open(nil, true)
	assert.ErrorIs(t, err, ErrNilFile)
}

func TestOwned(t *testing.T) {
	t.Parallel()

	b := Owned([]byte("abcdef"))
	assert.False(t, b.IsMapped())
	assert.Equal(t, []byte("cd"), b.Slice(2, 4).Bytes())
	assert.NoError(t, b.Close())

	var zero Bytes
	assert.Equal(t, 0, zero.Len())
	assert.NoError(t, zero.Close())
}
