package config

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	format "github.com/go-hg/go-hg/plumbing/format/config"
)

type ConfigSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) TestUnmarshal() {
	input := []byte(`
[revlog]
mmap = off
cache-entries = 12
[nodemap]
persistent = yes
`)

	cfg := NewConfig()
	s.NoError(cfg.Unmarshal(input))
	s.Equal(Disabled, cfg.Revlog.Mmap)
	s.Equal(12, cfg.Revlog.CacheEntries)
	s.Equal(Enabled, cfg.Nodemap.Persistent)
	s.Equal(Unset, cfg.Nodemap.Mmap)
	s.Equal("off", cfg.Raw.GetOption("revlog", "mmap"))
}

func (s *ConfigSuite) TestUnmarshalInvalid() {
	cfg := NewConfig()
	s.Error(cfg.Unmarshal([]byte("[revlog]\nmmap = sometimes\n")))
	s.Error(cfg.Unmarshal([]byte("[revlog]\ncache-entries = many\n")))
	s.Error(cfg.Unmarshal([]byte("mmap = yes\n")))
}

func (s *ConfigSuite) TestMerge() {
	opts := NewConfig()
	opts.Nodemap.Persistent = Disabled

	file := NewConfig()
	s.NoError(file.Unmarshal([]byte("[revlog]\nmmap = no\n[nodemap]\npersistent = yes\n")))

	s.NoError(opts.Merge(file))
	s.NoError(opts.Merge(Default()))

	s.Equal(Disabled, opts.Revlog.Mmap)
	s.Equal(DefaultCacheEntries, opts.Revlog.CacheEntries)
	s.Equal(Disabled, opts.Nodemap.Persistent)
	s.True(opts.Nodemap.Mmap.IsEnabled())
}

func (s *ConfigSuite) TestFromMerged() {
	m := format.NewMerged()
	m.ScopedConfig(format.GlobalScope).AddOption("revlog", "cache-entries", "3")
	m.LocalConfig().AddOption("revlog", "cache-entries", "5")

	cfg, err := FromMerged(m)
	s.NoError(err)
	s.Equal(5, cfg.Revlog.CacheEntries)
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	fs := memfs.New()
	raw, err := ReadFile(fs, "hgrc")
	require.NoError(t, err)
	assert.Empty(t, raw.Sections)

	require.NoError(t, util.WriteFile(fs, "hgrc", []byte("[revlog]\nmmap = yes\n"), 0o644))
	raw, err = ReadFile(fs, "hgrc")
	require.NoError(t, err)
	assert.Equal(t, "yes", raw.GetOption("revlog", "mmap"))

	require.NoError(t, util.WriteFile(fs, "broken", []byte("[revlog\n"), 0o644))
	_, err = ReadFile(fs, "broken")
	assert.ErrorContains(t, err, "parsing broken")
}

func TestToggleOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Enabled, ToggleOf(true))
	assert.Equal(t, Disabled, ToggleOf(false))
	assert.False(t, Unset.IsEnabled())
}
