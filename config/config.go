// Package config contains the typed settings read from hgrc files.
package config

import (
	"bytes"
	"os"

	"dario.cat/mergo"
	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	format "github.com/go-hg/go-hg/plumbing/format/config"
)

const (
	revlogSection  = "revlog"
	nodemapSection = "nodemap"

	mmapKey         = "mmap"
	cacheEntriesKey = "cache-entries"
	persistentKey   = "persistent"

	// DefaultCacheEntries is the default number of revision texts kept in
	// memory by each revlog.
	DefaultCacheEntries = 64
)

// Toggle is a boolean setting that may be left unset, which is its zero
// value.
type Toggle uint8

const (
	Unset Toggle = iota
	Enabled
	Disabled
)

// ToggleOf returns the Toggle set to b.
func ToggleOf(b bool) Toggle {
	if b {
		return Enabled
	}

	return Disabled
}

// IsEnabled tells whether the toggle is set and true.
func (t Toggle) IsEnabled() bool {
	return t == Enabled
}

// Config holds the settings of a repository. Zero values stand for unset
// settings, filled from lower precedence sources by Merge.
type Config struct {
	Revlog struct {
		// Mmap maps revlog files into memory instead of reading them.
		Mmap Toggle
		// CacheEntries is the size of the decoded revision cache. A
		// negative value disables the cache.
		CacheEntries int
	}

	Nodemap struct {
		// Persistent enables the use of persisted node maps, when the
		// repository has them.
		Persistent Toggle
		// Mmap maps node map data files into memory.
		Mmap Toggle
	}

	// Raw contains the raw information of a config file.
	Raw *format.Config
}

// NewConfig returns a new empty Config.
func NewConfig() *Config {
	return &Config{Raw: format.New()}
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	c := NewConfig()
	c.Revlog.Mmap = Enabled
	c.Revlog.CacheEntries = DefaultCacheEntries
	c.Nodemap.Persistent = Enabled
	c.Nodemap.Mmap = Enabled
	return c
}

// Unmarshal parses an hgrc file into a Config.
func (c *Config) Unmarshal(b []byte) error {
	raw := format.New()
	if err := format.NewDecoder(bytes.NewReader(b)).Decode(raw); err != nil {
		return err
	}

	return c.unmarshal(raw)
}

func (c *Config) unmarshal(raw *format.Config) error {
	c.Raw = raw

	var err error
	if c.Revlog.Mmap, err = toggle(raw, revlogSection, mmapKey); err != nil {
		return err
	}

	if c.Revlog.CacheEntries, err = raw.GetInt(revlogSection, cacheEntriesKey, 0); err != nil {
		return err
	}

	if c.Nodemap.Persistent, err = toggle(raw, nodemapSection, persistentKey); err != nil {
		return err
	}

	c.Nodemap.Mmap, err = toggle(raw, nodemapSection, mmapKey)
	return err
}

func toggle(raw *format.Config, section, key string) (Toggle, error) {
	if _, ok := raw.LookupOption(section, key); !ok {
		return Unset, nil
	}

	b, err := raw.GetBool(section, key, false)
	if err != nil {
		return Unset, err
	}

	return ToggleOf(b), nil
}

// FromMerged builds a Config from the config files of every scope.
func FromMerged(m *format.Merged) (*Config, error) {
	c := NewConfig()
	return c, c.unmarshal(m.Flatten())
}

// Merge fills the unset settings of c with the ones of src.
func (c *Config) Merge(src *Config) error {
	raw := c.Raw
	c.Raw = nil
	if err := mergo.Merge(c, src); err != nil {
		c.Raw = raw
		return errors.Wrap(err, "merging config")
	}

	if raw != nil {
		c.Raw = raw
	}
	return nil
}

// ReadFile reads the hgrc file at path of fs into a new format.Config. A
// missing file gives an empty one.
func ReadFile(fs billy.Filesystem, path string) (*format.Config, error) {
	raw := format.New()
	b, err := util.ReadFile(fs, path)
	if os.IsNotExist(err) {
		return raw, nil
	}

	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	if err := format.NewDecoder(bytes.NewReader(b)).Decode(raw); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	return raw, nil
}
