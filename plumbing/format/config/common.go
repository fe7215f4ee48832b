// Package config implements decoding of hgrc files: sections holding
// key = value options.
package config

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// New creates a new config instance.
func New() *Config {
	return &Config{}
}

// Config contains all the sections of a config file, in file order.
type Config struct {
	Sections Sections
}

// Section returns an existing section with the given name or creates a new
// one.
func (c *Config) Section(name string) *Section {
	for i := len(c.Sections) - 1; i >= 0; i-- {
		s := c.Sections[i]
		if s.IsName(name) {
			return s
		}
	}

	s := &Section{Name: name}
	c.Sections = append(c.Sections, s)
	return s
}

// HasSection checks if the Config has a section with the specified name.
func (c *Config) HasSection(name string) bool {
	for _, s := range c.Sections {
		if s.IsName(name) {
			return true
		}
	}
	return false
}

// AddOption adds an option to a given section.
func (c *Config) AddOption(section string, key string, value string) *Config {
	c.Section(section).AddOption(key, value)
	return c
}

// SetOption sets an option of a given section, replacing previous values.
func (c *Config) SetOption(section string, key string, value string) *Config {
	c.Section(section).SetOption(key, value)
	return c
}

// GetOption returns the last value of the option, or the empty string if
// the option is not set.
func (c *Config) GetOption(section string, key string) string {
	v, _ := c.LookupOption(section, key)
	return v
}

// LookupOption is like GetOption, also telling whether the option is set.
func (c *Config) LookupOption(section string, key string) (string, bool) {
	for i := len(c.Sections) - 1; i >= 0; i-- {
		s := c.Sections[i]
		if s.IsName(section) && s.HasOption(key) {
			return s.Option(key), true
		}
	}

	return "", false
}

// GetBool parses the option as a boolean. def is returned when the option
// is not set.
func (c *Config) GetBool(section string, key string, def bool) (bool, error) {
	v, ok := c.LookupOption(section, key)
	if !ok {
		return def, nil
	}

	b, ok := ParseBool(v)
	if !ok {
		return def, errors.Newf("%s.%s is not a boolean: %q", section, key, v)
	}

	return b, nil
}

// GetInt parses the option as an integer. def is returned when the option
// is not set.
func (c *Config) GetInt(section string, key string, def int) (int, error) {
	v, ok := c.LookupOption(section, key)
	if !ok {
		return def, nil
	}

	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, errors.Wrapf(err, "%s.%s is not an integer", section, key)
	}

	return i, nil
}

// ParseBool reads the boolean spellings accepted in hgrc files.
func ParseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "yes", "true", "on", "always":
		return true, true
	case "0", "no", "false", "off", "never":
		return false, true
	}

	return false, false
}
